package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gloveiq-importer/models"
)

func sampleExports() *models.Exports {
	size := 11.5
	listing := &models.Listing{
		ListingPK:       "SS:1",
		GloveID:         "variant:wilson:wbw100396115:11-5:rht",
		RecordType:      models.RecordVariant,
		Source:          "SS",
		SourceListingID: "1",
		URL:             "https://sidelineswap.com/items?id=1&ref=x",
		Title:           "Wilson A2000",
		CanonicalName:   `Wilson WBW100396115 11.5"`,
		Brand:           "Wilson",
		Model:           "WBW100396115",
		ModelCode:       "WBW100396115",
		SizeIn:          &size,
		ThrowHand:       "RHT",
		PlayerPosition:  "IF",
		WebType:         "H-Web",
		Sport:           "baseball",
		Condition:       "Used",
		Currency:        "USD",
		Specs:           map[string]*string{"web": strPtr("H-Web"), "color": nil},
		SpecConfidence:  map[string]float64{"web": 0.92, "color": 0},
		RawSpecs:        map[string]any{},
		Images:          []string{"https://x/a.jpg"},
	}
	report := &models.ImportReport{
		RunID:            "test-run",
		GeneratedAt:      "2026-09-01T00:00:00Z",
		InputXLSX:        "/tmp/in.xlsx",
		RowsScanned:      map[string]int{"Catalog": 1},
		ListingsTotal:    1,
		ListingsBySource: map[string]int{"SS": 1},
		ListingsByType:   map[string]int{"variant": 1},
		Errors:           []string{},
		Warnings:         []string{},
		DefaultsApplied:  map[string]int{},
	}
	return &models.Exports{
		Listings: []*models.Listing{listing},
		RawRows: []*models.RawRowRecord{{
			ListingPK:     "SS:1",
			Source:        "SS",
			SourceSheet:   "Catalog",
			SourceRow:     2,
			SourceColumns: map[string]string{"listing_id": "1"},
			ParsedDocs:    map[string]any{},
		}},
		MediaManifest: []*models.MediaManifestEntry{{
			ListingPK:        "SS:1",
			Source:           "SS",
			SourceListingID:  "1",
			OrderedImageURLs: []string{"https://x/a.jpg"},
			ImageMappings:    []models.MediaMapping{},
		}},
		Report: report,
	}
}

func strPtr(s string) *string { return &s }

func TestWriteExportsArtifacts(t *testing.T) {
	dir := t.TempDir()
	w, err := NewExportWriter(dir, true)
	if err != nil {
		t.Fatalf("NewExportWriter failed: %v", err)
	}

	if err := w.WriteExports(sampleExports()); err != nil {
		t.Fatalf("WriteExports failed: %v", err)
	}

	for _, p := range []string{w.NormalizedPath(), w.RawPath(), w.ManifestPath(), w.ReportPath()} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected artifact %s: %v", p, err)
		}
	}

	// No temp files may survive a successful write.
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestWriteExportsCanonicalEncoding(t *testing.T) {
	dir := t.TempDir()
	w, err := NewExportWriter(dir, true)
	if err != nil {
		t.Fatalf("NewExportWriter failed: %v", err)
	}
	if err := w.WriteExports(sampleExports()); err != nil {
		t.Fatalf("WriteExports failed: %v", err)
	}

	data, err := os.ReadFile(w.NormalizedPath())
	if err != nil {
		t.Fatalf("read normalized: %v", err)
	}
	line := strings.TrimRight(string(data), "\n")

	// Keys sorted alphabetically: brand is the first listing field.
	if !strings.HasPrefix(line, `{"brand":`) {
		t.Errorf("keys not sorted, line starts with %q", line[:20])
	}
	// URLs must not be HTML-escaped.
	if !strings.Contains(line, "id=1&ref=x") {
		t.Errorf("ampersand was escaped in %q", line)
	}
	// Null spec slots survive as JSON null.
	if !strings.Contains(line, `"color":null`) {
		t.Errorf("nil spec value not encoded as null")
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("normalized line is not valid JSON: %v", err)
	}
	if decoded["listing_pk"] != "SS:1" {
		t.Errorf("listing_pk = %v", decoded["listing_pk"])
	}
}

func TestWriteExportsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := NewExportWriter(dir, true)
	if err != nil {
		t.Fatalf("NewExportWriter failed: %v", err)
	}

	if err := w.WriteExports(sampleExports()); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	first, _ := os.ReadFile(w.NormalizedPath())
	firstManifest, _ := os.ReadFile(w.ManifestPath())

	if err := w.WriteExports(sampleExports()); err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	second, _ := os.ReadFile(w.NormalizedPath())
	secondManifest, _ := os.ReadFile(w.ManifestPath())

	if !bytes.Equal(first, second) {
		t.Errorf("normalized output not byte-identical across runs")
	}
	if !bytes.Equal(firstManifest, secondManifest) {
		t.Errorf("manifest output not byte-identical across runs")
	}
}

func TestWriteExportsRawOptional(t *testing.T) {
	dir := t.TempDir()
	w, err := NewExportWriter(dir, false)
	if err != nil {
		t.Fatalf("NewExportWriter failed: %v", err)
	}

	exports := sampleExports()
	if err := w.WriteExports(exports); err != nil {
		t.Fatalf("WriteExports failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, RawFileName)); !os.IsNotExist(err) {
		t.Errorf("raw file should not exist when disabled")
	}
	if exports.Report.OutputFiles["raw"] != nil {
		t.Errorf("output_files.raw should be null when raw export is disabled")
	}
	if exports.Report.OutputFiles["normalized"] == nil {
		t.Errorf("output_files.normalized missing")
	}
}
