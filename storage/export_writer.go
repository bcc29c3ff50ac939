package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gloveiq-importer/models"
)

// Export artifact file names. The checkpoint lives alongside them and is
// always written last.
const (
	NormalizedFileName = "listings.normalized.jsonl"
	RawFileName        = "listings.raw.jsonl"
	ManifestFileName   = "media_manifest.jsonl"
	ReportFileName     = "import_report.json"
)

// ExportWriter persists the export bundle as deterministic JSON artifacts.
// Every file is written to a temp sibling and renamed into place, so a crash
// mid-write never leaves a half-written artifact visible.
type ExportWriter struct {
	outDir  string
	emitRaw bool
}

// NewExportWriter creates the output directory if needed.
func NewExportWriter(outDir string, emitRaw bool) (*ExportWriter, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("export: create output dir: %w", err)
	}
	return &ExportWriter{outDir: outDir, emitRaw: emitRaw}, nil
}

func (w *ExportWriter) NormalizedPath() string { return filepath.Join(w.outDir, NormalizedFileName) }
func (w *ExportWriter) RawPath() string        { return filepath.Join(w.outDir, RawFileName) }
func (w *ExportWriter) ManifestPath() string   { return filepath.Join(w.outDir, ManifestFileName) }
func (w *ExportWriter) ReportPath() string     { return filepath.Join(w.outDir, ReportFileName) }

// RequiredPaths lists the artifacts that must exist for a fingerprint skip to
// be honored.
func (w *ExportWriter) RequiredPaths() []string {
	return []string{w.NormalizedPath(), w.ManifestPath(), w.ReportPath()}
}

// WriteExports writes all artifacts. The report's output_files block is
// filled in here, since only the writer knows the final paths.
func (w *ExportWriter) WriteExports(exports *models.Exports) error {
	normalized := w.NormalizedPath()
	rawPath := w.RawPath()
	manifest := w.ManifestPath()
	reportPath := w.ReportPath()

	outputFiles := map[string]*string{
		"normalized": &normalized,
		"raw":        nil,
		"manifest":   &manifest,
	}
	if w.emitRaw {
		outputFiles["raw"] = &rawPath
	}
	exports.Report.OutputFiles = outputFiles

	if err := writeJSONL(normalized, asAnySlice(exports.Listings)); err != nil {
		return err
	}
	if w.emitRaw {
		if err := writeJSONL(rawPath, asAnySlice(exports.RawRows)); err != nil {
			return err
		}
	}
	if err := writeJSONL(manifest, asAnySlice(exports.MediaManifest)); err != nil {
		return err
	}
	return writeJSONIndented(reportPath, exports.Report)
}

// encodeCanonical renders v as JSON with alphabetically sorted keys and no
// HTML escaping, which is what makes re-runs byte-identical. Structs are
// round-tripped through generic maps because Go's encoder only sorts map
// keys.
func encodeCanonical(v any, indent bool) ([]byte, error) {
	direct, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("export: marshal: %w", err)
	}
	var generic any
	if err := json.Unmarshal(direct, &generic); err != nil {
		return nil, fmt.Errorf("export: canonicalize: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(generic); err != nil {
		return nil, fmt.Errorf("export: encode: %w", err)
	}
	// Encode appends a trailing newline, which is exactly the JSONL framing.
	return buf.Bytes(), nil
}

// writeJSONL writes one canonical JSON record per line via temp file + rename.
func writeJSONL(path string, rows []any) error {
	var buf bytes.Buffer
	for _, row := range rows {
		line, err := encodeCanonical(row, false)
		if err != nil {
			return err
		}
		buf.Write(line)
	}
	return writeAtomic(path, buf.Bytes())
}

// writeJSONIndented writes a single pretty-printed canonical JSON document.
func writeJSONIndented(path string, v any) error {
	data, err := encodeCanonical(v, true)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

// writeAtomic writes data to a temp sibling of path and renames it into
// place.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("export: write %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("export: rename %q: %w", path, err)
	}
	return nil
}

func asAnySlice[T any](rows []T) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}
