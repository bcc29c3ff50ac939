package services

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"gloveiq-importer/models"
)

// maxReportErrors bounds the error list carried inside the report; the count
// field still reflects the full total.
const maxReportErrors = 500

// composeReport aggregates the run counters into the import report.
func composeReport(inputPath string, stats *buildStats, listings []*models.Listing, manifestRows, imageTotal int) *models.ImportReport {
	bySource := map[string]int{}
	byType := map[string]int{}
	for _, l := range listings {
		src := l.Source
		if src == "" {
			src = "Unknown"
		}
		bySource[src]++
		byType[string(l.RecordType)]++
	}

	errs := stats.errors
	if len(errs) > maxReportErrors {
		errs = errs[:maxReportErrors]
	}
	if errs == nil {
		errs = []string{}
	}

	absInput := inputPath
	if abs, err := filepath.Abs(inputPath); err == nil {
		absInput = abs
	}

	return &models.ImportReport{
		RunID:                    uuid.NewString(),
		GeneratedAt:              time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		InputXLSX:                absInput,
		RowsScanned:              stats.rowsScanned,
		ListingsTotal:            len(listings),
		ListingsBySource:         bySource,
		ListingsByType:           byType,
		MediaManifestRows:        manifestRows,
		MediaManifestImagesTotal: imageTotal,
		ErrorsCount:              len(stats.errors),
		Errors:                   errs,
		WarningsCount:            0,
		Warnings:                 []string{},
		DefaultsApplied:          stats.defaultsApplied,
	}
}

// PrintReportSummary writes a human-readable run summary to stdout.
func PrintReportSummary(r *models.ImportReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📦 LIBRARY IMPORT SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Listings exported : \033[1m%d\033[0m\n", r.ListingsTotal)
	fmt.Printf("  Manifest rows     : \033[1m%d\033[0m\n", r.MediaManifestRows)
	fmt.Printf("  Images mapped     : \033[1m%d\033[0m\n", r.MediaManifestImagesTotal)
	fmt.Println()

	fmt.Printf("\033[1;33m  Listings by Source\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, src := range sortedCountKeys(r.ListingsBySource) {
		fmt.Printf("  %-10s %d\n", src, r.ListingsBySource[src])
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Listings by Type\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, rt := range sortedCountKeys(r.ListingsByType) {
		fmt.Printf("  %-10s %d\n", rt, r.ListingsByType[rt])
	}
	fmt.Println()

	if len(r.DefaultsApplied) > 0 {
		fmt.Printf("\033[1;33m  Defaults Applied\033[0m\n")
		fmt.Printf("  %s\n", thin)
		for _, name := range sortedCountKeys(r.DefaultsApplied) {
			fmt.Printf("  %-22s %d\n", name, r.DefaultsApplied[name])
		}
		fmt.Println()
	}

	if r.ErrorsCount > 0 {
		fmt.Printf("\033[1;31m  Row errors: %d (see import_report.json)\033[0m\n", r.ErrorsCount)
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func sortedCountKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
