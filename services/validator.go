package services

import (
	"fmt"

	"gloveiq-importer/models"
)

// RowSource is the read-only boundary to the workbook adapter. Tests feed it
// from memory; production feeds it from XLSX.
type RowSource interface {
	HasSheet(name string) bool
	Columns(name string) ([]string, error)
	Rows(name string) ([]models.Row, error)
}

// sheetSchema declares one required sheet: its columns plus the identity
// columns every non-empty row must populate.
type sheetSchema struct {
	Name      string
	Columns   []string
	IDColumn  string
	URLColumn string
}

// requiredSheets is the fixed workbook contract, in validation order.
var requiredSheets = []sheetSchema{
	{
		Name: "Catalog",
		Columns: []string{
			"listing_id", "product_url", "title", "price", "currency",
			"condition", "brand", "model", "images_json", "normalized_json",
		},
		IDColumn:  "listing_id",
		URLColumn: "product_url",
	},
	{
		Name: "JBG_Full_Catalog",
		Columns: []string{
			"product_id", "product_url", "source", "catalog_title",
			"catalog_price", "thumb_url", "catalog_scraped_at",
		},
		IDColumn:  "product_id",
		URLColumn: "product_url",
	},
	{
		Name: "JBG_Detail_Enrichment",
		Columns: []string{
			"product_id", "product_url", "detail_scraped_at", "detail_status",
			"detail_error", "title", "price", "model_code",
			"glove_profile_json", "description_snippet", "images_json", "spec_json",
		},
		IDColumn:  "product_id",
		URLColumn: "product_url",
	},
}

// ValidateWorkbook checks the workbook shape and then its row identities.
// Structural problems (missing sheet or column) fail fast: the full missing
// list is returned and no row-level checks run. A structurally valid workbook
// gets every non-empty row checked for its identity columns, with all
// violations accumulated.
func ValidateWorkbook(src RowSource) (models.ValidationResult, error) {
	var errs []string
	var warnings []string

	for _, schema := range requiredSheets {
		if !src.HasSheet(schema.Name) {
			errs = append(errs, fmt.Sprintf("Missing required sheet: %s", schema.Name))
			continue
		}
		cols, err := src.Columns(schema.Name)
		if err != nil {
			return models.ValidationResult{}, fmt.Errorf("validator: sheet %s: %w", schema.Name, err)
		}
		present := make(map[string]struct{}, len(cols))
		for _, c := range cols {
			present[c] = struct{}{}
		}
		for _, required := range schema.Columns {
			if _, ok := present[required]; !ok {
				errs = append(errs, fmt.Sprintf("Sheet %s missing required column: %s", schema.Name, required))
			}
		}
	}

	if len(errs) > 0 {
		return models.ValidationResult{OK: false, Errors: errs, Warnings: warnings}, nil
	}

	for _, schema := range requiredSheets {
		rows, err := src.Rows(schema.Name)
		if err != nil {
			return models.ValidationResult{}, fmt.Errorf("validator: sheet %s: %w", schema.Name, err)
		}
		for _, row := range rows {
			if Clean(row.Cells[schema.IDColumn]) == "" {
				errs = append(errs, fmt.Sprintf("%s row %d missing %s", schema.Name, row.Num, schema.IDColumn))
			}
			if Clean(row.Cells[schema.URLColumn]) == "" {
				errs = append(errs, fmt.Sprintf("%s row %d missing %s", schema.Name, row.Num, schema.URLColumn))
			}
		}
	}

	return models.ValidationResult{OK: len(errs) == 0, Errors: errs, Warnings: warnings}, nil
}
