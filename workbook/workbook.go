package workbook

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"gloveiq-importer/models"
)

// Workbook is a read-only adapter over the scraper XLSX. It exposes sheets as
// immutable row snapshots keyed by header name; nothing here ever writes back
// to the file.
type Workbook struct {
	file *excelize.File
	path string
}

// Open loads the workbook at path.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("workbook: open %q: %w", path, err)
	}
	return &Workbook{file: f, path: path}, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// Path returns the path the workbook was opened from.
func (w *Workbook) Path() string {
	return w.path
}

// HasSheet reports whether a sheet with the given name exists.
func (w *Workbook) HasSheet(name string) bool {
	idx, err := w.file.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// Columns returns the cleaned, non-empty header names of the sheet's first row.
func (w *Workbook) Columns(name string) ([]string, error) {
	rows, err := w.file.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("workbook: read sheet %q: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	var cols []string
	for _, cell := range rows[0] {
		if h := strings.TrimSpace(cell); h != "" {
			cols = append(cols, h)
		}
	}
	return cols, nil
}

// Rows returns every non-empty data row of the sheet as a header-keyed
// snapshot. Row numbers are 1-based physical positions (the header is row 1),
// so error messages line up with what a person sees in the spreadsheet.
// Rows whose cells are all blank are skipped.
func (w *Workbook) Rows(name string) ([]models.Row, error) {
	raw, err := w.file.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("workbook: read sheet %q: %w", name, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	type headerCol struct {
		name string
		col  int
	}
	var headers []headerCol
	for c, cell := range raw[0] {
		if h := strings.TrimSpace(cell); h != "" {
			headers = append(headers, headerCol{name: h, col: c})
		}
	}

	var out []models.Row
	for i := 1; i < len(raw); i++ {
		cells := make(map[string]string, len(headers))
		empty := true
		for _, h := range headers {
			var v string
			if h.col < len(raw[i]) {
				v = raw[i][h.col]
			}
			cells[h.name] = v
			if strings.TrimSpace(v) != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		out = append(out, models.Row{Num: i + 1, Cells: cells})
	}
	return out, nil
}
