package models

// Row is an immutable snapshot of one spreadsheet row: the 1-based physical
// row number plus a column-name → cell-text mapping. Rows are never mutated
// after the adapter yields them; every transformation builds fresh records.
type Row struct {
	Num   int
	Cells map[string]string
}

// RecordType distinguishes a reusable catalog variant from a one-off
// individual seller item.
type RecordType string

const (
	RecordVariant  RecordType = "variant"
	RecordArtifact RecordType = "artifact"
)

// Listing is the canonical output unit, one per (source, source_listing_id).
// Inferred string fields that could not be resolved hold the literal
// "Unknown"; SizeIn and Price stay nil when nothing parseable was found.
type Listing struct {
	ListingPK       string             `json:"listing_pk"`
	GloveID         string             `json:"glove_id"`
	RecordType      RecordType         `json:"record_type"`
	Source          string             `json:"source"`
	SourceListingID string             `json:"source_listing_id"`
	URL             string             `json:"url"`
	Title           string             `json:"title"`
	CanonicalName   string             `json:"canonical_name"`
	Brand           string             `json:"brand"`
	Model           string             `json:"model"`
	ModelCode       string             `json:"model_code"`
	SizeIn          *float64           `json:"size_in"`
	ThrowHand       string             `json:"throw_hand"`
	PlayerPosition  string             `json:"player_position"`
	WebType         string             `json:"web_type"`
	Sport           string             `json:"sport"`
	Condition       string             `json:"condition"`
	Price           *float64           `json:"price"`
	Currency        string             `json:"currency"`
	CreatedAt       *string            `json:"created_at"`
	SeenAt          *string            `json:"seen_at"`
	Specs           map[string]*string `json:"specs"`
	SpecConfidence  map[string]float64 `json:"spec_confidence"`
	RawSpecs        map[string]any     `json:"raw_specs"`
	Images          []string           `json:"images"`
}

// RawRowRecord is the diagnostic counterpart of a Listing: the original
// source row plus its parsed sub-documents, retained only for the
// last-writer-wins survivor of each listing_pk.
type RawRowRecord struct {
	ListingPK      string            `json:"listing_pk"`
	Source         string            `json:"source"`
	SourceSheet    string            `json:"source_sheet"`
	SourceRow      int               `json:"source_row"`
	SourceColumns  map[string]string `json:"source_columns"`
	CatalogColumns map[string]string `json:"catalog_columns,omitempty"`
	ParsedDocs     map[string]any    `json:"parsed_docs"`
	RawText        *string           `json:"raw_text"`
}

// MediaMapping pairs one image URL with its deterministic target storage key.
type MediaMapping struct {
	ImageIndex       int    `json:"image_index"`
	SourceURL        string `json:"source_url"`
	TargetStorageKey string `json:"target_storage_key"`
	ContentType      string `json:"content_type"`
	MappingKey       string `json:"mapping_key"`
}

// MediaManifestEntry is one manifest line: a listing's ordered image URLs and
// their storage-key mappings, consumed by the external upload step.
type MediaManifestEntry struct {
	ListingPK        string         `json:"listing_pk"`
	Source           string         `json:"source"`
	SourceListingID  string         `json:"source_listing_id"`
	OrderedImageURLs []string       `json:"ordered_image_urls"`
	ImageMappings    []MediaMapping `json:"image_mappings"`
}

// ImportReport aggregates per-run counters and the resolved output paths.
type ImportReport struct {
	RunID                    string             `json:"run_id"`
	GeneratedAt              string             `json:"generated_at"`
	InputXLSX                string             `json:"input_xlsx"`
	RowsScanned              map[string]int     `json:"rows_scanned"`
	ListingsTotal            int                `json:"listings_total"`
	ListingsBySource         map[string]int     `json:"listings_by_source"`
	ListingsByType           map[string]int     `json:"listings_by_type"`
	MediaManifestRows        int                `json:"media_manifest_rows"`
	MediaManifestImagesTotal int                `json:"media_manifest_images_total"`
	ErrorsCount              int                `json:"errors_count"`
	Errors                   []string           `json:"errors"`
	WarningsCount            int                `json:"warnings_count"`
	Warnings                 []string           `json:"warnings"`
	DefaultsApplied          map[string]int     `json:"defaults_applied"`
	OutputFiles              map[string]*string `json:"output_files"`
}

// Fingerprint is a cheap signature of the input workbook. It deliberately is
// not a content hash: a touch without modification reads as "unchanged".
type Fingerprint struct {
	Path  string `json:"path"`
	Size  int64  `json:"size"`
	MTime int64  `json:"mtime"`
}

// Checkpoint is persisted after a fully committed export and short-circuits
// the next run when the input fingerprint has not moved.
type Checkpoint struct {
	GeneratedAt      string         `json:"generated_at"`
	InputFingerprint Fingerprint    `json:"input_fingerprint"`
	Counts           map[string]int `json:"counts"`
}

// ValidationResult is the outcome of workbook schema validation. Warnings is
// reserved for future severity tiers and currently stays empty.
type ValidationResult struct {
	OK       bool
	Errors   []string
	Warnings []string
}

// Exports bundles everything one run produces.
type Exports struct {
	Listings      []*Listing
	RawRows       []*RawRowRecord
	MediaManifest []*MediaManifestEntry
	Report        *ImportReport
}
