package services

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"gloveiq-importer/models"
)

// sourceConfig drives the shared normalizer for one listing source. New
// sources are configuration, not new code paths.
type sourceConfig struct {
	Tag               string
	Sheet             string
	IDColumn          string
	URLColumn         string
	TitleColumn       string
	PriceColumn       string
	BrandColumn       string
	ModelColumn       string
	ModelCodeColumn   string
	ConditionColumn   string
	CurrencyColumn    string
	ImagesColumn      string
	DescriptionColumn string
	// DefaultCondition fills a blank condition, but only while the resolved
	// source still matches Tag; a catalog override falls back to "Unknown".
	DefaultCondition string
	DefaultCurrency  string
	// NumericProfileSize reads the profile size signal as a plain number
	// instead of free text with embedded units.
	NumericProfileSize bool
	// TitleFromProfile falls back to the profile's own title field when the
	// title column is blank.
	TitleFromProfile bool
	// TitleSizeFallback retries size extraction against the title when the
	// profile gave nothing.
	TitleSizeFallback bool
	// SportFromProfile includes profile values in the sport inference text.
	SportFromProfile bool
}

var ssSource = sourceConfig{
	Tag:                "SS",
	Sheet:              "Catalog",
	IDColumn:           "listing_id",
	URLColumn:          "product_url",
	TitleColumn:        "title",
	PriceColumn:        "price",
	BrandColumn:        "brand",
	ModelColumn:        "model",
	ConditionColumn:    "condition",
	CurrencyColumn:     "currency",
	ImagesColumn:       "images_json",
	DefaultCondition:   "Unknown",
	DefaultCurrency:    "USD",
	NumericProfileSize: true,
	TitleFromProfile:   true,
}

var jbgSource = sourceConfig{
	Tag:               "JBG",
	Sheet:             "JBG_Detail_Enrichment",
	IDColumn:          "product_id",
	URLColumn:         "product_url",
	TitleColumn:       "title",
	PriceColumn:       "price",
	ModelCodeColumn:   "model_code",
	ImagesColumn:      "images_json",
	DescriptionColumn: "description_snippet",
	DefaultCondition:  "New",
	DefaultCurrency:   "USD",
	TitleSizeFallback: true,
	SportFromProfile:  true,
}

// buildStats accumulates per-run counters while sheets are processed.
type buildStats struct {
	rowsScanned     map[string]int
	errors          []string
	defaultsApplied map[string]int
}

func newBuildStats() *buildStats {
	return &buildStats{
		rowsScanned: map[string]int{
			ssSource.Sheet:     0,
			"JBG_Full_Catalog": 0,
			jbgSource.Sheet:    0,
		},
		defaultsApplied: map[string]int{},
	}
}

func (s *buildStats) addError(format string, args ...any) {
	s.errors = append(s.errors, fmt.Sprintf(format, args...))
}

func (s *buildStats) defaultApplied(name string) {
	s.defaultsApplied[name]++
}

// rowInput carries one source row plus the values its sheet walker already
// resolved (identity, URL after reconciliation, catalog fallbacks).
type rowInput struct {
	row        models.Row
	source     string
	id         string
	url        string
	extraTitle string
	extraPrice *float64
	createdAt  string
	seenAt     string
}

// catalogEntry is one JBG_Full_Catalog row indexed by product id, used to
// backfill detail rows that lack a URL or price.
type catalogEntry struct {
	row       models.Row
	url       string
	source    string
	title     string
	price     *float64
	scrapedAt string
}

// buildCatalogIndex indexes catalog rows by product id. Later rows with the
// same id replace earlier ones.
func buildCatalogIndex(rows []models.Row) map[string]catalogEntry {
	out := make(map[string]catalogEntry, len(rows))
	for _, row := range rows {
		pid := Clean(row.Cells["product_id"])
		if pid == "" {
			continue
		}
		out[pid] = catalogEntry{
			row:       row,
			url:       Clean(row.Cells["product_url"]),
			source:    Clean(row.Cells["source"]),
			title:     Clean(row.Cells["catalog_title"]),
			price:     SafeFloat(row.Cells["catalog_price"]),
			scrapedAt: Clean(row.Cells["catalog_scraped_at"]),
		}
	}
	return out
}

// Builder turns validated workbook rows into the full export bundle.
type Builder struct {
	logger      *zap.SugaredLogger
	mediaPrefix string
}

// NewBuilder creates a Builder. The media prefix is trimmed of slashes and
// defaults to "gloveiq".
func NewBuilder(logger *zap.SugaredLogger, mediaPrefix string) *Builder {
	prefix := strings.Trim(strings.TrimSpace(mediaPrefix), "/")
	if prefix == "" {
		prefix = "gloveiq"
	}
	return &Builder{logger: logger, mediaPrefix: prefix}
}

// BuildExports runs the whole normalization pass: per-sheet normalization and
// classification, JBG catalog reconciliation, last-writer-wins deduplication,
// lexicographic ordering, media key mapping, and the run report.
func (b *Builder) BuildExports(src RowSource, inputPath string) (*models.Exports, error) {
	stats := newBuildStats()
	var listings []*models.Listing
	var rawRows []*models.RawRowRecord

	ssRows, err := src.Rows(ssSource.Sheet)
	if err != nil {
		return nil, fmt.Errorf("builder: read %s: %w", ssSource.Sheet, err)
	}
	for _, row := range ssRows {
		stats.rowsScanned[ssSource.Sheet]++
		l, rr := b.buildSSListing(row, stats)
		if l == nil {
			continue
		}
		listings = append(listings, l)
		rawRows = append(rawRows, rr)
	}

	catRows, err := src.Rows("JBG_Full_Catalog")
	if err != nil {
		return nil, fmt.Errorf("builder: read JBG_Full_Catalog: %w", err)
	}
	stats.rowsScanned["JBG_Full_Catalog"] = len(catRows)
	catalogIndex := buildCatalogIndex(catRows)

	detailRows, err := src.Rows(jbgSource.Sheet)
	if err != nil {
		return nil, fmt.Errorf("builder: read %s: %w", jbgSource.Sheet, err)
	}
	for _, row := range detailRows {
		stats.rowsScanned[jbgSource.Sheet]++
		l, rr := b.buildJBGListing(row, catalogIndex, stats)
		if l == nil {
			continue
		}
		listings = append(listings, l)
		rawRows = append(rawRows, rr)
	}

	listingsSorted := dedupeListings(listings)
	rawSorted := dedupeRawRows(rawRows)

	manifest := make([]*models.MediaManifestEntry, 0, len(listingsSorted))
	imageTotal := 0
	for _, l := range listingsSorted {
		entry := MapListingMedia(b.mediaPrefix, l)
		manifest = append(manifest, entry)
		imageTotal += len(entry.ImageMappings)
	}

	b.logger.Infof("[builder] normalized %d rows into %d listings (%d images mapped, %d row errors)",
		len(listings), len(listingsSorted), imageTotal, len(stats.errors))

	report := composeReport(inputPath, stats, listingsSorted, len(manifest), imageTotal)

	return &models.Exports{
		Listings:      listingsSorted,
		RawRows:       rawSorted,
		MediaManifest: manifest,
		Report:        report,
	}, nil
}

// buildSSListing normalizes one SidelineSwap catalog row. The embedded
// normalized_json document supplies the profile ("norm") and the retained raw
// spec snapshot ("raw").
func (b *Builder) buildSSListing(row models.Row, stats *buildStats) (*models.Listing, *models.RawRowRecord) {
	id := Clean(row.Cells[ssSource.IDColumn])
	url := Clean(row.Cells[ssSource.URLColumn])
	if id == "" || url == "" {
		stats.addError("%s row %d missing %s/%s", ssSource.Sheet, row.Num, ssSource.IDColumn, ssSource.URLColumn)
		return nil, nil
	}

	doc := SafeJSONMap(row.Cells["normalized_json"])
	profile := subDocument(doc, "norm")
	rawSpecs := subDocument(doc, "raw")

	in := rowInput{row: row, source: ssSource.Tag, id: id, url: url}
	listing := b.normalizeListing(ssSource, in, profile, rawSpecs, stats)

	raw := &models.RawRowRecord{
		ListingPK:     listing.ListingPK,
		Source:        listing.Source,
		SourceSheet:   ssSource.Sheet,
		SourceRow:     row.Num,
		SourceColumns: row.Cells,
		ParsedDocs:    map[string]any{"normalized_json": doc},
		RawText:       optString(listing.Title),
	}
	return listing, raw
}

// buildJBGListing normalizes one JBG detail row, backfilling URL and price
// from its catalog counterpart when the detail row lacks them. A missing
// counterpart is fine as long as the detail row carries its own URL.
func (b *Builder) buildJBGListing(row models.Row, catalogIndex map[string]catalogEntry, stats *buildStats) (*models.Listing, *models.RawRowRecord) {
	pid := Clean(row.Cells[jbgSource.IDColumn])
	if pid == "" {
		stats.addError("%s row %d missing %s", jbgSource.Sheet, row.Num, jbgSource.IDColumn)
		return nil, nil
	}

	cat, haveCat := catalogIndex[pid]
	source := jbgSource.Tag
	if haveCat && cat.source != "" {
		source = cat.source
	}

	url := Clean(row.Cells[jbgSource.URLColumn])
	if url == "" && haveCat && cat.url != "" {
		url = cat.url
		stats.defaultApplied("url_from_catalog")
	}
	if url == "" {
		stats.addError("JBG listing %s missing URL in catalog+detail", pid)
		return nil, nil
	}

	profile := SafeJSONMap(row.Cells["glove_profile_json"])
	specDoc := SafeJSONMap(row.Cells["spec_json"])
	rawSpecs := map[string]any{
		"glove_profile": profile,
		"spec_json":     specDoc,
	}

	in := rowInput{
		row:    row,
		source: source,
		id:     pid,
		url:    url,
		seenAt: Clean(row.Cells["detail_scraped_at"]),
	}
	if haveCat {
		in.extraTitle = cat.title
		in.extraPrice = cat.price
		in.createdAt = cat.scrapedAt
	}

	listing := b.normalizeListing(jbgSource, in, profile, rawSpecs, stats)

	rawText := Clean(row.Cells[jbgSource.DescriptionColumn])
	if rawText == "" {
		rawText = listing.Title
	}
	raw := &models.RawRowRecord{
		ListingPK:     listing.ListingPK,
		Source:        listing.Source,
		SourceSheet:   jbgSource.Sheet,
		SourceRow:     row.Num,
		SourceColumns: row.Cells,
		ParsedDocs: map[string]any{
			"glove_profile_json": profile,
			"spec_json":          specDoc,
		},
		RawText: optString(rawText),
	}
	if haveCat {
		raw.CatalogColumns = cat.row.Cells
	}
	return listing, raw
}

// normalizeListing is the shared per-row transformation: field inference,
// classification, identity keys and the canonical spec mapping. Malformed
// input degrades to defaults, never to an error.
func (b *Builder) normalizeListing(cfg sourceConfig, in rowInput, profile, rawSpecs map[string]any, stats *buildStats) *models.Listing {
	row := in.row

	title := Clean(row.Cells[cfg.TitleColumn])
	if title == "" && cfg.TitleFromProfile {
		title = ProfileString(profile, "title")
	}
	if title == "" {
		title = in.extraTitle
	}

	brand := InferBrand(title, row.Cells[cfg.BrandColumn])
	inferredModel := InferModel(title, row.Cells[cfg.ModelColumn])
	modelCode := Clean(row.Cells[cfg.ModelCodeColumn])
	if modelCode == "" {
		modelCode = inferredModel
	}
	model := modelCode
	if model == "" {
		model = inferredModel
	}

	sizeText, throwText, posText, webText := ProfileFields(profile)
	var sizeIn *float64
	if cfg.NumericProfileSize {
		sizeIn = SafeFloat(sizeText)
	} else {
		sizeIn = ExtractSizeIn(sizeText)
	}
	if sizeIn == nil && cfg.TitleSizeFallback {
		sizeIn = ExtractSizeIn(title)
	}

	throwHand := NormalizeThrowHand(throwText)
	position := NormalizePosition(posText)

	price := SafeFloat(row.Cells[cfg.PriceColumn])
	if price == nil && in.extraPrice != nil {
		price = in.extraPrice
		stats.defaultApplied("price_from_catalog")
	}

	condition := Clean(row.Cells[cfg.ConditionColumn])
	if condition == "" {
		condition = "Unknown"
		if in.source == cfg.Tag {
			condition = cfg.DefaultCondition
		}
	}
	currency := Clean(row.Cells[cfg.CurrencyColumn])
	if currency == "" {
		currency = cfg.DefaultCurrency
	}

	sportProfile := profile
	if !cfg.SportFromProfile {
		sportProfile = nil
	}
	sport := InferSport(title, sportProfile)

	if brand == "" {
		stats.defaultApplied("brand_unknown")
	}
	if model == "" {
		stats.defaultApplied("model_unknown")
	}

	images := NormalizeImages(row.Cells[cfg.ImagesColumn])

	recordType := ClassifyRecord(in.source, condition, modelCode, title)
	gloveID := GloveID(recordType, in.source, in.id, brand, firstNonEmpty(modelCode, model), FormatSize(sizeIn), orDefault(throwHand, "UNK"))

	derived := map[string]string{
		"sport":         sport,
		"throwing_hand": throwHand,
		"web":           webText,
		"description":   Clean(row.Cells[cfg.DescriptionColumn]),
	}
	if sizeIn != nil {
		derived["size"] = FormatSize(sizeIn) + `"`
	}
	specs, confidence := BuildSpecMap(profile, derived)

	if rawSpecs == nil {
		rawSpecs = map[string]any{}
	}

	return &models.Listing{
		ListingPK:       in.source + ":" + in.id,
		GloveID:         gloveID,
		RecordType:      recordType,
		Source:          in.source,
		SourceListingID: in.id,
		URL:             in.url,
		Title:           title,
		CanonicalName:   canonicalName(brand, model, sizeIn, title),
		Brand:           orDefault(brand, "Unknown"),
		Model:           orDefault(model, "Unknown"),
		ModelCode:       orDefault(modelCode, "Unknown"),
		SizeIn:          sizeIn,
		ThrowHand:       orDefault(throwHand, "UNK"),
		PlayerPosition:  orDefault(position, "Unknown"),
		WebType:         orDefault(webText, "Unknown"),
		Sport:           sport,
		Condition:       condition,
		Price:           price,
		Currency:        currency,
		CreatedAt:       optString(in.createdAt),
		SeenAt:          optString(in.seenAt),
		Specs:           specs,
		SpecConfidence:  confidence,
		RawSpecs:        rawSpecs,
		Images:          images,
	}
}

// canonicalName composes a human-readable catalog name from the resolved
// fields, falling back to the raw title.
func canonicalName(brand, model string, sizeIn *float64, title string) string {
	var parts []string
	if brand != "" {
		parts = append(parts, brand)
	}
	if model != "" {
		parts = append(parts, model)
	}
	if sizeIn != nil {
		parts = append(parts, FormatSize(sizeIn)+`"`)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if title != "" {
		return title
	}
	return "Unknown"
}

// dedupeListings collapses rows sharing a listing_pk (last writer wins) and
// returns them in ascending key order. The sort, not insertion order, is the
// persisted order.
func dedupeListings(listings []*models.Listing) []*models.Listing {
	dedup := make(map[string]*models.Listing, len(listings))
	for _, l := range listings {
		dedup[l.ListingPK] = l
	}
	keys := make([]string, 0, len(dedup))
	for k := range dedup {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*models.Listing, 0, len(keys))
	for _, k := range keys {
		out = append(out, dedup[k])
	}
	return out
}

// dedupeRawRows applies the identical last-writer-wins + key-sort discipline
// to the diagnostic records.
func dedupeRawRows(rows []*models.RawRowRecord) []*models.RawRowRecord {
	dedup := make(map[string]*models.RawRowRecord, len(rows))
	for _, r := range rows {
		dedup[r.ListingPK] = r
	}
	keys := make([]string, 0, len(dedup))
	for k := range dedup {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*models.RawRowRecord, 0, len(keys))
	for _, k := range keys {
		out = append(out, dedup[k])
	}
	return out
}

// subDocument pulls a nested object out of a parsed document, degrading to
// an empty map.
func subDocument(doc map[string]any, key string) map[string]any {
	if sub, ok := doc[key].(map[string]any); ok {
		return sub
	}
	return map[string]any{}
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
