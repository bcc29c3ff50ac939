package services

import (
	"regexp"
	"strings"

	"gloveiq-importer/models"
)

// individualizationMarkers flag a listing as a one-off item. Matched
// case-insensitively against source + condition + model code + title.
var individualizationMarkers = []string{
	"custom",
	"one of a kind",
	"one-of-a-kind",
	"1 of 1",
	"game used",
	"game-used",
	"game worn",
	"game-worn",
	"player issued",
	"player-issued",
	"modified",
	"modification",
	"relace",
	"re-lace",
	"relaced",
}

// firstPartySources are retailer tags whose listings describe new catalog
// stock, so a missing model code alone does not demote them to artifact.
var firstPartySources = map[string]struct{}{
	"JBG": {},
}

var slugRunRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases s, collapses every run of non-alphanumeric characters to a
// single hyphen and trims the ends. Empty input slugs to "unknown".
func Slug(s string) string {
	t := slugRunRegexp.ReplaceAllString(strings.ToLower(Clean(s)), "-")
	t = strings.Trim(t, "-")
	if t == "" {
		return "unknown"
	}
	return t
}

// ClassifyRecord decides whether a normalized row is a reusable catalog
// variant or an individual seller's one-off artifact. Listings of unknown
// provenance are never silently treated as catalog variants.
func ClassifyRecord(source, condition, modelCode, title string) models.RecordType {
	combined := strings.ToLower(strings.Join([]string{source, condition, modelCode, title}, " "))
	for _, marker := range individualizationMarkers {
		if strings.Contains(combined, marker) {
			return models.RecordArtifact
		}
	}
	if code := Clean(modelCode); code != "" && code != "Unknown" {
		return models.RecordVariant
	}
	if _, ok := firstPartySources[source]; ok {
		return models.RecordVariant
	}
	return models.RecordArtifact
}

// GloveID derives the identity key for a classified record. Variants share a
// content key across sellers; artifacts stay unique per listing.
func GloveID(rt models.RecordType, source, listingID, brand, model, sizeText, throwHand string) string {
	if rt == models.RecordVariant {
		if sizeText == "" {
			sizeText = "na"
		}
		if throwHand == "" {
			throwHand = "unk"
		}
		return "variant:" + Slug(brand) + ":" + Slug(model) + ":" + Slug(sizeText) + ":" + Slug(throwHand)
	}
	return "artifact:" + source + ":" + listingID
}

// specConfidencePopulated is the flat score assigned to every populated spec
// field. It is a presence flag, not a statistical confidence.
const specConfidencePopulated = 0.92

// specAttribute is one canonical spec slot and the profile key aliases that
// can fill it.
type specAttribute struct {
	Key     string
	Aliases []string
}

// specAttributes is the fixed, ordered canonical spec vocabulary.
var specAttributes = []specAttribute{
	{Key: "item_number", Aliases: []string{"item number", "item #", "sku", "model number"}},
	{Key: "back_style", Aliases: []string{"back", "back style"}},
	{Key: "color", Aliases: []string{"color", "colour"}},
	{Key: "fit", Aliases: []string{"fit"}},
	{Key: "leather", Aliases: []string{"leather", "material"}},
	{Key: "level", Aliases: []string{"level", "player level"}},
	{Key: "lining", Aliases: []string{"lining"}},
	{Key: "padding", Aliases: []string{"padding"}},
	{Key: "pattern", Aliases: []string{"pattern"}},
	{Key: "series", Aliases: []string{"series"}},
	{Key: "shell", Aliases: []string{"shell"}},
	{Key: "size", Aliases: []string{"size", "glove size"}},
	{Key: "special_feature", Aliases: []string{"special feature", "special features"}},
	{Key: "sport", Aliases: []string{"sport"}},
	{Key: "throwing_hand", Aliases: []string{"throwing hand", "throw hand", "hand"}},
	{Key: "usage", Aliases: []string{"usage", "use"}},
	{Key: "used_by", Aliases: []string{"used by"}},
	{Key: "web", Aliases: []string{"web", "web type"}},
	{Key: "wrist", Aliases: []string{"wrist", "wrist adjustment"}},
	{Key: "age_group", Aliases: []string{"age group", "age"}},
	{Key: "description", Aliases: []string{"description"}},
}

// BuildSpecMap resolves the canonical spec mapping from a structured profile,
// falling back to derived values (e.g. the formatted size) and finally nil.
// The parallel confidence map flags each field as populated or not.
func BuildSpecMap(profile map[string]any, derived map[string]string) (map[string]*string, map[string]float64) {
	lowered := make(map[string]string, len(profile))
	for _, k := range sortedKeys(profile) {
		lk := strings.ToLower(Clean(k))
		if _, exists := lowered[lk]; exists {
			continue
		}
		if v := Clean(stringifyValue(profile[k])); v != "" {
			lowered[lk] = v
		}
	}

	specs := make(map[string]*string, len(specAttributes))
	confidence := make(map[string]float64, len(specAttributes))
	for _, attr := range specAttributes {
		var value string
		for _, alias := range attr.Aliases {
			if v, ok := lowered[alias]; ok {
				value = v
				break
			}
		}
		if value == "" {
			value = derived[attr.Key]
		}
		if value == "" {
			specs[attr.Key] = nil
			confidence[attr.Key] = 0.0
			continue
		}
		v := value
		specs[attr.Key] = &v
		confidence[attr.Key] = specConfidencePopulated
	}
	return specs, confidence
}
