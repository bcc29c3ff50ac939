package services

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// numberRegexp captures the first decimal-looking substring, thousands
	// separators included.
	numberRegexp = regexp.MustCompile(`([\d,]+(?:\.\d+)?)`)
	// sizeDecimalRegexp matches plain decimal sizes like "11.75"
	sizeDecimalRegexp = regexp.MustCompile(`(\d{1,2}\.\d{1,2})`)
	// sizeFractionRegexp matches mixed fractions like "12 - 3/4" or "12 3/4"
	sizeFractionRegexp = regexp.MustCompile(`(\d{1,2})\s*[\-\s]\s*(\d)\s*/\s*(\d)`)
	// sizeInchRegexp matches quoted inches like 11.5" or 12"
	sizeInchRegexp = regexp.MustCompile(`(\d{1,2}(?:\.\d+)?)\s*"`)
	// modelMarkerRegexp matches an explicit [Model: ...] marker in a title
	modelMarkerRegexp = regexp.MustCompile(`(?i)\[Model:\s*([^\]]+)\]`)
	// modelCodeRegexp matches a trailing parenthesized alphanumeric code
	modelCodeRegexp = regexp.MustCompile(`\(([A-Z0-9\-]{5,})\)\s*$`)
)

// knownBrands is matched against titles in this exact order; first hit wins.
// Do not sort by length, the list order is the tie-break.
var knownBrands = []string{
	"Wilson",
	"Rawlings",
	"Mizuno",
	"Easton",
	"Marucci",
	"Franklin",
	"Louisville Slugger",
	"Nike",
	"Nokona",
	"SSK",
	"Adidas",
	"All Star",
	"Akadema",
	"44 Pro",
}

// Clean trims s and coerces blank to the empty string, the package-wide
// "field absent" marker for text.
func Clean(s string) string {
	return strings.TrimSpace(s)
}

// SafeFloat parses a float from a value that may carry currency or formatting
// noise. Direct parse first, then the first decimal-looking substring with
// commas stripped. Returns nil when nothing parseable remains.
func SafeFloat(s string) *float64 {
	s = Clean(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return &f
	}
	m := numberRegexp.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return nil
	}
	return &f
}

// SafeJSONMap parses a serialized JSON object, degrading to an empty map on
// any failure. Malformed sub-documents are swallowed silently; that boundary
// is deliberate and matches the upstream scrapers.
func SafeJSONMap(s string) map[string]any {
	s = Clean(s)
	if s == "" {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

// SafeJSONList parses a serialized JSON array, degrading to an empty list.
func SafeJSONList(s string) []any {
	s = Clean(s)
	if s == "" {
		return []any{}
	}
	var out []any
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return []any{}
	}
	return out
}

// sizeRules are tried in fixed priority order; the first rule that yields a
// value wins.
var sizeRules = []func(string) *float64{
	func(s string) *float64 {
		m := sizeDecimalRegexp.FindStringSubmatch(s)
		if m == nil {
			return nil
		}
		return SafeFloat(m[1])
	},
	func(s string) *float64 {
		m := sizeFractionRegexp.FindStringSubmatch(s)
		if m == nil {
			return nil
		}
		whole, _ := strconv.ParseFloat(m[1], 64)
		num, _ := strconv.ParseFloat(m[2], 64)
		den, _ := strconv.ParseFloat(m[3], 64)
		if den == 0 {
			return nil
		}
		f := whole + num/den
		return &f
	},
	func(s string) *float64 {
		m := sizeInchRegexp.FindStringSubmatch(s)
		if m == nil {
			return nil
		}
		return SafeFloat(m[1])
	},
}

// ExtractSizeIn pulls a glove size in inches out of free text.
func ExtractSizeIn(text string) *float64 {
	s := Clean(text)
	if s == "" {
		return nil
	}
	for _, rule := range sizeRules {
		if v := rule(s); v != nil {
			return v
		}
	}
	return nil
}

// NormalizeThrowHand maps free text to RHT/LHT/UNK. The empty string means
// the field was absent, which is distinct from UNK (present but unparseable).
func NormalizeThrowHand(s string) string {
	t := strings.ToLower(Clean(s))
	if t == "" {
		return ""
	}
	switch {
	case strings.Contains(t, "rht") || strings.Contains(t, "right"):
		return "RHT"
	case strings.Contains(t, "lht") || strings.Contains(t, "left"):
		return "LHT"
	default:
		return "UNK"
	}
}

// positionRules map free text onto the closed position set, first match wins.
var positionRules = []struct {
	match func(string) bool
	code  string
}{
	{func(s string) bool { return strings.Contains(s, "outfield") || s == "of" }, "OF"},
	{func(s string) bool { return strings.Contains(s, "infield") || s == "if" }, "IF"},
	{func(s string) bool { return strings.Contains(s, "pitch") }, "P"},
	{func(s string) bool { return strings.Contains(s, "catch") }, "C"},
	{func(s string) bool { return strings.Contains(s, "1b") || strings.Contains(s, "first") }, "1B"},
	{func(s string) bool { return strings.Contains(s, "middle") || strings.Contains(s, "ss") || strings.Contains(s, "2b") }, "MI"},
	{func(s string) bool { return strings.Contains(s, "utility") }, "Utility"},
}

// NormalizePosition maps free text to a position category. Unmatched text
// passes through cleaned but unmapped.
func NormalizePosition(s string) string {
	cleaned := Clean(s)
	if cleaned == "" {
		return ""
	}
	t := strings.ToLower(cleaned)
	for _, rule := range positionRules {
		if rule.match(t) {
			return rule.code
		}
	}
	return cleaned
}

// InferBrand prefers an explicit brand value, then matches the title against
// the known-brand list.
func InferBrand(title, explicit string) string {
	if e := Clean(explicit); e != "" {
		return e
	}
	t := strings.ToLower(Clean(title))
	if t == "" {
		return ""
	}
	for _, brand := range knownBrands {
		if strings.Contains(t, strings.ToLower(brand)) {
			return brand
		}
	}
	return ""
}

// InferModel prefers an explicit model value, then a bracketed [Model: ...]
// marker, then a trailing parenthesized code of at least 5 characters.
func InferModel(title, explicit string) string {
	if e := Clean(explicit); e != "" {
		return e
	}
	t := Clean(title)
	if t == "" {
		return ""
	}
	if m := modelMarkerRegexp.FindStringSubmatch(t); m != nil {
		return Clean(m[1])
	}
	if m := modelCodeRegexp.FindStringSubmatch(t); m != nil {
		return Clean(m[1])
	}
	return ""
}

// InferSport returns softball only when the title or any profile value says
// so; baseball is the default.
func InferSport(title string, profile map[string]any) string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(Clean(title)))
	for _, k := range sortedKeys(profile) {
		sb.WriteString(" ")
		sb.WriteString(strings.ToLower(stringifyValue(profile[k])))
	}
	merged := sb.String()
	if strings.Contains(merged, "softball") || strings.Contains(merged, "fastpitch") {
		return "softball"
	}
	return "baseball"
}

// NormalizeImages parses a serialized image-URL list, keeping only non-empty
// HTTP(S) strings and dropping repeats while preserving first-seen order.
func NormalizeImages(raw string) []string {
	arr := SafeJSONList(raw)
	out := make([]string, 0, len(arr))
	seen := make(map[string]struct{}, len(arr))
	for _, item := range arr {
		s, ok := item.(string)
		if !ok {
			continue
		}
		u := Clean(s)
		if u == "" || !(strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")) {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// ProfileFields scans a structured profile for the size / throw-hand /
// position / web signals by case-insensitive key substring. Keys are visited
// in sorted order so the scan is deterministic; the first match per field
// sticks.
func ProfileFields(profile map[string]any) (sizeText, throwText, posText, webText string) {
	for _, k := range sortedKeys(profile) {
		lk := strings.ToLower(Clean(k))
		v := Clean(stringifyValue(profile[k]))
		if v == "" {
			continue
		}
		if sizeText == "" && strings.Contains(lk, "size") {
			sizeText = v
		}
		if throwText == "" && (strings.Contains(lk, "throw") || strings.Contains(lk, "hand")) {
			throwText = v
		}
		if posText == "" && strings.Contains(lk, "position") {
			posText = v
		}
		if webText == "" && strings.Contains(lk, "web") {
			webText = v
		}
	}
	return sizeText, throwText, posText, webText
}

// ProfileString returns the cleaned string value of a profile key matched
// case-insensitively by exact name.
func ProfileString(profile map[string]any, key string) string {
	for _, k := range sortedKeys(profile) {
		if strings.EqualFold(Clean(k), key) {
			return Clean(stringifyValue(profile[k]))
		}
	}
	return ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stringifyValue renders a profile value as text the way the heuristics
// expect: strings pass through, numbers drop their JSON float formatting
// noise, everything else re-serializes.
func stringifyValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// FormatSize renders a size as compact text, e.g. 11.5 → "11.5", 12 → "12".
func FormatSize(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
