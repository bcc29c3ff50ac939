package services

import (
	"reflect"
	"testing"
)

func TestSafeFloat(t *testing.T) {
	tests := []struct {
		raw  string
		want *float64
	}{
		{"120", f(120)},
		{"  149.99 ", f(149.99)},
		{"$1,200.50", f(1200.50)},
		{"USD 99", f(99)},
		{"free", nil},
		{"", nil},
	}

	for _, tt := range tests {
		got := SafeFloat(tt.raw)
		if !floatPtrEq(got, tt.want) {
			t.Errorf("SafeFloat(%q) = %v; want %v", tt.raw, fv(got), fv(tt.want))
		}
	}
}

func TestExtractSizeIn(t *testing.T) {
	tests := []struct {
		raw  string
		want *float64
	}{
		{"12 3/4", f(12.75)},
		{"12 - 3/4", f(12.75)},
		{`11.5"`, f(11.5)},
		{`12"`, f(12)},
		{"11.75", f(11.75)},
		{"no digits here", nil},
		{"", nil},
	}

	for _, tt := range tests {
		got := ExtractSizeIn(tt.raw)
		if !floatPtrEq(got, tt.want) {
			t.Errorf("ExtractSizeIn(%q) = %v; want %v", tt.raw, fv(got), fv(tt.want))
		}
	}
}

func TestNormalizeThrowHand(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Throws Right", "RHT"},
		{"RHT", "RHT"},
		{"Left Hand Throw", "LHT"},
		{"LHT", "LHT"},
		{"ambidextrous", "UNK"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := NormalizeThrowHand(tt.raw); got != tt.want {
			t.Errorf("NormalizeThrowHand(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizePosition(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Outfield", "OF"},
		{"of", "OF"},
		{"Infield glove", "IF"},
		{"Pitcher", "P"},
		{"Catcher's Mitt", "C"},
		{"First Base", "1B"},
		{"Middle Infield", "IF"},
		{"Middle", "MI"},
		{"SS/2B", "MI"},
		{"Utility", "Utility"},
		{"Goalkeeper", "Goalkeeper"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizePosition(tt.raw); got != tt.want {
			t.Errorf("NormalizePosition(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestInferBrand(t *testing.T) {
	tests := []struct {
		title    string
		explicit string
		want     string
	}{
		{"Wilson A2000 1786", "", "Wilson"},
		{"rawlings heart of the hide", "", "Rawlings"},
		{"some off-brand glove", "", ""},
		{"Wilson A2000", "Rawlings", "Rawlings"},
		{"", "", ""},
	}

	for _, tt := range tests {
		if got := InferBrand(tt.title, tt.explicit); got != tt.want {
			t.Errorf("InferBrand(%q, %q) = %q; want %q", tt.title, tt.explicit, got, tt.want)
		}
	}
}

func TestInferModel(t *testing.T) {
	tests := []struct {
		title    string
		explicit string
		want     string
	}{
		{"Glove [Model: A2000-1786]", "", "A2000-1786"},
		{"Wilson A2000 1786 (WBW100396115)", "", "WBW100396115"},
		{"too short code (AB12)", "", ""},
		{"code not at end (WBW100396115) extra", "", ""},
		{"anything", "PRO204", "PRO204"},
		{"", "", ""},
	}

	for _, tt := range tests {
		if got := InferModel(tt.title, tt.explicit); got != tt.want {
			t.Errorf("InferModel(%q, %q) = %q; want %q", tt.title, tt.explicit, got, tt.want)
		}
	}
}

func TestInferSport(t *testing.T) {
	tests := []struct {
		title   string
		profile map[string]any
		want    string
	}{
		{"Wilson A2000", nil, "baseball"},
		{"Fastpitch Softball Glove", nil, "softball"},
		{"Wilson A2000", map[string]any{"Level": "Fastpitch"}, "softball"},
		{"", map[string]any{"Sport": "Softball"}, "softball"},
		{"", nil, "baseball"},
	}

	for _, tt := range tests {
		if got := InferSport(tt.title, tt.profile); got != tt.want {
			t.Errorf("InferSport(%q, %v) = %q; want %q", tt.title, tt.profile, got, tt.want)
		}
	}
}

func TestNormalizeImages(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{`["https://x/a.jpg","https://x/b.jpg"]`, []string{"https://x/a.jpg", "https://x/b.jpg"}},
		{`["https://x/a.jpg","https://x/a.jpg"]`, []string{"https://x/a.jpg"}},
		{`["ftp://bad","","https://x/a.jpg", 42]`, []string{"https://x/a.jpg"}},
		{`not json`, []string{}},
		{``, []string{}},
	}

	for _, tt := range tests {
		got := NormalizeImages(tt.raw)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("NormalizeImages(%q) = %v; want %v", tt.raw, got, tt.want)
		}
	}
}

func TestSafeJSONMapFallsBack(t *testing.T) {
	if got := SafeJSONMap(`{"a": 1}`); got["a"] != float64(1) {
		t.Errorf("SafeJSONMap valid object = %v; want a=1", got)
	}
	for _, raw := range []string{"", "   ", "{broken", `["list","not","object"]`, "null"} {
		got := SafeJSONMap(raw)
		if got == nil || len(got) != 0 {
			t.Errorf("SafeJSONMap(%q) = %v; want empty map", raw, got)
		}
	}
}

func TestProfileFields(t *testing.T) {
	profile := map[string]any{
		"Glove Size":    `11.5"`,
		"Throwing Hand": "Right",
		"Position":      "Outfield",
		"Web":           "H-Web",
	}
	size, throw, pos, web := ProfileFields(profile)
	if size != `11.5"` || throw != "Right" || pos != "Outfield" || web != "H-Web" {
		t.Errorf("ProfileFields = (%q, %q, %q, %q)", size, throw, pos, web)
	}

	size, throw, pos, web = ProfileFields(map[string]any{})
	if size != "" || throw != "" || pos != "" || web != "" {
		t.Errorf("ProfileFields(empty) should be all blank")
	}
}

func f(v float64) *float64 { return &v }

func fv(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatPtrEq(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
