package aspects

import (
	"fmt"
	"strings"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
)

// DefaultTable lists every supported aspect in ascending angle order.
// The order is relied on by the matcher's tie-break.
var DefaultTable = []models.AspectDefinition{
	{Angle: 0, Name: "conjunction", Orb: 8, Class: models.Harmonic, Major: true},
	{Angle: 30, Name: "semisextile", Orb: 2, Class: models.Neutral},
	{Angle: 45, Name: "semisquare", Orb: 2, Class: models.Tense},
	{Angle: 60, Name: "sextile", Orb: 6, Class: models.Harmonic, Major: true},
	{Angle: 72, Name: "quintile", Orb: 2, Class: models.Harmonic},
	{Angle: 90, Name: "square", Orb: 7, Class: models.Tense, Major: true},
	{Angle: 120, Name: "trine", Orb: 8, Class: models.Harmonic, Major: true},
	{Angle: 135, Name: "sesquiquadrate", Orb: 2, Class: models.Tense},
	{Angle: 144, Name: "biquintile", Orb: 2, Class: models.Harmonic},
	{Angle: 150, Name: "quincunx", Orb: 3, Class: models.Neutral},
	{Angle: 180, Name: "opposition", Orb: 8, Class: models.Tense, Major: true},
}

var aliases = map[string]string{
	"semi_sextile":  "semisextile",
	"semi-sextile":  "semisextile",
	"semi_square":   "semisquare",
	"semi-square":   "semisquare",
	"sesquisquare":  "sesquiquadrate",
	"sesqui_square": "sesquiquadrate",
	"sesqui-square": "sesquiquadrate",
	"inconjunct":    "quincunx",
	"bi_quintile":   "biquintile",
	"bi-quintile":   "biquintile",
	"conjunct":      "conjunction",
	"opposite":      "opposition",
}

// CanonicalName maps a case-insensitive name or alias to the table name.
// Unknown names are returned lower-cased and trimmed.
func CanonicalName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if c, ok := aliases[n]; ok {
		return c
	}
	return n
}

// Lookup finds a definition by name or alias.
func Lookup(name string) (models.AspectDefinition, bool) {
	n := CanonicalName(name)
	for _, d := range DefaultTable {
		if d.Name == n {
			return d, true
		}
	}
	return models.AspectDefinition{}, false
}

// ClassOf returns the class of a named aspect; unknown names are neutral.
func ClassOf(name string) models.AspectClass {
	if d, ok := Lookup(name); ok {
		return d.Class
	}
	return models.Neutral
}

// Select returns the table rows named in names, keeping table order.
// An empty list selects the whole table.
func Select(names []string) ([]models.AspectDefinition, error) {
	if len(names) == 0 {
		return DefaultTable, nil
	}
	want := make(map[string]bool, len(names))
	for _, name := range names {
		d, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown aspect %q", name)
		}
		want[d.Name] = true
	}
	out := make([]models.AspectDefinition, 0, len(want))
	for _, d := range DefaultTable {
		if want[d.Name] {
			out = append(out, d)
		}
	}
	return out, nil
}
