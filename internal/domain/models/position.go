package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Body identifies a celestial body or chart point.
type Body string

const (
	Sun         Body = "Sun"
	Moon        Body = "Moon"
	Mercury     Body = "Mercury"
	Venus       Body = "Venus"
	Mars        Body = "Mars"
	Jupiter     Body = "Jupiter"
	Saturn      Body = "Saturn"
	Uranus      Body = "Uranus"
	Neptune     Body = "Neptune"
	Pluto       Body = "Pluto"
	MeanNode    Body = "Mean_Node"
	TrueNode    Body = "True_Node"
	Chiron      Body = "Chiron"
	Lilith      Body = "Lilith"
	Ascendant   Body = "Ascendant"
	MediumCoeli Body = "Medium_Coeli"
)

// CanonicalBodies is the fixed enumeration order used for pairing and output.
var CanonicalBodies = []Body{
	Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto,
	MeanNode, TrueNode, Chiron, Lilith, Ascendant, MediumCoeli,
}

// ClassicalBodies are the ten planets used for sky-only reports.
var ClassicalBodies = CanonicalBodies[:10]

var bodyIndex = func() map[Body]int {
	m := make(map[Body]int, len(CanonicalBodies))
	for i, b := range CanonicalBodies {
		m[b] = i
	}
	return m
}()

// BodyRank returns the canonical position of b, or len(CanonicalBodies) for unknown bodies.
func BodyRank(b Body) int {
	if i, ok := bodyIndex[b]; ok {
		return i
	}
	return len(CanonicalBodies)
}

// BodyLess orders bodies canonically; unknown bodies follow, sorted by name.
func BodyLess(a, b Body) bool {
	ra, rb := BodyRank(a), BodyRank(b)
	if ra != rb {
		return ra < rb
	}
	return a < b
}

// ParseBody resolves a body name case-insensitively; spaces and hyphens
// are read as underscores ("mean node" is Mean_Node).
func ParseBody(name string) (Body, error) {
	n := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.TrimSpace(name))
	for _, b := range CanonicalBodies {
		if strings.EqualFold(string(b), n) {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown body %q", name)
}

// ParseBodies resolves every name, failing on the first unknown one.
func ParseBodies(names []string) ([]Body, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]Body, 0, len(names))
	for _, name := range names {
		b, err := ParseBody(name)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// SortBodies sorts in place using BodyLess.
func SortBodies(bodies []Body) {
	sort.Slice(bodies, func(i, j int) bool { return BodyLess(bodies[i], bodies[j]) })
}

// CelestialPosition is an immutable snapshot of one body at one instant.
type CelestialPosition struct {
	Body          Body    `json:"name"`
	Longitude     float64 `json:"abs_pos"`
	SignLongitude float64 `json:"position"`
	Sign          string  `json:"sign"`
	SignNum       int     `json:"sign_num"`
	Speed         float64 `json:"speed"`
	Retrograde    bool    `json:"retrograde"`
	House         *int    `json:"house_number"`
	Quality       string  `json:"quality,omitempty"`
	Element       string  `json:"element,omitempty"`
	PositionDMS   string  `json:"position_dms,omitempty"`
}

// PositionSet maps a body to its position.
type PositionSet map[Body]CelestialPosition

// Bodies returns the set's keys in canonical order.
func (ps PositionSet) Bodies() []Body {
	out := make([]Body, 0, len(ps))
	for b := range ps {
		out = append(out, b)
	}
	SortBodies(out)
	return out
}

// Ordered returns the positions in canonical order.
func (ps PositionSet) Ordered() []CelestialPosition {
	bodies := ps.Bodies()
	out := make([]CelestialPosition, 0, len(bodies))
	for _, b := range bodies {
		out = append(out, ps[b])
	}
	return out
}

// HouseCusp is the start of one house.
type HouseCusp struct {
	House     int     `json:"house"`
	Sign      string  `json:"sign"`
	Position  float64 `json:"position"`
	Longitude float64 `json:"abs_pos"`
}

// Chart is what the position provider returns for one instant.
type Chart struct {
	Positions PositionSet `json:"planets"`
	Houses    []HouseCusp `json:"houses,omitempty"`
}

// CalcMode selects how the provider computes positions.
type CalcMode struct {
	HouseSystem  string `json:"house_system"`
	ZodiacType   string `json:"zodiac_type"`
	SiderealMode string `json:"sidereal_mode,omitempty"`
	Perspective  string `json:"perspective_type"`
}

// DefaultCalcMode is Placidus, tropical, apparent geocentric.
var DefaultCalcMode = CalcMode{
	HouseSystem: "placidus",
	ZodiacType:  "Tropic",
	Perspective: "Apparent Geocentric",
}

// Instant is a wall-clock moment at a place. Local carries the IANA location.
type Instant struct {
	Local     time.Time
	Latitude  float64
	Longitude float64
}

// TZ returns the IANA name of the instant's location.
func (i Instant) TZ() string { return i.Local.Location().String() }
