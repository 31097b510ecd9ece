package models

import "time"

// Granularity is the scan resolution.
type Granularity string

const (
	GranularityExact Granularity = "exact"
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// StepDays returns the fixed step width of a periodic granularity.
// A month is always 30 days, not a calendar month.
func (g Granularity) StepDays() (int, bool) {
	switch g {
	case GranularityDay:
		return 1, true
	case GranularityWeek:
		return 7, true
	case GranularityMonth:
		return 30, true
	}
	return 0, false
}

// Valid reports whether g is a known granularity.
func (g Granularity) Valid() bool {
	_, periodic := g.StepDays()
	return periodic || g == GranularityExact
}

// TransitEvent is one detected or sampled aspect between a transiting body
// and a natal point.
type TransitEvent struct {
	Date           string  `json:"date"`
	Time           string  `json:"time,omitempty"`
	TransitingBody Body    `json:"transiting_planet"`
	Aspect         string  `json:"aspect_type"`
	Target         Body    `json:"natal_planet_or_point"`
	Orb            float64 `json:"orb"`
	Applying       *bool   `json:"is_applying,omitempty"`
	Duration       string  `json:"estimated_duration,omitempty"`
}

// TransitFilters echoes the allow-lists a scan ran with.
type TransitFilters struct {
	TransitingPlanets []string `json:"transiting_planets"`
	NatalPoints       []string `json:"natal_points"`
	AspectTypes       []string `json:"aspect_types"`
}

// TransitSummary describes a completed scan.
type TransitSummary struct {
	ScanID          string         `json:"scan_id"`
	CalculationMode Granularity    `json:"calculation_mode"`
	TotalEvents     int            `json:"total_events"`
	DateRange       string         `json:"date_range"`
	FiltersApplied  TransitFilters `json:"filters_applied"`
}

// TransitScan is the scanner output.
type TransitScan struct {
	Events  []TransitEvent `json:"events"`
	Summary TransitSummary `json:"summary"`
}

// TransitQuery asks the provider for exact events in [Start, End].
type TransitQuery struct {
	Natal      Instant
	Mode       CalcMode
	Start      time.Time
	End        time.Time
	Transiting []Body
	Targets    []Body
	Aspects    []string
}

// ReturnKind selects which body's return to search for.
type ReturnKind string

const (
	SolarReturn ReturnKind = "solar"
	LunarReturn ReturnKind = "lunar"
)

// Body is the body whose natal longitude the return repeats.
func (k ReturnKind) Body() Body {
	if k == LunarReturn {
		return Moon
	}
	return Sun
}

// ReturnQuery asks the provider for the first moment at or after After
// when Kind's body is back at its natal longitude.
type ReturnQuery struct {
	Kind  ReturnKind
	Natal Instant
	Mode  CalcMode
	After time.Time
}
