package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// AspectClass groups aspects for scoring.
type AspectClass string

const (
	Harmonic AspectClass = "harmonic"
	Tense    AspectClass = "tense"
	Neutral  AspectClass = "neutral"
)

// AspectDefinition is one row of the fixed aspect table.
type AspectDefinition struct {
	Angle float64     `json:"angle"`
	Name  string      `json:"name"`
	Orb   float64     `json:"orb"`
	Class AspectClass `json:"class"`
	Major bool        `json:"major"`
}

// AspectMatch is a qualifying pair. Orb is kept unrounded so it never
// exceeds the tolerance it was matched against; JSON output rounds.
type AspectMatch struct {
	BodyA      Body
	BodyB      Body
	Definition AspectDefinition
	Orb        float64
	Strength   float64
	Applying   bool
	// Category is set on natal aspects only.
	Category string
}

type aspectMatchJSON struct {
	Planet1  Body        `json:"planet1"`
	Planet2  Body        `json:"planet2"`
	Aspect   string      `json:"aspect"`
	Angle    float64     `json:"angle"`
	Class    AspectClass `json:"class"`
	Orb      float64     `json:"orb"`
	Strength float64     `json:"strength"`
	Applying bool        `json:"applying"`
	Category string      `json:"category,omitempty"`
}

func (m AspectMatch) MarshalJSON() ([]byte, error) {
	return json.Marshal(aspectMatchJSON{
		Planet1:  m.BodyA,
		Planet2:  m.BodyB,
		Aspect:   m.Definition.Name,
		Angle:    m.Definition.Angle,
		Class:    m.Definition.Class,
		Orb:      RoundFloat(m.Orb, 2),
		Strength: RoundFloat(m.Strength, 1),
		Applying: m.Applying,
		Category: m.Category,
	})
}

// Round rounds half away from zero at places decimals.
func Round(v float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(places)
}

// RoundFloat is Round returned as float64.
func RoundFloat(v float64, places int32) float64 {
	return Round(v, places).InexactFloat64()
}

// ClassCounts tallies matches per class.
type ClassCounts struct {
	Harmonic int `json:"harmonic"`
	Tense    int `json:"tense"`
	Neutral  int `json:"neutral"`
}

// CountClasses tallies matches per class.
func CountClasses(matches []AspectMatch) ClassCounts {
	var c ClassCounts
	for _, m := range matches {
		switch m.Definition.Class {
		case Harmonic:
			c.Harmonic++
		case Tense:
			c.Tense++
		default:
			c.Neutral++
		}
	}
	return c
}
