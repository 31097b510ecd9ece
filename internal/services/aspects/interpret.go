package aspects

import (
	"fmt"
	"math"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
)

var categories = map[string]string{
	"conjunction":    "fusion",
	"opposition":     "polarity",
	"trine":          "harmony",
	"square":         "tension",
	"sextile":        "opportunity",
	"quincunx":       "adjustment",
	"semisextile":    "connection",
	"semisquare":     "irritation",
	"sesquiquadrate": "pressure",
	"quintile":       "creativity",
	"biquintile":     "talent",
}

// CategoryOf labels a natal aspect by the theme it expresses.
func CategoryOf(name string) string {
	if c, ok := categories[CanonicalName(name)]; ok {
		return c
	}
	return "neutral"
}

// Categorize stamps the category on every match.
func Categorize(matches []models.AspectMatch) {
	for i := range matches {
		matches[i].Category = CategoryOf(matches[i].Definition.Name)
	}
}

// Mean daily motion in degrees. Points not listed move at defaultSpeed.
var meanSpeeds = map[models.Body]float64{
	models.Sun:     1.0,
	models.Moon:    13.0,
	models.Mercury: 1.4,
	models.Venus:   1.2,
	models.Mars:    0.5,
	models.Jupiter: 0.08,
	models.Saturn:  0.03,
	models.Uranus:  0.01,
	models.Neptune: 0.006,
	models.Pluto:   0.004,
}

const (
	defaultSpeed     = 0.5
	defaultWindowOrb = 5.0
)

// EstimateDuration is a rough figure for how long a transit stays in orb:
// the faster body crossing twice the aspect's major orb at its mean speed.
func EstimateDuration(aspect string, a, b models.Body) string {
	speed := math.Max(speedOf(a), speedOf(b))
	orb := defaultWindowOrb
	if d, ok := Lookup(aspect); ok && d.Major {
		orb = d.Orb
	}

	days := orb * 2 / speed
	switch {
	case days < 1:
		return "a few hours"
	case days < 7:
		return about(int(days), "day")
	case days < 30:
		return about(int(days/7), "week")
	case days < 365:
		return about(int(days/30), "month")
	default:
		return about(int(days/365), "year")
	}
}

func speedOf(b models.Body) float64 {
	if v, ok := meanSpeeds[b]; ok {
		return v
	}
	return defaultSpeed
}

func about(n int, unit string) string {
	if n == 1 {
		return "about 1 " + unit
	}
	return fmt.Sprintf("about %d %ss", n, unit)
}

// Lunar phase bands, by Moon-minus-Sun elongation.
const (
	PhaseNew    = "new"
	PhaseWaxing = "waxing"
	PhaseFull   = "full"
	PhaseWaning = "waning"
)

// MoonPhase returns the phase band, the sunlit percentage of the disc and
// the elongation of the Moon east of the Sun in [0, 360).
func MoonPhase(sunLon, moonLon float64) (phase string, illumination, elongation float64) {
	elongation = Normalize(moonLon - sunLon)
	illumination = (1 - math.Cos(elongation*math.Pi/180)) / 2 * 100

	switch {
	case elongation < 45 || elongation >= 315:
		phase = PhaseNew
	case elongation < 135:
		phase = PhaseWaxing
	case elongation < 225:
		phase = PhaseFull
	default:
		phase = PhaseWaning
	}
	return phase, illumination, elongation
}
