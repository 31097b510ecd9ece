package aspects

import (
	"math"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
)

// Match classifies a separation angle against table with tolerances scaled
// by multiplier (<= 0 means 1). When several rows qualify the smallest orb
// wins; an exact tie goes to the lower canonical angle. Rows are visited in
// ascending angle order, so only a strictly smaller orb replaces the best.
func Match(separation float64, table []models.AspectDefinition, multiplier float64) (models.AspectDefinition, float64, bool) {
	if multiplier <= 0 {
		multiplier = 1
	}

	var (
		best    models.AspectDefinition
		bestOrb = math.Inf(1)
		found   bool
	)
	for _, d := range table {
		orb := math.Abs(separation - d.Angle)
		if orb > d.Orb*multiplier {
			continue
		}
		if orb < bestOrb || (orb == bestOrb && d.Angle < best.Angle) {
			best, bestOrb, found = d, orb, true
		}
	}
	if !found {
		return models.AspectDefinition{}, 0, false
	}
	return best, bestOrb, true
}

// Strength is 100 at exactness falling linearly to 0 at the tolerance edge,
// rounded to one decimal. A zero tolerance yields 100.
func Strength(orb, tolerance float64) float64 {
	if tolerance == 0 {
		return 100
	}
	return models.RoundFloat((tolerance-orb)/tolerance*100, 1)
}
