package aspects

import (
	"math"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
)

// NeutralScore is returned when there is nothing to score.
const NeutralScore = 50.0

var classWeights = map[models.AspectClass]float64{
	models.Harmonic: 2.0,
	models.Neutral:  1.0,
	models.Tense:    -1.0,
}

var bodyWeights = map[models.Body]float64{
	models.Sun:     3.0,
	models.Moon:    3.0,
	models.Venus:   2.5,
	models.Mars:    2.0,
	models.Mercury: 1.5,
	models.Jupiter: 2.0,
	models.Saturn:  1.5,
	models.Uranus:  1.0,
	models.Neptune: 1.0,
	models.Pluto:   1.0,
}

const defaultBodyWeight = 0.5

// BodyWeight returns the scoring weight of b.
func BodyWeight(b models.Body) float64 {
	if w, ok := bodyWeights[b]; ok {
		return w
	}
	return defaultBodyWeight
}

// Score reduces matches to a 0-100 compatibility value, rounded to one
// decimal. Contributions are summed in slice order so equal input gives a
// byte-identical result; feed it the enumerator's output order.
func Score(matches []models.AspectMatch) float64 {
	var sum, weight float64
	for _, m := range matches {
		c := classWeights[m.Definition.Class] *
			BodyWeight(m.BodyA) * BodyWeight(m.BodyB) *
			math.Max(0.1, 1-m.Orb/10)
		sum += c
		weight += math.Abs(c)
	}
	if weight == 0 {
		return NeutralScore
	}
	score := (sum + weight) / (2 * weight) * 100
	return models.RoundFloat(math.Max(0, math.Min(100, score)), 1)
}
