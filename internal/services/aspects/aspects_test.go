package aspects

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
)

func TestSeparationSymmetricAndBounded(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		a := r.Float64()*1440 - 720
		b := r.Float64()*1440 - 720
		s := Separation(a, b)
		assert.InDelta(t, s, Separation(b, a), 1e-9)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 180.0)
	}
	assert.InDelta(t, 20.0, Separation(350, 10), 1e-9)
	assert.InDelta(t, 180.0, Separation(0, 180), 1e-9)
}

func TestMidpointShorterArc(t *testing.T) {
	assert.InDelta(t, 0.0, Midpoint(350, 10), 1e-9)
	assert.InDelta(t, 30.0, Midpoint(10, 50), 1e-9)
	assert.InDelta(t, 270.0, Midpoint(200, 340), 1e-9)
}

func TestMatch(t *testing.T) {
	t.Run("exact sextile", func(t *testing.T) {
		d, orb, ok := Match(Separation(10, 70), DefaultTable, 1)
		require.True(t, ok)
		assert.Equal(t, "sextile", d.Name)
		assert.Equal(t, 0.0, orb)
		assert.Equal(t, 100.0, Strength(orb, d.Orb))
	})

	t.Run("nothing in range", func(t *testing.T) {
		_, _, ok := Match(Separation(0, 9), DefaultTable, 1)
		assert.False(t, ok)
	})

	t.Run("smallest orb wins", func(t *testing.T) {
		d, orb, ok := Match(50, DefaultTable, 3)
		require.True(t, ok)
		assert.Equal(t, "semisquare", d.Name)
		assert.InDelta(t, 5.0, orb, 1e-9)
	})

	t.Run("equal orb goes to lower angle", func(t *testing.T) {
		d, _, ok := Match(37.5, DefaultTable, 4)
		require.True(t, ok)
		assert.Equal(t, "semisextile", d.Name)

		d, _, ok = Match(15, DefaultTable, 8)
		require.True(t, ok)
		assert.Equal(t, "conjunction", d.Name)
	})

	t.Run("non-positive multiplier is one", func(t *testing.T) {
		_, _, ok := Match(7.5, DefaultTable, 0)
		assert.True(t, ok)
		_, _, ok = Match(8.5, DefaultTable, -2)
		assert.False(t, ok)
	})
}

func TestStrength(t *testing.T) {
	assert.Equal(t, 100.0, Strength(0, 0))
	assert.Equal(t, 50.0, Strength(4, 8))
	assert.Equal(t, 0.0, Strength(8, 8))
	assert.Equal(t, 66.7, Strength(2, 6))
}

func TestSelect(t *testing.T) {
	all, err := Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, len(DefaultTable))

	sel, err := Select([]string{"Opposition", "inconjunct", "trine"})
	require.NoError(t, err)
	require.Len(t, sel, 3)
	assert.Equal(t, "trine", sel[0].Name)
	assert.Equal(t, "quincunx", sel[1].Name)
	assert.Equal(t, "opposition", sel[2].Name)

	_, err = Select([]string{"bogus"})
	assert.Error(t, err)

	assert.Equal(t, models.Tense, ClassOf("sesqui-square"))
	assert.Equal(t, models.Neutral, ClassOf("unknown"))
}

func pos(b models.Body, lon, speed float64) models.CelestialPosition {
	return models.CelestialPosition{Body: b, Longitude: lon, Speed: speed}
}

func TestWithinPairsAndApplying(t *testing.T) {
	set := models.PositionSet{
		models.Mars: pos(models.Mars, 95, 0.5),
		models.Sun:  pos(models.Sun, 0, 1),
		models.Moon: pos(models.Moon, 60, 13),
	}
	got := Within(set, Options{})
	require.Len(t, got, 2)

	byPair := map[string]models.AspectMatch{}
	for _, m := range got {
		assert.True(t, models.BodyLess(m.BodyA, m.BodyB), "pair %s-%s not canonical", m.BodyA, m.BodyB)
		byPair[string(m.BodyA)+"-"+string(m.BodyB)] = m
	}

	sextile := byPair["Sun-Moon"]
	assert.Equal(t, "sextile", sextile.Definition.Name)
	assert.False(t, sextile.Applying)

	square := byPair["Sun-Mars"]
	assert.Equal(t, "square", square.Definition.Name)
	assert.InDelta(t, 5.0, square.Orb, 1e-9)
	assert.True(t, square.Applying)

	// strongest first
	assert.Equal(t, "sextile", got[0].Definition.Name)
}

func TestWithinBodyFilterAndMaxOrb(t *testing.T) {
	set := models.PositionSet{
		models.Sun:  pos(models.Sun, 0, 1),
		models.Moon: pos(models.Moon, 60, 13),
		models.Mars: pos(models.Mars, 95, 0.5),
	}
	got := Within(set, Options{BodiesA: []models.Body{models.Sun, models.Mars}})
	require.Len(t, got, 1)
	assert.Equal(t, models.Mars, got[0].BodyB)

	got = Within(set, Options{MaxOrb: 4})
	require.Len(t, got, 1)
	assert.Equal(t, models.Moon, got[0].BodyB)
}

func TestBetweenAllowsSameBody(t *testing.T) {
	a := models.PositionSet{models.Sun: pos(models.Sun, 0, 1)}
	b := models.PositionSet{models.Sun: pos(models.Sun, 121, 1)}
	got := Between(a, b, Options{})
	require.Len(t, got, 1)
	assert.Equal(t, "trine", got[0].Definition.Name)
	assert.Equal(t, models.Sun, got[0].BodyA)
	assert.Equal(t, models.Sun, got[0].BodyB)
	assert.Equal(t, 87.5, got[0].Strength)
}

func TestWithinRandomProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		set := models.PositionSet{}
		for _, b := range models.CanonicalBodies {
			set[b] = pos(b, r.Float64()*360, r.Float64()*2-0.5)
		}
		mult := 0.5 + r.Float64()*1.5
		got := Within(set, Options{OrbMultiplier: mult})
		n := len(set)
		assert.LessOrEqual(t, len(got), n*(n-1)/2)
		for _, m := range got {
			assert.LessOrEqual(t, m.Orb, m.Definition.Orb*mult+1e-9)
			assert.GreaterOrEqual(t, m.Strength, 0.0)
			assert.LessOrEqual(t, m.Strength, 100.0)
			assert.NotEqual(t, m.BodyA, m.BodyB)
		}
	}
}

func TestRankCapsMinors(t *testing.T) {
	var in []models.AspectMatch
	for i := 0; i < 15; i++ {
		in = append(in, models.AspectMatch{
			BodyA:      models.Body(fmt.Sprintf("p%02d", i)),
			Definition: DefaultTable[1],
			Strength:   float64(i),
		})
	}
	in = append(in,
		models.AspectMatch{BodyA: "weak", Definition: DefaultTable[0], Strength: 1},
		models.AspectMatch{BodyA: "strong", Definition: DefaultTable[3], Strength: 90},
	)

	got := rank(in)
	require.Len(t, got, 2+MinorCap)
	assert.Equal(t, models.Body("strong"), got[0].BodyA)
	assert.Equal(t, models.Body("weak"), got[1].BodyA)
	assert.Equal(t, models.Body("p14"), got[2].BodyA)
	assert.Equal(t, models.Body("p05"), got[len(got)-1].BodyA)
}

func TestRankIsStable(t *testing.T) {
	in := []models.AspectMatch{
		{BodyA: "a", Definition: DefaultTable[0], Strength: 50},
		{BodyA: "b", Definition: DefaultTable[0], Strength: 50},
		{BodyA: "c", Definition: DefaultTable[0], Strength: 50},
	}
	got := rank(in)
	assert.Equal(t, models.Body("a"), got[0].BodyA)
	assert.Equal(t, models.Body("b"), got[1].BodyA)
	assert.Equal(t, models.Body("c"), got[2].BodyA)
}

func TestScore(t *testing.T) {
	assert.Equal(t, NeutralScore, Score(nil))

	trine, _ := Lookup("trine")
	square, _ := Lookup("square")
	quincunx, _ := Lookup("quincunx")

	harmonic := models.AspectMatch{BodyA: models.Sun, BodyB: models.Moon, Definition: trine}
	tense := models.AspectMatch{BodyA: models.Sun, BodyB: models.Moon, Definition: square}

	assert.Equal(t, 100.0, Score([]models.AspectMatch{harmonic}))
	assert.Equal(t, 0.0, Score([]models.AspectMatch{tense}))
	assert.Equal(t, 66.7, Score([]models.AspectMatch{harmonic, tense}))
	assert.Equal(t, 100.0, Score([]models.AspectMatch{{BodyA: "Chiron", BodyB: "Lilith", Definition: quincunx, Orb: 2}}))

	// wide orbs never push the decay below 0.1
	wide := tense
	wide.Orb = 30
	assert.Equal(t, 0.0, Score([]models.AspectMatch{wide}))
}

func TestScoreIgnoresOrder(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	set := models.PositionSet{}
	for _, b := range models.CanonicalBodies {
		set[b] = pos(b, r.Float64()*360, 1)
	}
	other := models.PositionSet{}
	for _, b := range models.CanonicalBodies {
		other[b] = pos(b, r.Float64()*360, 1)
	}
	matches := Between(set, other, Options{})
	require.Greater(t, len(matches), 5)
	want := Score(matches)

	shuffled := append([]models.AspectMatch(nil), matches...)
	for round := 0; round < 20; round++ {
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.InDelta(t, want, Score(shuffled), 0.1)
	}
}

func TestBodyWeight(t *testing.T) {
	assert.Equal(t, 3.0, BodyWeight(models.Sun))
	assert.Equal(t, 2.5, BodyWeight(models.Venus))
	assert.Equal(t, 0.5, BodyWeight(models.Chiron))
}

func TestZodiac(t *testing.T) {
	name, num, deg := SignOf(45)
	assert.Equal(t, "Taurus", name)
	assert.Equal(t, 2, num)
	assert.InDelta(t, 15.0, deg, 1e-9)

	name, num, deg = SignOf(-10)
	assert.Equal(t, "Pisces", name)
	assert.Equal(t, 12, num)
	assert.InDelta(t, 20.0, deg, 1e-9)

	assert.Equal(t, "Fire", ElementOf("Leo"))
	assert.Equal(t, "Water", ElementOf("Pis"))
	assert.Equal(t, "Fixed", ModalityOf("Leo"))
	assert.Equal(t, "Cardinal", ModalityOf("Aries"))
	assert.Equal(t, "", ElementOf("Ophiuchus"))

	assert.Equal(t, "12°30'00\"", FormatDMS(12.5))
	assert.Equal(t, "0°00'36\"", FormatDMS(0.01))
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, "harmony", CategoryOf("Trine"))
	assert.Equal(t, "adjustment", CategoryOf("inconjunct"))
	assert.Equal(t, "pressure", CategoryOf("sesquisquare"))
	assert.Equal(t, "neutral", CategoryOf("septile"))

	matches := []models.AspectMatch{{Definition: DefaultTable[0]}, {Definition: DefaultTable[5]}}
	Categorize(matches)
	assert.Equal(t, "fusion", matches[0].Category)
	assert.Equal(t, "tension", matches[1].Category)
}

func TestEstimateDuration(t *testing.T) {
	cases := []struct {
		aspect string
		a, b   models.Body
		want   string
	}{
		{"trine", models.Moon, models.Sun, "about 1 day"},
		{"quintile", models.Moon, models.Venus, "a few hours"},
		{"square", models.Sun, models.Saturn, "about 2 weeks"},
		{"opposition", models.Jupiter, models.Pluto, "about 6 months"},
		{"conjunction", models.Pluto, models.Neptune, "about 7 years"},
		{"opposition", "Chiron", "Lilith", "about 1 month"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, EstimateDuration(tc.aspect, tc.a, tc.b), "%s %s-%s", tc.aspect, tc.a, tc.b)
	}
}

func TestMoonPhase(t *testing.T) {
	cases := []struct {
		sun, moon float64
		phase     string
		lit       float64
	}{
		{10, 10, PhaseNew, 0},
		{350, 20, PhaseNew, 6.7},
		{0, 90, PhaseWaxing, 50},
		{350, 170, PhaseFull, 100},
		{0, 270, PhaseWaning, 50},
		{100, 50, PhaseWaning, 17.86},
	}
	for _, tc := range cases {
		phase, lit, elong := MoonPhase(tc.sun, tc.moon)
		assert.Equal(t, tc.phase, phase, "sun %v moon %v", tc.sun, tc.moon)
		assert.InDelta(t, tc.lit, lit, 0.05)
		assert.GreaterOrEqual(t, elong, 0.0)
		assert.Less(t, elong, 360.0)
	}
}
