package aspects

import (
	"sort"

	"github.com/Bessaq/AstroManusJules/internal/domain/models"
)

// MinorCap bounds how many non-major aspects survive ranking.
const MinorCap = 10

// applyingStep is how far ahead (in days) positions are projected to
// decide whether an orb is closing.
const applyingStep = 1.0 / 24

// Options tune enumeration. Zero values select everything at default orbs.
type Options struct {
	// Table restricts the aspects considered; nil means DefaultTable.
	Table []models.AspectDefinition
	// BodiesA filters the first (or only) set; BodiesB the second set.
	BodiesA []models.Body
	BodiesB []models.Body
	// OrbMultiplier scales every tolerance; <= 0 means 1.
	OrbMultiplier float64
	// MaxOrb, when > 0, drops matches with a wider orb.
	MaxOrb float64
}

func (o Options) table() []models.AspectDefinition {
	if o.Table == nil {
		return DefaultTable
	}
	return o.Table
}

func (o Options) multiplier() float64 {
	if o.OrbMultiplier <= 0 {
		return 1
	}
	return o.OrbMultiplier
}

// Within finds aspects inside one position set. Each unordered pair is
// considered once, in canonical body order, and never a body with itself.
func Within(set models.PositionSet, opts Options) []models.AspectMatch {
	bodies := filterBodies(set, opts.BodiesA)
	var matches []models.AspectMatch
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			if m, ok := matchPair(set[bodies[i]], set[bodies[j]], opts); ok {
				matches = append(matches, m)
			}
		}
	}
	return rank(matches)
}

// Between finds aspects from every body of a to every body of b. The same
// body name may appear on both sides (e.g. transiting Sun to natal Sun).
func Between(a, b models.PositionSet, opts Options) []models.AspectMatch {
	left := filterBodies(a, opts.BodiesA)
	right := filterBodies(b, opts.BodiesB)
	var matches []models.AspectMatch
	for _, ba := range left {
		for _, bb := range right {
			if m, ok := matchPair(a[ba], b[bb], opts); ok {
				matches = append(matches, m)
			}
		}
	}
	return rank(matches)
}

func filterBodies(set models.PositionSet, allow []models.Body) []models.Body {
	bodies := set.Bodies()
	if len(allow) == 0 {
		return bodies
	}
	keep := make(map[models.Body]bool, len(allow))
	for _, b := range allow {
		keep[b] = true
	}
	out := bodies[:0]
	for _, b := range bodies {
		if keep[b] {
			out = append(out, b)
		}
	}
	return out
}

func matchPair(pa, pb models.CelestialPosition, opts Options) (models.AspectMatch, bool) {
	sep := Separation(pa.Longitude, pb.Longitude)
	def, orb, ok := Match(sep, opts.table(), opts.multiplier())
	if !ok {
		return models.AspectMatch{}, false
	}
	if opts.MaxOrb > 0 && orb > opts.MaxOrb {
		return models.AspectMatch{}, false
	}
	return models.AspectMatch{
		BodyA:      pa.Body,
		BodyB:      pb.Body,
		Definition: def,
		Orb:        orb,
		Strength:   Strength(orb, def.Orb*opts.multiplier()),
		Applying:   isApplying(pa, pb, def.Angle, orb),
	}, true
}

// isApplying projects both bodies forward by their daily speeds and reports
// whether the orb shrinks.
func isApplying(pa, pb models.CelestialPosition, angle, orb float64) bool {
	if pa.Speed == 0 && pb.Speed == 0 {
		return false
	}
	next := Separation(pa.Longitude+pa.Speed*applyingStep, pb.Longitude+pb.Speed*applyingStep)
	nextOrb := next - angle
	if nextOrb < 0 {
		nextOrb = -nextOrb
	}
	return nextOrb < orb
}

// rank sorts by strength (stable, descending) then keeps every major
// aspect followed by the MinorCap strongest minors.
func rank(matches []models.AspectMatch) []models.AspectMatch {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Strength > matches[j].Strength
	})

	majors := make([]models.AspectMatch, 0, len(matches))
	var minors []models.AspectMatch
	for _, m := range matches {
		if m.Definition.Major {
			majors = append(majors, m)
		} else {
			minors = append(minors, m)
		}
	}
	if len(minors) > MinorCap {
		minors = minors[:MinorCap]
	}
	return append(majors, minors...)
}
