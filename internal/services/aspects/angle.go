// Package aspects detects, ranks and scores angular relationships between
// celestial positions.
package aspects

import "math"

// Separation returns the shortest angular distance between two longitudes,
// in [0, 180]. Inputs need not be normalised.
func Separation(a, b float64) float64 {
	d := math.Abs(Normalize(a) - Normalize(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// Normalize maps any angle into [0, 360).
func Normalize(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

// Midpoint returns the midpoint of the shorter arc between a and b.
func Midpoint(a, b float64) float64 {
	a, b = Normalize(a), Normalize(b)
	mid := (a + b) / 2
	if math.Abs(a-b) > 180 {
		mid += 180
	}
	return Normalize(mid)
}
