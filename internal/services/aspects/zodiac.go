package aspects

import (
	"fmt"
	"math"
)

// Signs in zodiac order starting at 0° Aries.
var Signs = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

var signAbbrev = [12]string{
	"Ari", "Tau", "Gem", "Can", "Leo", "Vir",
	"Lib", "Sco", "Sag", "Cap", "Aqu", "Pis",
}

var elements = [4]string{"Fire", "Earth", "Air", "Water"}

var modalities = [3]string{"Cardinal", "Fixed", "Mutable"}

// SignOf splits an ecliptic longitude into a sign name, its 1-based number
// and the degree inside the sign.
func SignOf(longitude float64) (name string, num int, degree float64) {
	lon := Normalize(longitude)
	idx := int(lon / 30)
	if idx > 11 {
		idx = 11
	}
	return Signs[idx], idx + 1, lon - float64(idx)*30
}

// SignIndex resolves a full sign name or the three-letter form to 0..11.
func SignIndex(sign string) (int, bool) {
	for i := range Signs {
		if Signs[i] == sign || signAbbrev[i] == sign {
			return i, true
		}
	}
	return 0, false
}

// ElementOf returns the element of a sign (by name or abbreviation).
func ElementOf(sign string) string {
	i, ok := SignIndex(sign)
	if !ok {
		return ""
	}
	return elements[i%4]
}

// ModalityOf returns Cardinal, Fixed or Mutable for a sign.
func ModalityOf(sign string) string {
	i, ok := SignIndex(sign)
	if !ok {
		return ""
	}
	return modalities[i%3]
}

// FormatDMS renders a degree value as D°MM'SS".
func FormatDMS(deg float64) string {
	sign := ""
	if deg < 0 {
		sign = "-"
		deg = -deg
	}
	total := int(math.Round(deg * 3600))
	d := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%s%d°%02d'%02d\"", sign, d, m, s)
}
