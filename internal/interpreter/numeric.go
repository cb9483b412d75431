package interpreter

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numberRe is the only number grammar COERCE_NUMERIC accepts: an optional
// leading minus, decimal digits with an optional fraction (or a bare
// fraction), and an optional exponent. Leading '+', digit separators, hex,
// Inf and NaN are all rejected.
var numberRe = regexp.MustCompile(`^-?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?$`)

// ParseNumber parses the trimmed form of s.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numberRe.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// out of float64 range
		return 0, false
	}
	return v, true
}

// CanonicalNumber formats v the way rewritten cells are stored. Magnitudes
// at or above 1e21 or below 1e-6 use exponent notation; everything else is
// the shortest plain decimal.
func CanonicalNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	abs := math.Abs(v)
	if abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
