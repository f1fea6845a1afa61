// Package coords maps canvas pixels to chart domain values.
package coords

// Scale is a linear map from a domain interval onto a range interval. The
// range may be inverted (R0 > R1), as it is for a y axis that grows downward.
type Scale struct {
	D0, D1 float64
	R0, R1 float64
}

// Degenerate reports whether either interval has zero width, in which case
// the scale cannot be inverted.
func (s Scale) Degenerate() bool {
	return s.D0 == s.D1 || s.R0 == s.R1
}

// Apply maps a domain value to the range.
func (s Scale) Apply(d float64) float64 {
	return s.R0 + (d-s.D0)*(s.R1-s.R0)/(s.D1-s.D0)
}

// Invert maps a range value back to the domain.
func (s Scale) Invert(r float64) float64 {
	return s.D0 + (r-s.R0)*(s.D1-s.D0)/(s.R1-s.R0)
}
