package domain

import "time"

// ViewWindow is the visible domain range of the chart. Nil price bounds mean
// the surface auto-fits the price axis.
type ViewWindow struct {
	TimeMin  time.Time `json:"time_min"`
	TimeMax  time.Time `json:"time_max"`
	PriceMin *float64  `json:"price_min,omitempty"`
	PriceMax *float64  `json:"price_max,omitempty"`
}

// IsZero reports whether the window has never been set.
func (w ViewWindow) IsZero() bool {
	return w.TimeMin.IsZero() && w.TimeMax.IsZero()
}

// Span returns the visible time span.
func (w ViewWindow) Span() time.Duration {
	return w.TimeMax.Sub(w.TimeMin)
}

// Contains reports whether t falls inside the visible time range.
func (w ViewWindow) Contains(t time.Time) bool {
	return !t.Before(w.TimeMin) && !t.After(w.TimeMax)
}

// ShiftTo returns a copy of the window moved so its right edge is end. The
// span and price bounds are preserved.
func (w ViewWindow) ShiftTo(end time.Time) ViewWindow {
	span := w.Span()
	out := w
	out.TimeMax = end
	out.TimeMin = end.Add(-span)
	return out
}

// PriceBounds is a helper for building windows with explicit price limits.
func PriceBounds(lo, hi float64) (*float64, *float64) {
	return &lo, &hi
}
