package coords

import (
	"fmt"
	"math"
	"time"

	"github.com/alanyoungcy/tickboard/internal/domain"
)

// Padding is the space between the canvas edge and the plot area, in pixels.
// Axis labels live in the padding.
type Padding struct {
	Top, Right, Bottom, Left float64
}

// DefaultPadding leaves room for a price axis on the left and a time axis
// along the bottom.
var DefaultPadding = Padding{Top: 10, Right: 10, Bottom: 30, Left: 60}

// Canvas is the pixel size of the rendering surface.
type Canvas struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Frame is everything needed to map a pixel: canvas geometry, the visible
// time range, and the resolved price range actually on screen. PriceMin and
// PriceMax are concrete here even when the view window auto-fits.
type Frame struct {
	Canvas   Canvas
	Padding  Padding
	View     domain.ViewWindow
	PriceMin float64
	PriceMax float64
}

// Plot returns the plot rectangle as (x0, y0, x1, y1).
func (f Frame) Plot() (x0, y0, x1, y1 float64) {
	return f.Padding.Left, f.Padding.Top,
		f.Canvas.Width - f.Padding.Right, f.Canvas.Height - f.Padding.Bottom
}

// TimeScale maps unix-nanosecond time onto the plot's x extent.
func (f Frame) TimeScale() Scale {
	x0, _, x1, _ := f.Plot()
	return Scale{
		D0: float64(f.View.TimeMin.UnixNano()),
		D1: float64(f.View.TimeMax.UnixNano()),
		R0: x0,
		R1: x1,
	}
}

// PriceScale maps price onto the plot's y extent, with higher prices nearer
// the top of the canvas.
func (f Frame) PriceScale() Scale {
	_, y0, _, y1 := f.Plot()
	return Scale{D0: f.PriceMin, D1: f.PriceMax, R0: y1, R1: y0}
}

// Valid reports whether the frame describes an invertible mapping.
func (f Frame) Valid() bool {
	x0, y0, x1, y1 := f.Plot()
	if x1 <= x0 || y1 <= y0 {
		return false
	}
	if !f.View.TimeMax.After(f.View.TimeMin) {
		return false
	}
	if !isFinite(f.PriceMin) || !isFinite(f.PriceMax) || f.PriceMax <= f.PriceMin {
		return false
	}
	return true
}

// InPlot reports whether the pixel lies inside the plot rectangle, edges
// included.
func (f Frame) InPlot(x, y float64) bool {
	x0, y0, x1, y1 := f.Plot()
	return x >= x0 && x <= x1 && y >= y0 && y <= y1
}

// Mapper converts pixel clicks to domain values.
type Mapper struct{}

// PixelToDomain returns the (time, price) under pixel (x, y). It fails with
// domain.ErrOutsidePlot when the pixel is on an axis or padding, or when the
// frame cannot be inverted.
func (Mapper) PixelToDomain(f Frame, x, y float64) (time.Time, float64, error) {
	if !f.Valid() {
		return time.Time{}, 0, fmt.Errorf("coords: degenerate frame: %w", domain.ErrOutsidePlot)
	}
	if !f.InPlot(x, y) {
		return time.Time{}, 0, fmt.Errorf("coords: pixel (%.1f, %.1f): %w", x, y, domain.ErrOutsidePlot)
	}
	ns := f.TimeScale().Invert(x)
	price := f.PriceScale().Invert(y)
	return time.Unix(0, int64(math.Round(ns))).UTC(), price, nil
}

// DomainToPixel is the forward mapping, used for placing tile markers.
func (Mapper) DomainToPixel(f Frame, t time.Time, price float64) (x, y float64) {
	return f.TimeScale().Apply(float64(t.UnixNano())), f.PriceScale().Apply(price)
}

// AutoPriceRange resolves a price range covering the ticks that fall in view,
// padded by 5% on each side. It falls back to all ticks when none are in
// view, and widens a flat range so the scale stays invertible.
func AutoPriceRange(view domain.ViewWindow, ticks []domain.Tick) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	scan := func(inViewOnly bool) {
		for _, t := range ticks {
			if inViewOnly && !view.Contains(t.Time) {
				continue
			}
			lo = math.Min(lo, t.Price)
			hi = math.Max(hi, t.Price)
		}
	}
	scan(!view.IsZero())
	if math.IsInf(lo, 1) {
		scan(false)
	}
	if math.IsInf(lo, 1) {
		return 0, 0, false
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.01, 1)
	}
	lo, hi = lo-pad, hi+pad
	return lo, hi, isFinite(lo) && isFinite(hi)
}

// ResolvePriceRange returns the explicit bounds from the view when both are
// set, and the auto-fit range otherwise.
func ResolvePriceRange(view domain.ViewWindow, ticks []domain.Tick) (lo, hi float64, ok bool) {
	if view.PriceMin != nil && view.PriceMax != nil {
		return *view.PriceMin, *view.PriceMax, *view.PriceMax > *view.PriceMin
	}
	return AutoPriceRange(view, ticks)
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
