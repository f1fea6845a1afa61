// Package snapshot is the headless rendering surface: it keeps an in-memory
// copy of what a chart would show and renders it to PNG on request.
package snapshot

import (
	"slices"
	"sync"
	"time"

	"github.com/alanyoungcy/tickboard/internal/coords"
	"github.com/alanyoungcy/tickboard/internal/domain"
)

// Surface is always ready and redraws in full on every flush.
type Surface struct {
	mu      sync.RWMutex
	frame   coords.Frame
	series  []domain.Tick
	tiles   []domain.Tile
	state   domain.ConnectionState
	redraws int
}

// NewSurface creates a Surface with the given canvas size.
func NewSurface(canvas coords.Canvas) *Surface {
	return &Surface{frame: coords.Frame{Canvas: canvas, Padding: coords.DefaultPadding}}
}

// Ready is always true; there is nothing to initialise.
func (s *Surface) Ready() bool               { return true }
func (s *Surface) SupportsIncremental() bool { return false }

// SetInitialSeries replaces the held series.
func (s *Surface) SetInitialSeries(series []domain.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series = slices.Clone(series)
}

// AppendIncremental is accepted for completeness; the scheduler never calls
// it because SupportsIncremental is false.
func (s *Surface) AppendIncremental(t domain.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series = append(s.series, t)
}

// RequestFullRedraw replaces the held series and counts the redraw.
func (s *Surface) RequestFullRedraw(series []domain.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series = slices.Clone(series)
	s.redraws++
}

// ViewWindow returns the current view.
func (s *Surface) ViewWindow() domain.ViewWindow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame.View
}

// SetViewWindow moves the view. There is nothing to animate headlessly.
func (s *Surface) SetViewWindow(w domain.ViewWindow, animate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame.View = w
}

// PixelToDomain maps a pixel through the current frame.
func (s *Surface) PixelToDomain(x, y float64) (time.Time, float64, bool) {
	f, ok := s.Frame()
	if !ok {
		return time.Time{}, 0, false
	}
	t, price, err := coords.Mapper{}.PixelToDomain(f, x, y)
	return t, price, err == nil
}

// SetTiles replaces the held tiles.
func (s *Surface) SetTiles(tiles []domain.Tile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiles = slices.Clone(tiles)
}

// SetConnectionState records the state shown in the chart title.
func (s *Surface) SetConnectionState(state domain.ConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Frame returns the current pixel mapping with the price axis resolved.
func (s *Surface) Frame() (coords.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f := s.frame
	lo, hi, ok := coords.ResolvePriceRange(f.View, s.series)
	if !ok {
		return f, false
	}
	f.PriceMin, f.PriceMax = lo, hi
	return f, f.Valid()
}

// Resize changes the canvas.
func (s *Surface) Resize(canvas coords.Canvas) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame.Canvas = canvas
}

// Redraws counts full redraws.
func (s *Surface) Redraws() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.redraws
}

// Snapshot copies the surface's state into the shape the renderer takes.
func (s *Surface) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Snapshot{
		State:  s.state,
		Series: slices.Clone(s.series),
		Tiles:  slices.Clone(s.tiles),
		View:   s.frame.View,
	}
}

var _ domain.Surface = (*Surface)(nil)
