package ws

import (
	"slices"
	"sync"
	"time"

	"github.com/alanyoungcy/tickboard/internal/coords"
	"github.com/alanyoungcy/tickboard/internal/domain"
)

// DefaultCanvas is assumed until a browser reports its size.
var DefaultCanvas = coords.Canvas{Width: 1024, Height: 480}

// Surface is the domain.Surface backed by browser charts. It holds the view
// window, canvas size and the price range browsers resolved, and mirrors the
// points it has pushed so it can auto-fit prices itself when no browser has
// reported a range.
type Surface struct {
	hub *Hub

	// Limit caps the mirrored points, matching a sliding retention. Zero
	// keeps everything. Set it before the session starts.
	Limit int

	mu       sync.RWMutex
	frame    coords.Frame
	resolved *priceRange
	series   []domain.Tick
	tiles    []domain.Tile
	state    domain.ConnectionState
}

// NewSurface creates the surface and attaches it to hub. Call it before the
// hub starts running.
func NewSurface(hub *Hub, canvas coords.Canvas) *Surface {
	if canvas.Width <= 0 || canvas.Height <= 0 {
		canvas = DefaultCanvas
	}
	s := &Surface{
		hub:   hub,
		frame: coords.Frame{Canvas: canvas, Padding: coords.DefaultPadding},
	}
	hub.surface = s
	return s
}

// Ready reports whether browsers can be reached.
func (s *Surface) Ready() bool { return s.hub.Running() }

// SupportsIncremental is true; browsers append points themselves.
func (s *Surface) SupportsIncremental() bool { return true }

// SetInitialSeries mirrors the series and sends it to every browser.
func (s *Surface) SetInitialSeries(series []domain.Tick) {
	s.mu.Lock()
	s.series = slices.Clone(series)
	s.mu.Unlock()
	s.hub.publish(frameSeries, seriesPayload{Series: series})
}

// AppendIncremental mirrors one point and sends it as an append frame.
func (s *Surface) AppendIncremental(t domain.Tick) {
	s.mu.Lock()
	s.series = append(s.series, t)
	if s.Limit > 0 && len(s.series) > s.Limit {
		s.series = s.series[len(s.series)-s.Limit:]
	}
	s.mu.Unlock()
	s.hub.publish(frameAppend, appendPayload{Tick: t})
}

// RequestFullRedraw resends the whole series.
func (s *Surface) RequestFullRedraw(series []domain.Tick) {
	s.SetInitialSeries(series)
}

// ViewWindow returns the last window set by the session or a browser.
func (s *Surface) ViewWindow() domain.ViewWindow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame.View
}

// SetViewWindow moves every browser's view. The range browsers resolved for
// the old window no longer applies.
func (s *Surface) SetViewWindow(w domain.ViewWindow, animate bool) {
	s.mu.Lock()
	s.frame.View = w
	s.resolved = nil
	s.mu.Unlock()
	s.hub.publish(frameView, viewPayload{View: w, Animate: animate})
}

// userView records a window a user panned or zoomed to in a browser and
// echoes it to the others.
func (s *Surface) userView(w domain.ViewWindow, resolved *priceRange) {
	s.mu.Lock()
	s.frame.View = w
	s.resolved = resolved
	s.mu.Unlock()
	s.hub.publish(frameView, viewPayload{View: w})
}

// Resize records the browser canvas size.
func (s *Surface) Resize(canvas coords.Canvas) {
	if canvas.Width <= 0 || canvas.Height <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame.Canvas = canvas
}

// PixelToDomain maps a pixel through the browser canvas and the resolved
// price range.
func (s *Surface) PixelToDomain(x, y float64) (time.Time, float64, bool) {
	f, ok := s.Frame()
	if !ok {
		return time.Time{}, 0, false
	}
	t, price, err := coords.Mapper{}.PixelToDomain(f, x, y)
	return t, price, err == nil
}

// Frame returns the current pixel mapping. Explicit view bounds win, then
// the range a browser reported, then an auto-fit over the pushed points.
func (s *Surface) Frame() (coords.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f := s.frame
	switch {
	case f.View.PriceMin != nil && f.View.PriceMax != nil:
		f.PriceMin, f.PriceMax = *f.View.PriceMin, *f.View.PriceMax
	case s.resolved != nil:
		f.PriceMin, f.PriceMax = s.resolved.Min, s.resolved.Max
	default:
		lo, hi, ok := coords.AutoPriceRange(f.View, s.series)
		if !ok {
			return f, false
		}
		f.PriceMin, f.PriceMax = lo, hi
	}
	return f, f.Valid()
}

// SetTiles mirrors the tiles and sends them to every browser.
func (s *Surface) SetTiles(tiles []domain.Tile) {
	s.mu.Lock()
	s.tiles = slices.Clone(tiles)
	s.mu.Unlock()
	s.hub.publish(frameTiles, tilesPayload{Tiles: tiles})
}

// SetConnectionState mirrors the state and sends a status frame.
func (s *Surface) SetConnectionState(state domain.ConnectionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.hub.publish(frameStatus, statusPayload{State: state.String()})
}

func (s *Surface) snapshot() domain.Snapshot {
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
