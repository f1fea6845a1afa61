//go:generate mockgen -source=surface.go -destination=mock/surface.go -package=mock

package domain

import "time"

// Surface is the rendering collaborator the core drives. Implementations are
// called only from the session loop goroutine but may be read by their own
// transport goroutines, so they guard their own state.
type Surface interface {
	// Ready reports whether the surface has been initialised. Render cycles
	// are skipped until it returns true.
	Ready() bool

	// SetInitialSeries replaces everything the surface shows.
	SetInitialSeries(series []Tick)

	// SupportsIncremental reports whether AppendIncremental is usable.
	SupportsIncremental() bool

	// AppendIncremental pushes one new point without a full redraw.
	AppendIncremental(t Tick)

	// RequestFullRedraw redraws the whole series without animation.
	RequestFullRedraw(series []Tick)

	// ViewWindow returns the currently visible domain.
	ViewWindow() ViewWindow

	// SetViewWindow moves the visible domain.
	SetViewWindow(w ViewWindow, animate bool)

	// PixelToDomain maps a canvas pixel to (time, price) using the current
	// scales. ok is false when the pixel is outside the plot area.
	PixelToDomain(x, y float64) (t time.Time, price float64, ok bool)

	// SetTiles replaces the annotation overlay.
	SetTiles(tiles []Tile)

	// SetConnectionState updates the connection label.
	SetConnectionState(state ConnectionState)
}
