package session

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/tickboard/internal/domain"
	"github.com/alanyoungcy/tickboard/internal/tiles"
)

// call runs fn on the loop and waits. It fails with domain.ErrClosed once the
// session has shut down.
func (s *Session) call(ctx context.Context, fn func() error) error {
	var err error
	if derr := s.loop.Do(ctx, func() {
		if s.closed {
			err = domain.ErrClosed
			return
		}
		err = fn()
	}); derr != nil {
		return derr
	}
	return err
}

// PlaceTile maps the pixel through the surface's current scales and stores a
// tile there. Pixels outside the plot yield domain.ErrOutsidePlot and store
// nothing.
func (s *Session) PlaceTile(ctx context.Context, x, y float64) (domain.Tile, error) {
	var tile domain.Tile
	err := s.call(ctx, func() error {
		if s.surface == nil || !s.surface.Ready() {
			return fmt.Errorf("session: place tile: no surface: %w", domain.ErrOutsidePlot)
		}
		t, price, ok := s.surface.PixelToDomain(x, y)
		if !ok {
			return fmt.Errorf("session: place tile at (%.1f, %.1f): %w", x, y, domain.ErrOutsidePlot)
		}
		tile = tiles.New(t, price, x, y)
		if err := s.tiles.Add(tile); err != nil {
			return fmt.Errorf("session: place tile: %w", err)
		}
		s.surface.SetTiles(s.tiles.List())
		for _, o := range s.observers {
			o.TileAdded(tile)
		}
		return nil
	})
	return tile, err
}

// RemoveTile deletes a tile by id. It reports whether the tile existed;
// removing an unknown id is not an error.
func (s *Session) RemoveTile(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := s.call(ctx, func() error {
		removed = s.tiles.Remove(id)
		if !removed {
			return nil
		}
		if s.surface != nil {
			s.surface.SetTiles(s.tiles.List())
		}
		for _, o := range s.observers {
			o.TileRemoved(id)
		}
		return nil
	})
	return removed, err
}

// Tiles lists tiles in insertion order.
func (s *Session) Tiles(ctx context.Context) ([]domain.Tile, error) {
	var out []domain.Tile
	err := s.call(ctx, func() error {
		out = s.tiles.List()
		return nil
	})
	return out, err
}

// ResetView animates the view back to the default window ending at the
// newest tick.
func (s *Session) ResetView(ctx context.Context) (domain.ViewWindow, error) {
	var w domain.ViewWindow
	err := s.call(ctx, func() error {
		var ok bool
		w, ok = s.sched.ResetView()
		if !ok {
			return fmt.Errorf("session: reset view: %w", domain.ErrNotEnoughData)
		}
		return nil
	})
	return w, err
}

// Gesture reports a user gesture. It does not wait for the loop.
func (s *Session) Gesture(g domain.Gesture) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("session: gesture: %w", err)
	}
	if !s.loop.Post(func() { s.onGesture(g) }) {
		return domain.ErrClosed
	}
	return nil
}

// UserView runs apply on the loop once every gesture reported before it has
// been handled. Surfaces use it to record a window the user moved, so the
// scheduler sees the gesture before it can read that window.
func (s *Session) UserView(apply func()) error {
	if !s.loop.Post(func() {
		if !s.closed {
			apply()
		}
	}) {
		return domain.ErrClosed
	}
	return nil
}

// Series returns the newest limit ticks, or all of them when limit <= 0.
func (s *Session) Series(ctx context.Context, limit int) ([]domain.Tick, error) {
	var out []domain.Tick
	err := s.call(ctx, func() error {
		out = s.store.Tail(limit)
		return nil
	})
	return out, err
}

// Snapshot copies everything the view renders.
func (s *Session) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := s.call(ctx, func() error {
		snap = s.snapshot()
		return nil
	})
	return snap, err
}

func (s *Session) snapshot() domain.Snapshot {
	ms := s.mgr.Stats()
	snap := domain.Snapshot{
		State:    s.mgr.State(),
		Series:   s.store.Snapshot(),
		Tiles:    s.tiles.List(),
		Buffered: s.buffer.Len(),
		Busy:     s.tracker.Busy(),
		Stats: domain.StreamStats{
			Received:   ms.Received,
			Malformed:  ms.Malformed,
			Reconnects: ms.Reconnects,
			Flushes:    s.flushes,
			Evicted:    s.buffer.Evicted() + s.store.Evicted(),
		},
	}
	if s.surface != nil {
		snap.View = s.surface.ViewWindow()
	}
	return snap
}

// State returns the connection state without going through the loop.
func (s *Session) State() domain.ConnectionState {
	return domain.ConnectionState(s.state.Load())
}
