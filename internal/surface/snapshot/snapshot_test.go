package snapshot

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/tickboard/internal/coords"
	"github.com/alanyoungcy/tickboard/internal/domain"
)

var t0 = time.Date(2024, 7, 1, 15, 0, 0, 0, time.UTC)

func ramp(n int) []domain.Tick {
	out := make([]domain.Tick, n)
	for i := range out {
		out[i] = domain.Tick{Time: t0.Add(time.Duration(i) * time.Second), Price: 100 + float64(i%7)}
	}
	return out
}

func TestSurface_FullRedrawAndMapping(t *testing.T) {
	s := NewSurface(coords.Canvas{Width: 860, Height: 440})
	assert.True(t, s.Ready())
	assert.False(t, s.SupportsIncremental())

	_, _, ok := s.PixelToDomain(400, 200)
	assert.False(t, ok, "no data and no view yet")

	s.RequestFullRedraw(ramp(60))
	lo, hi := domain.PriceBounds(90, 110)
	s.SetViewWindow(domain.ViewWindow{TimeMin: t0, TimeMax: t0.Add(time.Minute), PriceMin: lo, PriceMax: hi}, false)
	assert.Equal(t, 1, s.Redraws())

	// Plot spans x in [60, 850] and y in [10, 410].
	ts, price, ok := s.PixelToDomain(455, 210)
	require.True(t, ok)
	assert.InDelta(t, 100.0, price, 1e-9)
	assert.InDelta(t, float64(t0.Add(30*time.Second).UnixNano()), float64(ts.UnixNano()), 1e3)

	_, _, ok = s.PixelToDomain(5, 210)
	assert.False(t, ok)
}

func TestSurface_AutoPriceRange(t *testing.T) {
	s := NewSurface(coords.Canvas{Width: 860, Height: 440})
	s.SetInitialSeries(ramp(60))
	s.SetViewWindow(domain.ViewWindow{TimeMin: t0, TimeMax: t0.Add(time.Minute)}, false)

	f, ok := s.Frame()
	require.True(t, ok)
	assert.Less(t, f.PriceMin, 100.0)
	assert.Greater(t, f.PriceMax, 106.0)
}

func TestRenderer_PNG(t *testing.T) {
	s := NewSurface(coords.Canvas{Width: 860, Height: 440})
	s.SetInitialSeries(ramp(120))
	s.SetViewWindow(domain.ViewWindow{TimeMin: t0.Add(time.Minute), TimeMax: t0.Add(2 * time.Minute)}, false)
	s.SetTiles([]domain.Tile{{ID: "a", Time: t0.Add(90 * time.Second), Price: 103}})
	s.SetConnectionState(domain.StateConnected)

	var buf bytes.Buffer
	require.NoError(t, Renderer{Width: 640, Height: 320}.Render(&buf, s.Snapshot()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")))
}

func TestRenderer_NotEnoughData(t *testing.T) {
	var buf bytes.Buffer
	err := DefaultRenderer.Render(&buf, domain.Snapshot{Series: ramp(1)})
	assert.ErrorIs(t, err, domain.ErrNotEnoughData)

	// Data exists but none of it is in view.
	err = DefaultRenderer.Render(&buf, domain.Snapshot{
		Series: ramp(10),
		View:   domain.ViewWindow{TimeMin: t0.Add(time.Hour), TimeMax: t0.Add(2 * time.Hour)},
	})
	assert.ErrorIs(t, err, domain.ErrNotEnoughData)
}
