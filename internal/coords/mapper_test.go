package coords

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/tickboard/internal/domain"
)

var t0 = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func testFrame() Frame {
	return Frame{
		Canvas:  Canvas{Width: 860, Height: 440},
		Padding: DefaultPadding,
		View: domain.ViewWindow{
			TimeMin: t0,
			TimeMax: t0.Add(10 * time.Minute),
		},
		PriceMin: 90,
		PriceMax: 110,
	}
}

func TestScale_ApplyInvert(t *testing.T) {
	s := Scale{D0: 10, D1: 20, R0: 100, R1: 0}
	assert.InDelta(t, 100.0, s.Apply(10), 1e-9)
	assert.InDelta(t, 50.0, s.Apply(15), 1e-9)
	assert.InDelta(t, 15.0, s.Invert(50), 1e-9)
	assert.False(t, s.Degenerate())
	assert.True(t, Scale{D0: 1, D1: 1, R0: 0, R1: 1}.Degenerate())
}

func TestMapper_RoundTripAgainstAnalyticInverse(t *testing.T) {
	f := testFrame()
	m := Mapper{}
	// Plot spans x in [60, 850] and y in [10, 410].
	tests := []struct {
		name string
		x, y float64
	}{
		{"top-left corner", 60, 10},
		{"bottom-right corner", 850, 410},
		{"centre", 455, 210},
		{"arbitrary", 123.4, 321.9},
	}
	span := float64(10 * time.Minute)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, price, err := m.PixelToDomain(f, tt.x, tt.y)
			require.NoError(t, err)

			wantT := t0.Add(time.Duration((tt.x - 60) / 790 * span))
			wantP := 110 - (tt.y-10)/400*20
			assert.InDelta(t, float64(wantT.UnixNano()), float64(ts.UnixNano()), 1e3)
			assert.InDelta(t, wantP, price, 1e-9)

			x, y := m.DomainToPixel(f, ts, price)
			assert.InDelta(t, tt.x, x, 1e-6)
			assert.InDelta(t, tt.y, y, 1e-9)
		})
	}
}

func TestMapper_OutsidePlot(t *testing.T) {
	f := testFrame()
	m := Mapper{}
	for _, p := range [][2]float64{{10, 200}, {455, 430}, {855, 200}, {455, 5}, {-1, -1}} {
		_, _, err := m.PixelToDomain(f, p[0], p[1])
		assert.True(t, errors.Is(err, domain.ErrOutsidePlot), "pixel %v", p)
	}
}

func TestMapper_DegenerateFrame(t *testing.T) {
	m := Mapper{}

	f := testFrame()
	f.View.TimeMax = f.View.TimeMin
	_, _, err := m.PixelToDomain(f, 200, 200)
	assert.ErrorIs(t, err, domain.ErrOutsidePlot)

	f = testFrame()
	f.PriceMax = f.PriceMin
	_, _, err = m.PixelToDomain(f, 200, 200)
	assert.ErrorIs(t, err, domain.ErrOutsidePlot)

	f = testFrame()
	f.PriceMax = math.Inf(1)
	_, _, err = m.PixelToDomain(f, 200, 200)
	assert.ErrorIs(t, err, domain.ErrOutsidePlot)

	f = testFrame()
	f.Canvas = Canvas{}
	_, _, err = m.PixelToDomain(f, 0, 0)
	assert.ErrorIs(t, err, domain.ErrOutsidePlot)
}

func TestAutoPriceRange(t *testing.T) {
	ticks := []domain.Tick{
		{Time: t0, Price: 100},
		{Time: t0.Add(time.Minute), Price: 104},
		{Time: t0.Add(20 * time.Minute), Price: 500},
	}
	view := domain.ViewWindow{TimeMin: t0, TimeMax: t0.Add(10 * time.Minute)}

	lo, hi, ok := AutoPriceRange(view, ticks)
	require.True(t, ok)
	assert.InDelta(t, 99.8, lo, 1e-9)
	assert.InDelta(t, 104.2, hi, 1e-9)

	// Nothing in view falls back to every tick.
	far := domain.ViewWindow{TimeMin: t0.Add(time.Hour), TimeMax: t0.Add(2 * time.Hour)}
	lo, hi, ok = AutoPriceRange(far, ticks)
	require.True(t, ok)
	assert.Less(t, lo, 100.0)
	assert.Greater(t, hi, 500.0)

	// A flat series still produces an invertible range.
	lo, hi, ok = AutoPriceRange(view, ticks[:1])
	require.True(t, ok)
	assert.Less(t, lo, hi)

	_, _, ok = AutoPriceRange(view, nil)
	assert.False(t, ok)

	// A non-finite price cannot produce a usable scale.
	inf := []domain.Tick{{Time: t0, Price: 100}, {Time: t0.Add(time.Minute), Price: math.Inf(1)}}
	_, _, ok = AutoPriceRange(view, inf)
	assert.False(t, ok)
}

func TestResolvePriceRange_ExplicitBounds(t *testing.T) {
	view := domain.ViewWindow{TimeMin: t0, TimeMax: t0.Add(time.Minute)}
	view.PriceMin, view.PriceMax = domain.PriceBounds(1, 2)

	lo, hi, ok := ResolvePriceRange(view, nil)
	require.True(t, ok)
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 2.0, hi)
}
