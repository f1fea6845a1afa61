// Package feed produces ticks that do not come from the live source: the
// synthetic history the chart starts with, the demo stream producer, and the
// Redis relay that lets one instance follow another.
package feed

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/alanyoungcy/tickboard/internal/domain"
)

// minPrice keeps random walks strictly positive.
const minPrice = 0.01

// Walk is a multiplicative random walk over prices.
type Walk struct {
	price      float64
	volatility float64
	rng        *rand.Rand
}

// NewWalk starts a walk at price. volatility is the per-step standard
// deviation of the relative move. A nil rng is seeded from the runtime.
func NewWalk(price, volatility float64, rng *rand.Rand) *Walk {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if price <= 0 {
		price = 100
	}
	return &Walk{price: price, volatility: volatility, rng: rng}
}

// Next advances the walk one step and returns the new price.
func (w *Walk) Next() float64 {
	w.price *= 1 + w.rng.NormFloat64()*w.volatility
	w.price = math.Max(w.price, minPrice)
	return w.price
}

// Price returns the current price without advancing.
func (w *Walk) Price() float64 { return w.price }

// Seed returns n ticks spaced step apart with the last one at end, priced by
// a random walk from start.
func Seed(n int, step time.Duration, end time.Time, start float64, rng *rand.Rand) []domain.Tick {
	if n <= 0 {
		return nil
	}
	if step <= 0 {
		step = time.Second
	}
	walk := NewWalk(start, 0.001, rng)
	out := make([]domain.Tick, n)
	first := end.Add(-time.Duration(n-1) * step)
	for i := range out {
		out[i] = domain.Tick{Time: first.Add(time.Duration(i) * step), Price: walk.Next()}
	}
	return out
}
