package series

import (
	"time"

	"github.com/alanyoungcy/tickboard/internal/domain"
)

// Store is the in-memory series the view renders from. Insertion order is
// arrival order; out-of-order timestamps are kept where they arrived.
type Store struct {
	ticks   *ring[domain.Tick]
	evicted int64
}

// NewStore creates a Store bounded by the policy.
func NewStore(p Policy) *Store {
	return &Store{ticks: newRing[domain.Tick](p.Capacity())}
}

// Append merges ticks in the order given.
func (s *Store) Append(ticks ...domain.Tick) {
	for _, t := range ticks {
		if s.ticks.push(t) {
			s.evicted++
		}
	}
}

// Len returns the number of ticks held.
func (s *Store) Len() int { return s.ticks.len() }

// Evicted returns how many ticks the sliding policy has discarded.
func (s *Store) Evicted() int64 { return s.evicted }

// First returns the oldest tick held.
func (s *Store) First() (domain.Tick, bool) {
	if s.ticks.len() == 0 {
		return domain.Tick{}, false
	}
	return s.ticks.at(0), true
}

// Last returns the most recently appended tick.
func (s *Store) Last() (domain.Tick, bool) {
	n := s.ticks.len()
	if n == 0 {
		return domain.Tick{}, false
	}
	return s.ticks.at(n - 1), true
}

// Snapshot copies the whole series.
func (s *Store) Snapshot() []domain.Tick {
	return s.ticks.slice()
}

// Tail copies the newest n ticks, or everything when n <= 0.
func (s *Store) Tail(n int) []domain.Tick {
	total := s.ticks.len()
	if n <= 0 || n >= total {
		return s.ticks.slice()
	}
	out := make([]domain.Tick, 0, n)
	for i := total - n; i < total; i++ {
		out = append(out, s.ticks.at(i))
	}
	return out
}

// Window returns the ticks whose time lies in [from, to], in series order.
func (s *Store) Window(from, to time.Time) []domain.Tick {
	var out []domain.Tick
	for i := 0; i < s.ticks.len(); i++ {
		t := s.ticks.at(i)
		if t.Time.Before(from) || t.Time.After(to) {
			continue
		}
		out = append(out, t)
	}
	return out
}
