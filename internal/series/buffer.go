package series

import "github.com/alanyoungcy/tickboard/internal/domain"

// Buffer stages ticks that arrived since the last flush. It holds only ticks
// not yet merged into a Store. Buffer is not safe for concurrent use; it is
// owned by the session loop.
type Buffer struct {
	ticks   *ring[domain.Tick]
	evicted int64
}

// NewBuffer creates a Buffer bounded by the policy.
func NewBuffer(p Policy) *Buffer {
	return &Buffer{ticks: newRing[domain.Tick](p.Capacity())}
}

// Push appends t. Under the sliding policy the oldest buffered tick is
// evicted when the buffer is full.
func (b *Buffer) Push(t domain.Tick) {
	if b.ticks.push(t) {
		b.evicted++
	}
}

// Drain returns every buffered tick in arrival order and empties the buffer.
// It returns nil when the buffer is empty.
func (b *Buffer) Drain() []domain.Tick {
	if b.ticks.len() == 0 {
		return nil
	}
	out := b.ticks.slice()
	b.ticks.reset()
	return out
}

// Len returns the number of buffered ticks.
func (b *Buffer) Len() int { return b.ticks.len() }

// Evicted returns how many ticks the sliding policy has discarded.
func (b *Buffer) Evicted() int64 { return b.evicted }
