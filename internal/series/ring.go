package series

// ring is a FIFO of ticks. With capacity 0 it grows without limit; otherwise
// pushes beyond capacity overwrite the oldest entry.
type ring[T any] struct {
	items []T
	head  int
	size  int
	limit int
}

func newRing[T any](limit int) *ring[T] {
	r := &ring[T]{limit: limit}
	if limit > 0 {
		r.items = make([]T, limit)
	}
	return r
}

// push appends v and reports whether an old entry was evicted.
func (r *ring[T]) push(v T) bool {
	if r.limit == 0 {
		r.items = append(r.items, v)
		r.size++
		return false
	}
	idx := (r.head + r.size) % r.limit
	if r.size == r.limit {
		r.items[r.head] = v
		r.head = (r.head + 1) % r.limit
		return true
	}
	r.items[idx] = v
	r.size++
	return false
}

func (r *ring[T]) at(i int) T {
	if r.limit == 0 {
		return r.items[i]
	}
	return r.items[(r.head+i)%r.limit]
}

func (r *ring[T]) len() int { return r.size }

// slice copies the contents out in FIFO order.
func (r *ring[T]) slice() []T {
	out := make([]T, r.size)
	if r.limit == 0 {
		copy(out, r.items)
		return out
	}
	for i := 0; i < r.size; i++ {
		out[i] = r.items[(r.head+i)%r.limit]
	}
	return out
}

func (r *ring[T]) reset() {
	if r.limit == 0 {
		r.items = nil
	} else {
		clear(r.items)
	}
	r.head = 0
	r.size = 0
}
