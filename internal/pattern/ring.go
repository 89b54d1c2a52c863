package pattern

// Ring is a fixed-capacity append-only buffer that evicts its oldest
// entries once full. It enforces the cap on insert rather than trimming
// after the fact, so the length invariant holds at all times.
//
// Ring is not safe for concurrent use; callers serialize access the same
// way they serialize the owning user state.
type Ring[T any] struct {
	capacity int
	items    []T
}

// NewRing creates a ring holding at most capacity items. A capacity of
// zero or less is treated as 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{capacity: capacity}
}

// Push appends v, evicting the oldest entries if the ring is full.
// Returns the evicted items (usually zero or one) in eviction order.
func (r *Ring[T]) Push(v T) []T {
	r.items = append(r.items, v)
	if len(r.items) <= r.capacity {
		return nil
	}
	n := len(r.items) - r.capacity
	evicted := make([]T, n)
	copy(evicted, r.items[:n])
	r.items = append(r.items[:0], r.items[n:]...)
	return evicted
}

// Items returns the buffered entries oldest-first. The returned slice is a
// copy; mutating it does not affect the ring.
func (r *Ring[T]) Items() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// Last returns the most recently pushed entry, or the zero value and false
// when the ring is empty.
func (r *Ring[T]) Last() (T, bool) {
	if len(r.items) == 0 {
		var zero T
		return zero, false
	}
	return r.items[len(r.items)-1], true
}

// Len returns the number of buffered entries.
func (r *Ring[T]) Len() int { return len(r.items) }

// Cap returns the ring's capacity.
func (r *Ring[T]) Cap() int { return r.capacity }
