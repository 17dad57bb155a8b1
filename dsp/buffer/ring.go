package buffer

import "fmt"

// Ring is a fixed-capacity circular buffer with a variable logical size.
//
// Push advances the cursor modulo the logical size, not the capacity, so
// Resize changes the wrap period. Get(0) is always the value that the next
// Push overwrites.
//
// Ring is not safe for concurrent use.
type Ring[T any] struct {
	data   []T
	size   int
	cursor int
}

// NewRing allocates a Ring holding capacity slots. The logical size starts at
// the full capacity. A capacity below 1 is raised to 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}

	return &Ring[T]{
		data: make([]T, capacity),
		size: capacity,
	}
}

// Push stores v at the cursor and advances it.
func (r *Ring[T]) Push(v T) {
	r.data[r.cursor] = v

	r.cursor++
	if r.cursor >= r.size {
		r.cursor = 0
	}
}

// Get returns the element at offset i from the cursor, i.e. the i-th oldest
// element of the logical window. i must be in [0, Len()).
func (r *Ring[T]) Get(i int) T {
	if i < 0 || i >= r.size {
		panic(fmt.Sprintf("buffer: ring index %d out of range [0, %d)", i, r.size))
	}

	idx := r.cursor + i
	if idx >= r.size {
		idx -= r.size
	}

	return r.data[idx]
}

// Oldest returns the element the next Push will overwrite.
func (r *Ring[T]) Oldest() T {
	return r.data[r.cursor]
}

// Resize sets the logical size to min(n, Cap()), zeroes all storage and
// resets the cursor. Values below 1 are treated as 1. No memory is
// allocated.
func (r *Ring[T]) Resize(n int) {
	if n > len(r.data) {
		n = len(r.data)
	}

	if n < 1 {
		n = 1
	}

	clear(r.data)
	r.size = n
	r.cursor = 0
}

// Reset zeroes all storage and rewinds the cursor without changing the
// logical size.
func (r *Ring[T]) Reset() {
	clear(r.data)
	r.cursor = 0
}

// Len returns the logical size.
func (r *Ring[T]) Len() int { return r.size }

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int { return len(r.data) }
