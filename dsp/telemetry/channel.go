package telemetry

import "sync/atomic"

// DefaultCapacity is the channel capacity used by the processor.
const DefaultCapacity = 3000

// Channel is a lock-free single-producer, single-consumer queue with an
// exact capacity.
//
// It uses two monotonically increasing atomic counters. The producer writes
// the slot and then publishes writePos; the consumer loads writePos before
// reading the slot. Go's sync/atomic is sequentially consistent, so the
// consumer always sees the data written before the position update.
//
// Thread assignment:
//   - TryPush: producer goroutine only
//   - Pop, DrainInto: consumer goroutine only
//   - Len, Cap, Dropped: any goroutine
type Channel[T any] struct {
	// Separate cache lines for the producer and consumer cursors.
	writePos atomic.Uint64
	_pad1    [56]byte
	readPos  atomic.Uint64
	_pad2    [56]byte
	dropped  atomic.Uint64

	buf []T
}

// NewChannel returns a channel holding at most capacity values (min 1).
func NewChannel[T any](capacity int) *Channel[T] {
	if capacity < 1 {
		capacity = 1
	}

	return &Channel[T]{buf: make([]T, capacity)}
}

// TryPush enqueues v. When the channel is full v is discarded, the drop
// counter is incremented and false is returned. Never blocks or allocates.
func (c *Channel[T]) TryPush(v T) bool {
	w := c.writePos.Load()
	r := c.readPos.Load()

	n := uint64(len(c.buf))
	if w-r >= n {
		c.dropped.Add(1)
		return false
	}

	c.buf[w%n] = v
	c.writePos.Store(w + 1)

	return true
}

// Pop dequeues the oldest value.
func (c *Channel[T]) Pop() (T, bool) {
	r := c.readPos.Load()
	w := c.writePos.Load()

	if r == w {
		var zero T
		return zero, false
	}

	v := c.buf[r%uint64(len(c.buf))]
	c.readPos.Store(r + 1)

	return v, true
}

// DrainInto appends every available value to dst in FIFO order and returns
// the extended slice.
func (c *Channel[T]) DrainInto(dst []T) []T {
	r := c.readPos.Load()
	w := c.writePos.Load()

	n := uint64(len(c.buf))
	for i := r; i < w; i++ {
		dst = append(dst, c.buf[i%n])
	}

	c.readPos.Store(w)

	return dst
}

// Len returns the number of queued values, in [0, Cap()].
func (c *Channel[T]) Len() int {
	// readPos first: writePos never falls behind a later readPos.
	r := c.readPos.Load()
	w := c.writePos.Load()

	return int(min(w-r, uint64(len(c.buf))))
}

// Cap returns the channel capacity.
func (c *Channel[T]) Cap() int { return len(c.buf) }

// Dropped returns how many pushes were rejected because the channel was
// full.
func (c *Channel[T]) Dropped() uint64 { return c.dropped.Load() }

// Trim keeps the newest maxLen entries of buf by moving them to the front
// and returns the shortened slice. The backing array is reused.
func Trim[T any](buf []T, maxLen int) []T {
	maxLen = max(maxLen, 0)
	if len(buf) <= maxLen {
		return buf
	}

	n := copy(buf, buf[len(buf)-maxLen:])
	clear(buf[n:])

	return buf[:n]
}
