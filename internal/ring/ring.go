// Package ring provides a fixed-capacity single-producer single-consumer
// queue. One goroutine may call Push and another may call Pop without
// any further synchronization. Neither side ever blocks: a full ring
// rejects the push and the producer keeps ownership of the value.
package ring

import "sync/atomic"

// Ring is a bounded SPSC queue of owned values.
type Ring[T any] struct {
	buffer []T
	mask   uint64
	head   atomic.Uint64 // next slot to pop, moved by the consumer
	tail   atomic.Uint64 // next slot to push, moved by the producer
}

// New creates a ring able to hold at least capacity values. The backing
// storage is rounded up to a power of two and never reallocated.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &Ring[T]{
		buffer: make([]T, size),
		mask:   uint64(size - 1),
	}
}

// Cap returns the number of values the ring can hold.
func (r *Ring[T]) Cap() int {
	return len(r.buffer)
}

// Len returns the number of values currently queued.
func (r *Ring[T]) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Push transfers the value into the ring. It returns false when the
// ring is full, in which case the caller keeps ownership of the value.
func (r *Ring[T]) Push(value T) bool {
	tail := r.tail.Load()
	head := r.head.Load()
	if tail-head == uint64(len(r.buffer)) {
		return false
	}
	r.buffer[tail&r.mask] = value
	r.tail.Store(tail + 1)
	return true
}

// Pop transfers a value out of the ring. It returns false when the ring
// is empty.
func (r *Ring[T]) Pop() (T, bool) {
	head := r.head.Load()
	tail := r.tail.Load()
	if head == tail {
		var zero T
		return zero, false
	}
	value := r.buffer[head&r.mask]
	var zero T
	r.buffer[head&r.mask] = zero
	r.head.Store(head + 1)
	return value, true
}
