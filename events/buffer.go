package events

// Buffer is a fixed-capacity sequence of events. Push keeps track of
// whether the events arrived in timestamp order, so consumers that need
// ordering can sort only when necessary. The backing storage is never
// reallocated; pushing into a full buffer fails and returns the event
// to the caller.
type Buffer struct {
	data   []Event
	sorted bool
}

// NewBuffer creates an empty buffer of the given capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		data:   make([]Event, 0, capacity),
		sorted: true,
	}
}

// Capacity returns the fixed number of events the buffer can hold.
func (b *Buffer) Capacity() int {
	return cap(b.data)
}

// Len returns the number of buffered events.
func (b *Buffer) Len() int {
	return len(b.data)
}

// IsEmpty reports whether the buffer holds no events.
func (b *Buffer) IsEmpty() bool {
	return len(b.data) == 0
}

// Sorted reports whether all pushed events arrived in non-decreasing
// timestamp order.
func (b *Buffer) Sorted() bool {
	return b.sorted
}

// Clear removes all events.
func (b *Buffer) Clear() {
	b.data = b.data[:0]
	b.sorted = true
}

// Push appends the event. It returns false when the buffer is at
// capacity, leaving the buffer unchanged.
func (b *Buffer) Push(event Event) bool {
	if len(b.data) == cap(b.data) {
		return false
	}
	if n := len(b.data); n > 0 && event.Timestamp < b.data[n-1].Timestamp {
		b.sorted = false
	}
	b.data = append(b.data, event)
	return true
}

// At returns the i-th buffered event.
func (b *Buffer) At(i int) Event {
	return b.data[i]
}

// Slice returns the buffered events. The slice aliases the buffer and
// is valid until the next Clear or Push.
func (b *Buffer) Slice() []Event {
	return b.data
}
