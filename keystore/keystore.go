// Package keystore provides handle-indexed storage for heterogeneous
// slots. A Key is a stable opaque handle: it never gets invalidated by
// other insertions or removals, and it is never reused after a removal.
package keystore

// Key is an opaque handle into a Store. The zero value is never issued
// and acts as "no key".
type Key[T any] uint64

// IsZero reports whether the key is the zero "no key" value.
func (k Key[T]) IsZero() bool {
	return k == 0
}

// Store maps opaque keys to items. Keys() preserves insertion order,
// which makes the order of ports and other stored entities stable and
// observable through the API.
type Store[T any] struct {
	next  Key[T]
	data  map[Key[T]]*T
	order []Key[T]
}

// NewStore returns an empty store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{
		data: make(map[Key[T]]*T),
	}
}

// Len returns the number of stored items.
func (s *Store[T]) Len() int {
	return len(s.data)
}

// Contains reports whether the key refers to a stored item.
func (s *Store[T]) Contains(key Key[T]) bool {
	_, ok := s.data[key]
	return ok
}

// Get returns a handle to the stored item, or nil for a stale key. The
// store remains the owner of the item; the returned pointer is a
// capability to read and mutate the slot.
func (s *Store[T]) Get(key Key[T]) *T {
	return s.data[key]
}

// Add stores the item and returns its key.
func (s *Store[T]) Add(item T) Key[T] {
	s.next++
	key := s.next
	s.data[key] = &item
	s.order = append(s.order, key)
	return key
}

// Keys returns all keys in insertion order.
func (s *Store[T]) Keys() []Key[T] {
	keys := make([]Key[T], 0, len(s.data))
	for _, key := range s.order {
		if _, ok := s.data[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// First returns the key inserted earliest among the ones still stored.
func (s *Store[T]) First() (Key[T], bool) {
	for _, key := range s.order {
		if _, ok := s.data[key]; ok {
			return key, true
		}
	}
	return 0, false
}

// Remove deletes the item and returns it.
func (s *Store[T]) Remove(key Key[T]) (T, bool) {
	item, ok := s.data[key]
	if !ok {
		var zero T
		return zero, false
	}
	delete(s.data, key)
	s.compact()
	return *item, true
}

// compact drops removed keys from the order slice once they outnumber
// the live ones, keeping Keys() linear on average.
func (s *Store[T]) compact() {
	if len(s.order) < 2*len(s.data) {
		return
	}
	live := s.order[:0]
	for _, key := range s.order {
		if _, ok := s.data[key]; ok {
			live = append(live, key)
		}
	}
	s.order = live
}

// StoreWithID is a Store that additionally indexes items by a string
// id, kept consistent on every Add and Remove.
type StoreWithID[T any] struct {
	store    *Store[T]
	keysByID map[string]Key[T]
	idsByKey map[Key[T]]string
}

// NewStoreWithID returns an empty id-indexed store.
func NewStoreWithID[T any]() *StoreWithID[T] {
	return &StoreWithID[T]{
		store:    NewStore[T](),
		keysByID: make(map[string]Key[T]),
		idsByKey: make(map[Key[T]]string),
	}
}

// Len returns the number of stored items.
func (s *StoreWithID[T]) Len() int {
	return s.store.Len()
}

// Contains reports whether the key refers to a stored item.
func (s *StoreWithID[T]) Contains(key Key[T]) bool {
	return s.store.Contains(key)
}

// ContainsID reports whether an item is stored under the id.
func (s *StoreWithID[T]) ContainsID(id string) bool {
	_, ok := s.keysByID[id]
	return ok
}

// KeyFromID returns the key of the item stored under the id.
func (s *StoreWithID[T]) KeyFromID(id string) (Key[T], bool) {
	key, ok := s.keysByID[id]
	return key, ok
}

// Get returns a handle to the stored item, or nil for a stale key.
func (s *StoreWithID[T]) Get(key Key[T]) *T {
	return s.store.Get(key)
}

// Add stores the item under the given id and returns its key.
func (s *StoreWithID[T]) Add(id string, item T) Key[T] {
	key := s.store.Add(item)
	s.keysByID[id] = key
	s.idsByKey[key] = id
	return key
}

// Keys returns all keys in insertion order.
func (s *StoreWithID[T]) Keys() []Key[T] {
	return s.store.Keys()
}

// First returns the key inserted earliest among the ones still stored.
func (s *StoreWithID[T]) First() (Key[T], bool) {
	return s.store.First()
}

// Remove deletes the item and its id index entry, and returns it.
func (s *StoreWithID[T]) Remove(key Key[T]) (T, bool) {
	item, ok := s.store.Remove(key)
	if ok {
		id := s.idsByKey[key]
		delete(s.idsByKey, key)
		delete(s.keysByID, id)
	}
	return item, ok
}
