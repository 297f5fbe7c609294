package keystore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chris-zen/kiro-engine/keystore"
)

type slot struct {
	value int
}

func TestStoreAddGet(t *testing.T) {
	s := keystore.NewStore[slot]()

	k1 := s.Add(slot{value: 1})
	k2 := s.Add(slot{value: 2})

	assert.NotEqual(t, k1, k2)
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains(k1))
	assert.Equal(t, 1, s.Get(k1).value)
	assert.Equal(t, 2, s.Get(k2).value)
}

func TestStoreGetStaleKey(t *testing.T) {
	s := keystore.NewStore[slot]()

	key := s.Add(slot{value: 1})
	_, removed := s.Remove(key)

	assert.True(t, removed)
	assert.Nil(t, s.Get(key))
	assert.False(t, s.Contains(key))
}

func TestStoreKeysNeverReused(t *testing.T) {
	s := keystore.NewStore[slot]()

	k1 := s.Add(slot{value: 1})
	s.Remove(k1)
	k2 := s.Add(slot{value: 2})

	assert.NotEqual(t, k1, k2)
	assert.Nil(t, s.Get(k1))
}

func TestStoreMutableSlots(t *testing.T) {
	s := keystore.NewStore[slot]()

	key := s.Add(slot{value: 1})
	s.Get(key).value = 42

	assert.Equal(t, 42, s.Get(key).value)
}

func TestStoreKeysInsertionOrder(t *testing.T) {
	s := keystore.NewStore[slot]()

	var added []keystore.Key[slot]
	for i := 0; i < 10; i++ {
		added = append(added, s.Add(slot{value: i}))
	}
	s.Remove(added[3])
	s.Remove(added[7])

	var expected []keystore.Key[slot]
	for i, key := range added {
		if i != 3 && i != 7 {
			expected = append(expected, key)
		}
	}
	assert.Equal(t, expected, s.Keys())

	first, ok := s.First()
	assert.True(t, ok)
	assert.Equal(t, added[0], first)
}

func TestStoreWithID(t *testing.T) {
	s := keystore.NewStoreWithID[slot]()

	k1 := s.Add("one", slot{value: 1})
	k2 := s.Add("two", slot{value: 2})

	assert.True(t, s.ContainsID("one"))
	assert.False(t, s.ContainsID("three"))

	key, ok := s.KeyFromID("two")
	assert.True(t, ok)
	assert.Equal(t, k2, key)

	s.Remove(k1)
	assert.False(t, s.ContainsID("one"))
	_, ok = s.KeyFromID("one")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}
