package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chris-zen/kiro-engine/events"
)

func midiAt(timestamp events.Ticks) events.Event {
	return events.Event{
		Timestamp: timestamp,
		Data:      events.Midi{Status: 0x90, Data1: 60, Data2: 100},
	}
}

func TestBufferPushUntilFull(t *testing.T) {
	b := events.NewBuffer(2)

	assert.True(t, b.Push(midiAt(0)))
	assert.True(t, b.Push(midiAt(1)))
	assert.False(t, b.Push(midiAt(2)), "push beyond capacity must fail")
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 2, b.Capacity())
}

func TestBufferSorted(t *testing.T) {
	b := events.NewBuffer(8)

	assert.True(t, b.Sorted())
	b.Push(midiAt(10))
	b.Push(midiAt(10))
	b.Push(midiAt(20))
	assert.True(t, b.Sorted())

	b.Push(midiAt(5))
	assert.False(t, b.Sorted())

	b.Clear()
	assert.True(t, b.Sorted())
	assert.True(t, b.IsEmpty())
}

func TestBufferIteration(t *testing.T) {
	b := events.NewBuffer(4)
	b.Push(midiAt(1))
	b.Push(events.Event{Timestamp: 2, Data: events.Transport{Kind: events.TransportStart}})

	var timestamps []events.Ticks
	for i := 0; i < b.Len(); i++ {
		timestamps = append(timestamps, b.At(i).Timestamp)
	}
	assert.Equal(t, []events.Ticks{1, 2}, timestamps)

	_, isTransport := b.At(1).Data.(events.Transport)
	assert.True(t, isTransport)
}
