package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitterDeliversInSubscriptionOrder(t *testing.T) {
	e := new(emitter)
	var order []int
	e.subscribe(EventLog, func(Event) { order = append(order, 1) })
	e.subscribe(EventLog, func(Event) { order = append(order, 2) })
	e.subscribe(EventLog, func(Event) { order = append(order, 3) })

	e.emit(Event{Kind: EventLog})
	e.emit(Event{Kind: EventLog})
	assert.Equal(t, []int{1, 2, 3, 1, 2, 3}, order)
}

func TestEmitterKindIsolation(t *testing.T) {
	e := new(emitter)
	calls := 0
	e.subscribe(EventOpen, func(Event) { calls++ })

	e.emit(Event{Kind: EventClose})
	e.emit(Event{Kind: EventLog})
	assert.Zero(t, calls)
	e.emit(Event{Kind: EventOpen})
	assert.Equal(t, 1, calls)
}

func TestEmitterUnsubscribe(t *testing.T) {
	e := new(emitter)
	calls := 0
	unsub := e.subscribe(EventLog, func(Event) { calls++ })

	e.emit(Event{Kind: EventLog})
	unsub()
	e.emit(Event{Kind: EventLog})
	assert.Equal(t, 1, calls)

	// Unsubscribing twice is harmless.
	unsub()
	e.emit(Event{Kind: EventLog})
	assert.Equal(t, 1, calls)
}

func TestEmitterUnsubscribeDuringDispatch(t *testing.T) {
	e := new(emitter)
	var order []string
	var unsubSecond func()
	e.subscribe(EventLog, func(Event) {
		order = append(order, "first")
		unsubSecond()
	})
	unsubSecond = e.subscribe(EventLog, func(Event) {
		order = append(order, "second")
	})

	// The dispatch in flight keeps its snapshot, so the second handler still
	// runs once.
	e.emit(Event{Kind: EventLog})
	require.Equal(t, []string{"first", "second"}, order)

	e.emit(Event{Kind: EventLog})
	assert.Equal(t, []string{"first", "second", "first"}, order)
}

func TestEmitterNilHandler(t *testing.T) {
	e := new(emitter)
	unsub := e.subscribe(EventLog, nil)
	require.NotNil(t, unsub)
	unsub()
	e.emit(Event{Kind: EventLog})
}

func TestEmitterPayloadPassThrough(t *testing.T) {
	e := new(emitter)
	var got Event
	e.subscribe(EventAudio, func(ev Event) { got = ev })

	e.emit(Event{Kind: EventAudio, Audio: []byte{1, 2, 3}})
	assert.Equal(t, EventAudio, got.Kind)
	assert.Equal(t, []byte{1, 2, 3}, got.Audio)
}
