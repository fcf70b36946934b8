package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusFanOutOrderAndVersion(t *testing.T) {
	bus := NewBus()
	var calls []string

	bus.Subscribe(func(v uint64) { calls = append(calls, "first") })
	bus.Subscribe(func(v uint64) { calls = append(calls, "second") })

	bus.Notify()
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, uint64(1), bus.Version())

	bus.Notify()
	assert.Equal(t, uint64(2), bus.Version())
	assert.Len(t, calls, 4)
}

func TestBusListenerSeesVersion(t *testing.T) {
	bus := NewBus()
	var got uint64
	bus.Subscribe(func(v uint64) { got = v })

	bus.Notify()
	bus.Notify()
	assert.Equal(t, uint64(2), got)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	count := 0
	unsubscribe := bus.Subscribe(func(v uint64) { count++ })

	bus.Notify()
	unsubscribe()
	bus.Notify()
	unsubscribe() // idempotent

	assert.Equal(t, 1, count)
	// The version keeps advancing with no listeners.
	assert.Equal(t, uint64(2), bus.Version())
}
