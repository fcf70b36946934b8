package store

import "sync"

// Bus is the in-process notification fan-out. Every store mutation bumps the
// version counter and invokes listeners synchronously, in registration
// order, before the mutating call returns.
type Bus struct {
	mu        sync.Mutex
	listeners map[int]func(version uint64)
	nextID    int
	version   uint64
}

// NewBus creates an empty bus with version 0.
func NewBus() *Bus {
	return &Bus{listeners: make(map[int]func(uint64))}
}

// Subscribe registers a listener and returns its unsubscribe function.
// Unsubscribing twice is harmless.
func (b *Bus) Subscribe(fn func(version uint64)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// Notify bumps the version and fans it out to every listener.
func (b *Bus) Notify() {
	b.mu.Lock()
	b.version++
	version := b.version
	fns := make([]func(uint64), 0, len(b.listeners))
	for id := 0; id < b.nextID; id++ {
		if fn, ok := b.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(version)
	}
}

// Version returns the current change counter.
func (b *Bus) Version() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}
