package bus

import (
	"sync"

	"github.com/boardhive/boardhive/internal/model"
)

// Bus is an in-process publish/subscribe channel for broadcast envelopes.
// There is no external transport behind it; delivery is a direct dispatch to
// the registered handlers.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(model.Envelope)
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		handlers: make(map[int]func(model.Envelope)),
	}
}

// Subscribe registers a handler for published envelopes and returns an
// unsubscribe function that removes it from the registry.
func (b *Bus) Subscribe(handler func(model.Envelope)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// Publish delivers an envelope to all registered handlers. Handlers are
// invoked against a snapshot of the registry, so subscribing or
// unsubscribing from within a handler does not affect the current dispatch.
func (b *Bus) Publish(env model.Envelope) {
	b.mu.RLock()
	snapshot := make([]func(model.Envelope), 0, len(b.handlers))
	for _, h := range b.handlers {
		snapshot = append(snapshot, h)
	}
	b.mu.RUnlock()

	for _, h := range snapshot {
		h(env)
	}
}

// SubscriberCount returns the number of registered handlers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
