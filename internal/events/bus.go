package events

import (
	"sync"

	"github.com/x402nexus/relay/internal/core/domain"
)

// Handler consumes one lifecycle event. Handlers must not block; the bus
// calls them inline on the publisher's goroutine.
type Handler func(domain.Event)

// Bus is a callback registry fanning lifecycle events out to subscribed
// sinks (websocket broadcasters, audit logs). Publishing never fails and
// gives no delivery guarantee.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all subsequent events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers the event to every subscribed handler in subscription
// order.
func (b *Bus) Publish(evt domain.Event) {
	b.mu.RLock()
	handlers := b.handlers
	b.mu.RUnlock()

	for _, h := range handlers {
		h(evt)
	}
}
