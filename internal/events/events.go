// Package events is a small in-process pub/sub used to decouple API
// mutations from the directory export.
package events

import (
	"sync"
	"time"
)

// Event types published by the API layer.
const (
	TypeProducerChanged = "producer.changed"
	TypeSaleModeChanged = "salemode.changed"
	TypeProductChanged  = "product.changed"
	TypePhotoUploaded   = "photo.uploaded"
)

// Event records a change to a producer's public data.
type Event struct {
	Type       string
	ProducerID int64
	CreatedAt  time.Time
}

// Handler reacts to an event.
type Handler func(event Event)

// Bus provides in-process pub/sub.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every known event type.
func (b *Bus) SubscribeAll(handler Handler) {
	for _, t := range []string{TypeProducerChanged, TypeSaleModeChanged, TypeProductChanged, TypePhotoUploaded} {
		b.Subscribe(t, handler)
	}
}

// Publish notifies subscribers of the event type.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		handler(event)
	}
}
