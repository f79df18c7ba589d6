// Package events provides a small in-process publish/subscribe bus used to
// fan update notifications out to the host.
package events

import (
	"sync"

	"github.com/google/uuid"
)

// Handler receives published events.
type Handler func(Event)

type subscription struct {
	id      string
	handler Handler
}

// Bus dispatches events to subscribers. It is safe for concurrent use.
type Bus struct {
	mu          sync.RWMutex
	handlers    map[Type][]subscription
	allHandlers []subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		handlers:    make(map[Type][]subscription),
		allHandlers: []subscription{},
	}
}

// Subscribe registers h for events of type t and returns its subscription ID.
func (b *Bus) Subscribe(t Type, h Handler) string {
	id := uuid.NewString()
	b.mu.Lock()
	b.handlers[t] = append(b.handlers[t], subscription{id: id, handler: h})
	b.mu.Unlock()
	return id
}

// SubscribeAll registers h for every event type.
func (b *Bus) SubscribeAll(h Handler) string {
	id := uuid.NewString()
	b.mu.Lock()
	b.allHandlers = append(b.allHandlers, subscription{id: id, handler: h})
	b.mu.Unlock()
	return id
}

// Unsubscribe removes the subscription with the given ID. Unknown IDs are ignored.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for t, subs := range b.handlers {
		if kept, ok := without(subs, id); ok {
			if len(kept) == 0 {
				delete(b.handlers, t)
			} else {
				b.handlers[t] = kept
			}
			return
		}
	}
	if kept, ok := without(b.allHandlers, id); ok {
		b.allHandlers = kept
	}
}

func without(subs []subscription, id string) ([]subscription, bool) {
	for i, s := range subs {
		if s.id == id {
			kept := make([]subscription, 0, len(subs)-1)
			kept = append(kept, subs[:i]...)
			return append(kept, subs[i+1:]...), true
		}
	}
	return subs, false
}

// HasSubscribers reports whether any handler would receive events of type t.
func (b *Bus) HasSubscribers(t Type) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[t]) > 0 || len(b.allHandlers) > 0
}

// Publish delivers e synchronously.
func (b *Bus) Publish(e Eventer) {
	b.PublishRaw(e.ToEvent())
}

// PublishRaw delivers an already-built event synchronously.
func (b *Bus) PublishRaw(e Event) {
	for _, h := range b.snapshot(e.Type) {
		h(e)
	}
}

// PublishAsync delivers e on a new goroutine.
func (b *Bus) PublishAsync(e Eventer) {
	b.PublishRawAsync(e.ToEvent())
}

// PublishRawAsync delivers an already-built event on a new goroutine.
func (b *Bus) PublishRawAsync(e Event) {
	handlers := b.snapshot(e.Type)
	go func() {
		for _, h := range handlers {
			h(e)
		}
	}()
}

// Clear removes all subscriptions.
func (b *Bus) Clear() {
	b.mu.Lock()
	b.handlers = make(map[Type][]subscription)
	b.allHandlers = []subscription{}
	b.mu.Unlock()
}

// snapshot copies the handlers for t so dispatch runs without the lock held.
func (b *Bus) snapshot(t Type) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Handler, 0, len(b.handlers[t])+len(b.allHandlers))
	for _, s := range b.handlers[t] {
		out = append(out, s.handler)
	}
	for _, s := range b.allHandlers {
		out = append(out, s.handler)
	}
	return out
}
