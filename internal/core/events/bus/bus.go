// Package bus is a synchronous in-memory event bus for gameplay events.
// Handlers run inline during Publish, in subscription order: the simulation
// is single-threaded and frame-driven, so deterministic delivery order
// matters more than throughput, and there is deliberately no locking and
// no goroutine fan-out.
package bus

import (
	"time"

	"github.com/google/uuid"
)

// Event is one gameplay occurrence, e.g. a drop collected or a spear
// exploding.
type Event struct {
	Type      string
	Source    string
	Timestamp time.Time
	Data      any
}

// NewEvent stamps and returns an Event.
func NewEvent(typ, source string, data any) Event {
	return Event{Type: typ, Source: source, Timestamp: time.Now(), Data: data}
}

// Handler consumes one event. Handlers must not block.
type Handler func(Event)

// Subscription identifies one registered handler.
type Subscription struct {
	id        string
	eventType string
}

// ID returns the subscription's unique identifier.
func (s Subscription) ID() string { return s.id }

// EventType returns the event type the subscription listens to.
func (s Subscription) EventType() string { return s.eventType }

type entry struct {
	id      string
	handler Handler
}

// Bus routes events to handlers by event type.
type Bus struct {
	handlers map[string][]entry
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[string][]entry)}
}

// Subscribe registers a handler for one event type and returns its
// subscription token.
func (b *Bus) Subscribe(eventType string, handler Handler) Subscription {
	id := uuid.NewString()
	b.handlers[eventType] = append(b.handlers[eventType], entry{id: id, handler: handler})
	return Subscription{id: id, eventType: eventType}
}

// Unsubscribe removes a previously registered handler. Unknown
// subscriptions are ignored.
func (b *Bus) Unsubscribe(sub Subscription) {
	entries := b.handlers[sub.eventType]
	for i := range entries {
		if entries[i].id == sub.id {
			b.handlers[sub.eventType] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// Publish delivers the event to every handler of its type, in subscription
// order, and returns how many handlers ran.
func (b *Bus) Publish(ev Event) int {
	entries := b.handlers[ev.Type]
	for _, e := range entries {
		e.handler(ev)
	}
	return len(entries)
}
