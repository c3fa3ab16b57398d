// Package events distributes domain events (session changes, collection
// updates) to registered observers.
package events

import (
	"context"
	"log"
	"sync"
)

// Event is a domain event. Data holds one of the payload types in
// messages.go.
type Event struct {
	Type    string
	Data    any
	Context context.Context
}

// NewEvent creates an event carrying data.
func NewEvent[T any](ctx context.Context, eventType string, data T) Event {
	return Event{Type: eventType, Data: data, Context: ctx}
}

// DataAs extracts the typed payload of an event.
func DataAs[T any](event Event) (T, bool) {
	typed, ok := event.Data.(T)
	return typed, ok
}

// Observer receives dispatched events.
type Observer interface {
	// OnEvent handles one event. An error is logged by the dispatcher.
	OnEvent(event Event) error

	// GetName returns a name for logging.
	GetName() string

	// ShouldHandle filters the event types the observer receives.
	ShouldHandle(eventType string) bool
}

// Dispatcher is what producers of events depend on.
type Dispatcher interface {
	Dispatch(event Event)
}

// EventDispatcher fans events out to observers. Safe for concurrent use.
type EventDispatcher struct {
	observers []Observer
	mu        sync.RWMutex
}

// NewEventDispatcher creates an empty dispatcher.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{}
}

// Register adds an observer.
func (d *EventDispatcher) Register(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.observers = append(d.observers, observer)
	log.Printf("[EventDispatcher] Registered observer: %s", observer.GetName())
}

// Unregister removes an observer.
func (d *EventDispatcher) Unregister(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, obs := range d.observers {
		if obs == observer {
			d.observers = append(d.observers[:i], d.observers[i+1:]...)
			log.Printf("[EventDispatcher] Unregistered observer: %s", observer.GetName())
			return
		}
	}
}

func (d *EventDispatcher) snapshot() []Observer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	return observers
}

// Dispatch notifies observers in registration order. A failing observer
// does not stop the others.
func (d *EventDispatcher) Dispatch(event Event) {
	for _, observer := range d.snapshot() {
		if !observer.ShouldHandle(event.Type) {
			continue
		}
		if err := observer.OnEvent(event); err != nil {
			log.Printf("[EventDispatcher] Observer %s failed to handle event %s: %v",
				observer.GetName(), event.Type, err)
		}
	}
}

var _ Dispatcher = (*EventDispatcher)(nil)
