package websocket

import (
	"log"

	"github.com/ramonehamilton/PTCG-Companion/internal/events"
)

// WebSocketObserver forwards domain events to WebSocket clients.
type WebSocketObserver struct {
	name string
	hub  *Hub
}

// NewWebSocketObserver creates an observer broadcasting through hub.
func NewWebSocketObserver(hub *Hub) *WebSocketObserver {
	return &WebSocketObserver{
		name: "WebSocketObserver",
		hub:  hub,
	}
}

// OnEvent broadcasts the event's payload.
func (o *WebSocketObserver) OnEvent(event events.Event) error {
	if o.hub == nil {
		log.Printf("[%s] Cannot emit event %s: hub is nil", o.name, event.Type)
		return nil
	}

	o.hub.BroadcastEvent(Event{Type: event.Type, Data: event.Data})
	return nil
}

// GetName returns the observer's name.
func (o *WebSocketObserver) GetName() string {
	return o.name
}

// ShouldHandle forwards session and collection events.
func (o *WebSocketObserver) ShouldHandle(eventType string) bool {
	switch eventType {
	case events.SessionChanged, events.CollectionUpdated, events.ConfigReloaded:
		return true
	default:
		return false
	}
}

var _ events.Observer = (*WebSocketObserver)(nil)
