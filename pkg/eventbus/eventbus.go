// Package eventbus defines the contract for publishing and handling
// domain events.
package eventbus

import "context"

// Event is a domain event carried on the bus.
type Event interface {
	// Type identifies the event for handler routing.
	Type() string
}

// HandlerFunc handles one event.
type HandlerFunc func(ctx context.Context, event Event) error

// Bus dispatches domain events to registered handlers.
type Bus interface {
	// Emit dispatches the event to all handlers registered for its type.
	Emit(ctx context.Context, event Event) error
	// Register registers a handler for a specific event type.
	Register(eventType string, handler HandlerFunc)
}
