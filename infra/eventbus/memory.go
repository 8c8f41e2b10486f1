// Package eventbus provides event bus implementations: a synchronous
// in-memory bus for tests and single-process deployments, and a Redis
// Streams bus for production wiring.
package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/railpay/pkg/eventbus"
)

// MemoryEventBus is a simple synchronous in-memory implementation of
// eventbus.Bus.
type MemoryEventBus struct {
	mu        sync.RWMutex
	handlers  map[string][]eventbus.HandlerFunc
	logger    *slog.Logger
	published []eventbus.Event // retained for test assertions
}

// NewWithMemory creates a new in-memory event bus.
func NewWithMemory(logger *slog.Logger) *MemoryEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryEventBus{
		handlers: make(map[string][]eventbus.HandlerFunc),
		logger:   logger.With("bus", "memory"),
	}
}

// Register registers a handler for a specific event type.
func (b *MemoryEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit dispatches the event to all registered handlers for its type.
func (b *MemoryEventBus) Emit(ctx context.Context, event eventbus.Event) error {
	b.mu.Lock()
	b.published = append(b.published, event)
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[event.Type()]...)
	b.mu.Unlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			b.logger.Error("event handler failed",
				"type", event.Type(), "error", err)
		}
	}
	return nil
}

// Published returns the events emitted so far. Useful for tests.
func (b *MemoryEventBus) Published() []eventbus.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]eventbus.Event(nil), b.published...)
}

// ClearPublished resets the recorded events. Useful for tests.
func (b *MemoryEventBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = nil
}

var _ eventbus.Bus = (*MemoryEventBus)(nil)
