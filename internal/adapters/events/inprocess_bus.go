package events

import (
	"context"
	"sync"

	"github.com/tobilawal/localdiscovery/internal/domain/entities"
	"github.com/tobilawal/localdiscovery/internal/domain/providers"
	"github.com/tobilawal/localdiscovery/internal/infrastructure/observability"
)

// InProcessBus implements the EventBus interface with an explicit
// subscription registry. Delivery is synchronous and best-effort: every
// handler registered at publish time is invoked on the publisher's
// goroutine, a panicking handler is recovered and logged, and a closed
// bus drops events silently.
type InProcessBus struct {
	mu     sync.RWMutex
	nextID int
	closed bool
	byType map[entities.ContextEventType]map[int]providers.EventHandler
}

// NewInProcessBus creates a new in-process event bus
func NewInProcessBus() providers.EventBus {
	return &InProcessBus{
		byType: make(map[entities.ContextEventType]map[int]providers.EventHandler),
	}
}

// Publish delivers the event to every current subscriber of its type
func (b *InProcessBus) Publish(ctx context.Context, event *entities.ContextEvent) {
	if event == nil {
		return
	}

	b.mu.RLock()
	handlers := make([]providers.EventHandler, 0, len(b.byType[event.EventType]))
	if !b.closed {
		for _, h := range b.byType[event.EventType] {
			handlers = append(handlers, h)
		}
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.deliver(ctx, handler, event)
	}
}

func (b *InProcessBus) deliver(ctx context.Context, handler providers.EventHandler, event *entities.ContextEvent) {
	defer func() {
		if r := recover(); r != nil {
			observability.LoggerFromContext(ctx).Warn().
				Str("event_type", string(event.EventType)).
				Interface("panic", r).
				Msg("event handler panicked")
		}
	}()
	handler(event)
}

// Subscribe registers a handler for one event type and returns an
// unsubscribe function, safe to call more than once.
func (b *InProcessBus) Subscribe(eventType entities.ContextEventType, handler providers.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	if b.byType[eventType] == nil {
		b.byType[eventType] = make(map[int]providers.EventHandler)
	}

	id := b.nextID
	b.nextID++
	b.byType[eventType][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if handlers, ok := b.byType[eventType]; ok {
			delete(handlers, id)
			if len(handlers) == 0 {
				delete(b.byType, eventType)
			}
		}
	}
}

// Close removes all subscribers. Idempotent.
func (b *InProcessBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.byType = make(map[entities.ContextEventType]map[int]providers.EventHandler)
	return nil
}
