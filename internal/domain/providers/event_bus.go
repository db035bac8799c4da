package providers

import (
	"context"

	"github.com/tobilawal/localdiscovery/internal/domain/entities"
)

// EventHandler receives an event. Handlers run synchronously on the
// publisher's goroutine; a slow handler delays the publisher.
type EventHandler func(event *entities.ContextEvent)

// EventBus is a synchronous, best-effort, in-process fan-out. There is
// no delivery guarantee and no cross-process semantics.
type EventBus interface {
	// Publish delivers the event to every current subscriber of its type
	Publish(ctx context.Context, event *entities.ContextEvent)

	// Subscribe registers a handler for one event type and returns an
	// unsubscribe function, safe to call more than once.
	Subscribe(eventType entities.ContextEventType, handler EventHandler) (unsubscribe func())

	// Close removes all subscribers. Idempotent.
	Close() error
}
