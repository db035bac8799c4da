package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tobilawal/localdiscovery/internal/domain/entities"
)

func TestInProcessBus_DeliversSynchronously(t *testing.T) {
	bus := NewInProcessBus()
	defer bus.Close()

	var got []*entities.ContextEvent
	bus.Subscribe(entities.ContextEventSearchAdded, func(e *entities.ContextEvent) {
		got = append(got, e)
	})

	event := entities.NewContextEvent(entities.ContextEventSearchAdded)
	event.SearchAdded = &entities.SearchAddedPayload{EntryID: "e1", SessionID: "s1"}
	bus.Publish(context.Background(), event)

	// Synchronous delivery: the handler has already run.
	assert.Len(t, got, 1)
	assert.Equal(t, "e1", got[0].SearchAdded.EntryID)
}

func TestInProcessBus_OnlyMatchingTypeDelivered(t *testing.T) {
	bus := NewInProcessBus()
	defer bus.Close()

	added, cleared := 0, 0
	bus.Subscribe(entities.ContextEventSearchAdded, func(*entities.ContextEvent) { added++ })
	bus.Subscribe(entities.ContextEventHistoryCleared, func(*entities.ContextEvent) { cleared++ })

	bus.Publish(context.Background(), entities.NewContextEvent(entities.ContextEventSearchAdded))

	assert.Equal(t, 1, added)
	assert.Equal(t, 0, cleared)
}

func TestInProcessBus_Unsubscribe(t *testing.T) {
	bus := NewInProcessBus()
	defer bus.Close()

	calls := 0
	unsubscribe := bus.Subscribe(entities.ContextEventSnapshotSaved, func(*entities.ContextEvent) { calls++ })

	bus.Publish(context.Background(), entities.NewContextEvent(entities.ContextEventSnapshotSaved))
	unsubscribe()
	unsubscribe() // safe to call twice
	bus.Publish(context.Background(), entities.NewContextEvent(entities.ContextEventSnapshotSaved))

	assert.Equal(t, 1, calls)
}

func TestInProcessBus_PanickingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewInProcessBus()
	defer bus.Close()

	survived := false
	bus.Subscribe(entities.ContextEventSearchAdded, func(*entities.ContextEvent) { panic("bad handler") })
	bus.Subscribe(entities.ContextEventSearchAdded, func(*entities.ContextEvent) { survived = true })

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), entities.NewContextEvent(entities.ContextEventSearchAdded))
	})
	assert.True(t, survived)
}

func TestInProcessBus_CloseIsIdempotent(t *testing.T) {
	bus := NewInProcessBus()

	calls := 0
	bus.Subscribe(entities.ContextEventSearchAdded, func(*entities.ContextEvent) { calls++ })

	assert.NoError(t, bus.Close())
	assert.NoError(t, bus.Close())

	bus.Publish(context.Background(), entities.NewContextEvent(entities.ContextEventSearchAdded))
	assert.Equal(t, 0, calls)
}
