package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobilawal/localdiscovery/internal/adapters/events"
	"github.com/tobilawal/localdiscovery/internal/adapters/storage"
	"github.com/tobilawal/localdiscovery/internal/domain/entities"
	"github.com/tobilawal/localdiscovery/pkg/config"
)

func TestCreateContextSnapshot_FillsSessionDuration(t *testing.T) {
	svc, _ := newTestService()

	start := svc.ctxState.Session.StartTime
	svc.now = func() time.Time { return time.UnixMilli(start + 90_000) }

	snap := svc.CreateContextSnapshot(
		testLocation(6.5244, 3.3792),
		entities.SearchState{ActiveQuery: "chemist", ResultCount: 7},
		entities.UserState{InteractionMode: entities.InteractionSearching},
		nil,
	)

	assert.Equal(t, int64(90_000), snap.User.SessionDurationMs)
	assert.Equal(t, "chemist", snap.Search.ActiveQuery)
	assert.Equal(t, start+90_000, snap.Timestamp)
	// Derived environment falls back to session movement state.
	assert.Equal(t, entities.MovementStationary, snap.Environment.MovementPattern)
}

func TestSaveContextSnapshot_BoundedNewestFirst(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < MaxSnapshots+15; i++ {
		tick := base.Add(time.Duration(i) * time.Second)
		svc.now = func() time.Time { return tick }
		snap := svc.CreateContextSnapshot(testLocation(6.5, 3.3), entities.SearchState{}, entities.UserState{}, nil)
		svc.SaveContextSnapshot(ctx, snap)
	}

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	require.Len(t, svc.snapshots, MaxSnapshots)
	assert.Greater(t, svc.snapshots[0].Timestamp, svc.snapshots[1].Timestamp)
}

func TestGetContextSnapshot_ExactThenLatestThenNil(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	assert.Nil(t, svc.GetContextSnapshot(0))

	base := time.Now()
	var exact int64
	for i := 0; i < 3; i++ {
		tick := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return tick }
		snap := svc.CreateContextSnapshot(testLocation(6.5, 3.3), entities.SearchState{}, entities.UserState{}, nil)
		if i == 1 {
			exact = snap.Timestamp
		}
		svc.SaveContextSnapshot(ctx, snap)
	}

	got := svc.GetContextSnapshot(exact)
	require.NotNil(t, got)
	assert.Equal(t, exact, got.Timestamp)

	latest := svc.GetContextSnapshot(0)
	require.NotNil(t, latest)
	assert.Equal(t, base.Add(2*time.Minute).UnixMilli(), latest.Timestamp)

	// Unknown timestamp falls back to the most recent snapshot.
	fallback := svc.GetContextSnapshot(exact + 1)
	require.NotNil(t, fallback)
	assert.Equal(t, latest.Timestamp, fallback.Timestamp)
}

func TestSaveContextSnapshot_PublishesEvent(t *testing.T) {
	store := storage.NewMemoryStore()
	bus := events.NewInProcessBus()
	svc := NewSearchContextService(store, bus, nil, config.ContextConfig{})
	ctx := context.Background()

	var saved []*entities.SnapshotSavedPayload
	bus.Subscribe(entities.ContextEventSnapshotSaved, func(e *entities.ContextEvent) {
		saved = append(saved, e.SnapshotSaved)
	})

	snap := svc.CreateContextSnapshot(testLocation(6.5, 3.3), entities.SearchState{}, entities.UserState{}, nil)
	svc.SaveContextSnapshot(ctx, snap)

	require.Len(t, saved, 1)
	assert.Equal(t, snap.Timestamp, saved[0].Timestamp)
}

func TestAutoSnapshot_SuppressedWhileIdle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// Active session: a search just happened.
	svc.AddSearchEntry(ctx, "vet", testLocation(6.5244, 3.3792), testRegion(6.5244, 3.3792), testResults(1), nil)

	svc.autoSnapshotTick(ctx)
	require.NotNil(t, svc.GetContextSnapshot(0))

	svc.mu.RLock()
	countAfterActive := len(svc.snapshots)
	svc.mu.RUnlock()
	assert.Equal(t, 1, countAfterActive)

	// Ten minutes of silence: the tick must not add snapshots.
	svc.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	svc.autoSnapshotTick(ctx)

	svc.mu.RLock()
	countAfterIdle := len(svc.snapshots)
	svc.mu.RUnlock()
	assert.Equal(t, countAfterActive, countAfterIdle)
}

func TestAutoSnapshot_NeverFiresBeforeFirstInteraction(t *testing.T) {
	svc, _ := newTestService()

	svc.autoSnapshotTick(context.Background())
	assert.Nil(t, svc.GetContextSnapshot(0))
}

func TestAutoSnapshot_CapturesActiveSearchState(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.AddSearchEntry(ctx, "bookshop", testLocation(6.5244, 3.3792), testRegion(6.5244, 3.3792), testResults(9), nil)
	svc.autoSnapshotTick(ctx)

	snap := svc.GetContextSnapshot(0)
	require.NotNil(t, snap)
	assert.Equal(t, "bookshop", snap.Search.ActiveQuery)
	assert.Equal(t, 9, snap.Search.ResultCount)
	assert.Equal(t, entities.InteractionSearching, snap.User.InteractionMode)
	assert.InDelta(t, 6.5244, snap.Location.Latitude, 1e-9)
}
