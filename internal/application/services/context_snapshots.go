package services

import (
	"context"

	"github.com/tobilawal/localdiscovery/internal/domain/entities"
)

// CreateContextSnapshot builds a point-in-time capture without touching
// storage. Session duration is filled from the running session; when no
// environmental context is supplied, one is derived from session state.
func (s *SearchContextService) CreateContextSnapshot(
	location entities.GeoLocation,
	search entities.SearchState,
	user entities.UserState,
	env *entities.EnvironmentalContext,
) *entities.ContextSnapshot {
	now := s.now()

	s.mu.RLock()
	startTime := s.ctxState.Session.StartTime
	movement := s.ctxState.Session.MovementPattern
	s.mu.RUnlock()

	user.SessionDurationMs = now.UnixMilli() - startTime

	environment := entities.EnvironmentalContext{
		NetworkCondition: "unknown",
		TimeContext:      timeOfDayFor(now),
		MovementPattern:  movement,
	}
	if env != nil {
		environment = *env
	}

	return &entities.ContextSnapshot{
		Timestamp:   now.UnixMilli(),
		Location:    location,
		Search:      search,
		User:        user,
		Environment: environment,
	}
}

// SaveContextSnapshot prepends the snapshot to the bounded list,
// persists, and notifies subscribers.
func (s *SearchContextService) SaveContextSnapshot(ctx context.Context, snapshot *entities.ContextSnapshot) {
	if snapshot == nil {
		return
	}

	s.mu.Lock()
	s.snapshots = append([]*entities.ContextSnapshot{snapshot}, s.snapshots...)
	if len(s.snapshots) > MaxSnapshots {
		s.snapshots = s.snapshots[:MaxSnapshots]
	}
	s.mu.Unlock()

	s.persistSnapshots(ctx)

	event := entities.NewContextEvent(entities.ContextEventSnapshotSaved)
	event.SnapshotSaved = &entities.SnapshotSavedPayload{Timestamp: snapshot.Timestamp}
	s.publish(ctx, event)
}

// GetContextSnapshot returns the snapshot with the exact timestamp if one
// exists, otherwise the most recent snapshot, otherwise nil. Pass 0 to
// skip the exact lookup.
func (s *SearchContextService) GetContextSnapshot(timestamp int64) *entities.ContextSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if timestamp != 0 {
		for _, snap := range s.snapshots {
			if snap.Timestamp == timestamp {
				return snap
			}
		}
	}
	if len(s.snapshots) > 0 {
		return s.snapshots[0]
	}
	return nil
}

// autoSnapshotTick captures the current interaction state on the periodic
// schedule, suppressed while the app is dormant so the snapshot list does
// not fill with identical idle captures.
func (s *SearchContextService) autoSnapshotTick(ctx context.Context) {
	nowMs := s.now().UnixMilli()

	s.mu.RLock()
	last := s.lastActivity
	var location *entities.GeoLocation
	if s.ctxState.Session.CurrentLocation != nil {
		loc := *s.ctxState.Session.CurrentLocation
		location = &loc
	}
	var search entities.SearchState
	mode := entities.InteractionBrowsing
	if len(s.history) > 0 {
		newest := s.history[0]
		region := newest.Region
		search = entities.SearchState{
			ActiveQuery:   newest.Query,
			CurrentRegion: &region,
			ResultCount:   newest.Results.Count,
		}
		mode = entities.InteractionSearching
	}
	s.mu.RUnlock()

	if last == 0 || nowMs-last > s.cfg.IdleThreshold.Milliseconds() {
		return
	}
	if location == nil {
		return
	}

	snapshot := s.CreateContextSnapshot(*location, search, entities.UserState{InteractionMode: mode}, nil)
	s.SaveContextSnapshot(ctx, snapshot)
}
