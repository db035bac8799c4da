package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/tobilawal/localdiscovery/internal/domain/entities"
	"github.com/tobilawal/localdiscovery/internal/infrastructure/observability"
	"github.com/tobilawal/localdiscovery/pkg/geo"
)

// HistoryFilter narrows GetSearchHistory results. Zero values mean "no
// constraint"; time bounds are inclusive epoch-ms.
type HistoryFilter struct {
	Limit    int
	FromTime int64
	ToTime   int64
	Location *entities.GeoLocation
	RadiusKm float64
	Query    string
}

// AddSearchEntry records a completed search: it builds the ledger entry,
// updates session state and rolling metrics, feeds the pattern learner,
// then persists. The in-memory mutation always succeeds for normal input;
// persistence failures are logged and do not surface.
func (s *SearchContextService) AddSearchEntry(
	ctx context.Context,
	query string,
	location entities.GeoLocation,
	region entities.MapRegion,
	results entities.SearchResults,
	overrides *entities.EnvironmentOverrides,
) string {
	now := s.now()
	nowMs := now.UnixMilli()

	s.mu.Lock()

	session := &s.ctxState.Session
	movement := s.inferMovementLocked(location, nowMs)

	environment := entities.SearchEnvironment{
		AppState:        entities.AppStateForeground,
		NetworkType:     "unknown",
		MovementPattern: movement,
		TimeOfDay:       timeOfDayFor(now),
		DayOfWeek:       now.Weekday().String(),
	}
	if overrides != nil {
		if overrides.AppState != nil {
			environment.AppState = *overrides.AppState
		}
		if overrides.NetworkType != nil {
			environment.NetworkType = *overrides.NetworkType
		}
		if overrides.BatteryLevel != nil {
			environment.BatteryLevel = overrides.BatteryLevel
		}
		if overrides.MovementPattern != nil {
			environment.MovementPattern = *overrides.MovementPattern
			movement = *overrides.MovementPattern
		}
		if overrides.WeatherCondition != nil {
			environment.WeatherCondition = *overrides.WeatherCondition
		}
	}

	isRepeat, previousID := s.findRepeatLocked(query, location)

	entry := &entities.SearchEntry{
		ID:          uuid.NewString(),
		Timestamp:   nowMs,
		Query:       query,
		Location:    location,
		Region:      region,
		Results:     results,
		Environment: environment,
		Session: entities.SessionInfo{
			SessionID:        session.SessionID,
			SearchSequence:   session.SearchCount + 1,
			IsRepeatSearch:   isRepeat,
			PreviousSearchID: previousID,
		},
	}

	// Prepend; the ledger stays newest-first and bounded.
	s.history = append([]*entities.SearchEntry{entry}, s.history...)
	if len(s.history) > MaxHistoryEntries {
		s.history = s.history[:MaxHistoryEntries]
	}
	s.refreshRecentLocked()

	loc := location
	session.SearchCount++
	session.LastSearchTime = nowMs
	session.CurrentLocation = &loc
	session.MovementPattern = movement

	metrics := &s.ctxState.Metrics
	metrics.TotalSearches++
	metrics.AverageSearchTimeMs += (float64(results.ResponseTimeMs) - metrics.AverageSearchTimeMs) / float64(metrics.TotalSearches)
	if results.Source == entities.ResultSourceCached {
		metrics.CachedResults++
	}
	metrics.CacheHitRate = float64(metrics.CachedResults) / float64(metrics.TotalSearches)

	s.ctxState.FeatureUsage["search"]++
	if isRepeat {
		s.ctxState.FeatureUsage["repeat_search"]++
	}
	metrics.MostUsedFeatures = s.topFeaturesLocked()

	s.learnFromEntryLocked(entry)
	s.lastActivity = nowMs

	s.mu.Unlock()

	event := entities.NewContextEvent(entities.ContextEventSearchAdded)
	event.SearchAdded = &entities.SearchAddedPayload{
		EntryID:   entry.ID,
		Query:     query,
		SessionID: entry.Session.SessionID,
	}
	s.publish(ctx, event)

	s.persistHistory(ctx)
	s.persistPatterns(ctx)
	s.persistContext(ctx)

	return entry.ID
}

// UpdateUserInteraction merges a partial interaction update into the
// matching entry. An unknown id is logged and ignored; it is not an error.
func (s *SearchContextService) UpdateUserInteraction(ctx context.Context, id string, update entities.InteractionUpdate) {
	nowMs := s.now().UnixMilli()

	s.mu.Lock()

	var entry *entities.SearchEntry
	for _, e := range s.history {
		if e.ID == id {
			entry = e
			break
		}
	}
	if entry == nil {
		s.mu.Unlock()
		observability.LoggerFromContext(ctx).Warn().Str("entry_id", id).
			Msg("interaction update for unknown search entry")
		return
	}

	interaction := &entry.Interaction
	if update.ViewDurationMs != nil {
		interaction.ViewDurationMs = *update.ViewDurationMs
	}
	interaction.BusinessesViewed = append(interaction.BusinessesViewed, update.BusinessesViewed...)
	interaction.BusinessesInteracted = append(interaction.BusinessesInteracted, update.BusinessesInteracted...)
	interaction.BusinessesSaved = append(interaction.BusinessesSaved, update.BusinessesSaved...)
	if update.WasHelpful != nil {
		interaction.WasHelpful = *update.WasHelpful
	}
	if update.Feedback != nil {
		interaction.Feedback = *update.Feedback
	}
	if update.Rating != nil {
		rating := *update.Rating
		interaction.Rating = &rating
		s.recomputeSatisfactionLocked()
	}

	s.lastActivity = nowMs
	s.mu.Unlock()

	event := entities.NewContextEvent(entities.ContextEventInteractionUpdated)
	event.InteractionUpdated = &entities.InteractionUpdatedPayload{EntryID: id}
	s.publish(ctx, event)

	s.persistHistory(ctx)
	s.persistContext(ctx)
}

// GetSearchHistory returns matching entries in ledger order, newest-first.
// Filtering happens before the limit slice; no filter re-sorts.
func (s *SearchContextService) GetSearchHistory(ctx context.Context, filter *HistoryFilter) []*entities.SearchEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*entities.SearchEntry, 0, len(s.history))
	for _, e := range s.history {
		if filter != nil && !matchesFilter(e, filter) {
			continue
		}
		matched = append(matched, e)
	}
	if filter != nil && filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched
}

func matchesFilter(e *entities.SearchEntry, f *HistoryFilter) bool {
	if f.FromTime > 0 && e.Timestamp < f.FromTime {
		return false
	}
	if f.ToTime > 0 && e.Timestamp > f.ToTime {
		return false
	}
	if f.Location != nil && f.RadiusKm > 0 {
		d := geo.DistanceKm(f.Location.Latitude, f.Location.Longitude, e.Location.Latitude, e.Location.Longitude)
		if d > f.RadiusKm {
			return false
		}
	}
	if f.Query != "" && !strings.Contains(strings.ToLower(e.Query), strings.ToLower(f.Query)) {
		return false
	}
	return true
}

// ClearSearchHistory removes entries older than the given number of days;
// olderThanDays <= 0 truncates the ledger entirely. Returns how many
// entries were removed.
func (s *SearchContextService) ClearSearchHistory(ctx context.Context, olderThanDays int) int {
	nowMs := s.now().UnixMilli()

	s.mu.Lock()
	before := len(s.history)
	if olderThanDays > 0 {
		cutoff := nowMs - int64(olderThanDays)*millisPerDay
		kept := s.history[:0]
		for _, e := range s.history {
			if e.Timestamp > cutoff {
				kept = append(kept, e)
			}
		}
		s.history = kept
	} else {
		s.history = nil
	}
	removed := before - len(s.history)
	s.refreshRecentLocked()
	s.mu.Unlock()

	event := entities.NewContextEvent(entities.ContextEventHistoryCleared)
	payload := &entities.HistoryClearedPayload{Removed: removed}
	if olderThanDays > 0 {
		days := olderThanDays
		payload.OlderThanDays = &days
	}
	event.HistoryCleared = payload
	s.publish(ctx, event)

	s.persistHistory(ctx)
	return removed
}

// findRepeatLocked reports whether an existing entry shares the query
// text within RepeatSearchRadiusM. Caller holds mu.
func (s *SearchContextService) findRepeatLocked(query string, location entities.GeoLocation) (bool, string) {
	if query == "" {
		return false, ""
	}
	for _, e := range s.history {
		if e.Query != query {
			continue
		}
		if geo.DistanceMeters(location.Latitude, location.Longitude, e.Location.Latitude, e.Location.Longitude) <= RepeatSearchRadiusM {
			return true, e.ID
		}
	}
	return false, ""
}

// recomputeSatisfactionLocked sets the satisfaction score to the mean of
// all present ratings. Caller holds mu.
func (s *SearchContextService) recomputeSatisfactionLocked() {
	sum, count := 0, 0
	for _, e := range s.history {
		if e.Interaction.Rating != nil {
			sum += *e.Interaction.Rating
			count++
		}
	}
	if count == 0 {
		s.ctxState.Metrics.UserSatisfactionScore = 0
		return
	}
	s.ctxState.Metrics.UserSatisfactionScore = float64(sum) / float64(count)
}

// inferMovementLocked classifies movement from the speed between the
// previous session fix and the new one. Caller holds mu.
func (s *SearchContextService) inferMovementLocked(location entities.GeoLocation, nowMs int64) entities.MovementPattern {
	session := s.ctxState.Session
	prev := session.CurrentLocation
	if prev == nil || session.LastSearchTime == 0 || nowMs <= session.LastSearchTime {
		return session.MovementPattern
	}

	meters := geo.DistanceMeters(prev.Latitude, prev.Longitude, location.Latitude, location.Longitude)
	seconds := float64(nowMs-session.LastSearchTime) / 1000
	speed := meters / seconds

	switch {
	case speed < 0.5:
		return entities.MovementStationary
	case speed < 2.5:
		return entities.MovementWalking
	default:
		return entities.MovementDriving
	}
}
