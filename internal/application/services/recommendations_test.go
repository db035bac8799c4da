package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobilawal/localdiscovery/internal/domain/entities"
)

func TestGetSearchRecommendations_EmptyLedgerReturnsEmpty(t *testing.T) {
	svc, _ := newTestService()

	recs := svc.GetSearchRecommendations(context.Background(), testLocation(6.5244, 3.3792), nil)
	assert.Empty(t, recs)
}

func TestGetSearchRecommendations_BoundedAndSorted(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		query := fmt.Sprintf("query %d", i%8)
		id := svc.AddSearchEntry(ctx, query, testLocation(6.5244, 3.3792), testRegion(6.5244, 3.3792), testResults(3), nil)
		helpful := true
		rating := 5
		svc.UpdateUserInteraction(ctx, id, entities.InteractionUpdate{WasHelpful: &helpful, Rating: &rating})
	}

	recs := svc.GetSearchRecommendations(ctx, testLocation(6.5244, 3.3792), nil)
	require.NotEmpty(t, recs)
	assert.LessOrEqual(t, len(recs), MaxRecommendations)

	for i, r := range recs {
		assert.GreaterOrEqual(t, r.Confidence, 0.0)
		assert.LessOrEqual(t, r.Confidence, 1.0)
		assert.GreaterOrEqual(t, r.RelevanceScore, 0.0)
		assert.LessOrEqual(t, r.RelevanceScore, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, recs[i-1].Score(), r.Score(), "recommendations must be sorted by score")
		}
	}
}

func TestGetSearchRecommendations_LocationBasedSuggestsNearbyQueries(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// Three nearby searches for the same thing, one far away.
	for i := 0; i < 3; i++ {
		svc.AddSearchEntry(ctx, "amala spot", testLocation(6.5244, 3.3792), testRegion(6.5244, 3.3792), testResults(5), nil)
	}
	svc.AddSearchEntry(ctx, "car wash", testLocation(7.0, 3.9), testRegion(7.0, 3.9), testResults(5), nil)

	recs := svc.GetSearchRecommendations(ctx, testLocation(6.5244, 3.3792), nil)
	require.NotEmpty(t, recs)

	// Nearby-query suggestions carry both history and location basis.
	var titles []string
	for _, r := range recs {
		if r.Type == entities.RecommendationQuery && r.BasedOn.RecentHistory && r.BasedOn.LocationContext {
			titles = append(titles, r.Title)
		}
	}
	assert.Contains(t, titles, "amala spot")
	assert.NotContains(t, titles, "car wash")

	top := recs[0]
	assert.Equal(t, entities.RecommendationQuery, top.Type)
	assert.Equal(t, entities.ActionSearch, top.Action.Type)
	require.NotNil(t, top.Action.Search)
	assert.Equal(t, "amala spot", top.Action.Search.Query)
	assert.True(t, top.BasedOn.RecentHistory)
	assert.True(t, top.BasedOn.LocationContext)
}

func TestGetSearchRecommendations_HistoryBasedNavigatesToGoodSpots(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// Two successful searches in the same ~1 km cell.
	for i := 0; i < 2; i++ {
		id := svc.AddSearchEntry(ctx, "", testLocation(6.4301, 3.4215), testRegion(6.4301, 3.4215), testResults(4), nil)
		helpful := true
		rating := 5
		svc.UpdateUserInteraction(ctx, id, entities.InteractionUpdate{WasHelpful: &helpful, Rating: &rating})
	}

	// Recommendations asked for from far away: only the history-based
	// generator can fire (no queries were recorded).
	recs := svc.GetSearchRecommendations(ctx, testLocation(9.0765, 7.3986), nil)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, entities.RecommendationLocation, rec.Type)
	assert.Equal(t, entities.ActionNavigate, rec.Action.Type)
	require.NotNil(t, rec.Action.Navigate)
	assert.InDelta(t, 6.4301, rec.Action.Navigate.Location.Latitude, 1e-9)
	assert.InDelta(t, 0.7, rec.RelevanceScore, 1e-9)
	assert.InDelta(t, 0.4, rec.Confidence, 1e-9) // group of 2 over divisor 5
}

func TestGetSearchRecommendations_UnratedSearchesDoNotFormSpots(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		svc.AddSearchEntry(ctx, "", testLocation(6.4301, 3.4215), testRegion(6.4301, 3.4215), testResults(4), nil)
	}

	recs := svc.GetSearchRecommendations(ctx, testLocation(9.0765, 7.3986), nil)
	assert.Empty(t, recs)
}

func TestGetSearchRecommendations_TimeBasedUsesEnvironmentOverride(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// Build up a time pattern at the current slot.
	for i := 0; i < 4; i++ {
		svc.AddSearchEntry(ctx, "pepper soup", testLocation(6.5244, 3.3792), testRegion(6.5244, 3.3792), testResults(2), nil)
	}

	now := svc.now()
	matching := &entities.SearchEnvironment{TimeOfDay: timeOfDayFor(now), DayOfWeek: now.Weekday().String()}
	other := &entities.SearchEnvironment{TimeOfDay: entities.TimeNight, DayOfWeek: "Sunday"}
	if matching.TimeOfDay == entities.TimeNight && matching.DayOfWeek == "Sunday" {
		other = &entities.SearchEnvironment{TimeOfDay: entities.TimeMorning, DayOfWeek: "Monday"}
	}

	// Far from the search area: the location generator cannot fire, and
	// pattern matching is keyed purely on the requested slot.
	far := testLocation(9.0765, 7.3986)

	withSlot := svc.GetSearchRecommendations(ctx, far, matching)
	var fromTime []*entities.SearchRecommendation
	for _, r := range withSlot {
		if r.BasedOn.TimeContext && len(r.BasedOn.Patterns) > 0 && r.Type == entities.RecommendationQuery {
			fromTime = append(fromTime, r)
		}
	}
	require.NotEmpty(t, fromTime)
	assert.Equal(t, "pepper soup", fromTime[0].Title)

	otherSlot := svc.GetSearchRecommendations(ctx, far, other)
	for _, r := range otherSlot {
		assert.NotEqual(t, entities.RecommendationQuery, r.Type,
			"no time-based suggestion should fire for a different slot")
	}
}

func TestGetSearchRecommendations_RankingWeighsRelevanceOverConfidence(t *testing.T) {
	recA := &entities.SearchRecommendation{RelevanceScore: 0.8, Confidence: 0.2}
	recB := &entities.SearchRecommendation{RelevanceScore: 0.6, Confidence: 0.6}

	// 0.8*0.6+0.2*0.4 = 0.56 vs 0.6*0.6+0.6*0.4 = 0.60
	assert.Greater(t, recB.Score(), recA.Score())
}
