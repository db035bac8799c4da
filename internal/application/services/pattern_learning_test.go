package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobilawal/localdiscovery/internal/domain/entities"
)

func patternByKey(svc *SearchContextService, key string) *entities.SearchPattern {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.ctxState.Patterns[key]
}

func patternCount(svc *SearchContextService, t entities.PatternType) int {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.ctxState.Patterns.CountByType(t)
}

func TestLocationPattern_ConfidenceReachesOneAfterTenRepeats(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		svc.AddSearchEntry(ctx, "lunch", testLocation(6.5244, 3.3792), testRegion(6.5244, 3.3792), testResults(2), nil)
	}

	p := patternByKey(svc, "location:6.524,3.379")
	require.NotNil(t, p)
	assert.Equal(t, 10, p.Data.Frequency)
	assert.Equal(t, 1.0, p.Confidence)
}

func TestLocationPattern_FirstSightStartsAtPointOne(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.AddSearchEntry(ctx, "lunch", testLocation(6.5244, 3.3792), testRegion(6.5244, 3.3792), testResults(2), nil)

	p := patternByKey(svc, "location:6.524,3.379")
	require.NotNil(t, p)
	assert.InDelta(t, 0.1, p.Confidence, 1e-9)
}

func TestPatternConfidence_StaysWithinBounds(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		svc.AddSearchEntry(ctx, "coffee", testLocation(6.5244, 3.3792), testRegion(6.5244, 3.3792), testResults(1), nil)
	}

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	for _, p := range svc.ctxState.Patterns {
		assert.GreaterOrEqual(t, p.Confidence, 0.0, "pattern %s", p.Key)
		assert.LessOrEqual(t, p.Confidence, 1.0, "pattern %s", p.Key)
		assert.GreaterOrEqual(t, p.PredictiveValue, 0.0, "pattern %s", p.Key)
		assert.LessOrEqual(t, p.PredictiveValue, 0.5, "pattern %s", p.Key)
	}
}

func TestQueryPattern_KeepsSpreadOutRepresentativeLocations(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// Two fixes ~110 m apart, then one ~8 km away.
	svc.AddSearchEntry(ctx, "fuel station", testLocation(6.5244, 3.3792), testRegion(6.5244, 3.3792), testResults(1), nil)
	svc.AddSearchEntry(ctx, "fuel station", testLocation(6.5254, 3.3792), testRegion(6.5254, 3.3792), testResults(1), nil)
	svc.AddSearchEntry(ctx, "fuel station", testLocation(6.60, 3.3792), testRegion(6.60, 3.3792), testResults(1), nil)

	p := patternByKey(svc, "query:fuel station")
	require.NotNil(t, p)
	assert.Equal(t, 3, p.Data.Frequency)
	// The close fix is absorbed; the far one becomes a new representative.
	assert.Len(t, p.Data.CommonLocations, 2)
	assert.InDelta(t, 0.6, p.Confidence, 1e-9)
}

func TestTimePattern_CollectsDistinctQueries(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.AddSearchEntry(ctx, "breakfast", testLocation(6.5, 3.3), testRegion(6.5, 3.3), testResults(1), nil)
	svc.AddSearchEntry(ctx, "breakfast", testLocation(6.5, 3.3), testRegion(6.5, 3.3), testResults(1), nil)
	svc.AddSearchEntry(ctx, "bakery", testLocation(6.5, 3.3), testRegion(6.5, 3.3), testResults(1), nil)

	now := svc.now()
	key := timePatternKey(timeOfDayFor(now), now.Weekday().String())
	p := patternByKey(svc, key)
	require.NotNil(t, p)
	assert.Equal(t, 3, p.Data.Frequency)
	assert.ElementsMatch(t, []string{"breakfast", "bakery"}, p.Data.CommonQueries)
}

func TestMixedPattern_PredictiveValueGrowsPerRepeat(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		svc.AddSearchEntry(ctx, "brunch", testLocation(6.5244, 3.3792), testRegion(6.5244, 3.3792), testResults(1), nil)
	}

	now := svc.now()
	key := fmt.Sprintf("mixed:6.524,3.379|%s|brunch", timeOfDayFor(now))
	p := patternByKey(svc, key)
	require.NotNil(t, p)
	assert.Equal(t, 3, p.Data.Frequency)
	assert.Equal(t, 1.0, p.Confidence)
	// 0.1 at creation, +0.05 for each of the two repeats.
	assert.InDelta(t, 0.2, p.PredictiveValue, 1e-9)
}

func TestMixedPattern_CreationStopsAtCap(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < MaxMixedPatterns+10; i++ {
		svc.AddSearchEntry(ctx, fmt.Sprintf("query %d", i), testLocation(6.5244, 3.3792), testRegion(6.5244, 3.3792), testResults(1), nil)
	}

	assert.Equal(t, MaxMixedPatterns, patternCount(svc, entities.PatternTypeMixed))

	// Existing mixed patterns still update past the cap.
	svc.AddSearchEntry(ctx, "query 0", testLocation(6.5244, 3.3792), testRegion(6.5244, 3.3792), testResults(1), nil)
	now := svc.now()
	key := fmt.Sprintf("mixed:6.524,3.379|%s|query 0", timeOfDayFor(now))
	p := patternByKey(svc, key)
	require.NotNil(t, p)
	assert.Equal(t, 2, p.Data.Frequency)
}

func TestPrune_DropsPatternsPastMaxAge(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	base := time.Now()
	svc.now = func() time.Time { return base.AddDate(0, 0, -120) }
	svc.AddSearchEntry(ctx, "stale", testLocation(6.70, 3.50), testRegion(6.70, 3.50), testResults(1), nil)

	require.NotNil(t, patternByKey(svc, "query:stale"))

	// The next learning pass prunes everything last used 120 days ago.
	svc.now = func() time.Time { return base }
	svc.AddSearchEntry(ctx, "fresh", testLocation(6.5244, 3.3792), testRegion(6.5244, 3.3792), testResults(1), nil)

	assert.Nil(t, patternByKey(svc, "query:stale"))
	assert.NotNil(t, patternByKey(svc, "query:fresh"))
}

func TestPrune_EnforcesIndexCap(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// Distinct far-apart locations with distinct queries overflow the
	// index: each add creates location, query and mixed patterns.
	for i := 0; i < 80; i++ {
		lat := 6.0 + float64(i)*0.05
		svc.AddSearchEntry(ctx, fmt.Sprintf("query %d", i), testLocation(lat, 3.3), testRegion(lat, 3.3), testResults(1), nil)
	}

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	assert.LessOrEqual(t, len(svc.ctxState.Patterns), MaxPatterns)
}
