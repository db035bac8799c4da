package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/tobilawal/localdiscovery/internal/domain/entities"
	"github.com/tobilawal/localdiscovery/internal/infrastructure/observability"
	"github.com/tobilawal/localdiscovery/pkg/geo"
)

const (
	nearbyHistoryRadiusKm  = 2.0
	patternMatchRadiusKm   = 5.0
	historyGroupDecimals   = 2
	minRecommendConfidence = 0.3

	locationBasedRelevance = 0.8
	timeBasedRelevance     = 0.6
	historyBasedRelevance  = 0.7
)

// GetSearchRecommendations combines the ledger, the pattern index and the
// current location/time into a ranked suggestion list. The four
// generators run in a fixed order and are failure-isolated: one blowing
// up degrades the response instead of propagating.
func (s *SearchContextService) GetSearchRecommendations(
	ctx context.Context,
	current entities.GeoLocation,
	env *entities.SearchEnvironment,
) []*entities.SearchRecommendation {
	now := s.now()
	tod := timeOfDayFor(now)
	dayOfWeek := now.Weekday().String()
	if env != nil {
		if env.TimeOfDay != "" {
			tod = env.TimeOfDay
		}
		if env.DayOfWeek != "" {
			dayOfWeek = env.DayOfWeek
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	generators := []struct {
		name string
		run  func() []*entities.SearchRecommendation
	}{
		{"location_based", func() []*entities.SearchRecommendation { return s.locationBasedLocked(current) }},
		{"time_based", func() []*entities.SearchRecommendation { return s.timeBasedLocked(tod, dayOfWeek) }},
		{"pattern_based", func() []*entities.SearchRecommendation { return s.patternBasedLocked(current, tod) }},
		{"history_based", func() []*entities.SearchRecommendation { return s.historyBasedLocked() }},
	}

	recs := make([]*entities.SearchRecommendation, 0, MaxRecommendations)
	for _, g := range generators {
		recs = append(recs, runGenerator(ctx, g.name, g.run)...)
	}

	// Stable sort keeps generator emission order on score ties.
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score() > recs[j].Score()
	})
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}

func runGenerator(ctx context.Context, name string, run func() []*entities.SearchRecommendation) (out []*entities.SearchRecommendation) {
	defer func() {
		if r := recover(); r != nil {
			observability.LoggerFromContext(ctx).Warn().
				Str("generator", name).
				Interface("panic", r).
				Msg("recommendation generator failed")
			out = nil
		}
	}()
	return run()
}

// locationBasedLocked suggests the queries most often run within 2 km of
// the current location. Caller holds mu.
func (s *SearchContextService) locationBasedLocked(current entities.GeoLocation) []*entities.SearchRecommendation {
	counts := make(map[string]int)
	var order []string // first-seen order, newest entry first

	for _, e := range s.history {
		if e.Query == "" {
			continue
		}
		if geo.DistanceKm(current.Latitude, current.Longitude, e.Location.Latitude, e.Location.Longitude) > nearbyHistoryRadiusKm {
			continue
		}
		if _, seen := counts[e.Query]; !seen {
			order = append(order, e.Query)
		}
		counts[e.Query]++
	}

	queries := make([]string, len(order))
	copy(queries, order)
	sort.SliceStable(queries, func(i, j int) bool {
		return counts[queries[i]] > counts[queries[j]]
	})
	if len(queries) > 5 {
		queries = queries[:5]
	}

	radius := s.ctxState.Preferences.DefaultRadiusKm
	recs := make([]*entities.SearchRecommendation, 0, len(queries))
	for _, q := range queries {
		recs = append(recs, &entities.SearchRecommendation{
			ID:             uuid.NewString(),
			Type:           entities.RecommendationQuery,
			Title:          q,
			Description:    fmt.Sprintf("You often search for %q around here", q),
			Confidence:     confidenceFrom(counts[q], 5),
			RelevanceScore: locationBasedRelevance,
			BasedOn: entities.RecommendationBasis{
				RecentHistory:   true,
				LocationContext: true,
			},
			Action: entities.RecommendationAction{
				Type:   entities.ActionSearch,
				Search: &entities.SearchActionPayload{Query: q, RadiusKm: radius},
			},
		})
	}
	return recs
}

// timeBasedLocked suggests queries learned for the current time slot.
// Caller holds mu.
func (s *SearchContextService) timeBasedLocked(tod entities.TimeOfDay, dayOfWeek string) []*entities.SearchRecommendation {
	key := timePatternKey(tod, dayOfWeek)

	var matching []*entities.SearchPattern
	for _, p := range s.ctxState.Patterns {
		if p.Type == entities.PatternTypeTime && p.Key == key {
			matching = append(matching, p)
		}
	}
	sort.Slice(matching, func(i, j int) bool {
		if matching[i].Confidence != matching[j].Confidence {
			return matching[i].Confidence > matching[j].Confidence
		}
		return matching[i].Key < matching[j].Key
	})
	if len(matching) > 3 {
		matching = matching[:3]
	}

	var recs []*entities.SearchRecommendation
	for _, p := range matching {
		for _, q := range p.Data.CommonQueries {
			recs = append(recs, &entities.SearchRecommendation{
				ID:             uuid.NewString(),
				Type:           entities.RecommendationQuery,
				Title:          q,
				Description:    fmt.Sprintf("A usual %s search for you", tod),
				Confidence:     p.Confidence,
				RelevanceScore: timeBasedRelevance,
				BasedOn: entities.RecommendationBasis{
					Patterns:    []string{p.ID},
					TimeContext: true,
				},
				Action: entities.RecommendationAction{
					Type:   entities.ActionSearch,
					Search: &entities.SearchActionPayload{Query: q},
				},
			})
		}
	}
	return recs
}

// patternBasedLocked promotes well-established patterns whose location
// and time constraints match right now. Caller holds mu.
func (s *SearchContextService) patternBasedLocked(current entities.GeoLocation, tod entities.TimeOfDay) []*entities.SearchRecommendation {
	var candidates []*entities.SearchPattern
	for _, p := range s.ctxState.Patterns {
		if p.Confidence < minRecommendConfidence {
			continue
		}
		if len(p.Data.CommonLocations) > 0 && !anyWithinKm(p.Data.CommonLocations, current, patternMatchRadiusKm) {
			continue
		}
		if len(p.Data.CommonTimes) > 0 && !containsString(p.Data.CommonTimes, string(tod)) {
			continue
		}
		if len(p.Data.CommonQueries) == 0 {
			// Nothing actionable to suggest from a query-less pattern.
			continue
		}
		candidates = append(candidates, p)
	}

	sort.Slice(candidates, func(i, j int) bool {
		ri, rj := candidates[i].Rank(), candidates[j].Rank()
		if ri != rj {
			return ri > rj
		}
		return candidates[i].Key < candidates[j].Key
	})
	if len(candidates) > 4 {
		candidates = candidates[:4]
	}

	recs := make([]*entities.SearchRecommendation, 0, len(candidates))
	for _, p := range candidates {
		q := p.Data.CommonQueries[0]
		recs = append(recs, &entities.SearchRecommendation{
			ID:             uuid.NewString(),
			Type:           entities.RecommendationRefinement,
			Title:          q,
			Description:    fmt.Sprintf("Based on your %s habits", p.Type),
			Confidence:     p.Confidence,
			RelevanceScore: p.PredictiveValue,
			BasedOn: entities.RecommendationBasis{
				Patterns:        []string{p.ID},
				LocationContext: len(p.Data.CommonLocations) > 0,
				TimeContext:     len(p.Data.CommonTimes) > 0,
			},
			Action: entities.RecommendationAction{
				Type:   entities.ActionSearch,
				Search: &entities.SearchActionPayload{Query: q},
			},
		})
	}
	return recs
}

// historyBasedLocked turns clusters of successful searches into
// navigate-back suggestions. Caller holds mu.
func (s *SearchContextService) historyBasedLocked() []*entities.SearchRecommendation {
	groups := make(map[string][]*entities.SearchEntry)
	var order []string // first-seen order, newest entry first

	for _, e := range s.history {
		if !e.Interaction.WasHelpful || e.Interaction.Rating == nil || *e.Interaction.Rating < 4 || e.Results.Count == 0 {
			continue
		}
		key := geo.QuantizeKey(e.Location.Latitude, e.Location.Longitude, historyGroupDecimals)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], e)
	}

	var recs []*entities.SearchRecommendation
	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		newest := group[0]
		region := newest.Region
		description := "An area where searches worked out for you"
		if newest.Query != "" {
			description = fmt.Sprintf("Searches like %q worked out here before", newest.Query)
		}
		recs = append(recs, &entities.SearchRecommendation{
			ID:             uuid.NewString(),
			Type:           entities.RecommendationLocation,
			Title:          "Return to a good spot",
			Description:    description,
			Confidence:     confidenceFrom(len(group), 5),
			RelevanceScore: historyBasedRelevance,
			BasedOn: entities.RecommendationBasis{
				RecentHistory:   true,
				LocationContext: true,
			},
			Action: entities.RecommendationAction{
				Type:     entities.ActionNavigate,
				Navigate: &entities.NavigateActionPayload{Location: newest.Location, Region: &region},
			},
		})
	}
	return recs
}

func anyWithinKm(locs []entities.GeoLocation, target entities.GeoLocation, radiusKm float64) bool {
	for _, l := range locs {
		if geo.DistanceKm(l.Latitude, l.Longitude, target.Latitude, target.Longitude) <= radiusKm {
			return true
		}
	}
	return false
}

func containsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
