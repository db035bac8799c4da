package services

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/tobilawal/localdiscovery/internal/domain/entities"
	"github.com/tobilawal/localdiscovery/pkg/geo"
)

const (
	locationConfidenceDivisor = 10
	queryConfidenceDivisor    = 5
	timeConfidenceDivisor     = 8
	mixedConfidenceDivisor    = 3

	// Static predictive values for the families that do not learn it
	defaultPredictiveLocation = 0.3
	defaultPredictiveQuery    = 0.35
	defaultPredictiveTime     = 0.25

	// The mixed family grows predictive value per repeat
	initialPredictiveMixed = 0.1
	predictiveStep         = 0.05
	maxPredictiveValue     = 0.5

	patternMaxAgeDays    = 90
	minPatternConfidence = 0.05

	maxQueryLocations     = 5
	queryLocationMinSepKm = 2.0

	// Location grid of roughly 0.1 km; history grouping uses ~1 km
	locationKeyDecimals = 3
)

// learnFromEntryLocked runs the four independent pattern updates for a
// new ledger entry, then prunes. Caller holds mu.
func (s *SearchContextService) learnFromEntryLocked(entry *entities.SearchEntry) {
	locKey := geo.QuantizeKey(entry.Location.Latitude, entry.Location.Longitude, locationKeyDecimals)

	s.updateLocationPatternLocked(entry, locKey)
	if entry.Query != "" {
		s.updateQueryPatternLocked(entry)
	}
	s.updateTimePatternLocked(entry)
	if entry.Query != "" {
		s.updateMixedPatternLocked(entry, locKey)
	}

	s.prunePatternsLocked(entry.Timestamp)
}

func (s *SearchContextService) updateLocationPatternLocked(entry *entities.SearchEntry, locKey string) {
	key := "location:" + locKey
	idx := s.ctxState.Patterns

	p, ok := idx[key]
	if !ok {
		p = &entities.SearchPattern{
			ID:              uuid.NewString(),
			Type:            entities.PatternTypeLocation,
			Key:             key,
			PredictiveValue: defaultPredictiveLocation,
			Data: entities.PatternData{
				CommonLocations: []entities.GeoLocation{entry.Location},
			},
		}
		idx[key] = p
	}

	p.Data.Frequency++
	p.Confidence = confidenceFrom(p.Data.Frequency, locationConfidenceDivisor)
	p.LastUsed = entry.Timestamp
	if entry.Query != "" {
		p.Data.CommonQueries = appendNovel(p.Data.CommonQueries, entry.Query)
	}
	p.Data.CommonCategories = appendCategories(p.Data.CommonCategories, entry.Results.Businesses)
}

func (s *SearchContextService) updateQueryPatternLocked(entry *entities.SearchEntry) {
	key := "query:" + entry.Query
	idx := s.ctxState.Patterns

	p, ok := idx[key]
	if !ok {
		p = &entities.SearchPattern{
			ID:              uuid.NewString(),
			Type:            entities.PatternTypeQuery,
			Key:             key,
			PredictiveValue: defaultPredictiveQuery,
			Data: entities.PatternData{
				CommonQueries: []string{entry.Query},
			},
		}
		idx[key] = p
	}

	p.Data.Frequency++
	p.Confidence = confidenceFrom(p.Data.Frequency, queryConfidenceDivisor)
	p.LastUsed = entry.Timestamp
	p.Data.CommonLocations = addRepresentativeLocation(p.Data.CommonLocations, entry.Location)
	p.Data.CommonCategories = appendCategories(p.Data.CommonCategories, entry.Results.Businesses)
}

func (s *SearchContextService) updateTimePatternLocked(entry *entities.SearchEntry) {
	key := timePatternKey(entry.Environment.TimeOfDay, entry.Environment.DayOfWeek)
	idx := s.ctxState.Patterns

	p, ok := idx[key]
	if !ok {
		p = &entities.SearchPattern{
			ID:              uuid.NewString(),
			Type:            entities.PatternTypeTime,
			Key:             key,
			PredictiveValue: defaultPredictiveTime,
			Data: entities.PatternData{
				CommonTimes: []string{string(entry.Environment.TimeOfDay)},
			},
		}
		idx[key] = p
	}

	p.Data.Frequency++
	p.Confidence = confidenceFrom(p.Data.Frequency, timeConfidenceDivisor)
	p.LastUsed = entry.Timestamp
	if entry.Query != "" {
		p.Data.CommonQueries = appendNovel(p.Data.CommonQueries, entry.Query)
	}
}

func (s *SearchContextService) updateMixedPatternLocked(entry *entities.SearchEntry, locKey string) {
	key := fmt.Sprintf("mixed:%s|%s|%s", locKey, entry.Environment.TimeOfDay, entry.Query)
	idx := s.ctxState.Patterns

	p, ok := idx[key]
	if !ok {
		// New mixed keys stop being admitted at the cap while existing
		// ones keep updating. In high-diversity areas this can freeze the
		// family; if that shows up in metrics, raise the cap rather than
		// changing the gating.
		if idx.CountByType(entities.PatternTypeMixed) >= MaxMixedPatterns {
			return
		}
		p = &entities.SearchPattern{
			ID:              uuid.NewString(),
			Type:            entities.PatternTypeMixed,
			Key:             key,
			PredictiveValue: initialPredictiveMixed,
			Data: entities.PatternData{
				CommonLocations: []entities.GeoLocation{entry.Location},
				CommonQueries:   []string{entry.Query},
				CommonTimes:     []string{string(entry.Environment.TimeOfDay)},
			},
		}
		idx[key] = p
		p.Data.Frequency++
		p.Confidence = confidenceFrom(p.Data.Frequency, mixedConfidenceDivisor)
		p.LastUsed = entry.Timestamp
		return
	}

	p.Data.Frequency++
	p.Confidence = confidenceFrom(p.Data.Frequency, mixedConfidenceDivisor)
	p.PredictiveValue = p.PredictiveValue + predictiveStep
	if p.PredictiveValue > maxPredictiveValue {
		p.PredictiveValue = maxPredictiveValue
	}
	p.LastUsed = entry.Timestamp
}

// prunePatternsLocked drops stale and low-confidence patterns, then
// enforces the index cap keeping the best-ranked survivors. Caller
// holds mu.
func (s *SearchContextService) prunePatternsLocked(nowMs int64) {
	idx := s.ctxState.Patterns
	maxAge := int64(patternMaxAgeDays) * millisPerDay

	for key, p := range idx {
		if nowMs-p.LastUsed > maxAge || p.Confidence < minPatternConfidence {
			delete(idx, key)
		}
	}

	if len(idx) <= MaxPatterns {
		return
	}

	keys := make([]string, 0, len(idx))
	for key := range idx {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := idx[keys[i]].Rank(), idx[keys[j]].Rank()
		if ri != rj {
			return ri > rj
		}
		return keys[i] < keys[j]
	})
	for _, key := range keys[MaxPatterns:] {
		delete(idx, key)
	}
}

func timePatternKey(tod entities.TimeOfDay, dayOfWeek string) string {
	return fmt.Sprintf("time:%s|%s", tod, dayOfWeek)
}

func confidenceFrom(frequency, divisor int) float64 {
	c := float64(frequency) / float64(divisor)
	if c > 1 {
		c = 1
	}
	return c
}

func appendNovel(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

func appendCategories(list []string, businesses []entities.Business) []string {
	for _, b := range businesses {
		if b.Category != "" {
			list = appendNovel(list, b.Category)
		}
	}
	return list
}

// addRepresentativeLocation keeps up to maxQueryLocations spread-out
// samples: a new one is added only if it sits farther than the minimum
// separation from every existing representative.
func addRepresentativeLocation(locs []entities.GeoLocation, loc entities.GeoLocation) []entities.GeoLocation {
	if len(locs) >= maxQueryLocations {
		return locs
	}
	if len(locs) == 0 {
		return append(locs, loc)
	}
	for _, existing := range locs {
		if geo.DistanceKm(existing.Latitude, existing.Longitude, loc.Latitude, loc.Longitude) <= queryLocationMinSepKm {
			return locs
		}
	}
	return append(locs, loc)
}
