package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tobilawal/localdiscovery/internal/domain/entities"
	"github.com/tobilawal/localdiscovery/internal/domain/providers"
	"github.com/tobilawal/localdiscovery/internal/infrastructure/observability"
	"github.com/tobilawal/localdiscovery/pkg/config"
)

const (
	// MaxHistoryEntries bounds the search ledger
	MaxHistoryEntries = 500

	// RecentHistorySize is the rolling recent-history view
	RecentHistorySize = 50

	// MaxPatterns bounds the learned pattern index
	MaxPatterns = 100

	// MaxMixedPatterns caps the mixed family independently
	MaxMixedPatterns = 20

	// MaxSnapshots bounds the context snapshot list
	MaxSnapshots = 100

	// MaxRecommendations bounds one recommendation response
	MaxRecommendations = 10

	// RepeatSearchRadiusM is how close two same-query searches must be
	// to count as a repeat
	RepeatSearchRadiusM = 500.0

	millisPerDay = int64(24 * 60 * 60 * 1000)
)

// SearchContextService is the search context and recommendation engine:
// it records every completed search, learns statistical patterns from
// the history, derives ranked recommendations, and preserves interaction
// context across app backgrounding.
//
// One RWMutex guards all in-memory state. Mutations complete fully under
// the lock before any persistence I/O is issued; the durable store holds
// eventually-consistent snapshots of memory, and a failed write never
// rolls back an applied mutation.
type SearchContextService struct {
	store providers.StateStore
	bus   providers.EventBus
	geo   providers.GeolocationProvider
	cfg   config.ContextConfig

	mu           sync.RWMutex
	history      []*entities.SearchEntry // newest-first
	ctxState     *entities.SearchContext
	snapshots    []*entities.ContextSnapshot // newest-first
	lastActivity int64                       // epoch ms of last user interaction

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup

	now func() time.Time
}

// NewSearchContextService constructs the engine with a fresh session id.
// Call Initialize to restore durable state and start background tasks.
func NewSearchContextService(
	store providers.StateStore,
	bus providers.EventBus,
	geo providers.GeolocationProvider,
	cfg config.ContextConfig,
) *SearchContextService {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 90
	}
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = 30 * time.Second
	}
	if cfg.RetentionSweep <= 0 {
		cfg.RetentionSweep = 24 * time.Hour
	}
	if cfg.IdleThreshold <= 0 {
		cfg.IdleThreshold = 5 * time.Minute
	}

	now := time.Now()
	ctxState := entities.NewSearchContext(uuid.NewString(), now.UnixMilli())
	ctxState.Preferences.Privacy.RetentionPeriodDays = cfg.RetentionDays

	return &SearchContextService{
		store:    store,
		bus:      bus,
		geo:      geo,
		cfg:      cfg,
		ctxState: ctxState,
		now:      time.Now,
	}
}

// Initialize restores persisted state and starts the background snapshot
// and retention tasks. History and patterns survive restarts; the session
// boundary does not.
func (s *SearchContextService) Initialize(ctx context.Context) error {
	s.restore(ctx)
	s.startBackgroundTasks()
	return nil
}

// CurrentSessionID returns the process-wide session identity.
func (s *SearchContextService) CurrentSessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctxState.Session.SessionID
}

// UpdatePreferences replaces the user preferences and persists them.
func (s *SearchContextService) UpdatePreferences(ctx context.Context, prefs entities.UserPreferences) {
	s.mu.Lock()
	s.ctxState.Preferences = prefs
	s.mu.Unlock()

	s.persistContext(ctx)
}

// Statistics summarizes the engine state for dashboards and debugging.
type Statistics struct {
	TotalEntries  int                          `json:"total_entries"`
	PatternCounts map[entities.PatternType]int `json:"pattern_counts"`
	SnapshotCount int                          `json:"snapshot_count"`
	Session       entities.SessionState        `json:"session"`
	Metrics       entities.PerformanceMetrics  `json:"metrics"`
}

// GetStatistics reports current totals, session state and rolling metrics.
func (s *SearchContextService) GetStatistics(ctx context.Context) Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[entities.PatternType]int)
	for _, p := range s.ctxState.Patterns {
		counts[p.Type]++
	}

	return Statistics{
		TotalEntries:  len(s.history),
		PatternCounts: counts,
		SnapshotCount: len(s.snapshots),
		Session:       s.ctxState.Session,
		Metrics:       s.ctxState.Metrics,
	}
}

// restore loads the four durable keys. Any read failure is logged and the
// in-memory defaults stand; a half-restored state is still serviceable.
func (s *SearchContextService) restore(ctx context.Context) {
	logger := observability.LoggerFromContext(ctx)

	if data, ok := s.load(ctx, providers.StateKeyContext); ok {
		var persisted entities.SearchContext
		if err := json.Unmarshal(data, &persisted); err != nil {
			logger.Warn().Err(err).Msg("failed to decode persisted context")
		} else {
			s.mu.Lock()
			s.ctxState.Preferences = persisted.Preferences
			s.ctxState.Metrics = persisted.Metrics
			if persisted.FeatureUsage != nil {
				s.ctxState.FeatureUsage = persisted.FeatureUsage
			}
			s.mu.Unlock()
		}
	}

	if data, ok := s.load(ctx, providers.StateKeyHistory); ok {
		var history []*entities.SearchEntry
		if err := json.Unmarshal(data, &history); err != nil {
			logger.Warn().Err(err).Msg("failed to decode persisted history")
		} else {
			if len(history) > MaxHistoryEntries {
				history = history[:MaxHistoryEntries]
			}
			s.mu.Lock()
			s.history = history
			s.refreshRecentLocked()
			s.mu.Unlock()
		}
	}

	if data, ok := s.load(ctx, providers.StateKeyPatterns); ok {
		var patterns entities.PatternIndex
		if err := json.Unmarshal(data, &patterns); err != nil {
			logger.Warn().Err(err).Msg("failed to decode persisted patterns")
		} else if patterns != nil {
			s.mu.Lock()
			s.ctxState.Patterns = patterns
			s.mu.Unlock()
		}
	}

	if data, ok := s.load(ctx, providers.StateKeySnapshots); ok {
		var snapshots []*entities.ContextSnapshot
		if err := json.Unmarshal(data, &snapshots); err != nil {
			logger.Warn().Err(err).Msg("failed to decode persisted snapshots")
		} else {
			if len(snapshots) > MaxSnapshots {
				snapshots = snapshots[:MaxSnapshots]
			}
			s.mu.Lock()
			s.snapshots = snapshots
			s.mu.Unlock()
		}
	}

	if s.geo != nil {
		if loc, err := s.geo.CurrentLocation(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to read initial location")
		} else {
			s.mu.Lock()
			s.ctxState.Session.CurrentLocation = loc
			s.mu.Unlock()
		}
	}
}

func (s *SearchContextService) load(ctx context.Context, key string) ([]byte, bool) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, providers.ErrKeyNotFound) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).
				Msg("failed to read from state store")
		}
		return nil, false
	}
	return data, true
}

// persistHistory writes the ledger snapshot. Skipped entirely when the
// user has history saving turned off.
func (s *SearchContextService) persistHistory(ctx context.Context) {
	s.mu.RLock()
	save := s.ctxState.Preferences.Privacy.SaveHistory
	var data []byte
	var err error
	if save {
		data, err = json.Marshal(s.history)
	}
	s.mu.RUnlock()

	if !save {
		return
	}
	s.write(ctx, providers.StateKeyHistory, data, err)
}

func (s *SearchContextService) persistPatterns(ctx context.Context) {
	s.mu.RLock()
	data, err := json.Marshal(s.ctxState.Patterns)
	s.mu.RUnlock()
	s.write(ctx, providers.StateKeyPatterns, data, err)
}

func (s *SearchContextService) persistContext(ctx context.Context) {
	s.mu.RLock()
	data, err := json.Marshal(s.ctxState)
	s.mu.RUnlock()
	s.write(ctx, providers.StateKeyContext, data, err)
}

func (s *SearchContextService) persistSnapshots(ctx context.Context) {
	s.mu.RLock()
	data, err := json.Marshal(s.snapshots)
	s.mu.RUnlock()
	s.write(ctx, providers.StateKeySnapshots, data, err)
}

// write is the single persistence choke point: failures are logged and
// swallowed, in-memory state stays authoritative.
func (s *SearchContextService) write(ctx context.Context, key string, data []byte, marshalErr error) {
	logger := observability.LoggerFromContext(ctx)
	if marshalErr != nil {
		logger.Warn().Err(marshalErr).Str("key", key).Msg("failed to serialize state")
		return
	}
	if err := s.store.Set(ctx, key, data); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("failed to persist state")
	}
}

func (s *SearchContextService) publish(ctx context.Context, event *entities.ContextEvent) {
	if s.bus == nil {
		return
	}
	s.mu.RLock()
	enabled := s.ctxState.Preferences.Notifications.Enabled
	s.mu.RUnlock()
	if !enabled {
		return
	}
	s.bus.Publish(ctx, event)
}

// refreshRecentLocked rebuilds the recent-history view. Caller holds mu.
func (s *SearchContextService) refreshRecentLocked() {
	n := len(s.history)
	if n > RecentHistorySize {
		n = RecentHistorySize
	}
	recent := make([]*entities.SearchEntry, n)
	copy(recent, s.history[:n])
	s.ctxState.RecentHistory = recent
}

// topFeaturesLocked derives the most-used feature list. Caller holds mu.
func (s *SearchContextService) topFeaturesLocked() []string {
	type usage struct {
		name  string
		count int
	}
	all := make([]usage, 0, len(s.ctxState.FeatureUsage))
	for name, count := range s.ctxState.FeatureUsage {
		all = append(all, usage{name, count})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].name < all[j].name
	})
	if len(all) > 5 {
		all = all[:5]
	}
	names := make([]string, len(all))
	for i, u := range all {
		names[i] = u.name
	}
	return names
}

// timeOfDayFor buckets the local hour.
func timeOfDayFor(t time.Time) entities.TimeOfDay {
	switch hour := t.Hour(); {
	case hour >= 5 && hour < 12:
		return entities.TimeMorning
	case hour >= 12 && hour < 17:
		return entities.TimeAfternoon
	case hour >= 17 && hour < 21:
		return entities.TimeEvening
	default:
		return entities.TimeNight
	}
}
