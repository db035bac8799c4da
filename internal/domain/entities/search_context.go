package entities

// SessionState tracks the current process session. A fresh session id is
// minted at every process start; history and patterns outlive sessions.
type SessionState struct {
	SessionID       string          `json:"session_id"`
	StartTime       int64           `json:"start_time"` // epoch ms
	SearchCount     int             `json:"search_count"`
	LastSearchTime  int64           `json:"last_search_time"`
	CurrentLocation *GeoLocation    `json:"current_location,omitempty"`
	MovementPattern MovementPattern `json:"movement_pattern"`
}

// PrivacySettings controls what is persisted and for how long.
type PrivacySettings struct {
	SaveHistory         bool `json:"save_history"`
	ShareAnonymizedData bool `json:"share_anonymized_data"`
	RetentionPeriodDays int  `json:"retention_period_days"`
}

// NotificationSettings controls in-process notification fan-out.
type NotificationSettings struct {
	Enabled bool `json:"enabled"`
}

// UserPreferences survives restarts via the durable context key.
type UserPreferences struct {
	DefaultRadiusKm     float64              `json:"default_radius_km"`
	PreferredCategories []string             `json:"preferred_categories,omitempty"`
	Notifications       NotificationSettings `json:"notifications"`
	Privacy             PrivacySettings      `json:"privacy"`
}

// PerformanceMetrics are rolling aggregates over the ledger. TotalSearches
// and CachedResults are the running counters the averages derive from; they
// persist so the incremental mean survives restarts.
type PerformanceMetrics struct {
	AverageSearchTimeMs   float64  `json:"average_search_time_ms"`
	CacheHitRate          float64  `json:"cache_hit_rate"`
	UserSatisfactionScore float64  `json:"user_satisfaction_score"`
	MostUsedFeatures      []string `json:"most_used_features,omitempty"`
	TotalSearches         int      `json:"total_searches"`
	CachedResults         int      `json:"cached_results"`
}

// SearchContext is the process-wide interaction state. It is constructed
// at startup, progressively restored from durable storage, and only ever
// replaced wholesale, never deleted.
type SearchContext struct {
	Session       SessionState       `json:"session"`
	RecentHistory []*SearchEntry     `json:"-"` // derived view of the ledger
	Patterns      PatternIndex       `json:"-"` // persisted under its own key
	Preferences   UserPreferences    `json:"preferences"`
	Metrics       PerformanceMetrics `json:"metrics"`
	FeatureUsage  map[string]int     `json:"feature_usage,omitempty"`
}

// NewSearchContext builds the startup state for a fresh session.
func NewSearchContext(sessionID string, startTime int64) *SearchContext {
	return &SearchContext{
		Session: SessionState{
			SessionID:       sessionID,
			StartTime:       startTime,
			MovementPattern: MovementStationary,
		},
		Patterns: make(PatternIndex),
		Preferences: UserPreferences{
			DefaultRadiusKm: 5,
			Privacy: PrivacySettings{
				SaveHistory:         true,
				ShareAnonymizedData: false,
				RetentionPeriodDays: 90,
			},
			Notifications: NotificationSettings{Enabled: true},
		},
		FeatureUsage: make(map[string]int),
	}
}
