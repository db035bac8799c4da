package entities

// ResultSource indicates where a result set came from.
type ResultSource string

const (
	ResultSourceFresh   ResultSource = "fresh"
	ResultSourceCached  ResultSource = "cached"
	ResultSourcePartial ResultSource = "partial"
)

// AppState is the foreground/background state of the host app.
type AppState string

const (
	AppStateForeground AppState = "foreground"
	AppStateBackground AppState = "background"
)

// MovementPattern classifies how the user is moving.
type MovementPattern string

const (
	MovementStationary MovementPattern = "stationary"
	MovementWalking    MovementPattern = "walking"
	MovementDriving    MovementPattern = "driving"
	MovementTransit    MovementPattern = "transit"
)

// TimeOfDay buckets the local hour into four coarse periods.
type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "morning"
	TimeAfternoon TimeOfDay = "afternoon"
	TimeEvening   TimeOfDay = "evening"
	TimeNight     TimeOfDay = "night"
)

// GeoLocation is a device fix: coordinates plus accuracy and capture time.
type GeoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"`
}

// MapRegion describes the map viewport a search covered.
type MapRegion struct {
	CenterLatitude  float64  `json:"center_latitude"`
	CenterLongitude float64  `json:"center_longitude"`
	LatitudeSpan    float64  `json:"latitude_span"`
	LongitudeSpan   float64  `json:"longitude_span"`
	RadiusKm        *float64 `json:"radius_km,omitempty"`
}

// Business is one row of the raw result list attached to a search.
type Business struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Category string      `json:"category,omitempty"`
	Location GeoLocation `json:"location"`
}

// SearchResults summarizes the outcome of a search execution.
type SearchResults struct {
	Count          int          `json:"count"`
	Businesses     []Business   `json:"businesses,omitempty"`
	Source         ResultSource `json:"source"`
	ResponseTimeMs int64        `json:"response_time_ms"`
	Confidence     float64      `json:"confidence"` // 0-100
}

// UserInteraction is the only mutable part of a SearchEntry.
type UserInteraction struct {
	ViewDurationMs       int64    `json:"view_duration_ms"`
	BusinessesViewed     []string `json:"businesses_viewed,omitempty"`
	BusinessesInteracted []string `json:"businesses_interacted,omitempty"`
	BusinessesSaved      []string `json:"businesses_saved,omitempty"`
	WasHelpful           bool     `json:"was_helpful"`
	Rating               *int     `json:"rating,omitempty"` // 1-5
	Feedback             string   `json:"feedback,omitempty"`
}

// InteractionUpdate is a partial update merged into an entry's
// UserInteraction. Nil fields are left untouched; the slice fields are
// appended, not replaced.
type InteractionUpdate struct {
	ViewDurationMs       *int64
	BusinessesViewed     []string
	BusinessesInteracted []string
	BusinessesSaved      []string
	WasHelpful           *bool
	Rating               *int
	Feedback             *string
}

// SearchEnvironment captures device and world state at search time.
// Set once at entry creation, never mutated.
type SearchEnvironment struct {
	AppState         AppState        `json:"app_state"`
	NetworkType      string          `json:"network_type"`
	BatteryLevel     *float64        `json:"battery_level,omitempty"`
	MovementPattern  MovementPattern `json:"movement_pattern"`
	TimeOfDay        TimeOfDay       `json:"time_of_day"`
	DayOfWeek        string          `json:"day_of_week"`
	WeatherCondition string          `json:"weather_condition,omitempty"`
}

// EnvironmentOverrides lets the caller pin environment fields at entry
// creation; nil fields fall back to inferred defaults.
type EnvironmentOverrides struct {
	AppState         *AppState
	NetworkType      *string
	BatteryLevel     *float64
	MovementPattern  *MovementPattern
	WeatherCondition *string
}

// SessionInfo ties an entry to the process session that produced it.
type SessionInfo struct {
	SessionID        string `json:"session_id"`
	SearchSequence   int    `json:"search_sequence"`
	IsRepeatSearch   bool   `json:"is_repeat_search"`
	PreviousSearchID string `json:"previous_search_id,omitempty"`
}

// SearchEntry is one completed search in the history ledger.
type SearchEntry struct {
	ID          string            `json:"id"`
	Timestamp   int64             `json:"timestamp"` // epoch ms
	Query       string            `json:"query,omitempty"`
	Location    GeoLocation       `json:"location"`
	Region      MapRegion         `json:"region"`
	Results     SearchResults     `json:"results"`
	Interaction UserInteraction   `json:"user_interaction"`
	Environment SearchEnvironment `json:"environment"`
	Session     SessionInfo       `json:"session_info"`
}
