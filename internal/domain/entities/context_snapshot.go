package entities

// InteractionMode classifies what the user was doing when a snapshot
// was taken.
type InteractionMode string

const (
	InteractionBrowsing  InteractionMode = "browsing"
	InteractionSearching InteractionMode = "searching"
	InteractionExploring InteractionMode = "exploring"
)

// SearchState is the active search surface at snapshot time.
type SearchState struct {
	ActiveQuery   string            `json:"active_query,omitempty"`
	ActiveFilters map[string]string `json:"active_filters,omitempty"`
	CurrentRegion *MapRegion        `json:"current_region,omitempty"`
	ResultCount   int               `json:"result_count"`
}

// UserState is the user-side half of a snapshot.
type UserState struct {
	InteractionMode   InteractionMode `json:"interaction_mode"`
	SessionDurationMs int64           `json:"session_duration_ms"`
	RecentActions     []string        `json:"recent_actions,omitempty"`
}

// EnvironmentalContext is the device-side half of a snapshot.
type EnvironmentalContext struct {
	NetworkCondition string          `json:"network_condition"`
	BatteryLevel     *float64        `json:"battery_level,omitempty"`
	TimeContext      TimeOfDay       `json:"time_context"`
	MovementPattern  MovementPattern `json:"movement_pattern"`
}

// ContextSnapshot is an immutable point-in-time capture of interaction
// state, kept so a session can resume after the app is backgrounded.
type ContextSnapshot struct {
	Timestamp   int64                `json:"timestamp"` // epoch ms
	Location    GeoLocation          `json:"location"`
	Search      SearchState          `json:"search_state"`
	User        UserState            `json:"user_state"`
	Environment EnvironmentalContext `json:"environmental_context"`
}
