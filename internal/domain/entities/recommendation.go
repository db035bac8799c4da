package entities

// RecommendationType names what a recommendation suggests.
type RecommendationType string

const (
	RecommendationLocation   RecommendationType = "location"
	RecommendationQuery      RecommendationType = "query"
	RecommendationCategory   RecommendationType = "category"
	RecommendationRefinement RecommendationType = "refinement"
)

// ActionType names what tapping a recommendation does.
type ActionType string

const (
	ActionSearch   ActionType = "search"
	ActionNavigate ActionType = "navigate"
	ActionFilter   ActionType = "filter"
)

// SearchActionPayload runs a new search.
type SearchActionPayload struct {
	Query    string  `json:"query"`
	RadiusKm float64 `json:"radius_km,omitempty"`
}

// NavigateActionPayload moves the map to a remembered spot.
type NavigateActionPayload struct {
	Location GeoLocation `json:"location"`
	Region   *MapRegion  `json:"region,omitempty"`
}

// FilterActionPayload narrows the current result set.
type FilterActionPayload struct {
	Categories []string `json:"categories,omitempty"`
}

// RecommendationAction is a tagged union: exactly one payload field is
// non-nil, matching Type.
type RecommendationAction struct {
	Type     ActionType             `json:"type"`
	Search   *SearchActionPayload   `json:"search,omitempty"`
	Navigate *NavigateActionPayload `json:"navigate,omitempty"`
	Filter   *FilterActionPayload   `json:"filter,omitempty"`
}

// RecommendationBasis records which signals produced a recommendation.
type RecommendationBasis struct {
	Patterns        []string `json:"patterns,omitempty"` // contributing pattern ids
	RecentHistory   bool     `json:"recent_history"`
	LocationContext bool     `json:"location_context"`
	TimeContext     bool     `json:"time_context"`
}

// SearchRecommendation is an ephemeral ranked suggestion. Computed on
// every request, never persisted.
type SearchRecommendation struct {
	ID             string               `json:"id"`
	Type           RecommendationType   `json:"type"`
	Title          string               `json:"title"`
	Description    string               `json:"description,omitempty"`
	Confidence     float64              `json:"confidence"`      // [0,1]
	RelevanceScore float64              `json:"relevance_score"` // [0,1]
	BasedOn        RecommendationBasis  `json:"based_on"`
	Action         RecommendationAction `json:"action"`
}

// Score is the final ranking value: relevance weighted over confidence.
func (r *SearchRecommendation) Score() float64 {
	return r.RelevanceScore*0.6 + r.Confidence*0.4
}
