package entities

// PatternType names the four independent pattern families.
type PatternType string

const (
	PatternTypeLocation PatternType = "location"
	PatternTypeQuery    PatternType = "query"
	PatternTypeTime     PatternType = "time"
	PatternTypeMixed    PatternType = "mixed"
)

// PatternData is the learned aggregate inside a pattern.
type PatternData struct {
	CommonLocations  []GeoLocation `json:"common_locations,omitempty"`
	CommonQueries    []string      `json:"common_queries,omitempty"`
	CommonCategories []string      `json:"common_categories,omitempty"`
	CommonTimes      []string      `json:"common_times,omitempty"`
	Frequency        int           `json:"frequency"`
}

// SearchPattern is a learned aggregate keyed by its family-specific key.
// Confidence is derived monotonically from Frequency with a per-family
// divisor; PredictiveValue only grows for the mixed family.
type SearchPattern struct {
	ID              string      `json:"id"`
	Type            PatternType `json:"type"`
	Key             string      `json:"key"`
	Data            PatternData `json:"data"`
	Confidence      float64     `json:"confidence"`       // [0,1]
	LastUsed        int64       `json:"last_used"`        // epoch ms
	PredictiveValue float64     `json:"predictive_value"` // [0,0.5]
}

// PatternIndex is the live index of learned patterns, keyed by
// family-prefixed pattern key.
type PatternIndex map[string]*SearchPattern

// CountByType returns how many patterns of the given family exist.
func (idx PatternIndex) CountByType(t PatternType) int {
	n := 0
	for _, p := range idx {
		if p.Type == t {
			n++
		}
	}
	return n
}

// Rank is the pruning order: better-established patterns survive first.
func (p *SearchPattern) Rank() float64 {
	return p.Confidence * p.PredictiveValue
}
