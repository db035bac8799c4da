package geolocation

import (
	"context"
	"sync"
	"time"

	"github.com/tobilawal/localdiscovery/internal/domain/entities"
	"github.com/tobilawal/localdiscovery/internal/domain/providers"
)

// StaticProvider serves a configured fix, timestamped at read time. It
// stands in for the platform location service when none is wired in, and
// doubles as the test provider: Update moves the fix.
type StaticProvider struct {
	mu        sync.RWMutex
	latitude  float64
	longitude float64
	accuracy  float64
}

// NewStaticProvider creates a provider pinned at the given coordinates
func NewStaticProvider(latitude, longitude, accuracyM float64) *StaticProvider {
	return &StaticProvider{
		latitude:  latitude,
		longitude: longitude,
		accuracy:  accuracyM,
	}
}

var _ providers.GeolocationProvider = (*StaticProvider)(nil)

// CurrentLocation returns the configured fix with a fresh timestamp
func (p *StaticProvider) CurrentLocation(ctx context.Context) (*entities.GeoLocation, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &entities.GeoLocation{
		Latitude:  p.latitude,
		Longitude: p.longitude,
		Accuracy:  p.accuracy,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Update moves the fix
func (p *StaticProvider) Update(latitude, longitude float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latitude = latitude
	p.longitude = longitude
}
