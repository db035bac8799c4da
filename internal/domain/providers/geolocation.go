package providers

import (
	"context"

	"github.com/tobilawal/localdiscovery/internal/domain/entities"
)

// GeolocationProvider supplies the device's current fix on demand.
// There is no push interface; callers poll when they need a location.
type GeolocationProvider interface {
	// CurrentLocation returns the latest known device fix
	CurrentLocation(ctx context.Context) (*entities.GeoLocation, error)
}
