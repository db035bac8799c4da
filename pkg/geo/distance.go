package geo

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// DistanceKm calculates the great-circle distance between two points
// using the Haversine formula.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(lat1))*math.Cos(degreesToRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// DistanceMeters is DistanceKm in meters.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	return DistanceKm(lat1, lon1, lat2, lon2) * 1000
}

// QuantizeKey rounds a coordinate to a fixed grid and formats it as a
// stable string key, so nearby searches group without relying on
// floating-point equality. decimals=3 gives a grid of roughly 0.1 km,
// decimals=2 roughly 1 km.
func QuantizeKey(lat, lon float64, decimals int) string {
	return fmt.Sprintf("%.*f,%.*f", decimals, roundTo(lat, decimals), decimals, roundTo(lon, decimals))
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
