package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm_ZeroForSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, DistanceKm(6.5244, 3.3792, 6.5244, 3.3792))
}

func TestDistanceKm_Symmetric(t *testing.T) {
	d1 := DistanceKm(6.5244, 3.3792, 9.0765, 7.3986)
	d2 := DistanceKm(9.0765, 7.3986, 6.5244, 3.3792)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestDistanceKm_KnownDistance(t *testing.T) {
	// Lagos to Abuja is roughly 536 km as the crow flies.
	d := DistanceKm(6.5244, 3.3792, 9.0765, 7.3986)
	assert.InDelta(t, 536, d, 10)
}

func TestDistanceMeters(t *testing.T) {
	km := DistanceKm(6.5244, 3.3792, 6.5254, 3.3792)
	assert.InDelta(t, km*1000, DistanceMeters(6.5244, 3.3792, 6.5254, 3.3792), 1e-6)
}

func TestQuantizeKey_GroupsNearbyPoints(t *testing.T) {
	// Points ~50m apart land on the same 0.001-degree cell.
	a := QuantizeKey(6.52441, 3.37921, 3)
	b := QuantizeKey(6.52439, 3.37919, 3)
	assert.Equal(t, a, b)

	// Points ~2km apart do not.
	c := QuantizeKey(6.5444, 3.3792, 3)
	assert.NotEqual(t, a, c)
}

func TestQuantizeKey_Format(t *testing.T) {
	assert.Equal(t, "6.524,3.379", QuantizeKey(6.5244, 3.3792, 3))
	assert.Equal(t, "6.52,3.38", QuantizeKey(6.5244, 3.3792, 2))
}
