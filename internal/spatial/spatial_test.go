package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/citation-map-backend/internal/models"
)

func TestHaversineDistance(t *testing.T) {
	assert.InDelta(t, 0, HaversineDistance(40.7128, -74.0060, 40.7128, -74.0060), 1e-9)

	// One degree of latitude is roughly 111 km.
	assert.InDelta(t, 111195, HaversineDistance(0, 10, 1, 10), 50)

	// 4th-decimal rounding merges points a few meters apart.
	assert.Less(t, HaversineDistance(40.71280, -74.0060, 40.71284, -74.0060), 11.0)
}

func TestBoundsOf(t *testing.T) {
	assert.Nil(t, BoundsOf(nil))

	b := BoundsOf([]models.LocationPoint{
		{Latitude: 51.5074, Longitude: -0.1278},
		{Latitude: -33.8688, Longitude: 151.2093},
		{Latitude: 40.7128, Longitude: -74.0060},
	})
	require.NotNil(t, b)
	assert.InDelta(t, -33.8688, b.MinLat, 1e-9)
	assert.InDelta(t, 51.5074, b.MaxLat, 1e-9)
	assert.InDelta(t, -74.0060, b.MinLon, 1e-9)
	assert.InDelta(t, 151.2093, b.MaxLon, 1e-9)
}

func TestBoundsOf_OrderIndependent(t *testing.T) {
	london := models.LocationPoint{Latitude: 51.5074, Longitude: -0.1278}
	sydney := models.LocationPoint{Latitude: -33.8688, Longitude: 151.2093}
	newYork := models.LocationPoint{Latitude: 40.7128, Longitude: -74.0060}

	orders := [][]models.LocationPoint{
		{sydney, newYork, london},
		{london, sydney, newYork},
		{newYork, london, sydney},
		{sydney, london, newYork},
	}
	want := BoundsOf(orders[0])
	require.NotNil(t, want)
	assert.LessOrEqual(t, want.MinLon, want.MaxLon)

	for _, pts := range orders[1:] {
		assert.Equal(t, want, BoundsOf(pts))
	}
}
