package citation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/citation-map-backend/internal/models"
)

func TestFeatureCollection(t *testing.T) {
	fc := FeatureCollection([]models.LocationPoint{
		{Key: "35.6762,139.6503", City: "Tokyo", Country: "Japan", Latitude: 35.6762, Longitude: 139.6503, Count: 4},
	})
	require.Len(t, fc.Features, 1)

	f := fc.Features[0]
	assert.Equal(t, "35.6762,139.6503", f.ID)
	require.True(t, f.Geometry.IsPoint())
	assert.Equal(t, []float64{139.6503, 35.6762}, f.Geometry.Point)
	assert.Equal(t, 4, f.Properties["count"])
	assert.Equal(t, "Tokyo", f.Properties["city"])

	assert.Empty(t, FeatureCollection(nil).Features)
}
