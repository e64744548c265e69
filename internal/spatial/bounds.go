package spatial

import (
	"math"

	"github.com/jengzang/citation-map-backend/internal/models"
)

// BoundsOf returns the lat/lng bounding box of the given points, or nil
// when there are none. Longitudes are a plain min/max, so the box never
// wraps the antimeridian and the result does not depend on input order.
func BoundsOf(points []models.LocationPoint) *models.Bounds {
	if len(points) == 0 {
		return nil
	}

	b := &models.Bounds{
		MinLat: math.Inf(1),
		MaxLat: math.Inf(-1),
		MinLon: math.Inf(1),
		MaxLon: math.Inf(-1),
	}
	for _, p := range points {
		b.MinLat = math.Min(b.MinLat, p.Latitude)
		b.MaxLat = math.Max(b.MaxLat, p.Latitude)
		b.MinLon = math.Min(b.MinLon, p.Longitude)
		b.MaxLon = math.Max(b.MaxLon, p.Longitude)
	}
	return b
}
