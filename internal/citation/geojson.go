package citation

import (
	geojson "github.com/paulmach/go.geojson"

	"github.com/jengzang/citation-map-backend/internal/models"
)

// FeatureCollection converts points to GeoJSON Point features keyed by
// their dedup key.
func FeatureCollection(points []models.LocationPoint) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range points {
		f := geojson.NewPointFeature([]float64{p.Longitude, p.Latitude})
		f.ID = p.Key
		f.SetProperty("city", p.City)
		f.SetProperty("country", p.Country)
		f.SetProperty("count", p.Count)
		fc.AddFeature(f)
	}
	return fc
}
