// Package basemap loads the world-boundaries geometry drawn under the
// citation markers.
package basemap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	geojson "github.com/paulmach/go.geojson"
)

// maxDocumentBytes caps the geometry document size.
const maxDocumentBytes = 32 << 20

// Country is one boundary feature. Polygons are lists of rings of
// [lon, lat] positions.
type Country struct {
	Name     string
	Polygons [][][][]float64
}

// Parse reads a GeoJSON FeatureCollection and keeps its Polygon and
// MultiPolygon features.
func Parse(data []byte) ([]Country, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse boundary geometry: %w", err)
	}

	countries := make([]Country, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		c := Country{Name: featureName(f)}
		switch {
		case f.Geometry.IsPolygon():
			c.Polygons = [][][][]float64{f.Geometry.Polygon}
		case f.Geometry.IsMultiPolygon():
			c.Polygons = f.Geometry.MultiPolygon
		default:
			continue
		}
		countries = append(countries, c)
	}
	return countries, nil
}

func featureName(f *geojson.Feature) string {
	for _, key := range []string{"NAME", "ADMIN", "name"} {
		if v, ok := f.Properties[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Loader fetches the geometry document once and caches the result,
// including a failure, for the life of the process.
type Loader struct {
	URL    string
	Client *http.Client

	once      sync.Once
	countries []Country
	err       error
}

// NewLoader creates a loader for url.
func NewLoader(url string, client *http.Client) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{URL: url, Client: client}
}

// Countries returns the boundary features, fetching them on first use.
func (l *Loader) Countries(ctx context.Context) ([]Country, error) {
	l.once.Do(func() {
		l.countries, l.err = l.fetch(ctx)
	})
	return l.countries, l.err
}

func (l *Loader) fetch(ctx context.Context) ([]Country, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch boundary geometry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("failed to fetch boundary geometry: %s returned %d", l.URL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read boundary geometry: %w", err)
	}
	return Parse(data)
}
