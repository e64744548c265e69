package service

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	geojson "github.com/paulmach/go.geojson"
	"go.uber.org/zap"

	"github.com/jengzang/citation-map-backend/internal/basemap"
	"github.com/jengzang/citation-map-backend/internal/citation"
	"github.com/jengzang/citation-map-backend/internal/mapview"
	"github.com/jengzang/citation-map-backend/internal/models"
	"github.com/jengzang/citation-map-backend/internal/render"
	"github.com/jengzang/citation-map-backend/internal/spatial"
	"github.com/jengzang/citation-map-backend/internal/stats"
)

// CountryLoader supplies the boundary geometry drawn under the markers.
type CountryLoader interface {
	Countries(ctx context.Context) ([]basemap.Country, error)
}

// CitationService exposes the mounted citation map to the HTTP layer
type CitationService struct {
	view         *mapview.View
	countries    CountryLoader
	renderer     *render.Renderer
	baseCtx      context.Context
	fetchTimeout time.Duration
	logger       *zap.Logger

	geoWarned atomic.Bool
}

// NewCitationService creates a service around view. baseCtx bounds the
// lifetime of the dataset load and of the geometry fetch.
func NewCitationService(baseCtx context.Context, view *mapview.View, countries CountryLoader, fetchTimeout time.Duration, logger *zap.Logger) *CitationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CitationService{
		view:         view,
		countries:    countries,
		renderer:     render.NewRenderer(),
		baseCtx:      baseCtx,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

// Activate mounts the view on first use; later calls are no-ops.
func (s *CitationService) Activate() {
	s.view.Mount(s.baseCtx)
}

// Close unmounts the view, discarding any load still in flight.
func (s *CitationService) Close() {
	s.view.Unmount()
}

// Locations returns the current aggregate.
func (s *CitationService) Locations() models.LocationsResponse {
	s.Activate()
	snap := s.view.Snapshot()

	return models.LocationsResponse{
		State:     string(snap.State),
		Count:     len(snap.Points),
		Locations: snap.Points,
		Bounds:    spatial.BoundsOf(snap.Points),
		Summary:   stats.Summarize(snap.Points),
	}
}

// FeatureCollection returns the aggregate as GeoJSON points.
func (s *CitationService) FeatureCollection() *geojson.FeatureCollection {
	s.Activate()
	snap := s.view.Snapshot()

	return citation.FeatureCollection(snap.Points)
}

// RenderMap writes the map as SVG. Missing boundary geometry leaves the
// map without countries; it is never an error.
func (s *CitationService) RenderMap(w io.Writer, zoom render.ZoomGroup) error {
	s.Activate()
	snap := s.view.Snapshot()

	return s.renderer.Render(w, render.Scene{
		State:     string(snap.State),
		Points:    snap.Points,
		HoverKey:  snap.HoverKey,
		Countries: s.loadCountries(),
		Zoom:      zoom,
	})
}

// Enter marks a marker as hovered.
func (s *CitationService) Enter(key string) (models.HoverResponse, error) {
	s.Activate()
	if err := s.view.Enter(key); err != nil {
		return models.HoverResponse{}, err
	}
	return s.Hover(), nil
}

// Leave clears the hover state.
func (s *CitationService) Leave() {
	s.view.Leave()
}

// Hover describes the hovered marker, if any.
func (s *CitationService) Hover() models.HoverResponse {
	snap := s.view.Snapshot()
	if snap.Hovered == nil {
		return models.HoverResponse{}
	}
	key := snap.Hovered.Key
	return models.HoverResponse{Key: &key, Label: snap.Hovered.Label()}
}

func (s *CitationService) loadCountries() []basemap.Country {
	if s.countries == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(s.baseCtx, s.fetchTimeout)
	defer cancel()

	countries, err := s.countries.Countries(ctx)
	if err != nil {
		if !s.geoWarned.Swap(true) {
			s.logger.Warn("Boundary geometry unavailable, rendering markers only", zap.Error(err))
		}
		return nil
	}
	return countries
}
