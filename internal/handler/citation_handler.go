package handler

import (
	"bytes"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/citation-map-backend/internal/mapview"
	"github.com/jengzang/citation-map-backend/internal/models"
	"github.com/jengzang/citation-map-backend/internal/render"
	"github.com/jengzang/citation-map-backend/internal/service"
	"github.com/jengzang/citation-map-backend/pkg/response"
)

// CitationHandler handles HTTP requests for the citation map
type CitationHandler struct {
	service *service.CitationService
}

// NewCitationHandler creates a new citation handler
func NewCitationHandler(service *service.CitationService) *CitationHandler {
	return &CitationHandler{service: service}
}

// GetLocations handles GET /api/v1/citations/locations
func (h *CitationHandler) GetLocations(c *gin.Context) {
	response.Success(c, h.service.Locations())
}

// GetGeoJSON handles GET /api/v1/citations/locations.geojson
func (h *CitationHandler) GetGeoJSON(c *gin.Context) {
	data, err := h.service.FeatureCollection().MarshalJSON()
	if err != nil {
		c.Error(err)
		response.InternalError(c, "Failed to encode locations")
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}

// GetMap handles GET /api/v1/citations/map.svg
func (h *CitationHandler) GetMap(c *gin.Context) {
	var filter models.MapFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	zoom := render.DefaultZoomGroup()
	if filter.Zoom != 0 {
		zoom.Zoom = filter.Zoom
	}
	if filter.Center != "" {
		center, err := parseCenter(filter.Center)
		if err != nil {
			response.BadRequest(c, "Invalid center parameter, expected lon,lat")
			return
		}
		zoom.Center = center
	}

	var buf bytes.Buffer
	if err := h.service.RenderMap(&buf, zoom.Clamp()); err != nil {
		c.Error(err)
		response.InternalError(c, "Failed to render map")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

// GetHover handles GET /api/v1/citations/hover
func (h *CitationHandler) GetHover(c *gin.Context) {
	response.Success(c, h.service.Hover())
}

// EnterHover handles PUT /api/v1/citations/hover
func (h *CitationHandler) EnterHover(c *gin.Context) {
	var req models.HoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	hover, err := h.service.Enter(req.Key)
	if errors.Is(err, mapview.ErrUnknownLocation) {
		response.NotFound(c, "Unknown location key")
		return
	}
	if err != nil {
		c.Error(err)
		response.InternalError(c, "Failed to update hover state")
		return
	}

	response.Success(c, hover)
}

// LeaveHover handles DELETE /api/v1/citations/hover
func (h *CitationHandler) LeaveHover(c *gin.Context) {
	h.service.Leave()
	response.Success(c, models.HoverResponse{})
}

func parseCenter(s string) ([2]float64, error) {
	lonStr, latStr, ok := strings.Cut(s, ",")
	if !ok {
		return [2]float64{}, errors.New("missing comma")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return [2]float64{}, err
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return [2]float64{}, err
	}
	if !finite(lon) || !finite(lat) {
		return [2]float64{}, errors.New("center must be finite")
	}
	return [2]float64{lon, lat}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
