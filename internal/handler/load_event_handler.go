package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/citation-map-backend/internal/service"
	"github.com/jengzang/citation-map-backend/pkg/response"
)

// LoadEventHandler handles HTTP requests for load diagnostics
type LoadEventHandler struct {
	service *service.LoadEventService
}

// NewLoadEventHandler creates a new load event handler
func NewLoadEventHandler(service *service.LoadEventService) *LoadEventHandler {
	return &LoadEventHandler{service: service}
}

// ListLoads retrieves recent load events
// GET /api/v1/admin/loads
func (h *LoadEventHandler) ListLoads(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		limit = 20
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		offset = 0
	}

	events, err := h.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.Error(err)
		response.Error(c, http.StatusInternalServerError, "Failed to list load events")
		return
	}

	response.Success(c, gin.H{
		"loads":  events,
		"limit":  limit,
		"offset": offset,
	})
}

// GetLoad retrieves a load event by ID
// GET /api/v1/admin/loads/:id
func (h *LoadEventHandler) GetLoad(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid load ID")
		return
	}

	event, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, http.StatusNotFound, err.Error())
		return
	}

	response.Success(c, event)
}
