package service

import (
	"context"

	"github.com/jengzang/citation-map-backend/internal/models"
)

// LoadEventStore lists recorded load events
type LoadEventStore interface {
	List(ctx context.Context, limit, offset int) ([]models.LoadEvent, error)
	GetByID(ctx context.Context, id int64) (*models.LoadEvent, error)
}

// LoadEventService handles load diagnostics for operators
type LoadEventService struct {
	repo LoadEventStore
}

// NewLoadEventService creates a new load event service
func NewLoadEventService(repo LoadEventStore) *LoadEventService {
	return &LoadEventService{repo: repo}
}

// List returns recent load events
func (s *LoadEventService) List(ctx context.Context, limit, offset int) ([]models.LoadEvent, error) {
	return s.repo.List(ctx, limit, offset)
}

// Get returns a single load event
func (s *LoadEventService) Get(ctx context.Context, id int64) (*models.LoadEvent, error) {
	return s.repo.GetByID(ctx, id)
}
