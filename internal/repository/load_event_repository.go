package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jengzang/citation-map-backend/internal/models"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// LoadEventRepository handles database operations for dataset load events
type LoadEventRepository struct {
	db *sql.DB
}

// NewLoadEventRepository creates a new load event repository
func NewLoadEventRepository(db *sql.DB) *LoadEventRepository {
	return &LoadEventRepository{db: db}
}

// RecordLoad inserts a load event and sets its ID
func (r *LoadEventRepository) RecordLoad(ctx context.Context, event *models.LoadEvent) error {
	query := `
		INSERT INTO load_events (
			source, status, started_at, finished_at, lines_read, rows_parsed,
			rows_accepted, locations, max_drift_meters, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		event.Source,
		event.Status,
		event.StartedAt.UTC().Format(timeLayout),
		event.FinishedAt.UTC().Format(timeLayout),
		event.LinesRead,
		event.RowsParsed,
		event.RowsAccepted,
		event.Locations,
		event.MaxDriftMeters,
		nullString(event.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("failed to create load event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	event.ID = id
	return nil
}

// List returns the most recent load events, newest first
func (r *LoadEventRepository) List(ctx context.Context, limit, offset int) ([]models.LoadEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, source, status, started_at, finished_at, lines_read, rows_parsed,
		       rows_accepted, locations, max_drift_meters, error_message
		FROM load_events
		ORDER BY started_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query load events: %w", err)
	}
	defer rows.Close()

	events := []models.LoadEvent{}
	for rows.Next() {
		event, err := scanLoadEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

// GetByID retrieves a load event by ID
func (r *LoadEventRepository) GetByID(ctx context.Context, id int64) (*models.LoadEvent, error) {
	query := `
		SELECT id, source, status, started_at, finished_at, lines_read, rows_parsed,
		       rows_accepted, locations, max_drift_meters, error_message
		FROM load_events
		WHERE id = ?
	`

	event, err := scanLoadEvent(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("load event not found: %d", id)
	}
	return event, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLoadEvent(s scanner) (*models.LoadEvent, error) {
	var (
		event              models.LoadEvent
		startedAt, endedAt string
		errorMessage       sql.NullString
	)

	err := s.Scan(
		&event.ID, &event.Source, &event.Status, &startedAt, &endedAt,
		&event.LinesRead, &event.RowsParsed, &event.RowsAccepted, &event.Locations,
		&event.MaxDriftMeters, &errorMessage,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan load event: %w", err)
	}

	if event.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if event.FinishedAt, err = time.Parse(timeLayout, endedAt); err != nil {
		return nil, fmt.Errorf("failed to parse finished_at: %w", err)
	}
	if errorMessage.Valid {
		event.ErrorMessage = errorMessage.String
	}
	return &event, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
