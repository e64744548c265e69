package models

import "time"

// LoadEvent status values
const (
	LoadStatusReady  = "ready"
	LoadStatusFailed = "failed"
)

// LoadEvent records the outcome of one dataset load for operators.
type LoadEvent struct {
	ID         int64     `json:"id" db:"id"`
	Source     string    `json:"source" db:"source"`
	Status     string    `json:"status" db:"status"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`

	// Counters
	LinesRead    int `json:"lines_read" db:"lines_read"`       // non-blank data lines
	RowsParsed   int `json:"rows_parsed" db:"rows_parsed"`     // lines with at least 11 fields
	RowsAccepted int `json:"rows_accepted" db:"rows_accepted"` // rows passing the validity filter
	Locations    int `json:"locations" db:"locations"`

	MaxDriftMeters float64 `json:"max_drift_meters" db:"max_drift_meters"`
	ErrorMessage   string  `json:"error_message,omitempty" db:"error_message"`
}

// Duration of the load.
func (e LoadEvent) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}
