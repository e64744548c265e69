// Package mapview holds the state of one mounted citation map: the single
// asynchronous dataset load and the hover state driven by pointer events.
package mapview

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jengzang/citation-map-backend/internal/citation"
	"github.com/jengzang/citation-map-backend/internal/models"
)

// State of the view
type State string

const (
	StateIdle    State = "idle" // not mounted
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// ErrUnknownLocation is returned by Enter for a key with no marker.
var ErrUnknownLocation = errors.New("unknown location")

// LoadRecorder receives the outcome of every load that was not discarded.
type LoadRecorder interface {
	RecordLoad(ctx context.Context, event *models.LoadEvent) error
}

// Snapshot is a consistent copy of the view state.
type Snapshot struct {
	State    State
	Points   []models.LocationPoint
	HoverKey string
	Hovered  *models.LocationPoint
}

// View is one mounted instance of the citation map.
type View struct {
	source   citation.Source
	recorder LoadRecorder
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	mounted bool
	gen     uint64
	cancel  context.CancelFunc
	done    chan struct{}
	state   State
	points  []models.LocationPoint
	byKey   map[string]int
	hover   string
}

// Option configures a View
type Option func(*View)

// WithRecorder sets the diagnostics recorder.
func WithRecorder(r LoadRecorder) Option {
	return func(v *View) { v.recorder = r }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(v *View) { v.now = now }
}

// New creates an unmounted view reading from source.
func New(source citation.Source, logger *zap.Logger, opts ...Option) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	done := make(chan struct{})
	close(done)

	v := &View{
		source: source,
		logger: logger,
		now:    time.Now,
		done:   done,
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Mount activates the view. The first call starts the one dataset load;
// calls while already mounted do nothing. The load lives until ctx is
// cancelled or the view is unmounted.
func (v *View) Mount(ctx context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.mounted {
		return
	}
	v.mounted = true
	v.gen++
	v.state = StateLoading
	v.points = nil
	v.byKey = nil
	v.hover = ""
	v.done = make(chan struct{})

	loadCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	go v.load(loadCtx, v.gen, v.done)
}

// Unmount tears the view down. A load still in flight is cancelled and its
// result discarded.
func (v *View) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		return
	}
	v.mounted = false
	v.cancel()
	if v.state == StateLoading {
		close(v.done)
	}
	v.state = StateIdle
	v.points = nil
	v.byKey = nil
	v.hover = ""
}

// Done is closed once the current load resolves or the view is unmounted.
func (v *View) Done() <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.done
}

// Enter marks key as hovered, replacing any previous hover.
func (v *View) Enter(key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.byKey[key]; !ok {
		return ErrUnknownLocation
	}
	v.hover = key
	return nil
}

// Leave clears the hover state.
func (v *View) Leave() {
	v.mu.Lock()
	v.hover = ""
	v.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	snap := Snapshot{
		State:    v.state,
		Points:   append([]models.LocationPoint(nil), v.points...),
		HoverKey: v.hover,
	}
	if i, ok := v.byKey[v.hover]; ok {
		p := v.points[i]
		snap.Hovered = &p
	}
	return snap
}

func (v *View) load(ctx context.Context, gen uint64, done chan struct{}) {
	event := &models.LoadEvent{Source: v.source.Name(), StartedAt: v.now()}

	agg, err := citation.Load(ctx, v.source)
	event.FinishedAt = v.now()

	v.mu.Lock()
	if !v.mounted || v.gen != gen {
		// unmounted or superseded while fetching
		v.mu.Unlock()
		return
	}
	if ctx.Err() != nil {
		// host context ended; nothing to report
		v.state = StateFailed
		close(done)
		v.mu.Unlock()
		return
	}
	if agg != nil {
		stats := agg.Stats()
		event.LinesRead = stats.LinesRead
		event.RowsParsed = stats.RowsParsed
		event.RowsAccepted = stats.RowsAccepted
		event.MaxDriftMeters = stats.MaxDriftMeters
	}
	if err != nil {
		v.state = StateFailed
		event.Status = models.LoadStatusFailed
		event.ErrorMessage = err.Error()
	} else {
		v.points = agg.Points()
		v.byKey = make(map[string]int, len(v.points))
		for i, p := range v.points {
			v.byKey[p.Key] = i
		}
		v.state = StateReady
		event.Status = models.LoadStatusReady
		event.Locations = len(v.points)
	}
	close(done)
	v.mu.Unlock()

	v.report(ctx, event)
}

func (v *View) report(ctx context.Context, event *models.LoadEvent) {
	if event.Status == models.LoadStatusFailed {
		v.logger.Error("Error loading citation data",
			zap.String("source", event.Source),
			zap.String("error", event.ErrorMessage),
			zap.Duration("duration", event.Duration()))
	} else {
		v.logger.Info("Parsed unique locations from CSV",
			zap.String("source", event.Source),
			zap.Int("locations", event.Locations),
			zap.Int("rows_accepted", event.RowsAccepted),
			zap.Int("rows_parsed", event.RowsParsed),
			zap.Float64("max_drift_meters", event.MaxDriftMeters),
			zap.Duration("duration", event.Duration()))
	}

	if v.recorder == nil {
		return
	}
	if err := v.recorder.RecordLoad(context.WithoutCancel(ctx), event); err != nil {
		v.logger.Warn("Failed to record load event", zap.Error(err))
	}
}
