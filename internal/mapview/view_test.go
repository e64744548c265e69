package mapview

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jengzang/citation-map-backend/internal/models"
)

const dataset = "index,author,citing,cited,affiliation,latitude,longitude,county,city,state,country\n" +
	"1,A,P1,P2,Aff,40.71280,-74.0060,County,New York,NY,United States\n" +
	"2,B,P1,P2,Aff,40.71284,-74.0060,County,New York,NY,United States\n" +
	"3,C,P1,P2,Aff,48.8566,2.3522,County,Paris,IDF,France\n" +
	"4,D,P1,P2,Aff,0,2.3522,County,Paris,IDF,France\n"

// gatedSource blocks Open until release is closed.
type gatedSource struct {
	data    string
	err     error
	release chan struct{}

	mu    sync.Mutex
	opens int
}

func newGatedSource(data string, err error) *gatedSource {
	return &gatedSource{data: data, err: err, release: make(chan struct{})}
}

func (s *gatedSource) Name() string { return "test://citation_info.csv" }

func (s *gatedSource) Open(ctx context.Context) (io.ReadCloser, error) {
	s.mu.Lock()
	s.opens++
	s.mu.Unlock()

	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(s.data)), nil
}

func (s *gatedSource) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

type memRecorder struct {
	mu     sync.Mutex
	events []*models.LoadEvent
	err    error
}

func (r *memRecorder) RecordLoad(_ context.Context, e *models.LoadEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *memRecorder) Events() []*models.LoadEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.LoadEvent(nil), r.events...)
}

func waitDone(t *testing.T, v *View) {
	t.Helper()
	select {
	case <-v.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("load did not resolve")
	}
}

func TestView_LoadAndAggregate(t *testing.T) {
	src := newGatedSource(dataset, nil)
	rec := &memRecorder{}
	v := New(src, nil, WithRecorder(rec))

	assert.Equal(t, StateIdle, v.Snapshot().State)

	v.Mount(context.Background())
	assert.Equal(t, StateLoading, v.Snapshot().State)
	assert.Empty(t, v.Snapshot().Points)

	close(src.release)
	waitDone(t, v)

	snap := v.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	require.Len(t, snap.Points, 2)
	assert.Equal(t, 2, snap.Points[0].Count)
	assert.Equal(t, "New York", snap.Points[0].City)

	require.Eventually(t, func() bool { return len(rec.Events()) == 1 }, time.Second, 5*time.Millisecond)
	ev := rec.Events()[0]
	assert.Equal(t, models.LoadStatusReady, ev.Status)
	assert.Equal(t, 2, ev.Locations)
	assert.Equal(t, 4, ev.LinesRead)
	assert.Equal(t, 3, ev.RowsAccepted)
}

func TestView_MountIsIdempotent(t *testing.T) {
	src := newGatedSource(dataset, nil)
	v := New(src, nil)

	v.Mount(context.Background())
	v.Mount(context.Background())
	close(src.release)
	waitDone(t, v)
	v.Mount(context.Background())

	assert.Equal(t, 1, src.Opens())
}

func TestView_FetchFailureRendersEmpty(t *testing.T) {
	src := newGatedSource("", errors.New("connection refused"))
	rec := &memRecorder{}
	v := New(src, nil, WithRecorder(rec))

	v.Mount(context.Background())
	close(src.release)
	waitDone(t, v)

	snap := v.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.Empty(t, snap.Points)

	require.Eventually(t, func() bool { return len(rec.Events()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.LoadStatusFailed, rec.Events()[0].Status)
	assert.Contains(t, rec.Events()[0].ErrorMessage, "connection refused")
}

func TestView_UnmountDiscardsPendingLoad(t *testing.T) {
	src := newGatedSource(dataset, nil)
	rec := &memRecorder{}
	v := New(src, nil, WithRecorder(rec))

	v.Mount(context.Background())
	done := v.Done()
	v.Unmount()

	select {
	case <-done:
	default:
		t.Fatal("unmount should release waiters")
	}
	close(src.release)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateIdle, v.Snapshot().State)
	assert.Empty(t, rec.Events())
}

func TestView_UnmountStopsLoadGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	src := newGatedSource(dataset, nil)
	v := New(src, nil)

	v.Mount(context.Background())
	v.Unmount()
}

func TestView_RemountStartsFreshLoad(t *testing.T) {
	src := newGatedSource(dataset, nil)
	v := New(src, nil)

	v.Mount(context.Background())
	v.Unmount()
	v.Mount(context.Background())
	close(src.release)
	waitDone(t, v)

	assert.Equal(t, 2, src.Opens())
	assert.Equal(t, StateReady, v.Snapshot().State)
	assert.Len(t, v.Snapshot().Points, 2)
}

func TestView_Hover(t *testing.T) {
	src := newGatedSource(dataset, nil)
	v := New(src, nil)

	v.Mount(context.Background())
	assert.ErrorIs(t, v.Enter("48.8566,2.3522"), ErrUnknownLocation)

	close(src.release)
	waitDone(t, v)

	require.NoError(t, v.Enter("40.7128,-74.0060"))
	require.NoError(t, v.Enter("48.8566,2.3522"))

	snap := v.Snapshot()
	assert.Equal(t, "48.8566,2.3522", snap.HoverKey)
	require.NotNil(t, snap.Hovered)
	assert.Equal(t, "Paris, France", snap.Hovered.Label())

	assert.ErrorIs(t, v.Enter("1.0000,1.0000"), ErrUnknownLocation)
	assert.Equal(t, "48.8566,2.3522", v.Snapshot().HoverKey)

	v.Leave()
	snap = v.Snapshot()
	assert.Empty(t, snap.HoverKey)
	assert.Nil(t, snap.Hovered)

	require.NoError(t, v.Enter("48.8566,2.3522"))
	v.Unmount()
	assert.Empty(t, v.Snapshot().HoverKey)
}

func TestView_RecorderErrorIsNotFatal(t *testing.T) {
	src := newGatedSource(dataset, nil)
	rec := &memRecorder{err: errors.New("disk full")}
	v := New(src, nil, WithRecorder(rec))

	v.Mount(context.Background())
	close(src.release)
	waitDone(t, v)

	require.Eventually(t, func() bool { return len(rec.Events()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateReady, v.Snapshot().State)
}

func TestView_ParentContextCancelled(t *testing.T) {
	src := newGatedSource(dataset, nil)
	rec := &memRecorder{}
	v := New(src, nil, WithRecorder(rec))

	ctx, cancel := context.WithCancel(context.Background())
	v.Mount(ctx)
	cancel()
	waitDone(t, v)

	assert.Equal(t, StateFailed, v.Snapshot().State)
	assert.Empty(t, rec.Events())
}

func TestView_Clock(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		return start.Add(time.Duration(calls) * time.Second)
	}
	src := newGatedSource(dataset, nil)
	rec := &memRecorder{}
	v := New(src, nil, WithRecorder(rec), WithClock(clock))

	v.Mount(context.Background())
	close(src.release)
	waitDone(t, v)

	require.Eventually(t, func() bool { return len(rec.Events()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, time.Second, rec.Events()[0].Duration())
}
