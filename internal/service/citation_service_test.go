package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jengzang/citation-map-backend/internal/basemap"
	"github.com/jengzang/citation-map-backend/internal/mapview"
	"github.com/jengzang/citation-map-backend/internal/models"
	"github.com/jengzang/citation-map-backend/internal/render"
)

const dataset = "index,author,citing,cited,affiliation,latitude,longitude,county,city,state,country\n" +
	"1,A,P1,P2,Aff,51.5074,-0.1278,County,London,ENG,United Kingdom\n" +
	"2,B,P1,P2,Aff,51.5074,-0.1278,County,London,ENG,United Kingdom\n" +
	"3,C,P1,P2,Aff,35.6762,139.6503,County,,Tokyo,Japan\n"

type stringSource string

func (s stringSource) Name() string { return "mem://citation_info.csv" }

func (s stringSource) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(s))), nil
}

type fakeCountries struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeCountries) Countries(context.Context) ([]basemap.Country, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []basemap.Country{{
		Name:     "Square",
		Polygons: [][][][]float64{{{{0, 0}, {10, 0}, {10, 10}, {0, 0}}}},
	}}, nil
}

func newService(t *testing.T, countries CountryLoader, logger *zap.Logger) *CitationService {
	t.Helper()
	view := mapview.New(stringSource(dataset), logger)
	svc := NewCitationService(context.Background(), view, countries, time.Second, logger)
	t.Cleanup(svc.Close)

	svc.Activate()
	select {
	case <-view.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("load did not finish")
	}
	return svc
}

func TestCitationService_Locations(t *testing.T) {
	svc := newService(t, nil, zap.NewNop())

	res := svc.Locations()
	assert.Equal(t, "ready", res.State)
	assert.Equal(t, 2, res.Count)
	require.Len(t, res.Locations, 2)

	tokyo := res.Locations[0]
	assert.Equal(t, "35.6762,139.6503", tokyo.Key)
	assert.Equal(t, "Japan", tokyo.City, "empty city falls back to the country")

	require.NotNil(t, res.Summary)
	assert.Equal(t, 3, res.Summary.Citations)
	assert.Equal(t, 2, res.Summary.Max)
	require.NotNil(t, res.Bounds)
	assert.InDelta(t, 35.6762, res.Bounds.MinLat, 1e-6)
}

func TestCitationService_Hover(t *testing.T) {
	svc := newService(t, nil, zap.NewNop())

	assert.Nil(t, svc.Hover().Key)

	hover, err := svc.Enter("51.5074,-0.1278")
	require.NoError(t, err)
	require.NotNil(t, hover.Key)
	assert.Equal(t, "London, United Kingdom", hover.Label)

	_, err = svc.Enter("0.0000,0.0000")
	assert.True(t, errors.Is(err, mapview.ErrUnknownLocation))
	assert.Equal(t, "London, United Kingdom", svc.Hover().Label, "failed enter keeps the previous hover")

	svc.Leave()
	assert.Nil(t, svc.Hover().Key)
}

func TestCitationService_RenderMap(t *testing.T) {
	countries := &fakeCountries{}
	svc := newService(t, countries, zap.NewNop())

	var buf bytes.Buffer
	require.NoError(t, svc.RenderMap(&buf, render.DefaultZoomGroup()))

	out := buf.String()
	assert.Contains(t, out, "Citations from 2 locations worldwide")
	assert.Contains(t, out, `class="country"`)
}

func TestCitationService_RenderMapWithoutGeometryWarnsOnce(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	countries := &fakeCountries{err: errors.New("offline")}
	svc := newService(t, countries, zap.New(core))

	for i := 0; i < 3; i++ {
		var buf bytes.Buffer
		require.NoError(t, svc.RenderMap(&buf, render.DefaultZoomGroup()))
		assert.NotContains(t, buf.String(), `class="country"`)
		assert.Contains(t, buf.String(), "Citations from 2 locations worldwide")
	}

	assert.Equal(t, 1, logs.FilterMessage("Boundary geometry unavailable, rendering markers only").Len())
}

func TestLoadEventService(t *testing.T) {
	store := &memStore{events: []models.LoadEvent{{ID: 1, Status: models.LoadStatusReady}}}
	svc := NewLoadEventService(store)

	events, err := svc.List(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	event, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.LoadStatusReady, event.Status)

	_, err = svc.Get(context.Background(), 2)
	assert.Error(t, err)
}

type memStore struct {
	events []models.LoadEvent
}

func (s *memStore) List(_ context.Context, limit, offset int) ([]models.LoadEvent, error) {
	if offset >= len(s.events) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.events) {
		end = len(s.events)
	}
	return s.events[offset:end], nil
}

func (s *memStore) GetByID(_ context.Context, id int64) (*models.LoadEvent, error) {
	for i := range s.events {
		if s.events[i].ID == id {
			return &s.events[i], nil
		}
	}
	return nil, errors.New("load event not found")
}
