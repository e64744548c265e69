package render

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/citation-map-backend/internal/basemap"
	"github.com/jengzang/citation-map-backend/internal/models"
)

func wellFormed(t *testing.T, doc string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return
		}
		require.NoError(t, err)
	}
}

func samplePoints() []models.LocationPoint {
	return []models.LocationPoint{
		{Key: "40.7128,-74.0060", City: "New York", Country: "United States", Latitude: 40.7128, Longitude: -74.006, Count: 3},
		{Key: "48.8566,2.3522", City: "Paris", Country: "France", Latitude: 48.8566, Longitude: 2.3522, Count: 1},
	}
}

func TestRender_Markers(t *testing.T) {
	var buf bytes.Buffer
	err := NewRenderer().Render(&buf, Scene{
		State:  "ready",
		Points: samplePoints(),
		Zoom:   DefaultZoomGroup(),
	})
	require.NoError(t, err)

	doc := buf.String()
	wellFormed(t, doc)
	assert.Equal(t, 2, strings.Count(doc, `class="marker"`))
	assert.Contains(t, doc, "Citations from 2 locations worldwide")
	assert.Contains(t, doc, `data-state="ready"`)
	assert.NotContains(t, doc, `class="tooltip"`)
	assert.NotContains(t, doc, `class="animate-pulse"`)
}

func TestRender_HoveredMarkerShowsTooltip(t *testing.T) {
	var buf bytes.Buffer
	err := NewRenderer().Render(&buf, Scene{
		State:    "ready",
		Points:   samplePoints(),
		HoverKey: "48.8566,2.3522",
		Zoom:     DefaultZoomGroup(),
	})
	require.NoError(t, err)

	doc := buf.String()
	wellFormed(t, doc)
	assert.Equal(t, 1, strings.Count(doc, `class="tooltip"`))
	assert.Equal(t, 1, strings.Count(doc, `class="animate-pulse"`))
	assert.Contains(t, doc, ">Paris, France</text>")
	assert.Contains(t, doc, `width="80"`)
}

func TestRender_EmptyMap(t *testing.T) {
	var buf bytes.Buffer
	err := NewRenderer().Render(&buf, Scene{State: "failed", Zoom: DefaultZoomGroup()})
	require.NoError(t, err)

	doc := buf.String()
	wellFormed(t, doc)
	assert.Contains(t, doc, "Citations from 0 locations worldwide")
	assert.NotContains(t, doc, `class="marker"`)
}

func TestRender_CountriesAndEscaping(t *testing.T) {
	var buf bytes.Buffer
	err := NewRenderer().Render(&buf, Scene{
		State: "ready",
		Points: []models.LocationPoint{
			{Key: "1.0000,1.0000", City: "A & B <C>", Country: "D", Latitude: 1, Longitude: 1, Count: 1},
		},
		HoverKey: "1.0000,1.0000",
		Countries: []basemap.Country{
			{Name: "Squareland", Polygons: [][][][]float64{{{{0, 0}, {10, 0}, {10, 10}, {0, 0}}}}},
		},
		Zoom: DefaultZoomGroup(),
	})
	require.NoError(t, err)

	doc := buf.String()
	wellFormed(t, doc)
	assert.Contains(t, doc, `class="country" d="M400,300L`)
	assert.Contains(t, doc, "A &amp; B &lt;C&gt;, D")
}

func TestTooltipWidth(t *testing.T) {
	assert.Equal(t, 80, TooltipWidth("Paris"))
	assert.Equal(t, 7*len("San Francisco Bay"), TooltipWidth("San Francisco Bay"))
	assert.Equal(t, 84, TooltipWidth("ÅÅÅÅÅÅÅÅÅÅÅÅ"))
}

func TestNum(t *testing.T) {
	assert.Equal(t, "400", num(400))
	assert.Equal(t, "12.5", num(12.5))
	assert.Equal(t, "-3.14", num(-3.14159))
	assert.Equal(t, "0", num(0.001))
}
