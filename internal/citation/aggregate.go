package citation

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jengzang/citation-map-backend/internal/models"
	"github.com/jengzang/citation-map-backend/internal/spatial"
)

// keyPrecision is the number of decimals kept in a dedup key (~11 m at the equator).
const keyPrecision = 4

// Key returns the dedup key for a coordinate pair: both values rounded to
// four decimals and joined as "lat,lon".
func Key(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', keyPrecision, 64) + "," +
		strconv.FormatFloat(lon, 'f', keyPrecision, 64)
}

// Stats counts what happened to the input during one aggregation pass.
type Stats struct {
	LinesRead      int
	RowsParsed     int
	RowsAccepted   int
	MaxDriftMeters float64
}

// Aggregator groups valid records into LocationPoints keyed by rounded
// coordinates. The first record seen for a key fixes its descriptive
// fields; later records only bump the count.
type Aggregator struct {
	points map[string]*models.LocationPoint
	stats  Stats
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{points: make(map[string]*models.LocationPoint)}
}

// Add folds one record into the aggregate. Invalid records are ignored and
// Add reports whether the record was accepted.
func (a *Aggregator) Add(rec models.CitationRecord) bool {
	if !Valid(rec) {
		return false
	}
	a.stats.RowsAccepted++

	key := Key(rec.Latitude, rec.Longitude)
	if existing, ok := a.points[key]; ok {
		existing.Count++
		drift := spatial.HaversineDistance(existing.Latitude, existing.Longitude, rec.Latitude, rec.Longitude)
		if drift > a.stats.MaxDriftMeters {
			a.stats.MaxDriftMeters = drift
		}
		return true
	}

	city := rec.City
	if city == "" {
		city = rec.Country
	}
	a.points[key] = &models.LocationPoint{
		Key:       key,
		Country:   rec.Country,
		City:      city,
		Latitude:  rec.Latitude,
		Longitude: rec.Longitude,
		Count:     1,
	}
	return true
}

// AddLine splits, parses and aggregates one data line. Blank lines and rows
// with too few fields are skipped silently.
func (a *Aggregator) AddLine(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	a.stats.LinesRead++

	rec, ok := ParseRecord(SplitLine(line))
	if !ok {
		return
	}
	a.stats.RowsParsed++
	a.Add(rec)
}

// Len is the number of unique locations.
func (a *Aggregator) Len() int {
	return len(a.points)
}

// Stats returns the counters collected so far.
func (a *Aggregator) Stats() Stats {
	return a.stats
}

// Points returns a copy of the aggregate sorted by key.
func (a *Aggregator) Points() []models.LocationPoint {
	out := make([]models.LocationPoint, 0, len(a.points))
	for _, p := range a.points {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Aggregate reads a whole dataset. The first line is the header and is
// skipped; every other line is handed to AddLine.
func Aggregate(r io.Reader) (*Aggregator, error) {
	agg := NewAggregator()

	reader := bufio.NewReader(r)
	header := true
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			if header {
				header = false
			} else {
				agg.AddLine(line)
			}
		}
		if err == io.EOF {
			return agg, nil
		}
		if err != nil {
			return agg, fmt.Errorf("failed to read dataset: %w", err)
		}
	}
}
