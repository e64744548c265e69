// Package citation turns the delimited citation dataset into counted,
// deduplicated LocationPoints.
package citation

import (
	"math"
	"strconv"
	"strings"

	"github.com/jengzang/citation-map-backend/internal/models"
)

// Column positions in a dataset row.
const (
	colIndex = iota
	colAuthor
	colCitingPaper
	colCitedPaper
	colAffiliation
	colLatitude
	colLongitude
	colCounty
	colCity
	colState
	colCountry

	// MinFields is the number of fields a row needs to be considered.
	MinFields
)

// UnknownCountry is the placeholder the dataset uses for unresolved countries.
const UnknownCountry = "Unknown"

// SplitLine splits one line into trimmed fields. A double quote toggles
// quoted mode and is dropped; commas inside quoted mode belong to the field.
func SplitLine(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(fields, strings.TrimSpace(current.String()))
}

// ParseRecord maps split fields onto a CitationRecord. It reports false when
// the row has fewer than MinFields fields. Coordinates that do not parse are
// left as NaN so Valid rejects them.
func ParseRecord(fields []string) (models.CitationRecord, bool) {
	if len(fields) < MinFields {
		return models.CitationRecord{}, false
	}

	return models.CitationRecord{
		Index:       fields[colIndex],
		Author:      fields[colAuthor],
		CitingPaper: fields[colCitingPaper],
		CitedPaper:  fields[colCitedPaper],
		Affiliation: fields[colAffiliation],
		Latitude:    parseCoordinate(fields[colLatitude]),
		Longitude:   parseCoordinate(fields[colLongitude]),
		County:      fields[colCounty],
		City:        fields[colCity],
		State:       fields[colState],
		Country:     fields[colCountry],
	}, true
}

// Valid reports whether a record may be aggregated: both coordinates finite
// and non-zero, and a country other than "" or "Unknown".
func Valid(rec models.CitationRecord) bool {
	if !finite(rec.Latitude) || !finite(rec.Longitude) {
		return false
	}
	if rec.Latitude == 0 || rec.Longitude == 0 {
		return false
	}
	return rec.Country != "" && rec.Country != UnknownCountry
}

func parseCoordinate(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
