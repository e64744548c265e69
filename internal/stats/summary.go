// Package stats summarises how citations are spread over locations.
package stats

import "github.com/jengzang/citation-map-backend/internal/models"

// Summarize returns the citation-count distribution of points.
// An empty slice yields nil.
func Summarize(points []models.LocationPoint) *models.CountSummary {
	if len(points) == 0 {
		return nil
	}

	counts := make([]float64, len(points))
	total := 0
	for i, p := range points {
		counts[i] = float64(p.Count)
		total += p.Count
	}

	return &models.CountSummary{
		Citations: total,
		Max:       int(Max(counts)),
		Mean:      Mean(counts),
		Median:    Quantile(counts, 0.5),
		P90:       Quantile(counts, 0.9),
	}
}
