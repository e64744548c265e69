package models

// CitationRecord is one parsed row of the citation dataset.
// Column order: index, author, citing paper, cited paper, affiliation,
// latitude, longitude, county, city, state, country.
type CitationRecord struct {
	Index       string
	Author      string
	CitingPaper string
	CitedPaper  string
	Affiliation string
	Latitude    float64
	Longitude   float64
	County      string
	City        string
	State       string
	Country     string
}

// LocationPoint is the deduplicated, counted representation of every
// record sharing a rounded coordinate key.
type LocationPoint struct {
	Key       string  `json:"key"`
	Country   string  `json:"country"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`  // first-seen, unrounded
	Longitude float64 `json:"longitude"` // first-seen, unrounded
	Count     int     `json:"count"`
}

// Label is the tooltip text for the point.
func (p LocationPoint) Label() string {
	return p.City + ", " + p.Country
}

// Bounds is a lat/lng bounding box in degrees.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// LocationsResponse is the body of GET /api/v1/citations/locations
type LocationsResponse struct {
	State     string          `json:"state"` // "loading", "ready" or "failed"
	Count     int             `json:"count"`
	Locations []LocationPoint `json:"locations"`
	Bounds    *Bounds         `json:"bounds,omitempty"`
	Summary   *CountSummary   `json:"summary,omitempty"`
}

// CountSummary describes how citations are spread over locations.
type CountSummary struct {
	Citations int     `json:"citations"`
	Max       int     `json:"max"`
	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
	P90       float64 `json:"p90"`
}

// HoverRequest is the body of PUT /api/v1/citations/hover
type HoverRequest struct {
	Key string `json:"key" binding:"required"`
}

// HoverResponse describes the current hover state; Key is nil when idle.
type HoverResponse struct {
	Key   *string `json:"key"`
	Label string  `json:"label,omitempty"`
}

// MapFilter holds the query parameters of GET /api/v1/citations/map.svg
type MapFilter struct {
	Zoom   float64 `form:"zoom"`
	Center string  `form:"center"` // "lon,lat"
}
