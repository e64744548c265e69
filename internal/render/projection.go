package render

import (
	"math"
)

// maxMercatorLat keeps the projection finite near the poles.
const maxMercatorLat = 85.05112878

// Projection is a Mercator projection centred on (0,0) and translated to
// the middle of a Width x Height viewport.
type Projection struct {
	Width  float64
	Height float64
	Scale  float64
}

// DefaultProjection matches the 800x600 viewport at scale 140.
func DefaultProjection() Projection {
	return Projection{Width: 800, Height: 600, Scale: 140}
}

// Project maps lon/lat degrees to viewport pixels.
func (p Projection) Project(lon, lat float64) (x, y float64) {
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	lambda := lon * math.Pi / 180
	phi := lat * math.Pi / 180

	x = p.Width/2 + p.Scale*lambda
	y = p.Height/2 - p.Scale*math.Log(math.Tan(math.Pi/4+phi/2))
	return x, y
}

// Zoom limits
const (
	MinZoom = 1.0
	MaxZoom = 8.0
)

// ZoomGroup pans and zooms the map so Center sits in the middle of the
// viewport, scaled by Zoom.
type ZoomGroup struct {
	Center [2]float64 // lon, lat
	Zoom   float64
}

// DefaultZoomGroup is centred on [0, 20] at zoom 1.
func DefaultZoomGroup() ZoomGroup {
	return ZoomGroup{Center: [2]float64{0, 20}, Zoom: 1}
}

// Clamp bounds the zoom and the centre to valid ranges. A non-finite
// centre coordinate falls back to the default centre.
func (z ZoomGroup) Clamp() ZoomGroup {
	if math.IsNaN(z.Zoom) || z.Zoom < MinZoom {
		z.Zoom = MinZoom
	}
	if z.Zoom > MaxZoom {
		z.Zoom = MaxZoom
	}
	def := DefaultZoomGroup().Center
	for i := range z.Center {
		if math.IsNaN(z.Center[i]) || math.IsInf(z.Center[i], 0) {
			z.Center[i] = def[i]
		}
	}
	z.Center[0] = math.Max(-180, math.Min(180, z.Center[0]))
	z.Center[1] = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, z.Center[1]))
	return z
}

// Transform returns the translate and scale applied to the group.
func (z ZoomGroup) Transform(p Projection) (tx, ty, k float64) {
	cx, cy := p.Project(z.Center[0], z.Center[1])
	k = z.Zoom
	return p.Width/2 - cx*k, p.Height/2 - cy*k, k
}
