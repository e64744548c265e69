// Package render draws the citation map as a standalone SVG document.
package render

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jengzang/citation-map-backend/internal/basemap"
	"github.com/jengzang/citation-map-backend/internal/models"
)

// Layout
const (
	headerHeight = 64.0
	footerHeight = 44.0
	markerRadius = 5.0
)

// Palette
const (
	colorBackground = "#111827"
	colorBorder     = "#1F2937"
	colorLand       = "#2D3748"
	colorLandStroke = "#1A202C"
	colorMarker     = "#3B82F6"
	colorMarkerRing = "#60A5FA"
	colorMuted      = "#9CA3AF"
	colorFaint      = "#6B7280"
)

const pulseStyle = `.animate-pulse{animation:pulse 2s cubic-bezier(.4,0,.6,1) infinite}` +
	`@keyframes pulse{50%{opacity:.5}}` +
	`.country:hover{fill:#374151}`

// Scene is everything needed to draw one frame of the map.
type Scene struct {
	State     string
	Points    []models.LocationPoint
	HoverKey  string
	Countries []basemap.Country
	Zoom      ZoomGroup
}

// Renderer writes scenes as SVG.
type Renderer struct {
	Projection Projection
}

// NewRenderer creates a renderer with the default projection.
func NewRenderer() *Renderer {
	return &Renderer{Projection: DefaultProjection()}
}

// Render writes the scene to w.
func (r *Renderer) Render(w io.Writer, scene Scene) error {
	bw := bufio.NewWriter(w)
	p := r.Projection
	width, height := p.Width, p.Height+headerHeight+footerHeight

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g" data-state="%s">`,
		width, height, width, height, escape(scene.State))
	fmt.Fprintf(bw, `<style>%s</style>`, pulseStyle)
	fmt.Fprintf(bw, `<rect width="%g" height="%g" rx="8" fill="%s" stroke="%s"/>`, width, height, colorBackground, colorBorder)

	r.writeHeader(bw, width, len(scene.Points))

	fmt.Fprintf(bw, `<svg x="0" y="%g" width="%g" height="%g" viewBox="0 0 %g %g">`,
		headerHeight, p.Width, p.Height, p.Width, p.Height)
	tx, ty, k := scene.Zoom.Clamp().Transform(p)
	fmt.Fprintf(bw, `<g class="zoomable-group" transform="translate(%s %s) scale(%s)">`, num(tx), num(ty), num(k))

	bw.WriteString(`<g class="geographies">`)
	for _, c := range scene.Countries {
		r.writeCountry(bw, c)
	}
	bw.WriteString(`</g>`)

	for _, pt := range scene.Points {
		r.writeMarker(bw, pt, pt.Key == scene.HoverKey)
	}
	bw.WriteString(`</g></svg>`)

	r.writeFooter(bw, width, height)
	bw.WriteString(`</svg>`)

	return bw.Flush()
}

func (r *Renderer) writeHeader(w *bufio.Writer, width float64, count int) {
	w.WriteString(`<g class="header"><text x="16" y="28" font-size="18" font-weight="500" fill="#FFFFFF">Global Research Impact</text>`)
	fmt.Fprintf(w, `<text x="16" y="48" font-size="14" fill="%s" class="location-count">Citations from %d locations worldwide</text>`, colorMuted, count)
	fmt.Fprintf(w, `<line x1="0" y1="%g" x2="%g" y2="%g" stroke="%s"/></g>`, headerHeight, width, headerHeight, colorBorder)
}

func (r *Renderer) writeFooter(w *bufio.Writer, width, height float64) {
	top := height - footerHeight
	fmt.Fprintf(w, `<g class="footer"><line x1="0" y1="%g" x2="%g" y2="%g" stroke="%s"/>`, top, width, top, colorBorder)
	fmt.Fprintf(w, `<circle cx="22" cy="%g" r="6" fill="%s"/>`, top+22, colorMarker)
	fmt.Fprintf(w, `<text x="36" y="%g" font-size="14" fill="%s">Citation Location</text>`, top+27, colorMuted)
	fmt.Fprintf(w, `<text x="%g" y="%g" font-size="14" text-anchor="end" fill="%s">Hover over markers for details</text></g>`,
		width-16, top+27, colorFaint)
}

func (r *Renderer) writeCountry(w *bufio.Writer, c basemap.Country) {
	var d strings.Builder
	for _, poly := range c.Polygons {
		for _, ring := range poly {
			for i, pos := range ring {
				if len(pos) < 2 {
					continue
				}
				x, y := r.Projection.Project(pos[0], pos[1])
				if i == 0 {
					d.WriteString("M")
				} else {
					d.WriteString("L")
				}
				d.WriteString(num(x))
				d.WriteByte(',')
				d.WriteString(num(y))
			}
			d.WriteString("Z")
		}
	}
	fmt.Fprintf(w, `<path class="country" d="%s" fill="%s" stroke="%s" stroke-width="0.5"><title>%s</title></path>`,
		d.String(), colorLand, colorLandStroke, escape(c.Name))
}

func (r *Renderer) writeMarker(w *bufio.Writer, pt models.LocationPoint, hovered bool) {
	x, y := r.Projection.Project(pt.Longitude, pt.Latitude)
	fmt.Fprintf(w, `<g class="marker" data-key="%s" data-count="%d" transform="translate(%s %s)">`,
		escape(pt.Key), pt.Count, num(x), num(y))

	class := ""
	if hovered {
		class = ` class="animate-pulse"`
	}
	fmt.Fprintf(w, `<circle r="%g" fill="%s" fill-opacity="0.8" stroke="%s" stroke-width="1.5" style="cursor:pointer"%s/>`,
		markerRadius, colorMarker, colorMarkerRing, class)

	if hovered {
		fmt.Fprintf(w, `<g class="tooltip"><rect x="10" y="-12" width="%d" height="20" fill="%s" stroke="%s" stroke-width="1" rx="4"/>`,
			TooltipWidth(pt.City), colorBorder, colorMarker)
		fmt.Fprintf(w, `<text x="15" y="0" font-size="11" fill="#FFFFFF" font-weight="500">%s</text></g>`, escape(pt.Label()))
	}
	w.WriteString(`</g>`)
}

// TooltipWidth sizes the tooltip box from the city name, 7px per character
// with an 80px minimum.
func TooltipWidth(city string) int {
	return max(utf8.RuneCountInString(city)*7, 80)
}

func num(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
