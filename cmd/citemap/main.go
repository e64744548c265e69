// Command citemap aggregates a local citation CSV and writes the result as
// JSON, GeoJSON or an SVG map.
//
//	citemap -in public/citation_info.csv -format svg -out map.svg
//	citemap token -subject ops -ttl 24h
//
// The token mode signs an admin bearer token for /api/v1/admin with the
// JWT_SECRET the server reads from the environment or .env.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jengzang/citation-map-backend/internal/basemap"
	"github.com/jengzang/citation-map-backend/internal/citation"
	"github.com/jengzang/citation-map-backend/internal/config"
	"github.com/jengzang/citation-map-backend/internal/middleware"
	"github.com/jengzang/citation-map-backend/internal/models"
	"github.com/jengzang/citation-map-backend/internal/render"
	"github.com/jengzang/citation-map-backend/internal/spatial"
	citestats "github.com/jengzang/citation-map-backend/internal/stats"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := runToken(os.Args[2:], config.Load().JWTSecret, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "citemap token:", err)
			os.Exit(1)
		}
		return
	}

	input := flag.String("in", "public/citation_info.csv", "citation CSV file")
	output := flag.String("out", "", "output file (stdout when empty)")
	format := flag.String("format", "json", "output format: json, geojson or svg")
	geoFile := flag.String("geo", "", "GeoJSON boundaries file drawn under the markers (svg only)")
	hover := flag.String("hover", "", "location key to render as hovered (svg only)")
	flag.Parse()

	if err := run(*input, *output, *format, *geoFile, *hover); err != nil {
		fmt.Fprintln(os.Stderr, "citemap:", err)
		os.Exit(1)
	}
}

// runToken prints a signed admin token.
func runToken(args []string, secret string, w io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	subject := fs.String("subject", "operator", "token subject")
	role := fs.String("role", middleware.RoleAdmin, "role claim")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if secret == "" {
		return errors.New("JWT_SECRET is empty")
	}
	if *ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", *ttl)
	}

	token, err := middleware.IssueToken(secret, *subject, *role, *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

func run(input, output, format, geoFile, hover string) (err error) {
	switch format {
	case "json", "geojson", "svg":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	dir, name := filepath.Split(input)
	if dir == "" {
		dir = "."
	}

	var (
		agg       *citation.Aggregator
		countries []basemap.Country
	)
	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		var err error
		agg, err = citation.Load(ctx, citation.NewFileSource(dir, name))
		return err
	})
	if format == "svg" && geoFile != "" {
		g.Go(func() error {
			data, err := os.ReadFile(geoFile)
			if err != nil {
				return err
			}
			countries, err = basemap.Parse(data)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	points := agg.Points()
	stats := agg.Stats()
	fmt.Fprintf(os.Stderr, "Parsed %d unique locations from %d accepted rows (%d lines)\n",
		len(points), stats.RowsAccepted, stats.LinesRead)

	if output == "" {
		return write(os.Stdout, format, points, countries, hover)
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f, format, points, countries, hover)
}

// write encodes points in format and flushes the result to w.
func write(w io.Writer, format string, points []models.LocationPoint, countries []basemap.Country, hover string) error {
	bw := bufio.NewWriter(w)

	var err error
	switch format {
	case "json":
		enc := json.NewEncoder(bw)
		enc.SetIndent("", "  ")
		err = enc.Encode(models.LocationsResponse{
			State:     "ready",
			Count:     len(points),
			Locations: points,
			Bounds:    spatial.BoundsOf(points),
			Summary:   citestats.Summarize(points),
		})
	case "geojson":
		var data []byte
		if data, err = citation.FeatureCollection(points).MarshalJSON(); err == nil {
			_, err = bw.Write(data)
		}
	case "svg":
		err = render.NewRenderer().Render(bw, render.Scene{
			State:     "ready",
			Points:    points,
			HoverKey:  hover,
			Countries: countries,
			Zoom:      render.DefaultZoomGroup(),
		})
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
