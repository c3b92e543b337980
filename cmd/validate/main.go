// Command validate checks feed documents against what the map needs: the
// earthquake feed must decode and its features must style cleanly, and the
// plate feed must be a FeatureCollection of line or polygon geometries.
// Sources may be local files or URLs; they default to the configured feeds.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -earthquakes internal/composer/testdata/earthquakes.geojson \
//	  -plates https://raw.githubusercontent.com/fraxen/tectonicplates/master/GeoJSON/PB2002_boundaries.json \
//	  -strict
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/quake-map-service/internal/adapter/feed"
	"github.com/couchcryptid/quake-map-service/internal/composer"
	"github.com/couchcryptid/quake-map-service/internal/config"
	"github.com/couchcryptid/quake-map-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	earthquakes := flag.String("earthquakes", "", "earthquake feed file or URL (default EARTHQUAKE_FEED_URL)")
	plates := flag.String("plates", "", "plate feed file or URL (default PLATES_FEED_URL)")
	strict := flag.Bool("strict", false, "fail when any earthquake feature is skipped")
	flag.Parse()

	if *earthquakes == "" || *plates == "" {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
			os.Exit(1)
		}
		if *earthquakes == "" {
			*earthquakes = cfg.EarthquakeFeedURL
		}
		if *plates == "" {
			*plates = cfg.PlatesFeedURL
		}
	}

	if code := run(os.Stdout, *earthquakes, *plates, *strict); code != 0 {
		os.Exit(code)
	}
}

func run(out io.Writer, earthquakesSrc, platesSrc string, strict bool) int {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	client := feed.NewClient(30 * time.Second)

	fmt.Fprintln(out, "=== Feed Validation ===")
	fmt.Fprintln(out)

	quakeData, err := load(ctx, client, earthquakesSrc)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load earthquake feed: %v\n", err)
		return 1
	}
	plateData, err := load(ctx, client, platesSrc)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load plate feed: %v\n", err)
		return 1
	}

	layer, decodePhase := validateEarthquakeFeed(quakeData, strict)
	phases := []*phase{
		decodePhase,
		validateMarkers(layer),
		validatePlates(plateData),
	}

	// ── Report results ──
	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Markers: %d styled, %d skipped\n", len(layer.Markers), layer.SkippedTotal())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// load reads src from disk, or over HTTP when it looks like a URL.
func load(ctx context.Context, client *feed.Client, src string) ([]byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return client.Fetch(ctx, src)
	}
	return os.ReadFile(src)
}

func validateEarthquakeFeed(data []byte, strict bool) (composer.EarthquakeLayer, *phase) {
	p := &phase{name: "Earthquake feed"}
	doc, err := domain.DecodeEarthquakeFeed(data)
	if err != nil {
		p.errorf("%v", err)
		return composer.EarthquakeLayer{}, p
	}
	if doc.Metadata.Count != 0 && doc.Metadata.Count != len(doc.Features) {
		p.errorf("metadata.count=%d but %d features present", doc.Metadata.Count, len(doc.Features))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	layer := composer.BuildEarthquakeLayer(context.Background(), doc, domain.NewStylist(time.UTC), nil, logger)
	if strict {
		for i, raw := range doc.Features {
			if _, err := domain.ParseEarthquake(raw); err != nil {
				p.errorf("feature %d: %v", i, err)
			}
		}
	}
	return layer, p
}

func validateMarkers(layer composer.EarthquakeLayer) *phase {
	p := &phase{name: "Marker styling"}
	colors := domain.NewLegend().Colors()
	for _, m := range layer.Markers {
		f := m.Feature
		if m.Style.Radius < 0 {
			p.errorf("%s: negative radius %v", f.ID, m.Style.Radius)
		}
		if !slices.Contains(colors, m.Style.Color) {
			p.errorf("%s: color %s not in legend", f.ID, m.Style.Color)
		}
		if !strings.Contains(m.Style.PopupHTML, domain.FormatMagnitude(f.Magnitude)) {
			p.errorf("%s: popup missing magnitude", f.ID)
		}
		if f.Lat < -90 || f.Lat > 90 || f.Lon < -180 || f.Lon > 180 {
			p.errorf("%s: coordinates out of range (%v, %v)", f.ID, f.Lon, f.Lat)
		}
	}
	return p
}

func validatePlates(data []byte) *phase {
	p := &phase{name: "Tectonic plate feed"}
	layer, err := composer.BuildPlateLayer(data)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	if len(layer.Collection.Features) == 0 {
		p.errorf("feature collection is empty")
	}
	for i, f := range layer.Collection.Features {
		switch f.Geometry.(type) {
		case orb.LineString, orb.MultiLineString, orb.Polygon, orb.MultiPolygon:
		case nil:
			p.errorf("feature %d: no geometry", i)
		default:
			p.errorf("feature %d: unexpected geometry %s", i, f.Geometry.GeoJSONType())
		}
	}
	return p
}
