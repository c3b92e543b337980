package composer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/quake-map-service/internal/domain"
)

// EarthquakeLayer is the styled point layer built from one feed document.
type EarthquakeLayer struct {
	Title       string
	Markers     []domain.Marker
	Skipped     map[string]int // malformed features by reason
	GeneratedAt time.Time
}

// SkippedTotal returns the number of features left out of the layer.
func (l EarthquakeLayer) SkippedTotal() int {
	n := 0
	for _, c := range l.Skipped {
		n += c
	}
	return n
}

// enrichWorkers bounds concurrent reverse-geocode lookups per layer build.
const enrichWorkers = 8

// BuildEarthquakeLayer styles every well-formed feature of feed, in source
// order. Malformed features are logged and counted, never fatal. Features
// without a place are enriched through geocoder, which may be nil, with at
// most enrichWorkers lookups in flight.
func BuildEarthquakeLayer(ctx context.Context, feed domain.EarthquakeFeed, stylist domain.Stylist, geocoder domain.Geocoder, logger *slog.Logger) EarthquakeLayer {
	layer := EarthquakeLayer{
		Title:       feed.Metadata.Title,
		Skipped:     map[string]int{},
		GeneratedAt: domain.Now(),
	}

	features := make([]domain.EarthquakeFeature, 0, len(feed.Features))
	for i, raw := range feed.Features {
		f, err := domain.ParseEarthquake(raw)
		if err != nil {
			logger.Warn("skipping malformed earthquake feature",
				"index", i,
				"feature_id", raw.ID,
				"error", err,
			)
			layer.Skipped[domain.SkipReason(err)]++
			continue
		}
		features = append(features, f)
	}

	var g errgroup.Group
	g.SetLimit(enrichWorkers)
	for i := range features {
		if features[i].Place != "" || geocoder == nil {
			features[i] = domain.EnrichPlace(ctx, features[i], geocoder, logger)
			continue
		}
		i := i
		g.Go(func() error {
			features[i] = domain.EnrichPlace(ctx, features[i], geocoder, logger)
			return nil
		})
	}
	_ = g.Wait() // EnrichPlace degrades instead of failing

	layer.Markers = make([]domain.Marker, len(features))
	for i, f := range features {
		layer.Markers[i] = domain.Marker{Feature: f, Style: stylist.Style(f)}
	}
	return layer
}

// FeatureCollection renders the layer as GeoJSON points carrying the computed
// style, ready for a circle-marker renderer.
func (l EarthquakeLayer) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range l.Markers {
		f := geojson.NewFeature(orb.Point{m.Feature.Lon, m.Feature.Lat})
		f.ID = m.Feature.ID
		f.Properties["place"] = m.Feature.Place
		f.Properties["mag"] = m.Feature.Magnitude
		if m.Feature.Time.IsZero() {
			f.Properties["time"] = nil
		} else {
			f.Properties["time"] = m.Feature.Time.UnixMilli()
		}
		f.Properties["depth"] = m.Feature.Depth
		f.Properties["radius"] = m.Style.Radius
		f.Properties["color"] = m.Style.Color
		f.Properties["popup"] = m.Style.PopupHTML
		fc.Append(f)
	}
	fc.ExtraMembers = geojson.Properties{
		"metadata": map[string]any{
			"title":     l.Title,
			"generated": l.GeneratedAt.UnixMilli(),
			"count":     len(l.Markers),
			"skipped":   l.SkippedTotal(),
		},
	}
	return fc
}

// PlateLayer holds plate-boundary geometries exactly as published.
type PlateLayer struct {
	Collection *geojson.FeatureCollection
}

// BuildPlateLayer decodes a plate-boundary document. Geometries are passed
// through without styling.
func BuildPlateLayer(data []byte) (PlateLayer, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return PlateLayer{}, fmt.Errorf("decode plate feed: %w", err)
	}
	return PlateLayer{Collection: fc}, nil
}

// Bound returns the extent of all plate geometries.
func (l PlateLayer) Bound() orb.Bound {
	var b orb.Bound
	found := false
	for _, f := range l.Collection.Features {
		if f.Geometry == nil {
			continue
		}
		if !found {
			b, found = f.Geometry.Bound(), true
			continue
		}
		b = b.Union(f.Geometry.Bound())
	}
	return b
}
