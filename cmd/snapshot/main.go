// Command snapshot composes the map once and writes it as static files:
// index.html, map.json, earthquakes.geojson, and tectonic-plates.geojson.
// Serve the directory with any static file server.
//
// Usage:
//
//	go run ./cmd/snapshot -out dist -preset americas
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	json "github.com/goccy/go-json"

	"github.com/couchcryptid/quake-map-service/internal/adapter/feed"
	httpadapter "github.com/couchcryptid/quake-map-service/internal/adapter/http"
	"github.com/couchcryptid/quake-map-service/internal/adapter/mapbox"
	"github.com/couchcryptid/quake-map-service/internal/composer"
	"github.com/couchcryptid/quake-map-service/internal/config"
	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/observability"
)

const (
	earthquakesFile = "earthquakes.geojson"
	platesFile      = "tectonic-plates.geojson"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory")
	preset := flag.String("preset", "", "map preset (default MAP_PRESET)")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return errors.New("missing required flag: -out")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *preset == "" {
		*preset = cfg.MapPreset
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
	}

	c := composer.New(composer.Settings{
		EarthquakeFeedURL: cfg.EarthquakeFeedURL,
		PlatesFeedURL:     cfg.PlatesFeedURL,
		Location:          cfg.DisplayTimezone,
		BaseLayers:        mapbox.BaseLayers(cfg.MapboxToken),
	}, feed.NewClient(cfg.FeedTimeout), geocoder, nil, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	view, err := c.Compose(ctx, *preset)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeSnapshot(*out, view); err != nil {
		return err
	}

	if view.PlatesErr != nil {
		logger.Warn("tectonic plate layer omitted", "error", view.PlatesErr)
	}
	if view.EarthquakeErr != nil {
		return fmt.Errorf("earthquake layer: %w", view.EarthquakeErr)
	}
	logger.Info("snapshot written",
		"dir", *out,
		"preset", view.Config.Preset.Name,
		"markers", len(view.Earthquakes.Markers),
	)
	return nil
}

// writeSnapshot writes every file the view has data for. A missing layer
// leaves its file absent; the page then shows the map without that overlay.
func writeSnapshot(dir string, view composer.MapView) error {
	var page bytes.Buffer
	if err := httpadapter.RenderPage(&page, view.Config, httpadapter.NewSources(earthquakesFile, platesFile)); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "index.html"), page.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write index.html: %w", err)
	}

	cfgJSON, err := json.MarshalIndent(view.Config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal map config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "map.json"), cfgJSON, 0o644); err != nil {
		return fmt.Errorf("write map.json: %w", err)
	}

	if view.Earthquakes != nil {
		data, err := view.Earthquakes.FeatureCollection().MarshalJSON()
		if err != nil {
			return fmt.Errorf("marshal earthquakes: %w", err)
		}
		if err := os.WriteFile(filepath.Join(dir, earthquakesFile), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", earthquakesFile, err)
		}
	}
	if view.Plates != nil {
		data, err := view.Plates.Collection.MarshalJSON()
		if err != nil {
			return fmt.Errorf("marshal plates: %w", err)
		}
		if err := os.WriteFile(filepath.Join(dir, platesFile), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", platesFile, err)
		}
	}
	return nil
}
