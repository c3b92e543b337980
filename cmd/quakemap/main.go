// Command quakemap serves the interactive earthquake and tectonic plate map.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/quake-map-service/internal/adapter/feed"
	httpadapter "github.com/couchcryptid/quake-map-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/quake-map-service/internal/adapter/kafka"
	"github.com/couchcryptid/quake-map-service/internal/adapter/mapbox"
	"github.com/couchcryptid/quake-map-service/internal/adapter/valkey"
	"github.com/couchcryptid/quake-map-service/internal/composer"
	"github.com/couchcryptid/quake-map-service/internal/config"
	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if _, err := domain.LookupPreset(cfg.MapPreset); err != nil {
		logger.Error("invalid MAP_PRESET", "error", err, "presets", domain.PresetNames())
		os.Exit(1)
	}
	if cfg.MapboxToken == "" {
		logger.Warn("MAPBOX_TOKEN is not set; Dark Map and Satellite Map tiles will fail to load")
	}

	// Feed document cache: shared Valkey when configured, in-process otherwise.
	var store feed.Store = feed.NewMemoryStore(cfg.FeedCacheSize, nil)
	if cfg.ValkeyAddr != "" {
		cache, err := valkey.New(cfg.ValkeyAddr)
		if err != nil {
			logger.Warn("valkey unavailable, using in-process feed cache", "error", err)
		} else {
			defer cache.Close()
			store = cache
			logger.Info("valkey feed cache enabled", "addr", cfg.ValkeyAddr)
		}
	}
	fetcher := feed.NewCachedFetcher(feed.NewClient(cfg.FeedTimeout), store, cfg.FeedCacheTTL, metrics, logger)

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var sink composer.MarkerSink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, metrics, logger)
		sink = writer
		logger.Info("marker stream enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaMarkerTopic)
	}

	c := composer.New(composer.Settings{
		EarthquakeFeedURL: cfg.EarthquakeFeedURL,
		PlatesFeedURL:     cfg.PlatesFeedURL,
		Location:          cfg.DisplayTimezone,
		BaseLayers:        mapbox.BaseLayers(cfg.MapboxToken),
	}, fetcher, geocoder, sink, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, c, httpadapter.Options{
		DefaultPreset: cfg.MapPreset,
		LayerMaxAge:   cfg.FeedCacheTTL,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Warm the earthquake layer so /readyz flips without waiting for a visitor.
	go func() {
		if _, err := c.Earthquakes(ctx); err != nil {
			logger.Warn("initial earthquake layer failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		c.WaitPublished()
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
