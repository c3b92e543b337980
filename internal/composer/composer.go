// Package composer fetches the two map feeds, builds their layers, and
// assembles the map configuration around them.
package composer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/observability"
)

const (
	feedEarthquakes = "earthquakes"
	feedPlates      = "tectonic_plates"
)

const defaultPublishTimeout = 15 * time.Second

// Fetcher retrieves the raw body of a feed document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// MarkerSink receives every freshly built earthquake layer.
type MarkerSink interface {
	LoadBatch(ctx context.Context, markers []domain.Marker, generatedAt time.Time) error
}

// Settings are the static inputs of a Composer.
type Settings struct {
	EarthquakeFeedURL string
	PlatesFeedURL     string
	Location          *time.Location
	BaseLayers        []domain.BaseLayer
	// PublishTimeout bounds one marker batch sent to the sink. Zero means
	// the default.
	PublishTimeout time.Duration
}

// Composer builds map layers and configuration. It is safe for concurrent use.
type Composer struct {
	settings Settings
	fetcher  Fetcher
	stylist  domain.Stylist
	geocoder domain.Geocoder
	sink     MarkerSink
	legend   domain.Legend
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool

	publishMu  sync.Mutex
	published  [sha256.Size]byte // digest of the last feed document handed to the sink
	publishing sync.WaitGroup
}

// New creates a Composer. geocoder and sink may be nil.
func New(settings Settings, fetcher Fetcher, geocoder domain.Geocoder, sink MarkerSink, logger *slog.Logger, metrics *observability.Metrics) *Composer {
	if settings.PublishTimeout <= 0 {
		settings.PublishTimeout = defaultPublishTimeout
	}
	return &Composer{
		settings: settings,
		fetcher:  fetcher,
		stylist:  domain.NewStylist(settings.Location),
		geocoder: geocoder,
		sink:     sink,
		legend:   domain.NewLegend(),
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once an earthquake layer has been built,
// or an error describing why the service is not yet ready.
func (c *Composer) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("no earthquake layer has been built yet")
	}
	return nil
}

// MapConfig is everything the map shell needs before any layer data arrives.
type MapConfig struct {
	Preset     domain.Preset      `json:"preset"`
	BaseLayers []domain.BaseLayer `json:"baseLayers"`
	Overlays   []string           `json:"overlays"`
	Layers     domain.LayerState  `json:"layers"`
	Legend     domain.Legend      `json:"legend"`
	LegendHTML string             `json:"legendHtml"`
}

// Map resolves the named preset into a MapConfig. It never touches the network.
func (c *Composer) Map(preset string) (MapConfig, error) {
	p, err := domain.LookupPreset(preset)
	if err != nil {
		return MapConfig{}, err
	}
	layers, err := p.LayerSet(c.settings.BaseLayers)
	if err != nil {
		return MapConfig{}, fmt.Errorf("preset %s: %w", p.Name, err)
	}
	return MapConfig{
		Preset:     p,
		BaseLayers: c.settings.BaseLayers,
		Overlays:   layers.Overlays(),
		Layers:     layers.State(),
		Legend:     c.legend,
		LegendHTML: c.legend.HTML(),
	}, nil
}

// Earthquakes fetches the earthquake feed and builds its styled layer. When
// the feed document differs from the last one published, the markers are
// handed to the marker sink in the background; the layer never waits on the
// sink and sink errors are only logged.
func (c *Composer) Earthquakes(ctx context.Context) (EarthquakeLayer, error) {
	start := time.Now()
	layer, digest, err := c.buildEarthquakes(ctx)
	c.metrics.FeedFetchDuration.WithLabelValues(feedEarthquakes).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues(feedEarthquakes, "error").Inc()
		c.logger.Error("earthquake layer failed", "feed", feedEarthquakes, "url", c.settings.EarthquakeFeedURL, "error", err)
		return EarthquakeLayer{}, err
	}
	c.metrics.FeedRequests.WithLabelValues(feedEarthquakes, "success").Inc()

	for reason, n := range layer.Skipped {
		c.metrics.FeaturesSkipped.WithLabelValues(reason).Add(float64(n))
	}
	c.metrics.MarkersRendered.Add(float64(len(layer.Markers)))
	c.metrics.EarthquakeMarker.Set(float64(len(layer.Markers)))
	c.ready.Store(true)

	c.logger.Info("earthquake layer built",
		"markers", len(layer.Markers),
		"skipped", layer.SkippedTotal(),
		"duration", time.Since(start),
	)

	c.publish(ctx, layer, digest)
	return layer, nil
}

func (c *Composer) buildEarthquakes(ctx context.Context) (EarthquakeLayer, [sha256.Size]byte, error) {
	data, err := c.fetcher.Fetch(ctx, c.settings.EarthquakeFeedURL)
	if err != nil {
		return EarthquakeLayer{}, [sha256.Size]byte{}, fmt.Errorf("fetch earthquake feed: %w", err)
	}
	feed, err := domain.DecodeEarthquakeFeed(data)
	if err != nil {
		return EarthquakeLayer{}, [sha256.Size]byte{}, err
	}
	return BuildEarthquakeLayer(ctx, feed, c.stylist, c.geocoder, c.logger), sha256.Sum256(data), nil
}

// publish sends layer to the sink on its own goroutine, once per distinct
// feed document. A failed publish is retried on the next build.
func (c *Composer) publish(ctx context.Context, layer EarthquakeLayer, digest [sha256.Size]byte) {
	if c.sink == nil {
		return
	}
	c.publishMu.Lock()
	if c.published == digest {
		c.publishMu.Unlock()
		return
	}
	c.published = digest
	c.publishMu.Unlock()

	c.publishing.Add(1)
	go func() {
		defer c.publishing.Done()
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.settings.PublishTimeout)
		defer cancel()

		if err := c.sink.LoadBatch(pubCtx, layer.Markers, layer.GeneratedAt); err != nil {
			c.logger.Error("publish markers failed", "error", err, "markers", len(layer.Markers))
			c.publishMu.Lock()
			if c.published == digest {
				c.published = [sha256.Size]byte{}
			}
			c.publishMu.Unlock()
		}
	}()
}

// WaitPublished blocks until every background marker publish has finished.
func (c *Composer) WaitPublished() {
	c.publishing.Wait()
}

// Plates fetches the tectonic-plate feed and wraps it in an unstyled layer.
func (c *Composer) Plates(ctx context.Context) (PlateLayer, error) {
	start := time.Now()
	layer, err := c.buildPlates(ctx)
	c.metrics.FeedFetchDuration.WithLabelValues(feedPlates).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues(feedPlates, "error").Inc()
		c.logger.Error("tectonic plate layer failed", "feed", feedPlates, "url", c.settings.PlatesFeedURL, "error", err)
		return PlateLayer{}, err
	}
	c.metrics.FeedRequests.WithLabelValues(feedPlates, "success").Inc()
	c.logger.Info("tectonic plate layer built", "features", len(layer.Collection.Features), "duration", time.Since(start))
	return layer, nil
}

func (c *Composer) buildPlates(ctx context.Context) (PlateLayer, error) {
	data, err := c.fetcher.Fetch(ctx, c.settings.PlatesFeedURL)
	if err != nil {
		return PlateLayer{}, fmt.Errorf("fetch plate feed: %w", err)
	}
	return BuildPlateLayer(data)
}

// MapView is a fully composed map. A layer whose feed failed is nil and its
// error is set; the other layer is unaffected.
type MapView struct {
	Config        MapConfig
	Earthquakes   *EarthquakeLayer
	EarthquakeErr error
	Plates        *PlateLayer
	PlatesErr     error
}

// Compose resolves the preset and builds both layers. The two feeds are
// fetched concurrently and neither waits on the other.
func (c *Composer) Compose(ctx context.Context, preset string) (MapView, error) {
	cfg, err := c.Map(preset)
	if err != nil {
		return MapView{}, err
	}

	type quakeResult struct {
		layer EarthquakeLayer
		err   error
	}
	type plateResult struct {
		layer PlateLayer
		err   error
	}
	quakes := make(chan quakeResult, 1)
	plates := make(chan plateResult, 1)

	go func() {
		l, err := c.Earthquakes(ctx)
		quakes <- quakeResult{l, err}
	}()
	go func() {
		l, err := c.Plates(ctx)
		plates <- plateResult{l, err}
	}()

	view := MapView{Config: cfg}
	for _i := 0; _i < 2; _i++ {
		select {
		case r := <-quakes:
			if r.err != nil {
				view.EarthquakeErr = r.err
			} else {
				view.Earthquakes = &r.layer
			}
		case r := <-plates:
			if r.err != nil {
				view.PlatesErr = r.err
			} else {
				view.Plates = &r.layer
			}
		}
	}
	return view, nil
}
