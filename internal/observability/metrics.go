package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the map service.
type Metrics struct {
	// Feed fetching.
	FeedRequests      *prometheus.CounterVec   // labels: feed={earthquakes,tectonic_plates}, outcome={success,error}
	FeedFetchDuration *prometheus.HistogramVec // labels: feed
	FeedCache         *prometheus.CounterVec   // labels: result={hit,miss}

	// Layer building.
	MarkersRendered  prometheus.Counter
	FeaturesSkipped  *prometheus.CounterVec // labels: reason={not_point,missing_depth,missing_magnitude}
	EarthquakeMarker prometheus.Gauge

	// Reverse geocoding of features without a place.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge

	// Marker event stream.
	MarkersPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakemap",
			Name:      "feed_requests_total",
			Help:      "Feed fetches by feed and outcome.",
		}, []string{"feed", "outcome"}),
		FeedFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quakemap",
			Name:      "feed_fetch_duration_seconds",
			Help:      "Duration of a feed fetch including decoding.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"feed"}),
		FeedCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakemap",
			Name:      "feed_cache_total",
			Help:      "Feed document cache lookups by result.",
		}, []string{"result"}),
		MarkersRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakemap",
			Name:      "markers_rendered_total",
			Help:      "Total earthquake markers styled.",
		}),
		FeaturesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakemap",
			Name:      "features_skipped_total",
			Help:      "Malformed earthquake features skipped by reason.",
		}, []string{"reason"}),
		EarthquakeMarker: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quakemap",
			Name:      "earthquake_layer_markers",
			Help:      "Number of markers in the most recently built earthquake layer.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakemap",
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakemap",
			Name:      "geocode_cache_total",
			Help:      "Reverse geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quakemap",
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quakemap",
			Name:      "geocode_enabled",
			Help:      "1 when place enrichment is enabled, 0 otherwise.",
		}),
		MarkersPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakemap",
			Name:      "markers_published_total",
			Help:      "Total marker events written to the Kafka topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakemap",
			Name:      "marker_publish_errors_total",
			Help:      "Failed marker batch writes.",
		}),
	}

	prometheus.MustRegister(
		m.FeedRequests,
		m.FeedFetchDuration,
		m.FeedCache,
		m.MarkersRendered,
		m.FeaturesSkipped,
		m.EarthquakeMarker,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.MarkersPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with no registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FeedRequests:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quakemap", Name: "feed_requests_total"}, []string{"feed", "outcome"}),
		FeedFetchDuration:  prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "quakemap", Name: "feed_fetch_duration_seconds"}, []string{"feed"}),
		FeedCache:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quakemap", Name: "feed_cache_total"}, []string{"result"}),
		MarkersRendered:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quakemap", Name: "markers_rendered_total"}),
		FeaturesSkipped:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quakemap", Name: "features_skipped_total"}, []string{"reason"}),
		EarthquakeMarker:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "quakemap", Name: "earthquake_layer_markers"}),
		GeocodeRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quakemap", Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quakemap", Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "quakemap", Name: "geocode_api_duration_seconds"}),
		GeocodeEnabled:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "quakemap", Name: "geocode_enabled"}),
		MarkersPublished:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quakemap", Name: "markers_published_total"}),
		PublishErrors:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quakemap", Name: "marker_publish_errors_total"}),
	}
}
