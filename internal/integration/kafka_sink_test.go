//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-map-service/internal/adapter/feed"
	"github.com/couchcryptid/quake-map-service/internal/adapter/kafka"
	"github.com/couchcryptid/quake-map-service/internal/adapter/mapbox"
	"github.com/couchcryptid/quake-map-service/internal/composer"
	"github.com/couchcryptid/quake-map-service/internal/config"
	"github.com/couchcryptid/quake-map-service/internal/observability"
)

const earthquakeFeed = `{
  "type": "FeatureCollection",
  "metadata": {"title": "integration"},
  "features": [
    {"type": "Feature", "id": "ci1",
     "properties": {"place": "10km NE of Testville, CA", "mag": 5.2, "time": 1713276309000},
     "geometry": {"type": "Point", "coordinates": [-117.59, 35.76, 7.4]}},
    {"type": "Feature", "id": "bad",
     "properties": {"place": "nowhere", "mag": null, "time": 1713276309000},
     "geometry": {"type": "Point", "coordinates": [0, 0, 1]}},
    {"type": "Feature", "id": "ak2",
     "properties": {"place": "Alaska", "mag": 1.3, "time": 1713276000000},
     "geometry": {"type": "Point", "coordinates": [-152.54, 59.77, 63.8]}}
  ]
}`

// TestMarkerStream builds an earthquake layer from a fake USGS feed and
// verifies every styled marker lands on the Kafka topic keyed by feature ID.
func TestMarkerStream(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	topic := fmt.Sprintf("markers-%d", time.Now().UnixNano())
	createTopic(t, broker, topic)

	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quakes":
			_, _ = w.Write([]byte(earthquakeFeed))
		default:
			http.NotFound(w, r)
		}
	}))
	defer feedSrv.Close()

	cfg := &config.Config{
		KafkaEnabled:     true,
		KafkaBrokers:     []string{broker},
		KafkaMarkerTopic: topic,
	}
	metrics := observability.NewMetricsForTesting()
	writer := kafka.NewWriter(cfg, metrics, discardLogger())
	defer writer.Close()

	c := composer.New(composer.Settings{
		EarthquakeFeedURL: feedSrv.URL + "/quakes",
		PlatesFeedURL:     feedSrv.URL + "/plates",
		Location:          time.UTC,
		BaseLayers:        mapbox.BaseLayers(""),
	}, feed.NewClient(5*time.Second), nil, writer, discardLogger(), metrics)

	view, err := c.Compose(ctx, "")
	require.NoError(t, err)
	require.NoError(t, view.EarthquakeErr)
	require.Error(t, view.PlatesErr, "plate feed 404s")
	require.Len(t, view.Earthquakes.Markers, 2)
	c.WaitPublished()

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     topic,
		Partition: 0,
		MaxWait:   time.Second,
	})
	defer reader.Close()

	got := map[string]kafka.MarkerEvent{}
	for _i := 0; _i < 2; _i++ {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := reader.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read marker message")

		var ev kafka.MarkerEvent
		require.NoError(t, json.Unmarshal(msg.Value, &ev))
		assert.Equal(t, string(msg.Key), ev.ID)
		got[ev.ID] = ev
	}

	require.Contains(t, got, "ci1")
	require.Contains(t, got, "ak2")
	assert.Equal(t, "#42BCF6", got["ci1"].Color)
	assert.Equal(t, "#A9F9FE", got["ak2"].Color)
	assert.Equal(t, "10km NE of Testville, CA", got["ci1"].Place)
}
