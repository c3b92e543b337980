package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/observability"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testMarker(id string, mag float64) domain.Marker {
	f := domain.EarthquakeFeature{
		ID:        id,
		Place:     "10km NE of Testville",
		Magnitude: mag,
		Time:      time.Date(2024, 4, 16, 14, 5, 9, 0, time.UTC),
		Depth:     7.4,
		Lon:       -117.59,
		Lat:       35.76,
	}
	return domain.Marker{Feature: f, Style: domain.NewStylist(time.UTC).Style(f)}
}

func newTestWriter(fw *fakeWriter) *Writer {
	return &Writer{
		writer:  fw,
		metrics: observability.NewMetricsForTesting(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 16, 15, 0, 0, 0, time.UTC)

	msg, err := serializeToMessage(testMarker("ci1", 5.2), now)
	require.NoError(t, err)

	assert.Equal(t, []byte("ci1"), msg.Key)
	var ev MarkerEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, "ci1", ev.ID)
	assert.Equal(t, "#42BCF6", ev.Color)
	assert.InDelta(t, math.Sqrt(7.4/math.Pi), ev.Radius, 1e-9)
	assert.Equal(t, now, ev.GeneratedAt)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "color", msg.Headers[0].Key)
	assert.Equal(t, []byte("#42BCF6"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestWriter_LoadBatch(t *testing.T) {
	fw := &fakeWriter{}
	w := newTestWriter(fw)

	err := w.LoadBatch(context.Background(), []domain.Marker{testMarker("a", 1.5), testMarker("b", 6.1)}, time.Now())
	require.NoError(t, err)

	require.Len(t, fw.msgs, 2)
	assert.Equal(t, []byte("a"), fw.msgs[0].Key)
	assert.Equal(t, []byte("b"), fw.msgs[1].Key)
	assert.Equal(t, 2.0, testutil.ToFloat64(w.metrics.MarkersPublished))
}

func TestWriter_LoadBatch_Empty(t *testing.T) {
	fw := &fakeWriter{err: errors.New("should not be called")}
	require.NoError(t, newTestWriter(fw).LoadBatch(context.Background(), nil, time.Now()))
}

func TestWriter_LoadBatch_Error(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker unavailable")}
	w := newTestWriter(fw)

	err := w.LoadBatch(context.Background(), []domain.Marker{testMarker("a", 2)}, time.Now())
	require.ErrorContains(t, err, "broker unavailable")
	assert.Equal(t, 1.0, testutil.ToFloat64(w.metrics.PublishErrors))
}

func TestWriter_Close(t *testing.T) {
	fw := &fakeWriter{}
	require.NoError(t, newTestWriter(fw).Close())
	assert.True(t, fw.closed)
}
