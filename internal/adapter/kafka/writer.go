package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/quake-map-service/internal/config"
	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/observability"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes styled markers to a Kafka topic, one message per marker
// keyed by feature ID. It implements composer.MarkerSink.
type Writer struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured marker topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaMarkerTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// MarkerEvent is the message payload.
type MarkerEvent struct {
	ID          string    `json:"id"`
	Place       string    `json:"place"`
	Magnitude   float64   `json:"mag"`
	Time        time.Time `json:"time"`
	Depth       float64   `json:"depth"`
	Lon         float64   `json:"lon"`
	Lat         float64   `json:"lat"`
	Radius      float64   `json:"radius"`
	Color       string    `json:"color"`
	GeneratedAt time.Time `json:"generated_at"`
}

// LoadBatch serializes and publishes one layer build's markers in a single
// WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, markers []domain.Marker, generatedAt time.Time) error {
	if len(markers) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(markers))
	for i := range markers {
		msg, err := serializeToMessage(markers[i], generatedAt)
		if err != nil {
			w.metrics.PublishErrors.Inc()
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		w.metrics.PublishErrors.Inc()
		return fmt.Errorf("publish markers: %w", err)
	}
	w.metrics.MarkersPublished.Add(float64(len(msgs)))
	w.logger.Debug("markers published", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Marker into a Kafka message.
func serializeToMessage(m domain.Marker, generatedAt time.Time) (kafkago.Message, error) {
	f := m.Feature
	data, err := json.Marshal(MarkerEvent{
		ID:          f.ID,
		Place:       f.Place,
		Magnitude:   f.Magnitude,
		Time:        f.Time,
		Depth:       f.Depth,
		Lon:         f.Lon,
		Lat:         f.Lat,
		Radius:      m.Style.Radius,
		Color:       m.Style.Color,
		GeneratedAt: generatedAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize marker %s: %w", f.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(f.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "color", Value: []byte(m.Style.Color)},
			{Key: "generated_at", Value: []byte(generatedAt.Format(time.RFC3339))},
		},
	}, nil
}
