package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/trip-geo-resolver/internal/config"
	"github.com/couchcryptid/trip-geo-resolver/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces resolved itineraries to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes resolved itineraries in a single WriteMessages call.
// Messages are keyed by itinerary ID so every resolution of the same
// itinerary lands on the same partition.
func (w *Writer) LoadBatch(ctx context.Context, itineraries []domain.ResolvedItinerary) error {
	if len(itineraries) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(itineraries))
	for i := range itineraries {
		msg, err := serializeToMessage(itineraries[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write resolved itineraries: %w", err)
	}
	w.logger.Debug("loaded batch", "size", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ResolvedItinerary into a Kafka message.
func serializeToMessage(it domain.ResolvedItinerary) (kafkago.Message, error) {
	data, err := json.Marshal(it)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize resolved itinerary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(it.ItineraryID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "itinerary_id", Value: []byte(it.ItineraryID)},
			{Key: "resolved_at", Value: []byte(it.ResolvedAt.Format(time.RFC3339))},
		},
	}, nil
}
