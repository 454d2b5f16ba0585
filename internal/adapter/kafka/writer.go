package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/nws-observation-service/internal/config"
	"github.com/couchcryptid/nws-observation-service/internal/domain"
)

// Writer produces observation reports to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured report topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes one report keyed by station, so readings of a station stay
// ordered within a partition.
func (w *Writer) Publish(ctx context.Context, report domain.Report) error {
	msg, err := serializeToMessage(report)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write report to %s: %w", w.writer.Topic, err)
	}
	w.logger.Debug("report published", "topic", w.writer.Topic, "station", report.Station.Identifier)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Report into a Kafka message.
func serializeToMessage(report domain.Report) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize observation report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.Station.Identifier),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "station_id", Value: []byte(report.Station.Identifier)},
			{Key: "fetched_at", Value: []byte(report.FetchedAt.Format(time.RFC3339))},
		},
	}, nil
}
