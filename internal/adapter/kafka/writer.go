package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/fmap-wx-fixer/internal/config"
	"github.com/couchcryptid/fmap-wx-fixer/internal/domain"
)

// Writer publishes per-file fix reports to a Kafka topic.
// It implements pipeline.Reporter.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured report topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
	return &Writer{writer: w, logger: logger}
}

// Report serializes and publishes one file report, keyed by file name so
// reports for the same map land on the same partition.
func (w *Writer) Report(ctx context.Context, report domain.FileReport) error {
	msg, err := serializeToMessage(report)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	w.logger.Debug("report published", "file", report.File, "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a FileReport into a Kafka message.
func serializeToMessage(report domain.FileReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize file report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.File),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "tcu_cleared", Value: []byte(strconv.Itoa(report.TCUCleared))},
			{Key: "processed_at", Value: []byte(report.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
