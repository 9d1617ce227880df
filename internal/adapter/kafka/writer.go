package kafka

import (
	"context"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/config"
	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
)

// Writer produces run reports to a Kafka topic.
// It implements pipeline.ReportPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured report topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// Publish serializes the report and writes it keyed by run ID.
func (w *Writer) Publish(ctx context.Context, report domain.Report) error {
	msg, err := serializeToMessage(report)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}
	w.logger.Debug("report published", "sink", w.Name(), "topic", w.writer.Topic, "run_id", report.RunID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage converts a report into a Kafka message.
func serializeToMessage(report domain.Report) (kafkago.Message, error) {
	out, err := domain.SerializeReport(report)
	if err != nil {
		return kafkago.Message{}, err
	}
	return kafkago.Message{
		Key:   out.Key,
		Value: out.Value,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(out.Headers["run_id"])},
			{Key: "generated_at", Value: []byte(out.Headers["generated_at"])},
		},
	}, nil
}
