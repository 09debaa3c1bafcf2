package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/flood-impact-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used by Publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces metrics snapshots to a Kafka topic.
// It implements pipeline.SnapshotPublisher.
type Publisher struct {
	writer  messageWriter
	timeout time.Duration
	logger  *slog.Logger
}

// flushInterval bounds how long a write waits for a batch to fill. Renders
// publish one snapshot at a time, so batches are flushed at a single message.
const flushInterval = 10 * time.Millisecond

// NewPublisher creates a Kafka producer for the snapshot topic. Each publish
// is bounded by timeout so a slow broker cannot stall a render.
func NewPublisher(brokers []string, topic string, timeout time.Duration, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		BatchSize:    1,
		BatchTimeout: flushInterval,
		WriteTimeout: timeout,
	}
	return &Publisher{writer: w, timeout: timeout, logger: logger.With("component", "snapshot-publisher", "topic", topic)}
}

// Publish serializes and writes one snapshot keyed by scenario.
func (p *Publisher) Publish(ctx context.Context, snap domain.MetricsSnapshot) error {
	msg, err := serializeToMessage(snap)
	if err != nil {
		return err
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish snapshot %s: %w", snap.ID, err)
	}
	p.logger.Debug("snapshot published", "snapshot_id", snap.ID, "scenario", snap.Scenario)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a MetricsSnapshot into a Kafka message.
func serializeToMessage(snap domain.MetricsSnapshot) (kafkago.Message, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(snap.Scenario),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "snapshot_id", Value: []byte(snap.ID.String())},
			{Key: "mode", Value: []byte(snap.Mode)},
			{Key: "generated_at", Value: []byte(snap.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
