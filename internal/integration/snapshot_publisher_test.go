//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/flood-impact-service/internal/adapter/kafka"
	"github.com/couchcryptid/flood-impact-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testSnapshotTopic = "test-flood-snapshots"

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("flood-impact-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

// TestSnapshotPublisher verifies a comparative snapshot round-trips through
// Kafka with its key and headers.
func TestSnapshotPublisher(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSnapshotTopic)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := kafka.NewPublisher([]string{broker}, testSnapshotTopic, 10*time.Second, logger)
	t.Cleanup(func() { _ = pub.Close() })

	full := domain.BusinessTable{Rows: []domain.Business{
		{ID: "a", Employees: 3, Payroll: 3000, AverageSalary: 1000, SalaryKnown: true},
		{ID: "b", Employees: 1, Payroll: 1000, AverageSalary: 1000, SalaryKnown: true},
	}}
	subset := domain.BusinessTable{Rows: full.Rows[:1]}
	snap := domain.NewComparativeSnapshot("mai2024", full, subset)

	require.NoError(t, pub.Publish(ctx, snap))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testSnapshotTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read snapshot topic")

	assert.Equal(t, "mai2024", string(msg.Key))
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, snap.ID.String(), headers["snapshot_id"])
	assert.Equal(t, "comparative", headers["mode"])

	var got domain.MetricsSnapshot
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, snap.ID, got.ID)
	require.NotNil(t, got.Percent)
	assert.InDelta(t, 50.0, got.Percent.Count, 1e-9)
	assert.InDelta(t, 75.0, got.Percent.Employees, 1e-9)
}
