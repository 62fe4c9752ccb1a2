package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

type MockWriter struct {
	mu       sync.Mutex
	Messages []kafkaGo.Message
	Err      error
	Closed   bool
}

func (m *MockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockWriter) Close() error {
	m.Closed = true
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedEvents(t *testing.T, st *store.MemoryStore, n int) {
	t.Helper()
	for i := range n {
		require.NoError(t, st.AppendEvent(context.Background(), &domain.OrderEvent{
			AggregateID: fmt.Sprintf("order-%d", i+1),
			EventType:   domain.EventOrderPlaced,
			SellerID:    1,
			Payload:     json.RawMessage(fmt.Sprintf(`{"order_id":%d}`, i+1)),
		}))
	}
}

func TestProcessUnpublishedEvents_PublishesAndMarks(t *testing.T) {
	st := store.NewMemoryStore()
	seedEvents(t, st, 2)
	writer := &MockWriter{}

	poller := NewOutboxPoller(st, writer, quietLogger())
	poller.processUnpublishedEvents(context.Background())

	require.Len(t, writer.Messages, 2)
	msg := writer.Messages[0]
	assert.Equal(t, "order-1", string(msg.Key))
	assert.JSONEq(t, `{"order_id":1}`, string(msg.Value))
	assert.Equal(t, HeaderEventType, msg.Headers[0].Key)
	assert.Equal(t, domain.EventOrderPlaced, string(msg.Headers[0].Value))
	assert.Equal(t, "1", string(msg.Headers[1].Value))

	pending, err := st.PendingEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProcessUnpublishedEvents_WriteFailureLeavesPending(t *testing.T) {
	st := store.NewMemoryStore()
	seedEvents(t, st, 3)
	writer := &MockWriter{Err: errors.New("broker down")}

	poller := NewOutboxPoller(st, writer, quietLogger())
	poller.processUnpublishedEvents(context.Background())

	pending, err := st.PendingEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	writer.Err = nil
	poller.processUnpublishedEvents(context.Background())
	assert.Len(t, writer.Messages, 3)
}

func TestProcessUnpublishedEvents_BreakerOpens(t *testing.T) {
	st := store.NewMemoryStore()
	seedEvents(t, st, 1)
	writer := &MockWriter{Err: errors.New("broker down")}

	poller := NewOutboxPoller(st, writer, quietLogger())
	for range 10 {
		poller.processUnpublishedEvents(context.Background())
	}

	writer.Err = nil
	// still open: nothing reaches the writer until the breaker timeout passes
	poller.processUnpublishedEvents(context.Background())
	assert.Empty(t, writer.Messages)
}

func TestOutboxPoller_Close(t *testing.T) {
	writer := &MockWriter{}
	poller := NewOutboxPoller(store.NewMemoryStore(), writer, quietLogger())
	require.NoError(t, poller.Close())
	assert.True(t, writer.Closed)
}

func setupKafka(t *testing.T) (string, func()) {
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafkaGo.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestOutboxPoller_PublishesEventsToKafka(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	brokerAddr, cleanup := setupKafka(t)
	defer cleanup()

	createTopic(t, brokerAddr, DefaultTopic)
	time.Sleep(5 * time.Second)

	st := store.NewMemoryStore()
	seedEvents(t, st, 1)

	writer := NewWriter(DefaultTopic, brokerAddr)
	poller := NewOutboxPoller(st, writer, quietLogger())
	defer poller.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	go poller.Run(ctx)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{brokerAddr},
		Topic:    DefaultTopic,
		GroupID:  "test-consumer",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "order-1", string(msg.Key))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, float64(1), payload["order_id"])
}
