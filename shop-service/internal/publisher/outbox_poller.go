package publisher

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"

	"github.com/mcadelacruz/braceurself/pkg/circuitbreaker"
	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

const (
	DefaultTopic = "shop.order-events"

	HeaderEventType = "event_type"
	HeaderSellerID  = "seller_id"

	batchSize = 100
)

// MessageWriter is the part of *kafka.Writer the poller uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPoller publishes pending outbox events to Kafka and marks them
// published. Delivery is at least once: an event whose mark fails is
// sent again on the next tick.
type OutboxPoller struct {
	timeout   time.Duration
	eventTick time.Duration
	outbox    store.Outbox
	writer    MessageWriter
	breaker   *gobreaker.CircuitBreaker[struct{}]
	logger    *slog.Logger
}

func NewWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
}

func NewOutboxPoller(outbox store.Outbox, writer MessageWriter, logger *slog.Logger) *OutboxPoller {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxPoller{
		timeout:   5 * time.Second,
		eventTick: time.Second,
		outbox:    outbox,
		writer:    writer,
		breaker:   circuitbreaker.New[struct{}](circuitbreaker.DefaultConfig("kafka-outbox"), logger),
		logger:    logger,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	defer eventTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.outbox.PendingEvents(ctx, batchSize)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to fetch outbox events", slog.Any("error", err))
		return
	}

	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.logger.WarnContext(ctx, "failed to publish event",
				slog.Int64("event_id", event.ID), slog.Any("error", err))
			// keep ordering per aggregate: stop the batch and retry next tick
			return
		}

		if err := p.outbox.MarkEventPublished(ctx, event.ID); err != nil {
			p.logger.ErrorContext(ctx, "failed to mark event published",
				slog.Int64("event_id", event.ID), slog.Any("error", err))
			continue
		}
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *domain.OrderEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(event.EventType)},
			{Key: HeaderSellerID, Value: []byte(strconv.FormatInt(event.SellerID, 10))},
		},
		Time: event.CreatedAt,
	}

	_, err := p.breaker.Execute(func() (struct{}, error) {
		wctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		return struct{}{}, p.writer.WriteMessages(wctx, msg)
	})
	return err
}
