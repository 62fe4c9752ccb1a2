package consumer

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/mcadelacruz/braceurself/shop-service/internal/publisher"
)

const DefaultGroupID = "shop-dashboard-invalidator"

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Invalidator drops derived seller data; cache.CachedDashboard satisfies it.
type Invalidator interface {
	SellerDataChanged(ctx context.Context, sellerID int64)
}

// DashboardInvalidator consumes order events so that every replica drops
// its cached dashboards, not only the one that handled the write.
type DashboardInvalidator struct {
	reader      MessageReader
	invalidator Invalidator
	logger      *slog.Logger
}

func NewReader(topic, groupID string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
}

func NewDashboardInvalidator(reader MessageReader, invalidator Invalidator, logger *slog.Logger) *DashboardInvalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardInvalidator{reader: reader, invalidator: invalidator, logger: logger}
}

func (c *DashboardInvalidator) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.consumeOne(ctx)
	}
}

func (c *DashboardInvalidator) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Warn("error closing reader", slog.Any("error", err))
	}
}

func (c *DashboardInvalidator) consumeOne(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			c.logger.WarnContext(ctx, "error reading message", slog.Any("error", err))
		}
		return
	}

	sellerID, ok := sellerIDFrom(m)
	if !ok {
		c.logger.WarnContext(ctx, "event without seller id",
			slog.String("key", string(m.Key)), slog.Int64("offset", m.Offset))
		return
	}
	c.invalidator.SellerDataChanged(ctx, sellerID)
}

func sellerIDFrom(m kafka.Message) (int64, bool) {
	for _, h := range m.Headers {
		if h.Key != publisher.HeaderSellerID {
			continue
		}
		id, err := strconv.ParseInt(string(h.Value), 10, 64)
		if err != nil || id <= 0 {
			return 0, false
		}
		return id, true
	}
	return 0, false
}
