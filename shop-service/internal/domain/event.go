package domain

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced          = "order.placed"
	EventOrderCancelled       = "order.cancelled"
	EventOrderStatusChanged   = "order.status_changed"
	EventOrderCompleted       = "order.completed"
	EventProductStockAdjusted = "product.stock_adjusted"
	EventProductCreated       = "product.created"
)

// OrderEvent is an outbox row written in the same transaction as the change it describes.
type OrderEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	SellerID    int64
	Payload     json.RawMessage
	CreatedAt   time.Time
	PublishedAt *time.Time
}
