package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderMessage struct {
	ID        uuid.UUID `json:"id"`
	OrderID   int64     `json:"order_id"`
	SenderID  int64     `json:"sender_id"`
	Text      string    `json:"text"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageCursor points just past the last message already read.
type MessageCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

func (m *OrderMessage) Cursor() MessageCursor {
	return MessageCursor{CreatedAt: m.CreatedAt, ID: m.ID}
}
