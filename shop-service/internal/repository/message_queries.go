package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
)

// AppendMessage stores created_at at microsecond precision so cursors
// handed out before and after a round trip compare equal.
func (r *Repository) AppendMessage(ctx context.Context, msg *domain.OrderMessage) error {
	msg.CreatedAt = msg.CreatedAt.Truncate(time.Microsecond)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO order_messages (id, order_id, sender_id, text, image_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.OrderID, msg.SenderID, msg.Text, msg.ImageURL, msg.CreatedAt)
	if pqCode(err) == pqForeignKeyViolation {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *Repository) ListMessages(ctx context.Context, orderID int64, after *domain.MessageCursor, limit int) ([]*domain.OrderMessage, error) {
	var a args
	query := `SELECT id, order_id, sender_id, text, image_url, created_at
		FROM order_messages WHERE order_id = ` + a.add(orderID)
	if after != nil {
		query += ` AND (created_at, id) > (` + a.add(after.CreatedAt) + `, ` + a.add(after.ID) + `)`
	}
	query += ` ORDER BY created_at, id` + limitOffset(&a, limit, 0)

	rows, err := r.db.QueryContext(ctx, query, a...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]*domain.OrderMessage, 0)
	for rows.Next() {
		var m domain.OrderMessage
		if err := rows.Scan(&m.ID, &m.OrderID, &m.SenderID, &m.Text, &m.ImageURL, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}
