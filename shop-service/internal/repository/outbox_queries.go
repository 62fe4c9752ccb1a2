package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
)

func (q *queries) AppendEvent(ctx context.Context, event *domain.OrderEvent) error {
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO order_events (aggregate_id, event_type, seller_id, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		event.AggregateID, event.EventType, event.SellerID, []byte(event.Payload), event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *Repository) PendingEvents(ctx context.Context, limit int) ([]*domain.OrderEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_id, event_type, seller_id, payload, created_at
		 FROM order_events
		 WHERE published_at IS NULL
		 ORDER BY id
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending events: %w", err)
	}
	defer rows.Close()

	events := make([]*domain.OrderEvent, 0)
	for rows.Next() {
		var (
			e       domain.OrderEvent
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.SellerID, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Payload = payload
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkEventPublished(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE order_events SET published_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark event published: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %d: %w", id, sql.ErrNoRows)
	}
	return nil
}
