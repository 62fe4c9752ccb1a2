package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

const orderColumns = `o.id, o.customer_id, o.product_id, o.quantity, o.payment_type, o.status,
	o.done, o.cancelled, COALESCE(o.cancel_reason, ''), o.created_at, o.delivered_at`

func scanOrder(row rowScanner, extra ...any) (*domain.Order, error) {
	var (
		o           domain.Order
		deliveredAt sql.NullTime
	)
	dest := []any{
		&o.ID, &o.CustomerID, &o.ProductID, &o.Quantity, &o.PaymentType, &o.Status,
		&o.Done, &o.Cancelled, &o.CancelReason, &o.CreatedAt, &deliveredAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if deliveredAt.Valid {
		at := deliveredAt.Time
		o.DeliveredAt = &at
	}
	return &o, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *domain.Order) sql.NullTime {
	if t.DeliveredAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t.DeliveredAt, Valid: true}
}

func (q *queries) CreateOrder(ctx context.Context, order *domain.Order) error {
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO orders (customer_id, product_id, quantity, payment_type, status, done, cancelled, cancel_reason, created_at, delivered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		order.CustomerID, order.ProductID, order.Quantity, order.PaymentType, order.Status,
		order.Done, order.Cancelled, nullString(order.CancelReason), order.CreatedAt, nullTime(order),
	).Scan(&order.ID)
	switch pqCode(err) {
	case pqForeignKeyViolation:
		return domain.ErrProductNotFound
	case pqCheckViolation:
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (q *queries) getOrder(ctx context.Context, id int64, lock bool) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`
	if lock && q.inTx {
		query += ` FOR UPDATE`
	}
	o, err := scanOrder(q.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return o, nil
}

func (q *queries) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return q.getOrder(ctx, id, false)
}

func (q *queries) GetOrderForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return q.getOrder(ctx, id, true)
}

func (q *queries) UpdateOrder(ctx context.Context, order *domain.Order) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, done = $3, cancelled = $4, cancel_reason = $5, delivered_at = $6
		 WHERE id = $1`,
		order.ID, order.Status, order.Done, order.Cancelled, nullString(order.CancelReason), nullTime(order))
	if pqCode(err) == pqCheckViolation {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (q *queries) ListOrders(ctx context.Context, filter store.OrderFilter) ([]*domain.Order, int, error) {
	var a args
	var conds []string
	if filter.CustomerID != 0 {
		conds = append(conds, "o.customer_id = "+a.add(filter.CustomerID))
	}
	if filter.SellerID != 0 {
		conds = append(conds, "p.seller_id = "+a.add(filter.SellerID))
	}
	if filter.Status != "" {
		conds = append(conds, "o.status = "+a.add(filter.Status))
	}
	if filter.Cancelled != nil {
		conds = append(conds, "o.cancelled = "+a.add(*filter.Cancelled))
	}
	if filter.Search != "" {
		conds = append(conds, "strpos(lower(p.name), lower("+a.add(filter.Search)+")) > 0")
	}
	from := ` FROM orders o JOIN products p ON p.id = o.product_id` + where(conds)

	var total int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from, a...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	dir := direction(filter.Desc)
	order := fmt.Sprintf(" ORDER BY o.created_at %s, o.id %s", dir, dir)
	if filter.SortBy == store.OrderSortDeliveredAt {
		order = fmt.Sprintf(" ORDER BY o.delivered_at %s NULLS LAST, o.id %s", dir, dir)
	}
	query := `SELECT ` + orderColumns + from + order + limitOffset(&a, filter.Limit, filter.Offset)

	rows, err := q.db.QueryContext(ctx, query, a...)
	if err != nil {
		return nil, 0, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, total, nil
}

func (q *queries) ListOrderLines(ctx context.Context, sellerID int64) ([]domain.OrderLine, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+orderColumns+`, p.name, p.price
		 FROM orders o JOIN products p ON p.id = o.product_id
		 WHERE p.seller_id = $1
		 ORDER BY o.created_at, o.id`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var line domain.OrderLine
		o, err := scanOrder(rows, &line.ProductName, &line.ProductPrice)
		if err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		line.Order = *o
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}
	return lines, nil
}
