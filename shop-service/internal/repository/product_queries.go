package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

const productColumns = `id, name, price, stock, seller_id, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.SellerID, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (q *queries) CreateProduct(ctx context.Context, product *domain.Product) error {
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO products (name, price, stock, seller_id, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		product.Name, product.Price, product.Stock, product.SellerID, product.CreatedAt,
	).Scan(&product.ID)
	switch pqCode(err) {
	case pqCheckViolation, pqStringTooLong:
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (q *queries) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := scanProduct(q.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

func (q *queries) ListProducts(ctx context.Context, filter store.ProductFilter) ([]*domain.Product, int, error) {
	var a args
	var conds []string
	if filter.SellerID != 0 {
		conds = append(conds, "seller_id = "+a.add(filter.SellerID))
	}
	if filter.Search != "" {
		conds = append(conds, "strpos(lower(name), lower("+a.add(filter.Search)+")) > 0")
	}
	w := where(conds)

	var total int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+w, a...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	col := "created_at"
	switch filter.SortBy {
	case store.ProductSortPrice:
		col = "price"
	case store.ProductSortStock:
		col = "stock"
	}
	dir := direction(filter.Desc)
	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY %s %s, id %s`, productColumns, w, col, dir, dir) +
		limitOffset(&a, filter.Limit, filter.Offset)

	rows, err := q.db.QueryContext(ctx, query, a...)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}
	return products, total, nil
}

func (q *queries) SetStock(ctx context.Context, id int64, stock int) (*domain.Product, error) {
	if stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", domain.ErrInvalidInput)
	}
	p, err := scanProduct(q.db.QueryRowContext(ctx,
		`UPDATE products SET stock = $2 WHERE id = $1 RETURNING `+productColumns, id, stock))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update stock: %w", err)
	}
	return p, nil
}

// DecrementStock is a single conditional UPDATE so concurrent orders can
// never take the stock below zero.
func (q *queries) DecrementStock(ctx context.Context, id int64, qty int) (*domain.Product, error) {
	p, err := scanProduct(q.db.QueryRowContext(ctx,
		`UPDATE products SET stock = stock - $2
		 WHERE id = $1 AND stock >= $2
		 RETURNING `+productColumns, id, qty))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("decrement stock: %w", err)
	}

	current, err := q.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Stock == 0 {
		return nil, domain.ErrOutOfStock
	}
	return nil, domain.ErrInsufficientStock
}

func (q *queries) IncrementStock(ctx context.Context, id int64, qty int) (*domain.Product, error) {
	p, err := scanProduct(q.db.QueryRowContext(ctx,
		`UPDATE products SET stock = stock + $2 WHERE id = $1 RETURNING `+productColumns, id, qty))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("increment stock: %w", err)
	}
	return p, nil
}
