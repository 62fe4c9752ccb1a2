package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

func scanDesign(row rowScanner) (*domain.CustomBraceletDesign, error) {
	var (
		d     domain.CustomBraceletDesign
		beads []byte
	)
	if err := row.Scan(&d.ID, &d.Name, &beads, &d.CustomerID, &d.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(beads, &d.Beads); err != nil {
		return nil, fmt.Errorf("decode beads: %w", err)
	}
	return &d, nil
}

func (q *queries) CreateDesign(ctx context.Context, design *domain.CustomBraceletDesign) error {
	beads, err := json.Marshal(design.Beads)
	if err != nil {
		return fmt.Errorf("encode beads: %w", err)
	}
	err = q.db.QueryRowContext(ctx,
		`INSERT INTO custom_bracelet_designs (name, beads, customer_id, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		design.Name, beads, design.CustomerID, design.CreatedAt,
	).Scan(&design.ID)
	if err != nil {
		return fmt.Errorf("insert design: %w", err)
	}
	return nil
}

func (q *queries) GetDesign(ctx context.Context, id int64) (*domain.CustomBraceletDesign, error) {
	d, err := scanDesign(q.db.QueryRowContext(ctx,
		`SELECT id, name, beads, customer_id, created_at FROM custom_bracelet_designs WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDesignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query design: %w", err)
	}
	return d, nil
}

func (q *queries) ListDesigns(ctx context.Context, filter store.DesignFilter) ([]*domain.CustomBraceletDesign, error) {
	var a args
	var conds []string
	if filter.CustomerID != 0 {
		conds = append(conds, "customer_id = "+a.add(filter.CustomerID))
	}
	if filter.ExcludeCustomerID != 0 {
		conds = append(conds, "customer_id <> "+a.add(filter.ExcludeCustomerID))
	}
	if filter.Name != "" {
		conds = append(conds, "name = "+a.add(filter.Name))
	}
	query := `SELECT id, name, beads, customer_id, created_at FROM custom_bracelet_designs` +
		where(conds) + ` ORDER BY created_at DESC, id DESC` + limitOffset(&a, filter.Limit, filter.Offset)

	rows, err := q.db.QueryContext(ctx, query, a...)
	if err != nil {
		return nil, fmt.Errorf("query designs: %w", err)
	}
	defer rows.Close()

	designs := make([]*domain.CustomBraceletDesign, 0)
	for rows.Next() {
		d, err := scanDesign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan design: %w", err)
		}
		designs = append(designs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate designs: %w", err)
	}
	return designs, nil
}

func (q *queries) DeleteDesign(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM custom_bracelet_designs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete design: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrDesignNotFound
	}
	return nil
}
