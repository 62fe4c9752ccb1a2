package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

var (
	_ store.Store = (*Repository)(nil)
	_ store.Tx    = (*pgTx)(nil)
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
	pqStringTooLong       = "22001"
)

// Repository is the postgres implementation of store.Store.
type Repository struct {
	*queries
	db *sql.DB
}

func NewRepository(ctx context.Context, cred *Credentials) (*Repository, error) {
	db, err := sql.Open("postgres", cred.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.PingContext(ctx); e2 != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{queries: &queries{db: db}, db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "shop_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

// WithTx runs fn inside a READ COMMITTED transaction. Order rows read
// through GetOrderForUpdate stay locked until commit.
func (r *Repository) WithTx(ctx context.Context, fn func(tx store.Tx) error) (err error) {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if err = fn(&pgTx{queries: &queries{db: sqlTx, inTx: true}, tx: sqlTx}); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

type pgTx struct {
	*queries
	tx         *sql.Tx
	savepoints atomic.Int64
}

// Savepoint lets fn fail without aborting the surrounding transaction.
func (t *pgTx) Savepoint(ctx context.Context, fn func(q store.Queries) error) error {
	name := fmt.Sprintf("sp_%d", t.savepoints.Add(1))
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	if err := fn(t.queries); err != nil {
		if _, rbErr := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback to savepoint: %w", rbErr))
		}
		return err
	}
	if _, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

// queries implements store.Queries over a *sql.DB or an open *sql.Tx.
type queries struct {
	db   dbtx
	inTx bool
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func (q *queries) CreateSellerProfile(ctx context.Context, profile *domain.SellerProfile) error {
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO seller_profiles (user_id, created_at) VALUES ($1, $2) RETURNING id`,
		profile.UserID, profile.CreatedAt,
	).Scan(&profile.ID)
	if pqCode(err) == pqUniqueViolation {
		return domain.ErrSellerExists
	}
	if err != nil {
		return fmt.Errorf("insert seller profile: %w", err)
	}
	return nil
}

func (q *queries) GetSellerProfile(ctx context.Context, userID int64) (*domain.SellerProfile, error) {
	var p domain.SellerProfile
	err := q.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at FROM seller_profiles WHERE user_id = $1`, userID,
	).Scan(&p.ID, &p.UserID, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSellerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query seller profile: %w", err)
	}
	return &p, nil
}

func (q *queries) CountSellerProfiles(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seller_profiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count seller profiles: %w", err)
	}
	return n, nil
}
