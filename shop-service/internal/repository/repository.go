package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	SSLMode           string
	MigrationsDirPath string
}

func (c *Credentials) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName,
		sslMode)
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// args collects positional parameters while a query is assembled.
type args []any

func (a *args) add(v any) string {
	*a = append(*a, v)
	return fmt.Sprintf("$%d", len(*a))
}

func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func direction(desc bool) string {
	if desc {
		return "DESC"
	}
	return "ASC"
}

// limitOffset renders LIMIT/OFFSET, leaving LIMIT off when limit is zero.
func limitOffset(a *args, limit, offset int) string {
	var b strings.Builder
	if limit > 0 {
		b.WriteString(" LIMIT " + a.add(limit))
	}
	if offset > 0 {
		b.WriteString(" OFFSET " + a.add(offset))
	}
	return b.String()
}
