package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

var tracer = otel.Tracer("github.com/mcadelacruz/braceurself/shop-service/internal/service")

// ChangeNotifier is told when data behind the seller dashboard changes.
type ChangeNotifier interface {
	SellerDataChanged(ctx context.Context, sellerID int64)
}

type deps struct {
	logger   *slog.Logger
	now      func() time.Time
	notifier ChangeNotifier
	validate *validator.Validate
	pageSize int
}

type Option func(*deps)

// WithClock overrides the time source used for created_at and delivered_at.
func WithClock(now func() time.Time) Option {
	return func(d *deps) {
		d.now = now
	}
}

func WithNotifier(n ChangeNotifier) Option {
	return func(d *deps) {
		d.notifier = n
	}
}

// WithPageSize sets how many records a streaming read fetches at a time.
func WithPageSize(n int) Option {
	return func(d *deps) {
		d.pageSize = n
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(d *deps) {
		d.logger = l
	}
}

func newDeps(opts []Option) deps {
	d := deps{
		logger:   slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func (d *deps) notify(ctx context.Context, sellerID int64) {
	if d.notifier != nil {
		d.notifier.SellerDataChanged(ctx, sellerID)
	}
}

func (d *deps) validateStruct(v any) error {
	if err := d.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	return nil
}

// Page is one page of a listing.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Pages is the number of pages needed for Total items, at least one.
func (p Page[T]) Pages() int {
	if p.Total == 0 || p.PageSize == 0 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

func pageBounds(page int) (number, limit, offset int) {
	if page < 1 {
		page = 1
	}
	return page, store.PageSize, (page - 1) * store.PageSize
}

// isDesc treats anything except an explicit "asc" as descending.
func isDesc(dir string) bool {
	return dir != "asc"
}

func requireCustomer(actor domain.Actor) error {
	if !actor.IsCustomer() {
		return domain.ErrForbidden
	}
	return nil
}

func requireSeller(actor domain.Actor, sellerID int64) error {
	if !actor.IsSeller() || actor.UserID != sellerID {
		return domain.ErrForbidden
	}
	return nil
}

// authorizeParty allows the customer who placed the order and the seller.
func authorizeParty(actor domain.Actor, order *domain.Order, sellerID int64) error {
	switch actor.Role {
	case domain.RoleCustomer:
		if order.CustomerID == actor.UserID {
			return nil
		}
	case domain.RoleSeller:
		if actor.UserID == sellerID {
			return nil
		}
	}
	return domain.ErrForbidden
}

func appendEvent(ctx context.Context, q store.Queries, eventType string, sellerID, aggregateID int64, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	ev := &domain.OrderEvent{
		AggregateID: strconv.FormatInt(aggregateID, 10),
		EventType:   eventType,
		SellerID:    sellerID,
		Payload:     body,
	}
	if err := q.AppendEvent(ctx, ev); err != nil {
		return fmt.Errorf("append %s event: %w", eventType, err)
	}
	return nil
}
