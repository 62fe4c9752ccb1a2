package store

import (
	"context"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
)

// PageSize is the listing page size used by the shop views.
const PageSize = 10

type ProductSort string

const (
	ProductSortCreatedAt ProductSort = "created_at"
	ProductSortPrice     ProductSort = "price"
	ProductSortStock     ProductSort = "stock"
)

type OrderSort string

const (
	OrderSortCreatedAt   OrderSort = "created_at"
	OrderSortDeliveredAt OrderSort = "delivered_at"
)

// ProductFilter narrows ListProducts. Zero values mean "no constraint".
type ProductFilter struct {
	SellerID int64
	Search   string
	SortBy   ProductSort
	Desc     bool
	Limit    int
	Offset   int
}

// OrderFilter narrows ListOrders. SellerID matches on the ordered product's seller.
type OrderFilter struct {
	CustomerID int64
	SellerID   int64
	Status     domain.OrderStatus
	Cancelled  *bool
	Search     string
	SortBy     OrderSort
	Desc       bool
	Limit      int
	Offset     int
}

type DesignFilter struct {
	CustomerID        int64
	ExcludeCustomerID int64
	Name              string
	Limit             int
	Offset            int
}

// Queries are the record operations available inside and outside a transaction.
type Queries interface {
	CreateSellerProfile(ctx context.Context, profile *domain.SellerProfile) error
	GetSellerProfile(ctx context.Context, userID int64) (*domain.SellerProfile, error)
	CountSellerProfiles(ctx context.Context) (int, error)

	CreateProduct(ctx context.Context, product *domain.Product) error
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	// ListProducts returns one page and the total number of matches.
	ListProducts(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error)
	// SetStock overwrites the stock level. Negative values are rejected.
	SetStock(ctx context.Context, id int64, stock int) (*domain.Product, error)
	// DecrementStock atomically removes qty units, failing with ErrOutOfStock
	// or ErrInsufficientStock instead of going negative.
	DecrementStock(ctx context.Context, id int64, qty int) (*domain.Product, error)
	IncrementStock(ctx context.Context, id int64, qty int) (*domain.Product, error)

	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	// GetOrderForUpdate reads the order and holds its row lock until the transaction ends.
	GetOrderForUpdate(ctx context.Context, id int64) (*domain.Order, error)
	UpdateOrder(ctx context.Context, order *domain.Order) error
	ListOrders(ctx context.Context, filter OrderFilter) ([]*domain.Order, int, error)
	// ListOrderLines returns every order on the seller's products, oldest first.
	ListOrderLines(ctx context.Context, sellerID int64) ([]domain.OrderLine, error)

	CreateDesign(ctx context.Context, design *domain.CustomBraceletDesign) error
	GetDesign(ctx context.Context, id int64) (*domain.CustomBraceletDesign, error)
	// ListDesigns returns designs newest first.
	ListDesigns(ctx context.Context, filter DesignFilter) ([]*domain.CustomBraceletDesign, error)
	DeleteDesign(ctx context.Context, id int64) error

	AppendEvent(ctx context.Context, event *domain.OrderEvent) error
}

// Tx is a Queries bound to an open transaction.
type Tx interface {
	Queries
	// Savepoint runs fn so that its failure rolls back only fn's writes.
	Savepoint(ctx context.Context, fn func(q Queries) error) error
}

// MessageLog is the append-only per-order message thread.
type MessageLog interface {
	AppendMessage(ctx context.Context, msg *domain.OrderMessage) error
	// ListMessages returns up to limit messages ordered by (created_at, id),
	// starting after the cursor when one is given.
	ListMessages(ctx context.Context, orderID int64, after *domain.MessageCursor, limit int) ([]*domain.OrderMessage, error)
}

// Outbox exposes the unpublished order events to the publisher.
type Outbox interface {
	PendingEvents(ctx context.Context, limit int) ([]*domain.OrderEvent, error)
	MarkEventPublished(ctx context.Context, id int64) error
}

// Store is the transactional record store backing the shop.
type Store interface {
	Queries
	MessageLog
	Outbox

	// WithTx runs fn in a single transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
}
