package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

type OrderConfig struct {
	// SellerID is the user id of the seller fulfilling every order.
	SellerID        int64
	StatusPolicy    domain.TransitionPolicy
	FreezeCompleted bool
}

// OrderService is the order lifecycle engine.
type OrderService struct {
	deps
	store           store.Store
	sellerID        int64
	transitions     domain.TransitionTable
	freezeCompleted bool
}

func NewOrderService(st store.Store, cfg OrderConfig, opts ...Option) *OrderService {
	return &OrderService{
		deps:            newDeps(opts),
		store:           st,
		sellerID:        cfg.SellerID,
		transitions:     domain.NewTransitionTable(cfg.StatusPolicy),
		freezeCompleted: cfg.FreezeCompleted,
	}
}

type OrderQuery struct {
	Status    string
	Cancelled string // "yes", "no" or empty
	Search    string
	SortBy    string
	SortDir   string
	Page      int
}

// PlaceOrder creates a waiting order and takes the quantity out of stock in one transaction.
func (s *OrderService) PlaceOrder(ctx context.Context, actor domain.Actor, productID int64, quantity int, paymentType string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.PlaceOrder", trace.WithAttributes(
		attribute.Int64("product.id", productID),
		attribute.Int("order.quantity", quantity),
	))
	defer span.End()

	if err := requireCustomer(actor); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	pt, err := domain.ParsePaymentType(paymentType)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		CustomerID:  actor.UserID,
		ProductID:   productID,
		Quantity:    quantity,
		PaymentType: pt,
		Status:      domain.StatusWaiting,
		CreatedAt:   s.now(),
	}
	var product *domain.Product
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		product, err = tx.DecrementStock(ctx, productID, quantity)
		if err != nil {
			return err
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return appendEvent(ctx, tx, domain.EventOrderPlaced, product.SellerID, order.ID, orderPayload(order))
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "order placed",
		"order_id", order.ID, "product_id", productID, "quantity", quantity, "stock_left", product.Stock)
	s.notify(ctx, product.SellerID)
	return order, nil
}

// OrderCustomDesign turns a design into a zero-priced product and an order for one unit of it.
func (s *OrderService) OrderCustomDesign(ctx context.Context, actor domain.Actor, designID int64, paymentType string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.OrderCustomDesign", trace.WithAttributes(
		attribute.Int64("design.id", designID),
	))
	defer span.End()

	if err := requireCustomer(actor); err != nil {
		return nil, err
	}
	pt, err := domain.ParsePaymentType(paymentType)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var order *domain.Order
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		design, err := tx.GetDesign(ctx, designID)
		if err != nil {
			return err
		}
		product := &domain.Product{
			Name:      domain.CustomProductPrefix + design.Name,
			Price:     decimal.Zero,
			Stock:     0,
			SellerID:  s.sellerID,
			CreatedAt: now,
		}
		if err := tx.CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("create custom product: %w", err)
		}
		order = &domain.Order{
			CustomerID:  actor.UserID,
			ProductID:   product.ID,
			Quantity:    1,
			PaymentType: pt,
			Status:      domain.StatusWaiting,
			CreatedAt:   now,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("create custom order: %w", err)
		}
		payload := orderPayload(order)
		payload["design_id"] = design.ID
		return appendEvent(ctx, tx, domain.EventOrderPlaced, s.sellerID, order.ID, payload)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "custom bracelet order placed", "order_id", order.ID, "design_id", designID)
	s.notify(ctx, s.sellerID)
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, actor domain.Actor, orderID int64) (*domain.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeParty(actor, order, s.sellerID); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders lists the caller's own orders, or every order on the seller's products for the seller.
func (s *OrderService) ListOrders(ctx context.Context, actor domain.Actor, q OrderQuery) (*Page[*domain.Order], error) {
	page, limit, offset := pageBounds(q.Page)
	filter := store.OrderFilter{
		Search: strings.TrimSpace(q.Search),
		SortBy: store.OrderSort(q.SortBy),
		Desc:   isDesc(q.SortDir),
		Limit:  limit,
		Offset: offset,
	}
	if filter.SortBy != store.OrderSortDeliveredAt {
		filter.SortBy = store.OrderSortCreatedAt
	}
	if q.Status != "" {
		st, err := domain.ParseOrderStatus(q.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = st
	}
	switch q.Cancelled {
	case "yes":
		v := true
		filter.Cancelled = &v
	case "no":
		v := false
		filter.Cancelled = &v
	}

	switch {
	case actor.IsSeller():
		if err := requireSeller(actor, s.sellerID); err != nil {
			return nil, err
		}
		filter.SellerID = s.sellerID
	case actor.IsCustomer():
		filter.CustomerID = actor.UserID
	default:
		return nil, domain.ErrForbidden
	}

	items, total, err := s.store.ListOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &Page[*domain.Order]{Items: items, Total: total, Page: page, PageSize: limit}, nil
}

func orderPayload(o *domain.Order) map[string]any {
	return map[string]any{
		"order_id":     o.ID,
		"customer_id":  o.CustomerID,
		"product_id":   o.ProductID,
		"quantity":     o.Quantity,
		"payment_type": o.PaymentType,
		"status":       o.Status,
		"done":         o.Done,
		"cancelled":    o.Cancelled,
		"created_at":   o.CreatedAt,
	}
}
