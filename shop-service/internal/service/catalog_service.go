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

// CatalogService owns products and their stock levels.
type CatalogService struct {
	deps
	store    store.Store
	sellerID int64
}

func NewCatalogService(st store.Store, sellerID int64, opts ...Option) *CatalogService {
	return &CatalogService{
		deps:     newDeps(opts),
		store:    st,
		sellerID: sellerID,
	}
}

type NewProduct struct {
	Name  string          `validate:"required,max=100"`
	Price decimal.Decimal `validate:"-"`
	Stock int             `validate:"gte=0"`
}

type ProductQuery struct {
	Search  string
	SortBy  string
	SortDir string
	Page    int
}

func (s *CatalogService) CreateProduct(ctx context.Context, actor domain.Actor, in NewProduct) (*domain.Product, error) {
	if err := requireSeller(actor, s.sellerID); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	}

	product := &domain.Product{
		Name:      in.Name,
		Price:     in.Price.Round(2),
		Stock:     in.Stock,
		SellerID:  actor.UserID,
		CreatedAt: s.now(),
	}
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		return appendEvent(ctx, tx, domain.EventProductCreated, product.SellerID, product.ID, map[string]any{
			"product_id": product.ID,
			"name":       product.Name,
			"price":      product.Price,
			"stock":      product.Stock,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "product created", "product_id", product.ID, "name", product.Name)
	s.notify(ctx, product.SellerID)
	return product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.store.GetProduct(ctx, id)
}

// ListProducts lists the seller's own products for the seller and the whole catalog for customers.
func (s *CatalogService) ListProducts(ctx context.Context, actor domain.Actor, q ProductQuery) (*Page[*domain.Product], error) {
	page, limit, offset := pageBounds(q.Page)
	filter := store.ProductFilter{
		Search: strings.TrimSpace(q.Search),
		SortBy: store.ProductSort(q.SortBy),
		Desc:   isDesc(q.SortDir),
		Limit:  limit,
		Offset: offset,
	}
	switch filter.SortBy {
	case store.ProductSortPrice, store.ProductSortStock, store.ProductSortCreatedAt:
	default:
		filter.SortBy = store.ProductSortCreatedAt
	}
	if actor.IsSeller() {
		filter.SellerID = actor.UserID
	}

	items, total, err := s.store.ListProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &Page[*domain.Product]{Items: items, Total: total, Page: page, PageSize: limit}, nil
}

// AdjustStock overwrites a product's stock, clamping negative values to zero.
func (s *CatalogService) AdjustStock(ctx context.Context, actor domain.Actor, productID int64, newStock int) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.AdjustStock", trace.WithAttributes(
		attribute.Int64("product.id", productID),
		attribute.Int("stock.new", newStock),
	))
	defer span.End()

	if !actor.IsSeller() {
		return nil, domain.ErrForbidden
	}
	if newStock < 0 {
		newStock = 0
	}

	var updated *domain.Product
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		product, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		if product.SellerID != actor.UserID {
			return domain.ErrNotOwner
		}
		updated, err = tx.SetStock(ctx, productID, newStock)
		if err != nil {
			return fmt.Errorf("set stock: %w", err)
		}
		return appendEvent(ctx, tx, domain.EventProductStockAdjusted, product.SellerID, product.ID, map[string]any{
			"product_id": product.ID,
			"old_stock":  product.Stock,
			"new_stock":  updated.Stock,
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "stock updated", "product_id", updated.ID, "stock", updated.Stock)
	s.notify(ctx, updated.SellerID)
	return updated, nil
}
