package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/service"
)

type Catalog interface {
	CreateProduct(ctx context.Context, actor domain.Actor, in service.NewProduct) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, actor domain.Actor, q service.ProductQuery) (*service.Page[*domain.Product], error)
	AdjustStock(ctx context.Context, actor domain.Actor, productID int64, newStock int) (*domain.Product, error)
}

type ProductHandler struct {
	catalog Catalog
	orders  Orders
	timeout time.Duration
}

func NewProductHandler(catalog Catalog, orders Orders, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		orders:  orders,
		timeout: timeout,
	}
}

type CreateProductRequestDTO struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

type AdjustStockRequestDTO struct {
	Stock *int `json:"stock"`
}

type PlaceOrderRequestDTO struct {
	Quantity    int    `json:"quantity"`
	PaymentType string `json:"payment_type"`
}

type PageResponseDTO[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Pages    int `json:"pages"`
}

func pageResponse[T, D any](p *service.Page[T], convert func(T) D) PageResponseDTO[D] {
	items := make([]D, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, convert(it))
	}
	return PageResponseDTO[D]{
		Items:    items,
		Total:    p.Total,
		Page:     p.Page,
		PageSize: p.PageSize,
		Pages:    p.Pages(),
	}
}

func identity[T any](v T) T { return v }

// GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, err := h.catalog.ListProducts(ctx, actor, service.ProductQuery{
		Search:  q.Get("q"),
		SortBy:  q.Get("sort"),
		SortDir: q.Get("dir"),
		Page:    queryPage(r),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, pageResponse(page, identity[*domain.Product]))
}

// POST /api/v1/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req CreateProductRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.catalog.CreateProduct(ctx, actor, service.NewProduct{
		Name:  req.Name,
		Price: req.Price,
		Stock: req.Stock,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

// GET /api/v1/products/{product_id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, ok := requireActor(w, r); !ok {
		return
	}
	id, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// PUT /api/v1/products/{product_id}/stock
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}

	var req AdjustStockRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Stock == nil {
		respondError(w, http.StatusBadRequest, "invalid_stock", "stock is required")
		return
	}

	product, err := h.catalog.AdjustStock(ctx, actor, id, *req.Stock)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// POST /api/v1/products/{product_id}/orders
func (h *ProductHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}

	var req PlaceOrderRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.PlaceOrder(ctx, actor, id, req.Quantity, req.PaymentType)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertOrder(order))
}
