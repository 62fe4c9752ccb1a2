package http

import (
	"context"
	"net/http"
	"time"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/service"
)

type Orders interface {
	PlaceOrder(ctx context.Context, actor domain.Actor, productID int64, quantity int, paymentType string) (*domain.Order, error)
	OrderCustomDesign(ctx context.Context, actor domain.Actor, designID int64, paymentType string) (*domain.Order, error)
	GetOrder(ctx context.Context, actor domain.Actor, orderID int64) (*domain.Order, error)
	ListOrders(ctx context.Context, actor domain.Actor, q service.OrderQuery) (*service.Page[*domain.Order], error)
	CancelOrder(ctx context.Context, actor domain.Actor, orderID int64, reason string) (*domain.CancelResult, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, orderID int64, newStatus string) (*domain.Order, error)
	MarkDelivered(ctx context.Context, actor domain.Actor, orderID int64) (*domain.Order, error)
}

// OrderDetailer loads the product and design shown with an order.
type OrderDetailer interface {
	Details(ctx context.Context, order *domain.Order) (*service.OrderDetails, error)
}

type OrdersHandler struct {
	orders  Orders
	details OrderDetailer
	timeout time.Duration
}

func NewOrdersHandler(orders Orders, details OrderDetailer, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		details: details,
		timeout: timeout,
	}
}

type OrderResponseDTO struct {
	*domain.Order
	StatusLabel  string `json:"status_label"`
	PaymentLabel string `json:"payment_label"`
}

type OrderDetailsResponseDTO struct {
	Order      OrderResponseDTO             `json:"order"`
	Product    *domain.Product              `json:"product,omitempty"`
	Design     *domain.CustomBraceletDesign `json:"design,omitempty"`
	DesignText []string                     `json:"design_text,omitempty"`
}

type CancelOrderRequestDTO struct {
	Reason string `json:"reason"`
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

type CancelOrderResponseDTO struct {
	Order         OrderResponseDTO `json:"order"`
	Cancelled     bool             `json:"cancelled"`
	StockRestored bool             `json:"stock_restored"`
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	return OrderResponseDTO{
		Order:        o,
		StatusLabel:  o.Status.Label(),
		PaymentLabel: o.PaymentType.Label(),
	}
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, err := h.orders.ListOrders(ctx, actor, service.OrderQuery{
		Status:    q.Get("status"),
		Cancelled: q.Get("cancelled"),
		Search:    q.Get("q"),
		SortBy:    q.Get("sort"),
		SortDir:   q.Get("dir"),
		Page:      queryPage(r),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, pageResponse(page, convertOrder))
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, actor, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	details, err := h.details.Details(ctx, order)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, OrderDetailsResponseDTO{
		Order:      convertOrder(details.Order),
		Product:    details.Product,
		Design:     details.Design,
		DesignText: details.DesignText,
	})
}

// POST /api/v1/orders/{order_id}/cancel
func (h *OrdersHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}

	var req CancelOrderRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.orders.CancelOrder(ctx, actor, id, req.Reason)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, CancelOrderResponseDTO{
		Order:         convertOrder(res.Order),
		Cancelled:     res.Cancelled,
		StockRestored: res.StockRestored,
	})
}

// PUT /api/v1/orders/{order_id}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}

	var req UpdateStatusRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.UpdateStatus(ctx, actor, id, req.Status)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

// POST /api/v1/orders/{order_id}/complete
func (h *OrdersHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}

	order, err := h.orders.MarkDelivered(ctx, actor, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}
