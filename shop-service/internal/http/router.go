package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Products  *ProductHandler
	Orders    *OrdersHandler
	Messages  *MessageHandler
	Designs   *DesignHandler
	Dashboard *DashboardHandler
}

type RouterConfig struct {
	SellerUserID       int64
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

func NewRouter(h Handlers, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.SellerUserID))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Post("/", h.Products.Create)
			r.Get("/{product_id}", h.Products.Get)
			r.Put("/{product_id}/stock", h.Products.AdjustStock)
			r.Post("/{product_id}/orders", h.Products.PlaceOrder)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.Orders.ListOrders)
			r.Get("/{order_id}", h.Orders.GetOrder)
			r.Post("/{order_id}/cancel", h.Orders.CancelOrder)
			r.Put("/{order_id}/status", h.Orders.UpdateStatus)
			r.Post("/{order_id}/complete", h.Orders.Complete)
			r.Get("/{order_id}/messages", h.Messages.List)
			r.Post("/{order_id}/messages", h.Messages.Post)
		})

		r.Route("/designs", func(r chi.Router) {
			r.Get("/", h.Designs.List)
			r.Post("/", h.Designs.Create)
			r.Get("/public", h.Designs.ListPublic)
			r.Get("/{design_id}", h.Designs.Get)
			r.Delete("/{design_id}", h.Designs.Delete)
			r.Post("/{design_id}/orders", h.Designs.Order)
		})

		r.Get("/dashboard", h.Dashboard.Get)
	})

	return r
}
