package http

import (
	"context"
	"net/http"
	"time"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/service"
)

type Designs interface {
	CreateDesign(ctx context.Context, actor domain.Actor, in service.NewDesign) (*domain.CustomBraceletDesign, error)
	GetDesign(ctx context.Context, id int64) (*domain.CustomBraceletDesign, error)
	ListDesigns(ctx context.Context, actor domain.Actor) ([]*domain.CustomBraceletDesign, error)
	ListPublicDesigns(ctx context.Context, actor domain.Actor) ([]*domain.CustomBraceletDesign, error)
	DeleteDesign(ctx context.Context, actor domain.Actor, id int64) error
}

type DesignHandler struct {
	designs Designs
	orders  Orders
	timeout time.Duration
}

func NewDesignHandler(designs Designs, orders Orders, timeout time.Duration) *DesignHandler {
	return &DesignHandler{
		designs: designs,
		orders:  orders,
		timeout: timeout,
	}
}

type CreateDesignRequestDTO struct {
	Name  string        `json:"name"`
	Beads []domain.Bead `json:"beads"`
}

type OrderDesignRequestDTO struct {
	PaymentType string `json:"payment_type"`
}

type DesignResponseDTO struct {
	*domain.CustomBraceletDesign
	Text []string `json:"text"`
}

func convertDesign(d *domain.CustomBraceletDesign) DesignResponseDTO {
	return DesignResponseDTO{
		CustomBraceletDesign: d,
		Text:                 service.RenderDesignText(d),
	}
}

func convertDesigns(ds []*domain.CustomBraceletDesign) []DesignResponseDTO {
	out := make([]DesignResponseDTO, 0, len(ds))
	for _, d := range ds {
		out = append(out, convertDesign(d))
	}
	return out
}

// GET /api/v1/designs
func (h *DesignHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	designs, err := h.designs.ListDesigns(ctx, actor)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, convertDesigns(designs))
}

// GET /api/v1/designs/public
func (h *DesignHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	designs, err := h.designs.ListPublicDesigns(ctx, actor)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, convertDesigns(designs))
}

// POST /api/v1/designs
func (h *DesignHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req CreateDesignRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	design, err := h.designs.CreateDesign(ctx, actor, service.NewDesign{
		Name:  req.Name,
		Beads: req.Beads,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertDesign(design))
}

// GET /api/v1/designs/{design_id}
func (h *DesignHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, ok := requireActor(w, r); !ok {
		return
	}
	id, ok := pathID(w, r, "design_id")
	if !ok {
		return
	}

	design, err := h.designs.GetDesign(ctx, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, convertDesign(design))
}

// DELETE /api/v1/designs/{design_id}
func (h *DesignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "design_id")
	if !ok {
		return
	}

	if err := h.designs.DeleteDesign(ctx, actor, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/designs/{design_id}/orders
func (h *DesignHandler) Order(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "design_id")
	if !ok {
		return
	}

	var req OrderDesignRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.OrderCustomDesign(ctx, actor, id, req.PaymentType)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertOrder(order))
}
