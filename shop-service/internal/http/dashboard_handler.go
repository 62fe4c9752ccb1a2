package http

import (
	"context"
	"net/http"
	"time"

	"github.com/mcadelacruz/braceurself/shop-service/internal/analytics"
	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
)

type Dashboard interface {
	ComputeDashboard(ctx context.Context, actor domain.Actor, asOf time.Time) (*analytics.DashboardReport, error)
}

type DashboardHandler struct {
	dashboard Dashboard
	now       func() time.Time
	timeout   time.Duration
}

func NewDashboardHandler(dashboard Dashboard, timeout time.Duration) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		now:       func() time.Time { return time.Now().UTC() },
		timeout:   timeout,
	}
}

// GET /api/v1/dashboard?as_of=RFC3339
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	asOf := h.now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_as_of", "as_of must be an RFC3339 timestamp")
			return
		}
		asOf = t
	}

	report, err := h.dashboard.ComputeDashboard(ctx, actor, asOf)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}
