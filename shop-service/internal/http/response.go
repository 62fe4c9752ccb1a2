package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps the domain error kinds onto HTTP status codes.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch domain.KindOf(err) {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindStateConflict:
		status = http.StatusConflict
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindAuthorization:
		status = http.StatusForbidden
	default:
		if errors.Is(err, context.DeadlineExceeded) {
			respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
			return
		}
		slog.ErrorContext(r.Context(), "request failed",
			slog.String("request_id", getRequestID(r.Context())),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, status, ErrorResponse{
		Error: err.Error(),
		Code:  domain.KindOf(err).String(),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		respondError(w, http.StatusBadRequest, "missing_"+name, name+" is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func queryPage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return page
}

// requireActor writes 401 and returns false when the request carries no identity.
func requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
	}
	return actor, ok
}
