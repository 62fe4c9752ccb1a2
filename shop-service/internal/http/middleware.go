package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
)

type ctxKey string

const (
	actorKey     ctxKey = "actor"
	requestIDKey ctxKey = "request_id"

	// UserIDHeader carries the caller's user id, set by the auth proxy in front of the service.
	UserIDHeader = "X-User-ID"
)

// AuthMiddleware resolves the caller once per request. The configured
// seller user is the seller; every other user is a customer.
func AuthMiddleware(sellerUserID int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if raw == "" {
				respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
				return
			}
			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || userID <= 0 {
				respondError(w, http.StatusUnauthorized, "unauthorized", "invalid user id")
				return
			}

			actor := domain.Customer(userID)
			if userID == sellerUserID {
				actor = domain.Seller(userID)
			}
			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok && actor.UserID > 0
}

func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
