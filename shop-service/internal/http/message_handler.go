package http

import (
	"context"
	"iter"
	"net/http"
	"time"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/service"
)

type Messages interface {
	PostMessage(ctx context.Context, actor domain.Actor, orderID int64, in service.NewMessage) (*domain.OrderMessage, error)
	Messages(ctx context.Context, actor domain.Actor, orderID int64) (iter.Seq2[*domain.OrderMessage, error], error)
}

type MessageHandler struct {
	messages Messages
	timeout  time.Duration
}

func NewMessageHandler(messages Messages, timeout time.Duration) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		timeout:  timeout,
	}
}

type PostMessageRequestDTO struct {
	Text     string `json:"text"`
	ImageURL string `json:"image_url"`
}

// GET /api/v1/orders/{order_id}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
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

	thread, err := h.messages.Messages(ctx, actor, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	msgs := make([]*domain.OrderMessage, 0)
	for m, err := range thread {
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		msgs = append(msgs, m)
	}

	respondJSON(w, http.StatusOK, msgs)
}

// POST /api/v1/orders/{order_id}/messages
func (h *MessageHandler) Post(w http.ResponseWriter, r *http.Request) {
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

	var req PostMessageRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.messages.PostMessage(ctx, actor, id, service.NewMessage{
		Text:     req.Text,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, msg)
}
