package service

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/google/uuid"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

const messagePageSize = 50

// MessageService is the per-order message thread between customer and seller.
type MessageService struct {
	deps
	orders   store.Queries
	log      store.MessageLog
	sellerID int64
	pageSize int
}

func NewMessageService(orders store.Queries, log store.MessageLog, sellerID int64, opts ...Option) *MessageService {
	d := newDeps(opts)
	pageSize := messagePageSize
	if d.pageSize > 0 {
		pageSize = d.pageSize
	}
	return &MessageService{
		deps:     d,
		orders:   orders,
		log:      log,
		sellerID: sellerID,
		pageSize: pageSize,
	}
}

type NewMessage struct {
	Text     string `validate:"max=5000"`
	ImageURL string `validate:"omitempty,max=500"`
}

func (s *MessageService) PostMessage(ctx context.Context, actor domain.Actor, orderID int64, in NewMessage) (*domain.OrderMessage, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeParty(actor, order, s.sellerID); err != nil {
		return nil, err
	}
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Text) == "" && in.ImageURL == "" {
		s.logger.DebugContext(ctx, "empty message posted", "order_id", orderID, "sender_id", actor.UserID)
	}

	msg := &domain.OrderMessage{
		ID:        uuid.New(),
		OrderID:   order.ID,
		SenderID:  actor.UserID,
		Text:      in.Text,
		ImageURL:  in.ImageURL,
		CreatedAt: s.now(),
	}
	if err := s.log.AppendMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	s.logger.InfoContext(ctx, "message posted", "order_id", orderID, "message_id", msg.ID)
	return msg, nil
}

// Messages returns the order's thread oldest first. The sequence reads the
// log page by page as it is consumed and starts over on every range.
func (s *MessageService) Messages(ctx context.Context, actor domain.Actor, orderID int64) (iter.Seq2[*domain.OrderMessage, error], error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeParty(actor, order, s.sellerID); err != nil {
		return nil, err
	}

	return func(yield func(*domain.OrderMessage, error) bool) {
		var cursor *domain.MessageCursor
		for {
			page, err := s.log.ListMessages(ctx, orderID, cursor, s.pageSize)
			if err != nil {
				yield(nil, fmt.Errorf("list messages: %w", err))
				return
			}
			for _, m := range page {
				if !yield(m, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
			c := page[len(page)-1].Cursor()
			cursor = &c
		}
	}, nil
}
