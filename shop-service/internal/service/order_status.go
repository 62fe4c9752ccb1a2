package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

// UpdateStatus moves the order to newStatus if the transition table allows it.
func (s *OrderService) UpdateStatus(ctx context.Context, actor domain.Actor, orderID int64, newStatus string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("order.status", newStatus),
	))
	defer span.End()

	if err := requireSeller(actor, s.sellerID); err != nil {
		return nil, err
	}
	status, err := domain.ParseOrderStatus(newStatus)
	if err != nil {
		return nil, err
	}

	var order *domain.Order
	var previous domain.OrderStatus
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		order, err = tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if s.freezeCompleted && order.Done {
			return domain.ErrAlreadyCompleted
		}
		if !s.transitions.CanTransition(order.Status, status) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, order.Status, status)
		}

		previous = order.Status
		order.Status = status
		if err := tx.UpdateOrder(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		payload := orderPayload(order)
		payload["previous_status"] = previous
		return appendEvent(ctx, tx, domain.EventOrderStatusChanged, s.sellerID, order.ID, payload)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "order status updated", "order_id", orderID, "from", previous, "to", status)
	s.notify(ctx, s.sellerID)
	return order, nil
}

// MarkDelivered completes a delivered order. Completed orders count towards earnings.
func (s *OrderService) MarkDelivered(ctx context.Context, actor domain.Actor, orderID int64) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.MarkDelivered", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
	))
	defer span.End()

	if err := requireSeller(actor, s.sellerID); err != nil {
		return nil, err
	}

	var order *domain.Order
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		order, err = tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Done {
			return domain.ErrAlreadyCompleted
		}
		if order.Cancelled || order.Status != domain.StatusDelivered {
			return domain.ErrNotDeliverable
		}

		now := s.now()
		order.Done = true
		order.DeliveredAt = &now
		if err := tx.UpdateOrder(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		payload := orderPayload(order)
		payload["delivered_at"] = now
		return appendEvent(ctx, tx, domain.EventOrderCompleted, s.sellerID, order.ID, payload)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "order completed", "order_id", orderID)
	s.notify(ctx, s.sellerID)
	return order, nil
}
