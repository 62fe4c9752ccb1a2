package service

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

// CancelOrder cancels the order and puts its quantity back in stock.
// A failed stock restore does not undo the cancellation; it is reported
// through CancelResult.StockRestored.
func (s *OrderService) CancelOrder(ctx context.Context, actor domain.Actor, orderID int64, reason string) (*domain.CancelResult, error) {
	ctx, span := tracer.Start(ctx, "OrderService.CancelOrder", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
	))
	defer span.End()

	reason = strings.TrimSpace(reason)
	var result *domain.CancelResult
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := authorizeParty(actor, order, s.sellerID); err != nil {
			return err
		}
		switch {
		case order.Cancelled:
			return domain.ErrAlreadyCancelled
		case order.Done:
			return domain.ErrAlreadyCompleted
		case reason == "":
			return domain.ErrMissingReason
		}

		order.Cancelled = true
		order.CancelReason = reason

		restored := true
		restoreErr := tx.Savepoint(ctx, func(q store.Queries) error {
			_, err := q.IncrementStock(ctx, order.ProductID, order.Quantity)
			return err
		})
		if restoreErr != nil {
			restored = false
			s.logger.WarnContext(ctx, "order cancelled but stock was not restored",
				"order_id", order.ID, "product_id", order.ProductID, "error", restoreErr)
		}

		if err := tx.UpdateOrder(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		payload := orderPayload(order)
		payload["cancel_reason"] = reason
		payload["cancelled_by"] = string(actor.Role)
		payload["stock_restored"] = restored
		if err := appendEvent(ctx, tx, domain.EventOrderCancelled, s.sellerID, order.ID, payload); err != nil {
			return err
		}

		result = &domain.CancelResult{Order: order, Cancelled: true, StockRestored: restored}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "order cancelled",
		"order_id", orderID, "role", actor.Role, "stock_restored", result.StockRestored)
	s.notify(ctx, s.sellerID)
	return result, nil
}
