package usecase

import (
	"context"
	"fmt"

	domain "github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/entity"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/logging"
)

// Fulfillment covers the staff-driven side of the order lifecycle. These
// moves are deliberately outside the payment transition rule: shipping an
// order is an explicit human action, not a gateway notification.
type Fulfillment struct {
	orders OrderRepo
	events StatusPublisher // optional
}

func NewFulfillment(orders OrderRepo, events StatusPublisher) *Fulfillment {
	return &Fulfillment{orders: orders, events: events}
}

// MarkShipped moves a paid order into fulfillment. Only PROCESSING orders
// can ship.
func (f *Fulfillment) MarkShipped(ctx context.Context, orderID string) (domain.Status, error) {
	return f.move(ctx, orderID, domain.StatusProcessing, domain.StatusShipped)
}

// MarkDelivered closes out a shipped order.
func (f *Fulfillment) MarkDelivered(ctx context.Context, orderID string) (domain.Status, error) {
	return f.move(ctx, orderID, domain.StatusShipped, domain.StatusDelivered)
}

func (f *Fulfillment) move(ctx context.Context, orderID string, from, to domain.Status) (domain.Status, error) {
	order, err := f.orders.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order.Status == to {
		return to, nil
	}
	if order.Status != from {
		return order.Status, fmt.Errorf("order %s is %s, cannot move to %s: %w",
			orderID, order.Status, to, ErrStatusConflict)
	}

	applied, err := f.orders.UpdateStatusIf(ctx, orderID, from, to)
	if err != nil {
		return order.Status, fmt.Errorf("update %s -> %s: %w", from, to, err)
	}
	if !applied {
		// Raced with another staff action; report whatever stuck.
		order, err = f.orders.GetByID(ctx, orderID)
		if err != nil {
			return "", err
		}
		return order.Status, fmt.Errorf("order %s moved concurrently: %w", orderID, ErrStatusConflict)
	}

	f.publish(ctx, order, from, to)
	return to, nil
}

// Cancel is the explicit administrative cancel, allowed at any point before
// fulfillment. Shipped or delivered orders cannot be cancelled.
func (f *Fulfillment) Cancel(ctx context.Context, orderID string) (domain.Status, error) {
	for {
		order, err := f.orders.GetByID(ctx, orderID)
		if err != nil {
			return "", err
		}
		if order.Status == domain.StatusCancelled {
			return domain.StatusCancelled, nil
		}
		if order.Status.Fulfillment() {
			return order.Status, fmt.Errorf("order %s already %s: %w",
				orderID, order.Status, ErrStatusConflict)
		}

		applied, err := f.orders.UpdateStatusIf(ctx, orderID, order.Status, domain.StatusCancelled)
		if err != nil {
			return order.Status, fmt.Errorf("cancel order %s: %w", orderID, err)
		}
		if applied {
			f.publish(ctx, order, order.Status, domain.StatusCancelled)
			return domain.StatusCancelled, nil
		}
		// Status changed underneath us (webhook or reconciler landed);
		// re-read and decide again.
	}
}

func (f *Fulfillment) publish(ctx context.Context, order *domain.Order, from, to domain.Status) {
	if f.events == nil {
		return
	}
	msg := StatusChangedMsg{
		OrderID: order.ID,
		UserID:  order.UserID,
		From:    string(from),
		To:      string(to),
		Source:  "admin",
	}
	if err := f.events.PublishStatusChanged(ctx, msg); err != nil {
		logging.FromCtx(ctx).Warn("status event publish failed", "order_id", order.ID, "error", err)
	}
}
