package usecase

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/entity"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/logging"
)

type ReconcileResult struct {
	OrderID string
	Status  domain.Status
	// GatewayPending is set when the gateway has never seen the reference,
	// e.g. the buyer abandoned checkout before the hosted page loaded.
	GatewayPending bool
	// Conflict is set when the gateway reported an outcome that disagrees
	// with an already-recorded terminal status; the recorded one stands.
	Conflict bool
}

// Reconciler is the pull-side fallback for lost or delayed webhooks: it asks
// the gateway directly and feeds the answer into the same transition rule
// the webhook uses. Safe to call arbitrarily often, concurrently with
// webhook delivery.
type Reconciler struct {
	orders     OrderRepo
	gateway    PaymentGateway
	transition *PaymentTransition
}

func NewReconciler(orders OrderRepo, gateway PaymentGateway, transition *PaymentTransition) *Reconciler {
	return &Reconciler{orders: orders, gateway: gateway, transition: transition}
}

func (r *Reconciler) Reconcile(ctx context.Context, orderID string) (ReconcileResult, error) {
	order, err := r.orders.GetByID(ctx, orderID)
	if err != nil {
		return ReconcileResult{}, err
	}

	tx, err := r.gateway.Verify(ctx, orderID)
	if errors.Is(err, ErrTransactionNotFound) {
		return ReconcileResult{OrderID: orderID, Status: order.Status, GatewayPending: true}, nil
	}
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("verify order %s with gateway: %w", orderID, err)
	}

	if tx.AmountCents != order.Amount.Cents {
		logging.FromCtx(ctx).Warn("gateway amount differs from order total",
			"order_id", orderID, "order_cents", order.Amount.Cents, "gateway_cents", tx.AmountCents)
	}

	status, err := r.transition.Apply(ctx, orderID, tx.Status, "reconcile")
	if errors.Is(err, ErrStatusConflict) {
		return ReconcileResult{OrderID: orderID, Status: status, Conflict: true}, nil
	}
	if err != nil {
		return ReconcileResult{}, err
	}
	return ReconcileResult{OrderID: orderID, Status: status}, nil
}
