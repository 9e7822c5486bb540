package usecase

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	domain "github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/entity"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/logging"
)

var (
	statusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Effective order status transitions applied by the payment rule",
		},
		[]string{"from", "to"},
	)

	statusConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "order_status_conflicts_total",
			Help: "Gateway outcomes rejected because they disagree with a recorded terminal status",
		},
	)
)

// Gateway-reported transaction statuses this service understands. Anything
// else is deliberately a no-op: never transition on unrecognized input.
const (
	GatewaySuccess   = "success"
	GatewayFailed    = "failed"
	GatewayAbandoned = "abandoned"
)

// MapGatewayStatus translates a gateway transaction status into the local
// order status it implies. ok is false for unrecognized statuses.
func MapGatewayStatus(gatewayStatus string) (domain.Status, bool) {
	switch gatewayStatus {
	case GatewaySuccess:
		return domain.StatusProcessing, true
	case GatewayFailed:
		return domain.StatusFailed, true
	case GatewayAbandoned:
		return domain.StatusCancelled, true
	default:
		return "", false
	}
}

// PaymentTransition is the one place order status moves in response to the
// payment gateway. The webhook receiver and the status reconciler are both
// thin adapters over Apply; no other code path writes payment state.
type PaymentTransition struct {
	repo   OrderRepo
	cache  OrderCache      // optional
	events StatusPublisher // optional
}

func NewPaymentTransition(repo OrderRepo, cache OrderCache, events StatusPublisher) *PaymentTransition {
	return &PaymentTransition{repo: repo, cache: cache, events: events}
}

// Apply feeds a gateway-reported status into the order state machine and
// returns the resulting local status.
//
//   - unrecognized gateway status: no-op, current status returned
//   - same mapped status as stored: no-op (idempotent redelivery)
//   - stored PENDING: compare-and-set to the mapped status; a CAS miss means
//     a concurrent caller won, so re-read and re-evaluate
//   - stored terminal status differing from the mapped one: conflict. The
//     stored status is kept, the anomaly is logged and counted, and
//     ErrStatusConflict is returned alongside the preserved status
func (t *PaymentTransition) Apply(ctx context.Context, orderID, gatewayStatus, source string) (domain.Status, error) {
	l := logging.FromCtx(ctx).With("order_id", orderID, "gateway_status", gatewayStatus, "source", source)

	order, err := t.repo.GetByID(ctx, orderID)
	if err != nil {
		return "", fmt.Errorf("load order %s: %w", orderID, err)
	}

	target, ok := MapGatewayStatus(gatewayStatus)
	if !ok {
		l.Info("unrecognized gateway status, no transition")
		return order.Status, nil
	}

	// Two passes at most: a CAS miss reloads a status that is no longer
	// PENDING, so the second pass resolves without another write attempt.
	for {
		current := order.Status

		switch {
		case current == target:
			// Redelivery of an outcome already recorded.
			return current, nil

		case current == domain.StatusPending:
			applied, err := t.repo.UpdateStatusIf(ctx, orderID, domain.StatusPending, target)
			if err != nil {
				return current, fmt.Errorf("transition %s -> %s: %w", current, target, err)
			}
			if applied {
				t.effect(ctx, order, current, target, source)
				l.Info("order status transitioned", "from", current, "to", target)
				return target, nil
			}
			// Raced with the other entry point; see what landed.
			order, err = t.repo.GetByID(ctx, orderID)
			if err != nil {
				return current, fmt.Errorf("reload order %s: %w", orderID, err)
			}
			continue

		case current.Fulfillment() && target == domain.StatusProcessing:
			// A late success notification for an order staff already moved
			// on to shipping. Payment was necessarily confirmed before.
			return current, nil

		default:
			statusConflicts.Inc()
			l.Error("gateway outcome conflicts with recorded status",
				"recorded", current, "reported", target)
			return current, fmt.Errorf("order %s is %s, gateway reported %s: %w",
				orderID, current, target, ErrStatusConflict)
		}
	}
}

func (t *PaymentTransition) effect(ctx context.Context, order *domain.Order, from, to domain.Status, source string) {
	statusTransitions.WithLabelValues(string(from), string(to)).Inc()

	if t.cache != nil {
		if err := t.cache.SetStatus(ctx, order.ID, string(to)); err != nil {
			logging.FromCtx(ctx).Warn("status cache update failed", "order_id", order.ID, "error", err)
		}
	}
	if t.events != nil {
		msg := StatusChangedMsg{
			OrderID: order.ID,
			UserID:  order.UserID,
			From:    string(from),
			To:      string(to),
			Source:  source,
		}
		if err := t.events.PublishStatusChanged(ctx, msg); err != nil {
			logging.FromCtx(ctx).Warn("status event publish failed", "order_id", order.ID, "error", err)
		}
	}
}
