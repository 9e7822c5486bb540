package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/entity"
)

func reconcilerWith(repo *fakeOrderRepo, gw *fakeGateway) *Reconciler {
	return NewReconciler(repo, gw, NewPaymentTransition(repo, nil, nil))
}

func TestReconcileAppliesGatewayOutcome(t *testing.T) {
	repo := newFakeOrderRepo()
	pendingOrder(repo, "ORD-1")
	gw := newFakeGateway()
	gw.transactions["ORD-1"] = &GatewayTransaction{
		Reference: "ORD-1", Status: GatewaySuccess, AmountCents: 5000, Currency: "NGN",
	}

	res, err := reconcilerWith(repo, gw).Reconcile(context.Background(), "ORD-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusProcessing, res.Status)
	require.False(t, res.GatewayPending)
	require.Equal(t, domain.StatusProcessing, repo.status("ORD-1"))
}

func TestReconcileUnknownReferenceIsBenign(t *testing.T) {
	repo := newFakeOrderRepo()
	pendingOrder(repo, "o1")

	res, err := reconcilerWith(repo, newFakeGateway()).Reconcile(context.Background(), "o1")
	require.NoError(t, err)
	require.True(t, res.GatewayPending)
	require.Equal(t, domain.StatusPending, res.Status)
	require.Equal(t, domain.StatusPending, repo.status("o1"))
}

func TestReconcileMissingOrder(t *testing.T) {
	_, err := reconcilerWith(newFakeOrderRepo(), newFakeGateway()).Reconcile(context.Background(), "nope")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestReconcileGatewayErrorMutatesNothing(t *testing.T) {
	repo := newFakeOrderRepo()
	pendingOrder(repo, "o1")
	gw := newFakeGateway()
	gw.verifyErr = errBoom

	_, err := reconcilerWith(repo, gw).Reconcile(context.Background(), "o1")
	require.Error(t, err)
	require.Equal(t, domain.StatusPending, repo.status("o1"))
}

func TestReconcileReportsConflict(t *testing.T) {
	repo := newFakeOrderRepo()
	pendingOrder(repo, "o1")
	gw := newFakeGateway()
	gw.transactions["o1"] = &GatewayTransaction{Reference: "o1", Status: GatewayFailed, AmountCents: 5000}

	r := reconcilerWith(repo, gw)
	ctx := context.Background()

	// First a webhook settled the order as paid.
	_, err := NewPaymentTransition(repo, nil, nil).Apply(ctx, "o1", GatewaySuccess, "webhook")
	require.NoError(t, err)

	res, err := r.Reconcile(ctx, "o1")
	require.NoError(t, err)
	require.True(t, res.Conflict)
	require.Equal(t, domain.StatusProcessing, res.Status)
	require.Equal(t, domain.StatusProcessing, repo.status("o1"))
}

// The full settlement scenario: pending order, reconciler pulls success,
// then late webhooks replay success and report a contradictory failure.
func TestSettlementScenario(t *testing.T) {
	repo := newFakeOrderRepo()
	pendingOrder(repo, "ORD-1")
	gw := newFakeGateway()
	gw.transactions["ORD-1"] = &GatewayTransaction{
		Reference: "ORD-1", Status: GatewaySuccess, AmountCents: 5000, Currency: "NGN",
	}
	tr := NewPaymentTransition(repo, nil, nil)
	r := NewReconciler(repo, gw, tr)
	ctx := context.Background()

	res, err := r.Reconcile(ctx, "ORD-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusProcessing, res.Status)
	settled := repo.updatedAt("ORD-1")

	// Late webhook with the same outcome: no change, no write.
	got, err := tr.Apply(ctx, "ORD-1", GatewaySuccess, "webhook")
	require.NoError(t, err)
	require.Equal(t, domain.StatusProcessing, got)
	require.Equal(t, settled, repo.updatedAt("ORD-1"))

	// Second late webhook contradicting the outcome: conflict, no change.
	got, err = tr.Apply(ctx, "ORD-1", GatewayFailed, "webhook")
	require.ErrorIs(t, err, ErrStatusConflict)
	require.Equal(t, domain.StatusProcessing, got)
	require.Equal(t, settled, repo.updatedAt("ORD-1"))
}
