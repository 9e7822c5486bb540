package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/entity"
)

func orderWithStatus(repo *fakeOrderRepo, id string, s domain.Status) {
	repo.put(&domain.Order{ID: id, UserID: "u1", Status: s,
		Amount: domain.Money{Cents: 5000, Currency: "NGN"}})
}

func TestFulfillmentShipDeliver(t *testing.T) {
	repo := newFakeOrderRepo()
	orderWithStatus(repo, "o1", domain.StatusProcessing)
	events := &fakeStatusPublisher{}
	f := NewFulfillment(repo, events)
	ctx := context.Background()

	got, err := f.MarkShipped(ctx, "o1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusShipped, got)

	got, err = f.MarkDelivered(ctx, "o1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusDelivered, got)

	require.Len(t, events.msgs, 2)
	require.Equal(t, "admin", events.msgs[0].Source)
}

func TestFulfillmentShipUnpaidOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	orderWithStatus(repo, "o1", domain.StatusPending)
	f := NewFulfillment(repo, nil)

	got, err := f.MarkShipped(context.Background(), "o1")
	require.ErrorIs(t, err, ErrStatusConflict)
	require.Equal(t, domain.StatusPending, got)
}

func TestFulfillmentCancelPreFulfillment(t *testing.T) {
	for _, s := range []domain.Status{domain.StatusPending, domain.StatusProcessing, domain.StatusFailed} {
		repo := newFakeOrderRepo()
		orderWithStatus(repo, "o1", s)
		f := NewFulfillment(repo, nil)

		got, err := f.Cancel(context.Background(), "o1")
		require.NoError(t, err, "from %s", s)
		require.Equal(t, domain.StatusCancelled, got)
	}
}

func TestFulfillmentCancelShippedOrderRefused(t *testing.T) {
	repo := newFakeOrderRepo()
	orderWithStatus(repo, "o1", domain.StatusShipped)
	f := NewFulfillment(repo, nil)

	got, err := f.Cancel(context.Background(), "o1")
	require.ErrorIs(t, err, ErrStatusConflict)
	require.Equal(t, domain.StatusShipped, got)
}

func TestFulfillmentCancelIsIdempotent(t *testing.T) {
	repo := newFakeOrderRepo()
	orderWithStatus(repo, "o1", domain.StatusCancelled)
	f := NewFulfillment(repo, nil)

	got, err := f.Cancel(context.Background(), "o1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, got)
}
