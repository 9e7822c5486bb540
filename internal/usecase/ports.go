package usecase

import (
	"context"
	"errors"

	domain "github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/entity"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrDuplicate     = errors.New("duplicate idempotency key")
	// ErrStatusConflict marks a gateway outcome that disagrees with an
	// already-recorded terminal status. The stored status is preserved.
	ErrStatusConflict = errors.New("conflicting terminal status")
	// ErrTransactionNotFound means the gateway has no record of the
	// reference yet. Benign: checkout may never have reached the hosted page.
	ErrTransactionNotFound = errors.New("transaction not found on gateway")
)

type OrderRepo interface {
	// CreateWithItems persists the order and its line items in one
	// transaction; either everything lands or nothing does.
	CreateWithItems(ctx context.Context, o *domain.Order, items []domain.OrderItem) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ItemsByOrder(ctx context.Context, orderID string) ([]domain.OrderItem, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error)
	// UpdateStatusIf is a compare-and-set on the status column; false means
	// the current status no longer matches `from`.
	UpdateStatusIf(ctx context.Context, id string, from, to domain.Status) (bool, error)
}

type CartRepo interface {
	ItemsForUser(ctx context.Context, userID string) ([]domain.CartItem, error)
	Clear(ctx context.Context, userID string) error
}

type InitializePayment struct {
	Email     string
	Amount    domain.Money
	Reference string
}

type PaymentSession struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// GatewayTransaction is the gateway's view of a transaction, fetched live
// and never persisted locally.
type GatewayTransaction struct {
	Reference   string
	Status      string // success | failed | abandoned | anything else
	AmountCents int64
	Currency    string
}

type PaymentGateway interface {
	Initialize(ctx context.Context, in InitializePayment) (*PaymentSession, error)
	Verify(ctx context.Context, reference string) (*GatewayTransaction, error)
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	// Unlock releases a lock whose attempt failed before anything was
	// remembered, so the buyer's retry is not stuck behind the TTL.
	Unlock(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

type OrderCache interface {
	SetStatus(ctx context.Context, orderID string, status string) error
	GetStatus(ctx context.Context, orderID string) (string, bool, error)
}

type CreatedPublisher interface {
	PublishCreated(ctx context.Context, msg CreatedMsg) error
}

type StatusPublisher interface {
	PublishStatusChanged(ctx context.Context, msg StatusChangedMsg) error
}
