package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	domain "github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/entity"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/logging"
)

type CheckoutInput struct {
	UserID         string
	Email          string
	IdempotencyKey string
	Shipping       domain.ShippingAddress
}

type CheckoutOutput struct {
	OrderID          string
	Status           domain.Status
	AuthorizationURL string
}

// Checkout turns the buyer's cart into a pending order and hands back the
// gateway's hosted-payment URL. The order ID is the gateway reference.
type Checkout struct {
	orders   OrderRepo
	carts    CartRepo
	gateway  PaymentGateway
	idem     IdempotencyStore
	events   CreatedPublisher // optional
	currency string
}

func NewCheckout(orders OrderRepo, carts CartRepo, gateway PaymentGateway, idem IdempotencyStore, events CreatedPublisher, currency string) *Checkout {
	return &Checkout{orders: orders, carts: carts, gateway: gateway, idem: idem, events: events, currency: currency}
}

// Execute runs the checkout sequence: order + line items in one transaction,
// cart cleared (best-effort), gateway initialized with reference = order ID.
//
// A retry carrying the same X-Idempotency-Key resumes the order recorded for
// that key instead of minting a duplicate; the cart may already be empty by
// then, so resumption never re-reads it.
func (uc *Checkout) Execute(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	l := logging.FromCtx(ctx).With("user_id", in.UserID)

	if in.IdempotencyKey != "" {
		if orderID, ok, _ := uc.idem.Recall(ctx, in.UserID, in.IdempotencyKey); ok {
			return uc.resume(ctx, orderID)
		}
		ok, err := uc.idem.TryLock(ctx, in.UserID, in.IdempotencyKey)
		if err != nil {
			return CheckoutOutput{}, fmt.Errorf("idempotency lock: %w", err)
		}
		if !ok {
			// Lock held but nothing remembered: a concurrent attempt with
			// the same key is still in flight.
			return CheckoutOutput{}, ErrDuplicate
		}
	}

	// Until the order ID is remembered, a failure must release the lock or
	// the buyer's retry is refused as a duplicate until the TTL expires.
	unlock := func() {
		if in.IdempotencyKey == "" {
			return
		}
		if err := uc.idem.Unlock(ctx, in.UserID, in.IdempotencyKey); err != nil {
			l.Warn("idempotency unlock failed", "error", err)
		}
	}

	items, err := uc.carts.ItemsForUser(ctx, in.UserID)
	if err != nil {
		unlock()
		return CheckoutOutput{}, fmt.Errorf("read cart: %w", err)
	}
	if len(items) == 0 {
		unlock()
		return CheckoutOutput{}, ErrEmptyCart
	}

	orderID := uuid.NewString()
	var total int64
	orderItems := make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		total += int64(it.Quantity) * it.UnitPriceCents
		orderItems = append(orderItems, domain.OrderItem{
			OrderID:        orderID,
			ProductID:      it.ProductID,
			Name:           it.Name,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}

	order := &domain.Order{
		ID:       orderID,
		UserID:   in.UserID,
		Email:    in.Email,
		Amount:   domain.Money{Cents: total, Currency: uc.currency},
		Status:   domain.StatusPending,
		Shipping: in.Shipping,
	}
	if err := order.Validate(); err != nil {
		unlock()
		return CheckoutOutput{}, err
	}

	// One transaction: an order row never exists without its items.
	if err := uc.orders.CreateWithItems(ctx, order, orderItems); err != nil {
		unlock()
		return CheckoutOutput{}, fmt.Errorf("create order: %w", err)
	}

	if in.IdempotencyKey != "" {
		// Remember before the gateway call so a retry after a gateway
		// failure finds this order instead of creating a second one.
		if err := uc.idem.Remember(ctx, in.UserID, in.IdempotencyKey, orderID); err != nil {
			l.Warn("idempotency remember failed", "order_id", orderID, "error", err)
		}
	}

	// Cart-clear failure is a lesser harm than a lost order: log and go on.
	if err := uc.carts.Clear(ctx, in.UserID); err != nil {
		l.Warn("cart clear failed after order creation", "order_id", orderID, "error", err)
	}

	session, err := uc.gateway.Initialize(ctx, InitializePayment{
		Email:     in.Email,
		Amount:    order.Amount,
		Reference: orderID,
	})
	if err != nil {
		// Order stays PENDING with no transaction on the gateway side; the
		// reconciler reports it "not yet available" until a retry succeeds.
		return CheckoutOutput{OrderID: orderID, Status: domain.StatusPending},
			fmt.Errorf("initialize payment for order %s: %w", orderID, err)
	}

	if uc.events != nil {
		msg := CreatedMsg{
			OrderID:  orderID,
			UserID:   in.UserID,
			Cents:    total,
			Currency: uc.currency,
			Items:    len(orderItems),
		}
		if err := uc.events.PublishCreated(ctx, msg); err != nil {
			l.Warn("order created event publish failed", "order_id", orderID, "error", err)
		}
	}

	l.Info("checkout complete", "order_id", orderID, "amount_cents", total, "items", len(orderItems))
	return CheckoutOutput{
		OrderID:          orderID,
		Status:           domain.StatusPending,
		AuthorizationURL: session.AuthorizationURL,
	}, nil
}

// resume picks up a checkout attempt whose order already exists. If payment
// never initialized on the gateway, initialize again with the same
// reference; if the order has since left PENDING there is nothing to pay.
func (uc *Checkout) resume(ctx context.Context, orderID string) (CheckoutOutput, error) {
	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return CheckoutOutput{}, fmt.Errorf("resume order %s: %w", orderID, err)
	}
	if order.Status != domain.StatusPending {
		return CheckoutOutput{OrderID: order.ID, Status: order.Status}, nil
	}

	session, err := uc.gateway.Initialize(ctx, InitializePayment{
		Email:     order.Email,
		Amount:    order.Amount,
		Reference: order.ID,
	})
	if err != nil {
		return CheckoutOutput{OrderID: order.ID, Status: order.Status},
			fmt.Errorf("re-initialize payment for order %s: %w", order.ID, err)
	}
	return CheckoutOutput{
		OrderID:          order.ID,
		Status:           order.Status,
		AuthorizationURL: session.AuthorizationURL,
	}, nil
}
