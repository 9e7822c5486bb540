package domain

import (
	"errors"
	"time"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusFailed     Status = "FAILED"
	StatusCancelled  Status = "CANCELLED"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
)

// PaymentTerminal reports whether the status was reached through the payment
// transition rule. Once here, only an identical gateway outcome is accepted.
func (s Status) PaymentTerminal() bool {
	return s == StatusProcessing || s == StatusFailed || s == StatusCancelled
}

// Fulfillment reports whether the order has entered the staff-driven
// shipped/delivered arc.
func (s Status) Fulfillment() bool {
	return s == StatusShipped || s == StatusDelivered
}

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidShipping = errors.New("incomplete shipping address")
)

type Money struct {
	Cents    int64
	Currency string
}

// ShippingAddress is a snapshot captured at order creation. Later edits to
// the buyer's saved addresses never touch a placed order.
type ShippingAddress struct {
	Name   string
	Phone  string
	Line1  string
	Line2  string
	City   string
	State  string
	Method string
}

func (a ShippingAddress) Validate() error {
	if a.Name == "" || a.Phone == "" || a.Line1 == "" || a.City == "" {
		return ErrInvalidShipping
	}
	return nil
}

// Order is the single source of truth for fulfillment state. Its ID doubles
// as the payment gateway transaction reference, which is what lets the
// webhook, the reconciler and checkout agree on which order they mean.
type Order struct {
	ID        string
	UserID    string
	Email     string
	Amount    Money
	Status    Status
	Shipping  ShippingAddress
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (o *Order) Validate() error {
	if o.Amount.Cents <= 0 || o.Amount.Currency == "" {
		return ErrInvalidAmount
	}
	return o.Shipping.Validate()
}

// OrderItem freezes the unit price at purchase time; catalog price changes
// never alter a placed order. Immutable after creation.
type OrderItem struct {
	OrderID        string
	ProductID      string
	Name           string
	Quantity       int
	UnitPriceCents int64
}

type CartItem struct {
	ProductID      string
	Name           string
	Quantity       int
	UnitPriceCents int64
}
