package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/entity"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/adapter/http/middleware"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/usecase"
)

type CheckoutHandler struct {
	checkout *usecase.Checkout
}

func NewCheckoutHandler(checkout *usecase.Checkout) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type checkoutReq struct {
	Shipping struct {
		Name   string `json:"name" binding:"required"`
		Phone  string `json:"phone" binding:"required"`
		Line1  string `json:"line1" binding:"required"`
		Line2  string `json:"line2"`
		City   string `json:"city" binding:"required"`
		State  string `json:"state"`
		Method string `json:"method"`
	} `json:"shipping" binding:"required"`
}

type checkoutResp struct {
	OrderID          string `json:"orderId"`
	Status           string `json:"status"`
	AuthorizationURL string `json:"authorizationUrl,omitempty"`
}

// Checkout handler: translate to use case input
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	userID, email := middleware.Identity(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no_subject"})
		return
	}
	if email == "" {
		// The gateway cannot initialize a transaction without a buyer email.
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_email_claim"})
		return
	}

	idemKey := c.GetHeader("X-Idempotency-Key") // prevent duplicated checkouts

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	out, err := h.checkout.Execute(ctx, usecase.CheckoutInput{
		UserID:         userID,
		Email:          email,
		IdempotencyKey: idemKey,
		Shipping: domain.ShippingAddress{
			Name:   req.Shipping.Name,
			Phone:  req.Shipping.Phone,
			Line1:  req.Shipping.Line1,
			Line2:  req.Shipping.Line2,
			City:   req.Shipping.City,
			State:  req.Shipping.State,
			Method: req.Shipping.Method,
		},
	})

	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, usecase.ErrDuplicate):
			status = http.StatusConflict
		case errors.Is(err, usecase.ErrEmptyCart),
			errors.Is(err, domain.ErrInvalidShipping),
			errors.Is(err, domain.ErrInvalidAmount):
			status = http.StatusBadRequest
		default:
			if out.OrderID != "" {
				// Order exists but the gateway did not answer; tell the
				// buyer checkout is incomplete and retryable.
				c.JSON(http.StatusBadGateway, gin.H{
					"error":   "payment_unavailable",
					"orderId": out.OrderID,
					"status":  out.Status,
				})
				return
			}
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, checkoutResp{
		OrderID:          out.OrderID,
		Status:           string(out.Status),
		AuthorizationURL: out.AuthorizationURL,
	})
}
