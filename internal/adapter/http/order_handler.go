package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/entity"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/adapter/http/middleware"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/logging"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/usecase"
)

type OrderHandler struct {
	orders    usecase.OrderRepo
	reconcile *usecase.Reconciler
}

func NewOrderHandler(orders usecase.OrderRepo, reconcile *usecase.Reconciler) *OrderHandler {
	return &OrderHandler{orders: orders, reconcile: reconcile}
}

// buyerStatusLabel maps internal statuses to the wording buyers see.
func buyerStatusLabel(s domain.Status) string {
	switch s {
	case domain.StatusPending:
		return "awaiting payment"
	case domain.StatusProcessing:
		return "payment processing"
	case domain.StatusFailed:
		return "payment failed"
	case domain.StatusCancelled:
		return "order cancelled"
	case domain.StatusShipped:
		return "shipped"
	case domain.StatusDelivered:
		return "delivered"
	default:
		return string(s)
	}
}

type orderItemResp struct {
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

type orderResp struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	StatusLabel string          `json:"statusLabel"`
	AmountCents int64           `json:"amountCents"`
	Currency    string          `json:"currency"`
	Shipping    gin.H           `json:"shipping"`
	Items       []orderItemResp `json:"items"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// GetOrder returns an order with its items. A still-PENDING order triggers a
// best-effort reconcile first, so a lost webhook never strands the buyer on
// a stale status page.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	order, err := h.orders.GetByID(ctx, id)
	if err != nil {
		h.orderError(c, err)
		return
	}
	if !h.authorized(c, order) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}

	if order.Status == domain.StatusPending {
		if res, err := h.reconcile.Reconcile(ctx, id); err != nil {
			logging.From(c).Warn("auto-reconcile failed", "order_id", id, "error", err)
		} else if res.Status != order.Status {
			order, err = h.orders.GetByID(ctx, id)
			if err != nil {
				h.orderError(c, err)
				return
			}
		}
	}

	items, err := h.orders.ItemsByOrder(ctx, id)
	if err != nil {
		h.orderError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResp(order, items))
}

// Verify is the explicit manual reconcile trigger: query the gateway for the
// reference and report the resulting local status.
func (h *OrderHandler) Verify(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	order, err := h.orders.GetByID(ctx, id)
	if err != nil {
		h.orderError(c, err)
		return
	}
	if !h.authorized(c, order) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}

	res, err := h.reconcile.Reconcile(ctx, id)
	if err != nil {
		h.orderError(c, err)
		return
	}

	resp := gin.H{
		"orderId":     res.OrderID,
		"status":      res.Status,
		"statusLabel": buyerStatusLabel(res.Status),
	}
	if res.GatewayPending {
		// Benign: the gateway has no transaction for this reference yet.
		resp["gateway"] = "not_yet_available"
	}
	if res.Conflict {
		resp["gateway"] = "conflict_recorded"
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, _ := middleware.Identity(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no_subject"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.orders.ListByUser(ctx, userID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}

	out := make([]gin.H, 0, len(orders))
	for _, o := range orders {
		out = append(out, gin.H{
			"id":          o.ID,
			"status":      o.Status,
			"statusLabel": buyerStatusLabel(o.Status),
			"amountCents": o.Amount.Cents,
			"currency":    o.Amount.Currency,
			"createdAt":   o.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

// authorized lets staff read any order; buyers only their own.
func (h *OrderHandler) authorized(c *gin.Context, order *domain.Order) bool {
	if middleware.HasPerm(c, "orders.admin") {
		return true
	}
	userID, _ := middleware.Identity(c)
	return userID != "" && userID == order.UserID
}

func (h *OrderHandler) orderError(c *gin.Context, err error) {
	if errors.Is(err, usecase.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	logging.From(c).Error("order request failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
}

func toOrderResp(o *domain.Order, items []domain.OrderItem) orderResp {
	respItems := make([]orderItemResp, 0, len(items))
	for _, it := range items {
		respItems = append(respItems, orderItemResp{
			ProductID:      it.ProductID,
			Name:           it.Name,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}
	return orderResp{
		ID:          o.ID,
		Status:      string(o.Status),
		StatusLabel: buyerStatusLabel(o.Status),
		AmountCents: o.Amount.Cents,
		Currency:    o.Amount.Currency,
		Shipping: gin.H{
			"name":   o.Shipping.Name,
			"phone":  o.Shipping.Phone,
			"line1":  o.Shipping.Line1,
			"line2":  o.Shipping.Line2,
			"city":   o.Shipping.City,
			"state":  o.Shipping.State,
			"method": o.Shipping.Method,
		},
		Items:     respItems,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
