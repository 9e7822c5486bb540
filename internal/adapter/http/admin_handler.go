package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/entity"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/usecase"
)

// AdminHandler exposes the staff-side order moves: ship, deliver, and the
// explicit administrative cancel.
type AdminHandler struct {
	fulfillment *usecase.Fulfillment
}

func NewAdminHandler(fulfillment *usecase.Fulfillment) *AdminHandler {
	return &AdminHandler{fulfillment: fulfillment}
}

func (h *AdminHandler) Ship(c *gin.Context) {
	h.move(c, h.fulfillment.MarkShipped)
}

func (h *AdminHandler) Deliver(c *gin.Context) {
	h.move(c, h.fulfillment.MarkDelivered)
}

func (h *AdminHandler) Cancel(c *gin.Context) {
	h.move(c, h.fulfillment.Cancel)
}

func (h *AdminHandler) move(c *gin.Context, op func(context.Context, string) (domain.Status, error)) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := op(ctx, id)
	switch {
	case errors.Is(err, usecase.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, usecase.ErrStatusConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "status_conflict", "status": status})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	default:
		c.JSON(http.StatusOK, gin.H{"orderId": id, "status": status})
	}
}
