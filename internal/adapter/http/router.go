package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/adapter/http/middleware"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/logging"
)

func NewRouter(
	co *CheckoutHandler,
	oh *OrderHandler,
	wh *WebhookHandler,
	ah *AdminHandler,
	th *TokenHandler,
	authz *middleware.Authz,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", th.IssueToken)

	// Public by design: the gateway authenticates with the body MAC, not a
	// bearer token.
	r.POST("/webhooks/paystack", wh.HandlePaymentEvent)

	v1 := r.Group("/v1")
	{
		v1.POST("/checkout", authz.Require("orders.write"), co.Checkout)
		v1.GET("/orders", authz.Require("orders.read"), oh.ListOrders)
		v1.GET("/orders/:id", authz.Require("orders.read"), oh.GetOrder)
		v1.POST("/orders/:id/verify", authz.Require("orders.read"), oh.Verify)
	}

	admin := r.Group("/v1/admin", authz.Require("orders.admin"))
	{
		admin.POST("/orders/:id/ship", ah.Ship)
		admin.POST("/orders/:id/deliver", ah.Deliver)
		admin.POST("/orders/:id/cancel", ah.Cancel)
	}

	return r
}
