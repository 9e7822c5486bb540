package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/logging"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/security"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/usecase"
)

const signatureHeader = "X-Paystack-Signature"

var webhookEvents = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Webhook deliveries by event name and handling result",
	},
	[]string{"event", "result"},
)

// Gateway event names recognized by this receiver; each maps to the gateway
// transaction status fed into the transition rule.
var eventStatus = map[string]string{
	"charge.success":   usecase.GatewaySuccess,
	"charge.failed":    usecase.GatewayFailed,
	"charge.abandoned": usecase.GatewayAbandoned,
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// WebhookHandler is the push side of payment settlement. The endpoint is
// public and state-mutating, so the body's MAC is checked before anything
// else; the transition rule's idempotence makes redelivery safe without
// dedup bookkeeping.
type WebhookHandler struct {
	secret     []byte
	transition *usecase.PaymentTransition
}

func NewWebhookHandler(secret []byte, transition *usecase.PaymentTransition) *WebhookHandler {
	return &WebhookHandler{secret: secret, transition: transition}
}

// HandlePaymentEvent processes POST deliveries from the gateway.
//
//	400 - missing or mismatched signature, unreadable body
//	200 - processed, replayed, or unrecognized event (gateways retry
//	      non-2xx responses; an unknown event type must not cause a storm)
//	500 - state update failed; the gateway's retry will try again
func (h *WebhookHandler) HandlePaymentEvent(c *gin.Context) {
	l := logging.From(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable_body"})
		return
	}
	defer c.Request.Body.Close()

	if !security.VerifyWebhookSignature(h.secret, body, c.GetHeader(signatureHeader)) {
		webhookEvents.WithLabelValues("unknown", "bad_signature").Inc()
		l.Warn("webhook rejected: bad signature", "remote", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_signature"})
		return
	}

	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		webhookEvents.WithLabelValues("unknown", "bad_payload").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}

	gatewayStatus, ok := eventStatus[ev.Event]
	if !ok {
		// Accept-and-ignore: don't fail deliveries for event types this
		// service doesn't understand.
		webhookEvents.WithLabelValues(ev.Event, "ignored").Inc()
		l.Info("webhook event ignored", "event", ev.Event)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if ev.Data.Reference == "" {
		webhookEvents.WithLabelValues(ev.Event, "bad_payload").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_reference"})
		return
	}

	status, err := h.transition.Apply(c.Request.Context(), ev.Data.Reference, gatewayStatus, "webhook")
	switch {
	case errors.Is(err, usecase.ErrOrderNotFound):
		// A reference we never issued. Log it, but a 2xx keeps the gateway
		// from retrying a delivery that can never succeed.
		webhookEvents.WithLabelValues(ev.Event, "unknown_reference").Inc()
		l.Warn("webhook for unknown reference", "event", ev.Event, "reference", ev.Data.Reference)
		c.JSON(http.StatusOK, gin.H{"status": "unknown_reference"})
	case errors.Is(err, usecase.ErrStatusConflict):
		// Anomaly already logged and counted by the transition rule;
		// retrying the same conflicting event would not converge.
		webhookEvents.WithLabelValues(ev.Event, "conflict").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "conflict", "orderStatus": status})
	case err != nil:
		webhookEvents.WithLabelValues(ev.Event, "error").Inc()
		l.Error("webhook state update failed", "event", ev.Event, "reference", ev.Data.Reference, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "state_update_failed"})
	default:
		webhookEvents.WithLabelValues(ev.Event, "processed").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "processed", "orderStatus": status})
	}
}
