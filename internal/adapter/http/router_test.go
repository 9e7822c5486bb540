package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/configs"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/adapter/http/middleware"
	domain "github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/entity"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/security"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/usecase"
)

// Tests in this file drive requests through NewRouter, middleware included,
// because the handler-only tests cannot catch defects the middleware chain
// introduces (body rewriting in particular).

type stubCartRepo struct {
	items []domain.CartItem
}

func (s *stubCartRepo) ItemsForUser(context.Context, string) ([]domain.CartItem, error) {
	return s.items, nil
}

func (s *stubCartRepo) Clear(context.Context, string) error { return nil }

type stubGateway struct{}

func (stubGateway) Initialize(_ context.Context, in usecase.InitializePayment) (*usecase.PaymentSession, error) {
	return &usecase.PaymentSession{
		AuthorizationURL: "https://checkout.paystack.com/" + in.Reference,
		Reference:        in.Reference,
	}, nil
}

func (stubGateway) Verify(context.Context, string) (*usecase.GatewayTransaction, error) {
	return nil, usecase.ErrTransactionNotFound
}

type stubIdem struct{}

func (stubIdem) TryLock(context.Context, string, string) (bool, error) { return true, nil }
func (stubIdem) Unlock(context.Context, string, string) error          { return nil }
func (stubIdem) Remember(context.Context, string, string, string) error {
	return nil
}
func (stubIdem) Recall(context.Context, string, string) (string, bool, error) {
	return "", false, nil
}

func routerTestConfig() configs.Config {
	var cfg configs.Config
	cfg.Security.JWTSecret = "router-test-secret"
	cfg.Security.Issuer = "storefront"
	cfg.Security.Audience = "storefront-api"
	cfg.Security.TTL = time.Hour
	return cfg
}

func fullRouter(repo *memOrderRepo) (*gin.Engine, configs.Config) {
	gin.SetMode(gin.TestMode)
	cfg := routerTestConfig()

	carts := &stubCartRepo{items: []domain.CartItem{
		{ProductID: "p1", Name: "Ankara Dress", Quantity: 1, UnitPriceCents: 250000},
	}}
	transition := usecase.NewPaymentTransition(repo, nil, nil)
	checkout := usecase.NewCheckout(repo, carts, stubGateway{}, stubIdem{}, nil, "NGN")
	reconciler := usecase.NewReconciler(repo, stubGateway{}, transition)
	fulfillment := usecase.NewFulfillment(repo, nil)

	router := NewRouter(
		NewCheckoutHandler(checkout),
		NewOrderHandler(repo, reconciler),
		NewWebhookHandler(webhookSecret, transition),
		NewAdminHandler(fulfillment),
		NewTokenHandler(cfg),
		middleware.NewAuthz(cfg),
	)
	return router, cfg
}

func bearerToken(t *testing.T, cfg configs.Config, sub, email string, perms ...string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"iss":   cfg.Security.Issuer,
		"aud":   cfg.Security.Audience,
		"sub":   sub,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
		"perms": perms,
	}
	if email != "" {
		claims["email"] = email
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(cfg.Security.JWTSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

// The gateway signs the exact bytes it sends. The body here keeps the
// gateway's own field order, spacing and extra fields; any middleware that
// re-marshals the body before the handler changes those bytes and the MAC
// check can never pass again.
func TestRouterWebhookVerifiesSignatureOverRawBytes(t *testing.T) {
	repo := newMemOrderRepo()
	repo.orders["o1"] = &domain.Order{ID: "o1", UserID: "u1", Status: domain.StatusPending}
	router, _ := fullRouter(repo)

	rawBody := "{ \"event\": \"charge.success\",\n" +
		"  \"data\": { \"amount\": 250000, \"reference\": \"o1\", \"paid_at\": \"2026-08-30T12:01:05Z\" } }"

	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", strings.NewReader(rawBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(signatureHeader, security.WebhookSignature(webhookSecret, []byte(rawBody)))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, domain.StatusProcessing, repo.orders["o1"].Status)
	require.Equal(t, 1, repo.writes)
}

// The shipping snapshot is immutable once the order exists, so the bytes the
// handler binds must be the bytes the buyer sent; log redaction must never
// leak into what gets persisted.
func TestRouterCheckoutPersistsShippingAsSent(t *testing.T) {
	repo := newMemOrderRepo()
	router, cfg := fullRouter(repo)

	body := `{"shipping":{"name":"Lizzy Han","phone":"08012345678","line1":"12 Adeola Odeku St","city":"Lagos","state":"Lagos","method":"courier"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t, cfg, "u1", "lizzy@example.com", "orders.read", "orders.write"))
	req.Header.Set("X-Idempotency-Key", "k1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp checkoutResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AuthorizationURL)

	created, err := repo.GetByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	require.Equal(t, "08012345678", created.Shipping.Phone)
	require.Equal(t, "Lizzy Han", created.Shipping.Name)
	require.Equal(t, "lizzy@example.com", created.Email)
}

func TestRouterCheckoutRequiresEmailClaim(t *testing.T) {
	repo := newMemOrderRepo()
	router, cfg := fullRouter(repo)

	body := `{"shipping":{"name":"Lizzy Han","phone":"08012345678","line1":"12 Adeola Odeku St","city":"Lagos"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t, cfg, "u1", "", "orders.read", "orders.write"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "missing_email_claim")
	require.Empty(t, repo.orders)
}

// Token endpoint round trip: a token minted with an email checks out.
func TestRouterTokenWithEmailChecksOut(t *testing.T) {
	repo := newMemOrderRepo()
	router, _ := fullRouter(repo)

	form := url.Values{
		"client_id":     {"storefront-web"},
		"client_secret": {"storefront-web-secret"},
		"email":         {"buyer@example.com"},
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))

	body := `{"shipping":{"name":"Lizzy Han","phone":"08012345678","line1":"12 Adeola Odeku St","city":"Lagos"}}`
	req = httptest.NewRequest(http.MethodPost, "/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}
