package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/usecase"
)

const defaultBaseURL = "https://api.paystack.co"

// PaystackClient speaks the gateway's transaction API: initialize a hosted
// payment and verify a transaction by reference. The secret key and base URL
// come in through the constructor so tests can point it at a fake server.
type PaystackClient struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewPaystackClient(secretKey, baseURL string, timeout time.Duration) *PaystackClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PaystackClient{
		secretKey: secretKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: timeout},
	}
}

type initializeReq struct {
	Email     string `json:"email"`
	Amount    int64  `json:"amount"` // smallest currency unit
	Currency  string `json:"currency"`
	Reference string `json:"reference"`
}

type initializeResp struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

func (c *PaystackClient) Initialize(ctx context.Context, in usecase.InitializePayment) (*usecase.PaymentSession, error) {
	body, err := json.Marshal(initializeReq{
		Email:     in.Email,
		Amount:    in.Amount.Cents,
		Currency:  in.Amount.Currency,
		Reference: in.Reference,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal initialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("initialize: unexpected status %d, body: %s", resp.StatusCode, string(b))
	}

	var out initializeResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !out.Status {
		return nil, fmt.Errorf("initialize rejected: %s", out.Message)
	}

	return &usecase.PaymentSession{
		AuthorizationURL: out.Data.AuthorizationURL,
		AccessCode:       out.Data.AccessCode,
		Reference:        out.Data.Reference,
	}, nil
}

type verifyResp struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status   string `json:"status"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	} `json:"data"`
}

func (c *PaystackClient) Verify(ctx context.Context, reference string) (*usecase.GatewayTransaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var out verifyResp
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		if !out.Status {
			// The gateway reports unknown references as an unsuccessful
			// envelope rather than a 404 on some endpoints.
			return nil, usecase.ErrTransactionNotFound
		}
		return &usecase.GatewayTransaction{
			Reference:   reference,
			Status:      out.Data.Status,
			AmountCents: out.Data.Amount,
			Currency:    out.Data.Currency,
		}, nil
	case http.StatusNotFound:
		return nil, usecase.ErrTransactionNotFound
	default:
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("verify: unexpected status %d, body: %s", resp.StatusCode, string(b))
	}
}

var _ usecase.PaymentGateway = (*PaystackClient)(nil)
