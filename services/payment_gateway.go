// services/payment_gateway.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tournament-wallet-service/apperrors"
	"tournament-wallet-service/models"
	"tournament-wallet-service/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// PaymentGateway is the external payment/payout provider.
type PaymentGateway interface {
	ProcessPayment(ctx context.Context, req PaymentRequest) (*GatewayResult, error)
	Payout(ctx context.Context, req PayoutRequest) (*GatewayResult, error)
	PayoutStatus(ctx context.Context, reference string) (models.TransactionStatus, error)
}

type PaymentRequest struct {
	UserID   uint            `json:"user_id"`
	Amount   int64           `json:"amount"`
	Currency models.Currency `json:"currency"`
	Method   string          `json:"method"`
}

type PayoutRequest struct {
	UserID        uint            `json:"user_id"`
	Amount        int64           `json:"amount"`
	Currency      models.Currency `json:"currency"`
	Method        string          `json:"method"`
	AccountName   string          `json:"account_name"`
	AccountNumber string          `json:"account_number"`
	BankCode      string          `json:"bank_code,omitempty"`
}

type GatewayResult struct {
	Reference string `json:"reference"`
	Status    string `json:"status"` // accepted, pending, completed, failed, declined
}

// Declined reports a definitive rejection by the provider.
func (r GatewayResult) Declined() bool {
	switch strings.ToLower(r.Status) {
	case "declined", "failed", "rejected":
		return true
	}
	return false
}

// PaymentGatewayClient talks to the provider over HTTP, rate limited client-side.
type PaymentGatewayClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
	Limiter *rate.Limiter
}

func NewPaymentGatewayClient(baseURL, token string, timeout time.Duration, rps float64, burst int) *PaymentGatewayClient {
	if burst <= 0 {
		burst = 1
	}
	return &PaymentGatewayClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client: &http.Client{
			Timeout: timeout,
		},
		Limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (c *PaymentGatewayClient) ProcessPayment(ctx context.Context, req PaymentRequest) (*GatewayResult, error) {
	var out GatewayResult
	if err := c.do(ctx, http.MethodPost, "/payments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *PaymentGatewayClient) Payout(ctx context.Context, req PayoutRequest) (*GatewayResult, error) {
	var out GatewayResult
	if err := c.do(ctx, http.MethodPost, "/payouts", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PayoutStatus maps the provider's payout state onto a ledger status.
func (c *PaymentGatewayClient) PayoutStatus(ctx context.Context, reference string) (models.TransactionStatus, error) {
	var out GatewayResult
	if err := c.do(ctx, http.MethodGet, "/payouts/"+url.PathEscape(reference), nil, &out); err != nil {
		return "", err
	}
	switch strings.ToLower(out.Status) {
	case "completed", "paid", "succeeded":
		return models.TransactionCompleted, nil
	case "failed", "declined", "rejected", "reversed":
		return models.TransactionFailed, nil
	default:
		return models.TransactionPending, nil
	}
}

func (c *PaymentGatewayClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	if err := c.Limiter.Wait(ctx); err != nil {
		return apperrors.Wrap(apperrors.KindExternalService, err, "payment gateway rate limit wait")
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode gateway request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if method == http.MethodPost {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.KindExternalService, err, "payment gateway %s %s", method, path)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		utils.Log.WithFields(logrus.Fields{
			"path":   path,
			"status": resp.StatusCode,
		}).Warnf("⚠️ payment gateway rejected request: %s", string(respBody))
		return apperrors.New(apperrors.KindExternalService, "payment gateway %s %s returned %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return apperrors.Wrap(apperrors.KindExternalService, err, "payment gateway returned malformed body")
		}
	}
	return nil
}
