package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
	"github.com/yagnesh-3/Fira-sub001/internal/log"
)

// Sign returns the checkout signature the gateway attaches to a completed payment.
func Sign(secret, orderID, paymentID string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}

func validSignature(secret, orderID, paymentID, signature string) bool {
	expected := Sign(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

// Client talks to an orders/payments/refunds style REST gateway with basic auth.
// It never retries; callers decide what a failure means.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (c *Client) Initiate(ctx context.Context, amount int64, currency, referenceID string) (entities.GatewayOrder, error) {
	var resp orderResponse
	err := c.do(ctx, http.MethodPost, "/v1/orders", "", createOrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  referenceID,
	}, &resp)
	if err != nil {
		return entities.GatewayOrder{}, fmt.Errorf("failed to create order: %w", err)
	}
	if resp.ID == "" {
		return entities.GatewayOrder{}, fmt.Errorf("gateway returned an order without id")
	}

	return entities.GatewayOrder{ID: resp.ID, Amount: resp.Amount, Currency: resp.Currency}, nil
}

type paymentResponse struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// Verify checks the checkout signature, then asks the gateway whether the payment was captured
// for that order.
func (c *Client) Verify(ctx context.Context, orderID, paymentID, signature string) (bool, error) {
	if !validSignature(c.cfg.KeySecret, orderID, paymentID, signature) {
		log.FromContext(ctx).WithField("order_id", orderID).Info("Payment signature mismatch")
		return false, nil
	}

	var resp paymentResponse
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, "", nil, &resp); err != nil {
		return false, fmt.Errorf("failed to fetch payment %s: %w", paymentID, err)
	}

	return resp.OrderID == orderID && resp.Status == "captured", nil
}

type refundRequest struct {
	Amount int64 `json:"amount"`
}

type refundResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c *Client) Refund(ctx context.Context, paymentID string, amount int64, idempotencyKey string) (entities.GatewayRefund, error) {
	var resp refundResponse
	err := c.do(ctx, http.MethodPost, "/v1/payments/"+paymentID+"/refund", idempotencyKey, refundRequest{Amount: amount}, &resp)
	if err != nil {
		return entities.GatewayRefund{}, fmt.Errorf("failed to refund payment %s: %w", paymentID, err)
	}
	if resp.Status == "failed" {
		return entities.GatewayRefund{}, fmt.Errorf("gateway refused refund %s", resp.ID)
	}

	return entities.GatewayRefund{ID: resp.ID, Status: resp.Status}, nil
}

func (c *Client) do(ctx context.Context, method, path, idempotencyKey string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	if correlationID := log.CorrelationIDFromContext(ctx); correlationID != "" {
		req.Header.Set("Correlation-ID", correlationID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
