package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

// Sandbox is an in-process gateway. Checkouts are completed with Sign(secret, orderID, paymentID).
type Sandbox struct {
	secret string

	mu        sync.Mutex
	orders    map[string]entities.GatewayOrder
	refunds   map[string]entities.GatewayRefund
	verifyErr error
	refundErr error
}

func NewSandbox(secret string) *Sandbox {
	return &Sandbox{
		secret:  secret,
		orders:  map[string]entities.GatewayOrder{},
		refunds: map[string]entities.GatewayRefund{},
	}
}

func (s *Sandbox) Initiate(_ context.Context, amount int64, currency, _ string) (entities.GatewayOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := entities.GatewayOrder{
		ID:       "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		Amount:   amount,
		Currency: currency,
	}
	s.orders[order.ID] = order
	return order, nil
}

func (s *Sandbox) Verify(_ context.Context, orderID, paymentID, signature string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.verifyErr != nil {
		return false, s.verifyErr
	}
	if _, ok := s.orders[orderID]; !ok {
		return false, nil
	}
	return validSignature(s.secret, orderID, paymentID, signature), nil
}

// Refund is idempotent per key, like a real gateway.
func (s *Sandbox) Refund(_ context.Context, paymentID string, amount int64, idempotencyKey string) (entities.GatewayRefund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refundErr != nil {
		return entities.GatewayRefund{}, s.refundErr
	}
	if r, ok := s.refunds[idempotencyKey]; ok {
		return r, nil
	}
	if amount <= 0 {
		return entities.GatewayRefund{}, fmt.Errorf("refund amount must be positive")
	}

	r := entities.GatewayRefund{
		ID:     "rfnd_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		Status: "processed",
	}
	s.refunds[idempotencyKey] = r
	return r, nil
}

// Sign completes a checkout the way the hosted payment page would.
func (s *Sandbox) Sign(orderID, paymentID string) string {
	return Sign(s.secret, orderID, paymentID)
}

// FailVerify makes verification calls fail with err until called with nil.
func (s *Sandbox) FailVerify(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifyErr = err
}

// FailRefunds makes refund calls fail with err until called with nil.
func (s *Sandbox) FailRefunds(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refundErr = err
}

func (s *Sandbox) RefundCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refunds)
}
