package gateway

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
	"github.com/yagnesh-3/Fira-sub001/internal/log"
	"github.com/yagnesh-3/Fira-sub001/internal/observability"
)

type Gateway interface {
	Initiate(ctx context.Context, amount int64, currency, referenceID string) (entities.GatewayOrder, error)
	Verify(ctx context.Context, orderID, paymentID, signature string) (bool, error)
	Refund(ctx context.Context, paymentID string, amount int64, idempotencyKey string) (entities.GatewayRefund, error)
}

type BreakerConfig struct {
	Name string
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:                "payment_gateway",
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

// Breaker fails fast while the wrapped gateway keeps erroring. Only transport errors count;
// a rejected signature is a normal answer.
type Breaker struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(next Gateway, cfg BreakerConfig) *Breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.SetBreakerState(name, int(to))
			log.FromContext(context.Background()).
				WithField("breaker", name).
				WithField("from", from.String()).
				WithField("to", to.String()).
				Warn("Gateway circuit breaker changed state")
		},
	})
	observability.SetBreakerState(cfg.Name, int(gobreaker.StateClosed))

	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) Initiate(ctx context.Context, amount int64, currency, referenceID string) (entities.GatewayOrder, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Initiate(ctx, amount, currency, referenceID)
	})
	if err != nil {
		return entities.GatewayOrder{}, err
	}
	return out.(entities.GatewayOrder), nil
}

func (b *Breaker) Verify(ctx context.Context, orderID, paymentID, signature string) (bool, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Verify(ctx, orderID, paymentID, signature)
	})
	if err != nil {
		return false, err
	}
	return out.(bool), nil
}

func (b *Breaker) Refund(ctx context.Context, paymentID string, amount int64, idempotencyKey string) (entities.GatewayRefund, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Refund(ctx, paymentID, amount, idempotencyKey)
	})
	if err != nil {
		return entities.GatewayRefund{}, err
	}
	return out.(entities.GatewayRefund), nil
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
