package gateway_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yagnesh-3/Fira-sub001/internal/infrastructure/gateway"
)

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	sandbox := gateway.NewSandbox("secret")
	breaker := gateway.NewBreaker(sandbox, gateway.BreakerConfig{
		Name:                "test_gateway",
		ConsecutiveFailures: 3,
		OpenTimeout:         time.Minute,
	})

	order, err := breaker.Initiate(ctx, 100, "INR", "ref")
	require.NoError(t, err)

	down := errors.New("gateway down")
	sandbox.FailVerify(down)
	for i := 0; i < 3; i++ {
		_, err := breaker.Verify(ctx, order.ID, "pay_1", sandbox.Sign(order.ID, "pay_1"))
		assert.ErrorIs(t, err, down)
	}
	assert.Equal(t, gobreaker.StateOpen, breaker.State())

	sandbox.FailVerify(nil)
	_, err = breaker.Verify(ctx, order.ID, "pay_1", sandbox.Sign(order.ID, "pay_1"))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	_, err = breaker.Refund(ctx, "pay_1", 100, "key")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Zero(t, sandbox.RefundCount())
}

func TestBreaker_RejectedSignatureIsNotAFailure(t *testing.T) {
	ctx := context.Background()
	sandbox := gateway.NewSandbox("secret")
	breaker := gateway.NewBreaker(sandbox, gateway.BreakerConfig{
		Name:                "test_gateway_signatures",
		ConsecutiveFailures: 1,
		OpenTimeout:         time.Minute,
	})

	for i := 0; i < 3; i++ {
		ok, err := breaker.Verify(ctx, "order_unknown", "pay_1", "bad")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, gobreaker.StateClosed, breaker.State())
}
