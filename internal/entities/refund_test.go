package entities_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

func paidPayment(t *testing.T, amount int64) entities.Payment {
	t.Helper()

	payment, err := entities.NewPayment(uuid.New(), entities.TicketReference(uuid.New()), amount, "INR", 10, day)
	require.NoError(t, err)
	require.NoError(t, payment.ClaimForVerification(day))
	require.NoError(t, payment.Succeed("pay_"+uuid.NewString(), day))
	return payment
}

func amount(v int64) *int64 {
	return &v
}

func TestNewRefund(t *testing.T) {
	payment := paidPayment(t, 1000)

	full, err := entities.NewRefund(payment, payment.UserID, "cancelled", nil, 0, day)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), full.Amount)
	assert.Equal(t, entities.RefundTypeFull, full.RefundType)
	assert.Equal(t, entities.RefundStatusPending, full.Status)

	partial, err := entities.NewRefund(payment, payment.UserID, "half", amount(400), 0, day)
	require.NoError(t, err)
	assert.Equal(t, entities.RefundTypePartial, partial.RefundType)

	remainder, err := entities.NewRefund(payment, payment.UserID, "rest", nil, 400, day)
	require.NoError(t, err)
	assert.Equal(t, int64(600), remainder.Amount)
	assert.Equal(t, entities.RefundTypePartial, remainder.RefundType)

	_, err = entities.NewRefund(payment, payment.UserID, "too much", amount(700), 400, day)
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = entities.NewRefund(payment, payment.UserID, "nothing left", nil, 1000, day)
	assert.ErrorIs(t, err, entities.ErrInvalidAmount)

	_, err = entities.NewRefund(payment, payment.UserID, "negative", amount(-5), 0, day)
	assert.ErrorIs(t, err, entities.ErrInvalidAmount)

	pending, err := entities.NewPayment(uuid.New(), entities.TicketReference(uuid.New()), 1000, "INR", 10, day)
	require.NoError(t, err)
	_, err = entities.NewRefund(pending, pending.UserID, "unpaid", nil, 0, day)
	assert.ErrorIs(t, err, entities.ErrInvalidState)
}

func TestRefund_Saga(t *testing.T) {
	payment := paidPayment(t, 1000)
	reviewer := uuid.New()

	refund, err := entities.NewRefund(payment, payment.UserID, "cancelled", nil, 0, day)
	require.NoError(t, err)
	assert.True(t, refund.CountsAgainstPayment())
	assert.True(t, refund.IsOpen())

	assert.ErrorIs(t, refund.StartProcessing(day), entities.ErrInvalidState, "pending refunds need a review")
	assert.ErrorIs(t, refund.Review("maybe", reviewer, "", day), entities.ErrValidation)

	require.NoError(t, refund.Review(entities.RefundDecisionApprove, reviewer, "ok", day))
	assert.Equal(t, entities.RefundStatusApproved, refund.Status)
	assert.Equal(t, &reviewer, refund.ReviewedBy)
	assert.ErrorIs(t, refund.Review(entities.RefundDecisionApprove, reviewer, "", day), entities.ErrInvalidState)

	require.NoError(t, refund.StartProcessing(day))
	require.NoError(t, refund.Fail("gateway timeout", day))
	assert.Equal(t, entities.RefundStatusFailed, refund.Status)
	assert.Equal(t, "gateway timeout", refund.FailureReason)
	assert.False(t, refund.CountsAgainstPayment())
	assert.False(t, refund.IsOpen())

	require.NoError(t, refund.StartProcessing(day), "failed refunds can be retried")
	assert.True(t, refund.IsOpen())
	assert.Empty(t, refund.FailureReason)

	require.NoError(t, refund.Complete("rfnd_1", day))
	assert.Equal(t, entities.RefundStatusCompleted, refund.Status)
	assert.Equal(t, "rfnd_1", refund.GatewayRefundID)
	assert.NotNil(t, refund.ProcessedAt)
	assert.False(t, refund.IsOpen())

	assert.ErrorIs(t, refund.StartProcessing(day), entities.ErrInvalidState)
	assert.ErrorIs(t, refund.Fail("late", day), entities.ErrInvalidState)
}

func TestRefund_Rejected(t *testing.T) {
	payment := paidPayment(t, 1000)

	refund, err := entities.NewRefund(payment, payment.UserID, "cancelled", nil, 0, day)
	require.NoError(t, err)

	require.NoError(t, refund.Review(entities.RefundDecisionReject, uuid.New(), "outside policy", day))
	assert.Equal(t, entities.RefundStatusRejected, refund.Status)
	assert.False(t, refund.CountsAgainstPayment())
	assert.ErrorIs(t, refund.StartProcessing(day), entities.ErrInvalidState)
}
