package entities

import (
	"time"

	"github.com/google/uuid"
)

type RefundStatus string

const (
	RefundStatusPending    RefundStatus = "pending"
	RefundStatusApproved   RefundStatus = "approved"
	RefundStatusRejected   RefundStatus = "rejected"
	RefundStatusProcessing RefundStatus = "processing"
	RefundStatusCompleted  RefundStatus = "completed"
	RefundStatusFailed     RefundStatus = "failed"
)

type RefundType string

const (
	RefundTypeFull    RefundType = "full"
	RefundTypePartial RefundType = "partial"
)

type RefundDecision string

const (
	RefundDecisionApprove RefundDecision = "approve"
	RefundDecisionReject  RefundDecision = "reject"
)

type Refund struct {
	ID              uuid.UUID    `json:"id"`
	PaymentID       uuid.UUID    `json:"payment_id"`
	UserID          uuid.UUID    `json:"user_id"`
	Reason          string       `json:"reason"`
	Amount          int64        `json:"amount"`
	RefundType      RefundType   `json:"refund_type"`
	Status          RefundStatus `json:"status"`
	ReviewedBy      *uuid.UUID   `json:"reviewed_by,omitempty"`
	ReviewNotes     string       `json:"review_notes,omitempty"`
	GatewayRefundID string       `json:"gateway_refund_id,omitempty"`
	FailureReason   string       `json:"failure_reason,omitempty"`
	ProcessedAt     *time.Time   `json:"processed_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// NewRefund opens a refund against a successful payment. A nil amount means a full refund.
// alreadyRefunded is the sum of refunds on the payment that still count against it.
func NewRefund(
	payment Payment,
	requesterID uuid.UUID,
	reason string,
	amount *int64,
	alreadyRefunded int64,
	now time.Time,
) (Refund, error) {
	if payment.Status != PaymentStatusSuccess {
		return Refund{}, Errorf(ErrInvalidState, "payment %s is %s, refunds require success", payment.ID, payment.Status)
	}

	remaining := payment.Amount - alreadyRefunded
	value := remaining
	if amount != nil {
		value = *amount
	}
	if value <= 0 {
		return Refund{}, ErrInvalidAmount
	}
	if value > remaining {
		return Refund{}, Errorf(ErrValidation, "refund amount %d exceeds refundable %d", value, remaining)
	}

	refundType := RefundTypeFull
	if value != payment.Amount {
		refundType = RefundTypePartial
	}

	now = now.UTC()
	return Refund{
		ID:         uuid.New(),
		PaymentID:  payment.ID,
		UserID:     requesterID,
		Reason:     reason,
		Amount:     value,
		RefundType: refundType,
		Status:     RefundStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// CountsAgainstPayment reports whether the refund reserves part of the payment amount.
// IsOpen reports whether the refund can still complete without an operator retry.
func (r Refund) IsOpen() bool {
	switch r.Status {
	case RefundStatusPending, RefundStatusApproved, RefundStatusProcessing:
		return true
	}
	return false
}

func (r Refund) CountsAgainstPayment() bool {
	return r.Status != RefundStatusRejected && r.Status != RefundStatusFailed
}

func (r *Refund) Review(decision RefundDecision, reviewerID uuid.UUID, notes string, now time.Time) error {
	if r.Status != RefundStatusPending {
		return Errorf(ErrInvalidState, "refund %s is %s, not pending", r.ID, r.Status)
	}

	switch decision {
	case RefundDecisionApprove:
		r.Status = RefundStatusApproved
	case RefundDecisionReject:
		r.Status = RefundStatusRejected
	default:
		return Errorf(ErrValidation, "unknown decision %q", decision)
	}

	r.ReviewedBy = &reviewerID
	r.ReviewNotes = notes
	r.UpdatedAt = now.UTC()
	return nil
}

// StartProcessing moves an approved refund, or a failed one being retried, into the gateway step.
func (r *Refund) StartProcessing(now time.Time) error {
	if r.Status != RefundStatusApproved && r.Status != RefundStatusFailed {
		return Errorf(ErrInvalidState, "refund %s is %s and cannot be processed", r.ID, r.Status)
	}
	r.Status = RefundStatusProcessing
	r.FailureReason = ""
	r.UpdatedAt = now.UTC()
	return nil
}

func (r *Refund) Complete(gatewayRefundID string, now time.Time) error {
	if r.Status != RefundStatusProcessing {
		return Errorf(ErrInvalidState, "refund %s is %s, not processing", r.ID, r.Status)
	}
	now = now.UTC()
	r.Status = RefundStatusCompleted
	r.GatewayRefundID = gatewayRefundID
	r.ProcessedAt = &now
	r.UpdatedAt = now
	return nil
}

func (r *Refund) Fail(reason string, now time.Time) error {
	if r.Status != RefundStatusProcessing {
		return Errorf(ErrInvalidState, "refund %s is %s, not processing", r.ID, r.Status)
	}
	r.Status = RefundStatusFailed
	r.FailureReason = reason
	r.UpdatedAt = now.UTC()
	return nil
}
