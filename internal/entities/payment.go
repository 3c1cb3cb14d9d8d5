package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSuccess    PaymentStatus = "success"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

type PaymentType string

const (
	PaymentTypeVenueBooking   PaymentType = "venue_booking"
	PaymentTypeTicketPurchase PaymentType = "ticket_purchase"
)

type ReferenceKind string

const (
	ReferenceBooking ReferenceKind = "booking"
	ReferenceTicket  ReferenceKind = "ticket"
)

// PaymentReference points a payment at exactly one owning entity.
type PaymentReference struct {
	Kind ReferenceKind `json:"kind"`
	ID   uuid.UUID     `json:"id"`
}

func BookingReference(id uuid.UUID) PaymentReference {
	return PaymentReference{Kind: ReferenceBooking, ID: id}
}

func TicketReference(id uuid.UUID) PaymentReference {
	return PaymentReference{Kind: ReferenceTicket, ID: id}
}

func (r PaymentReference) Validate() error {
	if r.ID == uuid.Nil {
		return Errorf(ErrValidation, "reference id must be set")
	}
	switch r.Kind {
	case ReferenceBooking, ReferenceTicket:
		return nil
	default:
		return Errorf(ErrValidation, "unknown reference kind %q", r.Kind)
	}
}

func (r PaymentReference) PaymentType() PaymentType {
	if r.Kind == ReferenceBooking {
		return PaymentTypeVenueBooking
	}
	return PaymentTypeTicketPurchase
}

func (r PaymentReference) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

type Payment struct {
	ID                    uuid.UUID        `json:"id"`
	UserID                uuid.UUID        `json:"user_id"`
	Type                  PaymentType      `json:"type"`
	Reference             PaymentReference `json:"reference"`
	Amount                int64            `json:"amount"`
	Currency              string           `json:"currency"`
	PlatformFeePercentage float64          `json:"platform_fee_percentage"`
	PlatformFee           int64            `json:"platform_fee"`
	NetAmount             int64            `json:"net_amount"`
	GatewayOrderID        string           `json:"gateway_order_id,omitempty"`
	GatewayTransactionID  string           `json:"gateway_transaction_id,omitempty"`
	GatewaySignature      string           `json:"-"`
	Status                PaymentStatus    `json:"status"`
	PaidAt                *time.Time       `json:"paid_at,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

func NewPayment(
	userID uuid.UUID,
	ref PaymentReference,
	amount int64,
	currency string,
	feePercentage float64,
	now time.Time,
) (Payment, error) {
	if err := ref.Validate(); err != nil {
		return Payment{}, err
	}
	if amount <= 0 {
		return Payment{}, ErrInvalidAmount
	}
	if err := ValidateFeePercentage(feePercentage); err != nil {
		return Payment{}, err
	}

	now = now.UTC()
	p := Payment{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      ref.PaymentType(),
		Reference: ref,
		Currency:  currency,
		Status:    PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.SetAmount(amount, feePercentage)

	return p, nil
}

// SetAmount is the only writer of the amount and its derived fee fields.
func (p *Payment) SetAmount(amount int64, feePercentage float64) {
	fee := ComputeFee(amount, feePercentage)

	p.Amount = amount
	p.PlatformFeePercentage = fee.Percentage
	p.PlatformFee = fee.Platform
	p.NetAmount = fee.Net
}

func (p Payment) IsFinal() bool {
	switch p.Status {
	case PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// ClaimForVerification is the compare-and-set that lets exactly one verify call proceed.
func (p *Payment) ClaimForVerification(now time.Time) error {
	switch p.Status {
	case PaymentStatusPending:
		p.Status = PaymentStatusProcessing
		p.UpdatedAt = now.UTC()
		return nil
	case PaymentStatusProcessing:
		return Errorf(ErrAlreadyProcessed, "payment %s is already being verified", p.ID)
	default:
		return Errorf(ErrAlreadyProcessed, "payment %s is already %s", p.ID, p.Status)
	}
}

// RecordCallback keeps the gateway callback of a claimed payment, so verification can be
// re-driven if the process stops before the result is stored.
func (p *Payment) RecordCallback(transactionID, signature string) error {
	if p.Status != PaymentStatusProcessing {
		return Errorf(ErrInvalidState, "payment %s is %s, not processing", p.ID, p.Status)
	}
	p.GatewayTransactionID = transactionID
	p.GatewaySignature = signature
	return nil
}

func (p Payment) HasCallback() bool {
	return p.GatewayTransactionID != "" && p.GatewaySignature != ""
}

func (p *Payment) ReleaseClaim(now time.Time) error {
	if p.Status != PaymentStatusProcessing {
		return Errorf(ErrInvalidState, "payment %s is %s, not processing", p.ID, p.Status)
	}
	p.Status = PaymentStatusPending
	p.GatewayTransactionID = ""
	p.GatewaySignature = ""
	p.UpdatedAt = now.UTC()
	return nil
}

func (p *Payment) Succeed(transactionID string, now time.Time) error {
	if p.Status != PaymentStatusProcessing {
		return Errorf(ErrInvalidState, "payment %s is %s, not processing", p.ID, p.Status)
	}
	now = now.UTC()
	p.Status = PaymentStatusSuccess
	p.GatewayTransactionID = transactionID
	p.PaidAt = &now
	p.UpdatedAt = now
	return nil
}

func (p *Payment) Fail(now time.Time) error {
	if p.IsFinal() {
		return Errorf(ErrAlreadyProcessed, "payment %s is already %s", p.ID, p.Status)
	}
	p.Status = PaymentStatusFailed
	p.UpdatedAt = now.UTC()
	return nil
}

func (p *Payment) MarkRefunded(now time.Time) error {
	if p.Status != PaymentStatusSuccess {
		return Errorf(ErrInvalidState, "payment %s is %s, not success", p.ID, p.Status)
	}
	p.Status = PaymentStatusRefunded
	p.UpdatedAt = now.UTC()
	return nil
}
