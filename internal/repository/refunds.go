package repository

import (
	"context"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

type RefundsRepo struct {
	conn
}

func NewRefundsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *RefundsRepo {
	return &RefundsRepo{conn{db: db, getter: getter}}
}

const refundColumns = `id, payment_id, user_id, reason, amount, refund_type, status, reviewed_by,
	review_notes, gateway_refund_id, failure_reason, processed_at, created_at, updated_at`

type refundRow struct {
	ID              uuid.UUID  `db:"id"`
	PaymentID       uuid.UUID  `db:"payment_id"`
	UserID          uuid.UUID  `db:"user_id"`
	Reason          string     `db:"reason"`
	Amount          int64      `db:"amount"`
	RefundType      string     `db:"refund_type"`
	Status          string     `db:"status"`
	ReviewedBy      *uuid.UUID `db:"reviewed_by"`
	ReviewNotes     string     `db:"review_notes"`
	GatewayRefundID string     `db:"gateway_refund_id"`
	FailureReason   string     `db:"failure_reason"`
	ProcessedAt     *time.Time `db:"processed_at"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func (row refundRow) toEntity() entities.Refund {
	return entities.Refund{
		ID:              row.ID,
		PaymentID:       row.PaymentID,
		UserID:          row.UserID,
		Reason:          row.Reason,
		Amount:          row.Amount,
		RefundType:      entities.RefundType(row.RefundType),
		Status:          entities.RefundStatus(row.Status),
		ReviewedBy:      row.ReviewedBy,
		ReviewNotes:     row.ReviewNotes,
		GatewayRefundID: row.GatewayRefundID,
		FailureReason:   row.FailureReason,
		ProcessedAt:     row.ProcessedAt,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func (r *RefundsRepo) Add(ctx context.Context, refund entities.Refund) error {
	_, err := r.tr(ctx).ExecContext(ctx, `
		INSERT INTO refunds (`+refundColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		refund.ID, refund.PaymentID, refund.UserID, refund.Reason, refund.Amount, refund.RefundType, refund.Status,
		refund.ReviewedBy, refund.ReviewNotes, refund.GatewayRefundID, refund.FailureReason, refund.ProcessedAt,
		refund.CreatedAt, refund.UpdatedAt,
	)

	return mapError(err, "refund", refund.ID)
}

func (r *RefundsRepo) Get(ctx context.Context, id uuid.UUID) (entities.Refund, error) {
	var row refundRow
	err := sqlx.GetContext(ctx, r.tr(ctx), &row, `SELECT `+refundColumns+` FROM refunds WHERE id = $1`, id)
	if err != nil {
		return entities.Refund{}, mapError(err, "refund", id)
	}
	return row.toEntity(), nil
}

func (r *RefundsRepo) UpdateByID(
	ctx context.Context,
	id uuid.UUID,
	updateFn func(refund entities.Refund) (entities.Refund, error),
) (entities.Refund, error) {
	var row refundRow
	err := sqlx.GetContext(ctx, r.tr(ctx), &row, `SELECT `+refundColumns+` FROM refunds WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return entities.Refund{}, mapError(err, "refund", id)
	}

	updated, err := updateFn(row.toEntity())
	if err != nil {
		return entities.Refund{}, err
	}

	res, err := r.tr(ctx).ExecContext(ctx, `
		UPDATE refunds SET
			status = $2,
			reviewed_by = $3,
			review_notes = $4,
			gateway_refund_id = $5,
			failure_reason = $6,
			processed_at = $7,
			updated_at = $8
		WHERE id = $1
	`,
		id, updated.Status, updated.ReviewedBy, updated.ReviewNotes, updated.GatewayRefundID,
		updated.FailureReason, updated.ProcessedAt, updated.UpdatedAt,
	)
	if err != nil {
		return entities.Refund{}, mapError(err, "refund", id)
	}
	if err := expectOneRow(res, "refund", id); err != nil {
		return entities.Refund{}, err
	}

	return updated, nil
}

func (r *RefundsRepo) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]entities.Refund, error) {
	return r.list(ctx, `
		SELECT `+refundColumns+` FROM refunds WHERE payment_id = $1 ORDER BY created_at
	`, paymentID)
}

func (r *RefundsRepo) ListByStatus(ctx context.Context, status entities.RefundStatus) ([]entities.Refund, error) {
	return r.list(ctx, `
		SELECT `+refundColumns+` FROM refunds WHERE status = $1 ORDER BY created_at
	`, status)
}

func (r *RefundsRepo) list(ctx context.Context, query string, args ...any) ([]entities.Refund, error) {
	var rows []refundRow
	if err := sqlx.SelectContext(ctx, r.tr(ctx), &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]entities.Refund, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
