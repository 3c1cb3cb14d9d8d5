package repository

import (
	"context"
	"database/sql"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

type PaymentsRepo struct {
	conn
}

func NewPaymentsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *PaymentsRepo {
	return &PaymentsRepo{conn{db: db, getter: getter}}
}

const paymentColumns = `id, user_id, type, reference_kind, reference_id, amount, currency,
	platform_fee_percentage, platform_fee, net_amount, gateway_order_id, gateway_transaction_id,
	gateway_signature, status, paid_at, created_at, updated_at`

type paymentRow struct {
	ID                    uuid.UUID      `db:"id"`
	UserID                uuid.UUID      `db:"user_id"`
	Type                  string         `db:"type"`
	ReferenceKind         string         `db:"reference_kind"`
	ReferenceID           uuid.UUID      `db:"reference_id"`
	Amount                int64          `db:"amount"`
	Currency              string         `db:"currency"`
	PlatformFeePercentage float64        `db:"platform_fee_percentage"`
	PlatformFee           int64          `db:"platform_fee"`
	NetAmount             int64          `db:"net_amount"`
	GatewayOrderID        sql.NullString `db:"gateway_order_id"`
	GatewayTransactionID  string         `db:"gateway_transaction_id"`
	GatewaySignature      string         `db:"gateway_signature"`
	Status                string         `db:"status"`
	PaidAt                *time.Time     `db:"paid_at"`
	CreatedAt             time.Time      `db:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at"`
}

func paymentToRow(p entities.Payment) paymentRow {
	return paymentRow{
		ID:                    p.ID,
		UserID:                p.UserID,
		Type:                  string(p.Type),
		ReferenceKind:         string(p.Reference.Kind),
		ReferenceID:           p.Reference.ID,
		Amount:                p.Amount,
		Currency:              p.Currency,
		PlatformFeePercentage: p.PlatformFeePercentage,
		PlatformFee:           p.PlatformFee,
		NetAmount:             p.NetAmount,
		GatewayOrderID:        sql.NullString{String: p.GatewayOrderID, Valid: p.GatewayOrderID != ""},
		GatewayTransactionID:  p.GatewayTransactionID,
		GatewaySignature:      p.GatewaySignature,
		Status:                string(p.Status),
		PaidAt:                p.PaidAt,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

func (row paymentRow) toEntity() entities.Payment {
	return entities.Payment{
		ID:     row.ID,
		UserID: row.UserID,
		Type:   entities.PaymentType(row.Type),
		Reference: entities.PaymentReference{
			Kind: entities.ReferenceKind(row.ReferenceKind),
			ID:   row.ReferenceID,
		},
		Amount:                row.Amount,
		Currency:              row.Currency,
		PlatformFeePercentage: row.PlatformFeePercentage,
		PlatformFee:           row.PlatformFee,
		NetAmount:             row.NetAmount,
		GatewayOrderID:        row.GatewayOrderID.String,
		GatewayTransactionID:  row.GatewayTransactionID,
		GatewaySignature:      row.GatewaySignature,
		Status:                entities.PaymentStatus(row.Status),
		PaidAt:                row.PaidAt,
		CreatedAt:             row.CreatedAt,
		UpdatedAt:             row.UpdatedAt,
	}
}

func (r *PaymentsRepo) Add(ctx context.Context, p entities.Payment) error {
	row := paymentToRow(p)
	_, err := r.tr(ctx).ExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		row.ID, row.UserID, row.Type, row.ReferenceKind, row.ReferenceID, row.Amount, row.Currency,
		row.PlatformFeePercentage, row.PlatformFee, row.NetAmount, row.GatewayOrderID, row.GatewayTransactionID,
		row.GatewaySignature, row.Status, row.PaidAt, row.CreatedAt, row.UpdatedAt,
	)

	return mapError(err, "payment", p.ID)
}

func (r *PaymentsRepo) Get(ctx context.Context, id uuid.UUID) (entities.Payment, error) {
	var row paymentRow
	err := sqlx.GetContext(ctx, r.tr(ctx), &row, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	if err != nil {
		return entities.Payment{}, mapError(err, "payment", id)
	}
	return row.toEntity(), nil
}

func (r *PaymentsRepo) GetByOrderID(ctx context.Context, orderID string) (entities.Payment, error) {
	var row paymentRow
	err := sqlx.GetContext(ctx, r.tr(ctx), &row, `SELECT `+paymentColumns+` FROM payments WHERE gateway_order_id = $1`, orderID)
	if err != nil {
		return entities.Payment{}, mapError(err, "payment with order", orderID)
	}
	return row.toEntity(), nil
}

// UpdateByID keeps the reference columns out of the UPDATE: a payment never changes owner.
func (r *PaymentsRepo) UpdateByID(
	ctx context.Context,
	id uuid.UUID,
	updateFn func(p entities.Payment) (entities.Payment, error),
) (entities.Payment, error) {
	var row paymentRow
	err := sqlx.GetContext(ctx, r.tr(ctx), &row, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return entities.Payment{}, mapError(err, "payment", id)
	}

	current := row.toEntity()
	updated, err := updateFn(current)
	if err != nil {
		return entities.Payment{}, err
	}
	if updated.Reference != current.Reference {
		return entities.Payment{}, entities.Errorf(entities.ErrInvalidState, "payment %s reference is immutable", id)
	}

	next := paymentToRow(updated)
	res, err := r.tr(ctx).ExecContext(ctx, `
		UPDATE payments SET
			amount = $2,
			platform_fee_percentage = $3,
			platform_fee = $4,
			net_amount = $5,
			gateway_order_id = $6,
			gateway_transaction_id = $7,
			gateway_signature = $8,
			status = $9,
			paid_at = $10,
			updated_at = $11
		WHERE id = $1
	`,
		id, next.Amount, next.PlatformFeePercentage, next.PlatformFee, next.NetAmount,
		next.GatewayOrderID, next.GatewayTransactionID, next.GatewaySignature, next.Status, next.PaidAt, next.UpdatedAt,
	)
	if err != nil {
		return entities.Payment{}, mapError(err, "payment", id)
	}
	if err := expectOneRow(res, "payment", id); err != nil {
		return entities.Payment{}, err
	}

	return updated, nil
}

func (r *PaymentsRepo) ListByReference(ctx context.Context, ref entities.PaymentReference) ([]entities.Payment, error) {
	return r.list(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE reference_kind = $1 AND reference_id = $2
		ORDER BY created_at
	`, ref.Kind, ref.ID)
}

func (r *PaymentsRepo) ListStalePending(ctx context.Context, updatedBefore time.Time) ([]entities.Payment, error) {
	return r.list(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE status = $1 AND updated_at < $2
		ORDER BY created_at
	`, entities.PaymentStatusPending, updatedBefore)
}

// ListStaleProcessing lists payments whose verification never stored a result.
func (r *PaymentsRepo) ListStaleProcessing(ctx context.Context, updatedBefore time.Time) ([]entities.Payment, error) {
	return r.list(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE status = $1 AND updated_at < $2
		ORDER BY created_at
	`, entities.PaymentStatusProcessing, updatedBefore)
}

func (r *PaymentsRepo) list(ctx context.Context, query string, args ...any) ([]entities.Payment, error) {
	var rows []paymentRow
	if err := sqlx.SelectContext(ctx, r.tr(ctx), &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]entities.Payment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
