package repository

import (
	"context"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

type TicketsRepo struct {
	conn
}

func NewTicketsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *TicketsRepo {
	return &TicketsRepo{conn{db: db, getter: getter}}
}

const ticketColumns = `id, ticket_code, user_id, event_id, qr_payload, ticket_type, price, quantity,
	payment_ref, status, is_used, used_at, checked_in_by, cancel_reason, created_at, updated_at`

type ticketRow struct {
	ID           uuid.UUID  `db:"id"`
	Code         string     `db:"ticket_code"`
	UserID       uuid.UUID  `db:"user_id"`
	EventID      uuid.UUID  `db:"event_id"`
	QRPayload    string     `db:"qr_payload"`
	TicketType   string     `db:"ticket_type"`
	Price        int64      `db:"price"`
	Quantity     int        `db:"quantity"`
	PaymentRef   *uuid.UUID `db:"payment_ref"`
	Status       string     `db:"status"`
	IsUsed       bool       `db:"is_used"`
	UsedAt       *time.Time `db:"used_at"`
	CheckedInBy  *uuid.UUID `db:"checked_in_by"`
	CancelReason string     `db:"cancel_reason"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (row ticketRow) toEntity() entities.Ticket {
	return entities.Ticket{
		ID:           row.ID,
		Code:         row.Code,
		UserID:       row.UserID,
		EventID:      row.EventID,
		QRPayload:    row.QRPayload,
		TicketType:   entities.TicketType(row.TicketType),
		Price:        row.Price,
		Quantity:     row.Quantity,
		PaymentRef:   row.PaymentRef,
		Status:       entities.TicketStatus(row.Status),
		IsUsed:       row.IsUsed,
		UsedAt:       row.UsedAt,
		CheckedInBy:  row.CheckedInBy,
		CancelReason: row.CancelReason,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func (r *TicketsRepo) Add(ctx context.Context, t entities.Ticket) error {
	_, err := r.tr(ctx).ExecContext(ctx, `
		INSERT INTO tickets (`+ticketColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		t.ID, t.Code, t.UserID, t.EventID, t.QRPayload, t.TicketType, t.Price, t.Quantity,
		t.PaymentRef, t.Status, t.IsUsed, t.UsedAt, t.CheckedInBy, t.CancelReason, t.CreatedAt, t.UpdatedAt,
	)

	return mapError(err, "ticket", t.Code)
}

func (r *TicketsRepo) Get(ctx context.Context, id uuid.UUID) (entities.Ticket, error) {
	var row ticketRow
	err := sqlx.GetContext(ctx, r.tr(ctx), &row, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	if err != nil {
		return entities.Ticket{}, mapError(err, "ticket", id)
	}
	return row.toEntity(), nil
}

func (r *TicketsRepo) GetByCode(ctx context.Context, code string) (entities.Ticket, error) {
	var row ticketRow
	err := sqlx.GetContext(ctx, r.tr(ctx), &row, `SELECT `+ticketColumns+` FROM tickets WHERE ticket_code = $1`, code)
	if err != nil {
		return entities.Ticket{}, mapError(err, "ticket", code)
	}
	return row.toEntity(), nil
}

// UpdateByID writes is_used with OR so a used ticket can never be reset.
func (r *TicketsRepo) UpdateByID(
	ctx context.Context,
	id uuid.UUID,
	updateFn func(t entities.Ticket) (entities.Ticket, error),
) (entities.Ticket, error) {
	var row ticketRow
	err := sqlx.GetContext(ctx, r.tr(ctx), &row, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return entities.Ticket{}, mapError(err, "ticket", id)
	}

	current := row.toEntity()
	updated, err := updateFn(current)
	if err != nil {
		return entities.Ticket{}, err
	}
	if current.IsUsed && !updated.IsUsed {
		return entities.Ticket{}, entities.Errorf(entities.ErrInvalidState, "ticket %s cannot be marked unused", current.Code)
	}

	res, err := r.tr(ctx).ExecContext(ctx, `
		UPDATE tickets SET
			payment_ref = $2,
			status = $3,
			is_used = is_used OR $4,
			used_at = $5,
			checked_in_by = $6,
			cancel_reason = $7,
			updated_at = $8
		WHERE id = $1
	`,
		id, updated.PaymentRef, updated.Status, updated.IsUsed, updated.UsedAt,
		updated.CheckedInBy, updated.CancelReason, updated.UpdatedAt,
	)
	if err != nil {
		return entities.Ticket{}, mapError(err, "ticket", id)
	}
	if err := expectOneRow(res, "ticket", id); err != nil {
		return entities.Ticket{}, err
	}

	return updated, nil
}

func (r *TicketsRepo) ListStalePending(ctx context.Context, createdBefore time.Time) ([]entities.Ticket, error) {
	var rows []ticketRow
	err := sqlx.SelectContext(ctx, r.tr(ctx), &rows, `
		SELECT `+ticketColumns+` FROM tickets
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
	`, entities.TicketStatusPending, createdBefore)
	if err != nil {
		return nil, err
	}

	out := make([]entities.Ticket, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
