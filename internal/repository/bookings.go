package repository

import (
	"context"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

type BookingsRepo struct {
	conn
}

func NewBookingsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *BookingsRepo {
	return &BookingsRepo{conn{db: db, getter: getter}}
}

const bookingColumns = `id, requester_id, venue_id, event_id, date, start_time, end_time,
	expected_guests, purpose, total_amount, platform_fee, status, payment_status, payment_ref,
	rejection_reason, cancellation_reason, owner_responded_at, created_at, updated_at`

func (r *BookingsRepo) Add(ctx context.Context, b entities.Booking) error {
	_, err := r.tr(ctx).ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`,
		b.ID, b.RequesterID, b.VenueID, b.EventID, b.Date, b.StartTime, b.EndTime,
		b.ExpectedGuests, b.Purpose, b.TotalAmount, b.PlatformFee, b.Status, b.PaymentStatus, b.PaymentRef,
		b.RejectionReason, b.CancellationReason, b.OwnerRespondedAt, b.CreatedAt, b.UpdatedAt,
	)

	return mapError(err, "booking", b.ID)
}

func (r *BookingsRepo) Get(ctx context.Context, id uuid.UUID) (entities.Booking, error) {
	var b entities.Booking
	err := sqlx.GetContext(ctx, r.tr(ctx), &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if err != nil {
		return entities.Booking{}, mapError(err, "booking", id)
	}
	return b, nil
}

func (r *BookingsRepo) UpdateByID(
	ctx context.Context,
	id uuid.UUID,
	updateFn func(b entities.Booking) (entities.Booking, error),
) (entities.Booking, error) {
	var b entities.Booking
	err := sqlx.GetContext(ctx, r.tr(ctx), &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return entities.Booking{}, mapError(err, "booking", id)
	}

	updated, err := updateFn(b)
	if err != nil {
		return entities.Booking{}, err
	}

	res, err := r.tr(ctx).ExecContext(ctx, `
		UPDATE bookings SET
			event_id = $2,
			status = $3,
			payment_status = $4,
			payment_ref = $5,
			rejection_reason = $6,
			cancellation_reason = $7,
			owner_responded_at = $8,
			updated_at = $9
		WHERE id = $1
	`,
		id, updated.EventID, updated.Status, updated.PaymentStatus, updated.PaymentRef,
		updated.RejectionReason, updated.CancellationReason, updated.OwnerRespondedAt, updated.UpdatedAt,
	)
	if err != nil {
		return entities.Booking{}, mapError(err, "booking", id)
	}
	if err := expectOneRow(res, "booking", id); err != nil {
		return entities.Booking{}, err
	}

	return updated, nil
}

// ListBlockingOverlaps returns accepted or completed bookings of the venue that overlap window.
func (r *BookingsRepo) ListBlockingOverlaps(
	ctx context.Context,
	venueID uuid.UUID,
	window entities.Window,
	excludeID uuid.UUID,
) ([]entities.Booking, error) {
	var out []entities.Booking
	err := sqlx.SelectContext(ctx, r.tr(ctx), &out, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE venue_id = $1
			AND id <> $2
			AND status IN ($3, $4)
			AND start_time < $6
			AND $5 < end_time
		ORDER BY created_at
	`, venueID, excludeID, entities.BookingStatusAccepted, entities.BookingStatusCompleted, window.Start, window.End)
	if err != nil {
		return nil, mapError(err, "venue", venueID)
	}
	return out, nil
}

func (r *BookingsRepo) ListStalePending(ctx context.Context, createdBefore time.Time) ([]entities.Booking, error) {
	var out []entities.Booking
	err := sqlx.SelectContext(ctx, r.tr(ctx), &out, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
	`, entities.BookingStatusPending, createdBefore)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BookingsRepo) ListUnpaidAccepted(ctx context.Context, respondedBefore time.Time) ([]entities.Booking, error) {
	var out []entities.Booking
	err := sqlx.SelectContext(ctx, r.tr(ctx), &out, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE status = $1
			AND total_amount > 0
			AND payment_status IN ($2, $3)
			AND owner_responded_at < $4
		ORDER BY created_at
	`, entities.BookingStatusAccepted, entities.BookingPaymentPending, entities.BookingPaymentFailed, respondedBefore)
	if err != nil {
		return nil, err
	}
	return out, nil
}
