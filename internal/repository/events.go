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

type EventsRepo struct {
	conn
}

func NewEventsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *EventsRepo {
	return &EventsRepo{conn{db: db, getter: getter}}
}

const eventColumns = `id, organizer_id, venue_id, booking_id, title, visibility, ticket_type, ticket_price,
	max_attendees, current_attendees,
	venue_approval_status, venue_approval_reason, venue_approval_by, venue_approval_at,
	admin_approval_status, admin_approval_reason, admin_approval_by, admin_approval_at,
	status, private_code, starts_at, ends_at, created_at, updated_at`

type eventRow struct {
	ID                  uuid.UUID      `db:"id"`
	OrganizerID         uuid.UUID      `db:"organizer_id"`
	VenueID             uuid.UUID      `db:"venue_id"`
	BookingID           *uuid.UUID     `db:"booking_id"`
	Title               string         `db:"title"`
	Visibility          string         `db:"visibility"`
	TicketType          string         `db:"ticket_type"`
	TicketPrice         int64          `db:"ticket_price"`
	MaxAttendees        int            `db:"max_attendees"`
	CurrentAttendees    int            `db:"current_attendees"`
	VenueApprovalStatus string         `db:"venue_approval_status"`
	VenueApprovalReason string         `db:"venue_approval_reason"`
	VenueApprovalBy     *uuid.UUID     `db:"venue_approval_by"`
	VenueApprovalAt     *time.Time     `db:"venue_approval_at"`
	AdminApprovalStatus string         `db:"admin_approval_status"`
	AdminApprovalReason string         `db:"admin_approval_reason"`
	AdminApprovalBy     *uuid.UUID     `db:"admin_approval_by"`
	AdminApprovalAt     *time.Time     `db:"admin_approval_at"`
	Status              string         `db:"status"`
	PrivateCode         sql.NullString `db:"private_code"`
	StartsAt            time.Time      `db:"starts_at"`
	EndsAt              time.Time      `db:"ends_at"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

func eventToRow(e entities.Event) eventRow {
	return eventRow{
		ID:                  e.ID,
		OrganizerID:         e.OrganizerID,
		VenueID:             e.VenueID,
		BookingID:           e.BookingID,
		Title:               e.Title,
		Visibility:          string(e.Visibility),
		TicketType:          string(e.TicketType),
		TicketPrice:         e.TicketPrice,
		MaxAttendees:        e.MaxAttendees,
		CurrentAttendees:    e.CurrentAttendees,
		VenueApprovalStatus: string(e.VenueApproval.Status),
		VenueApprovalReason: e.VenueApproval.Reason,
		VenueApprovalBy:     e.VenueApproval.DecidedBy,
		VenueApprovalAt:     e.VenueApproval.DecidedAt,
		AdminApprovalStatus: string(e.AdminApproval.Status),
		AdminApprovalReason: e.AdminApproval.Reason,
		AdminApprovalBy:     e.AdminApproval.DecidedBy,
		AdminApprovalAt:     e.AdminApproval.DecidedAt,
		Status:              string(e.Status),
		PrivateCode:         sql.NullString{String: e.PrivateCode, Valid: e.PrivateCode != ""},
		StartsAt:            e.StartsAt,
		EndsAt:              e.EndsAt,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
}

func (row eventRow) toEntity() entities.Event {
	return entities.Event{
		ID:               row.ID,
		OrganizerID:      row.OrganizerID,
		VenueID:          row.VenueID,
		BookingID:        row.BookingID,
		Title:            row.Title,
		Visibility:       entities.Visibility(row.Visibility),
		TicketType:       entities.TicketType(row.TicketType),
		TicketPrice:      row.TicketPrice,
		MaxAttendees:     row.MaxAttendees,
		CurrentAttendees: row.CurrentAttendees,
		VenueApproval: entities.Approval{
			Status:    entities.ApprovalStatus(row.VenueApprovalStatus),
			Reason:    row.VenueApprovalReason,
			DecidedBy: row.VenueApprovalBy,
			DecidedAt: row.VenueApprovalAt,
		},
		AdminApproval: entities.Approval{
			Status:    entities.ApprovalStatus(row.AdminApprovalStatus),
			Reason:    row.AdminApprovalReason,
			DecidedBy: row.AdminApprovalBy,
			DecidedAt: row.AdminApprovalAt,
		},
		Status:      entities.EventStatus(row.Status),
		PrivateCode: row.PrivateCode.String,
		StartsAt:    row.StartsAt,
		EndsAt:      row.EndsAt,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func (r *EventsRepo) Add(ctx context.Context, e entities.Event) error {
	row := eventToRow(e)
	_, err := r.tr(ctx).ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`,
		row.ID, row.OrganizerID, row.VenueID, row.BookingID, row.Title, row.Visibility, row.TicketType, row.TicketPrice,
		row.MaxAttendees, row.CurrentAttendees,
		row.VenueApprovalStatus, row.VenueApprovalReason, row.VenueApprovalBy, row.VenueApprovalAt,
		row.AdminApprovalStatus, row.AdminApprovalReason, row.AdminApprovalBy, row.AdminApprovalAt,
		row.Status, row.PrivateCode, row.StartsAt, row.EndsAt, row.CreatedAt, row.UpdatedAt,
	)

	return mapError(err, "event", e.ID)
}

func (r *EventsRepo) Get(ctx context.Context, id uuid.UUID) (entities.Event, error) {
	var row eventRow
	err := sqlx.GetContext(ctx, r.tr(ctx), &row, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	if err != nil {
		return entities.Event{}, mapError(err, "event", id)
	}
	return row.toEntity(), nil
}

// UpdateByID never writes current_attendees; seat counts only move through ReserveSeats and ReleaseSeats.
func (r *EventsRepo) UpdateByID(
	ctx context.Context,
	id uuid.UUID,
	updateFn func(e entities.Event) (entities.Event, error),
) (entities.Event, error) {
	var row eventRow
	err := sqlx.GetContext(ctx, r.tr(ctx), &row, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return entities.Event{}, mapError(err, "event", id)
	}

	updated, err := updateFn(row.toEntity())
	if err != nil {
		return entities.Event{}, err
	}
	updated.CurrentAttendees = row.CurrentAttendees

	next := eventToRow(updated)
	res, err := r.tr(ctx).ExecContext(ctx, `
		UPDATE events SET
			booking_id = $2,
			title = $3,
			visibility = $4,
			max_attendees = $5,
			venue_approval_status = $6,
			venue_approval_reason = $7,
			venue_approval_by = $8,
			venue_approval_at = $9,
			admin_approval_status = $10,
			admin_approval_reason = $11,
			admin_approval_by = $12,
			admin_approval_at = $13,
			status = $14,
			starts_at = $15,
			ends_at = $16,
			updated_at = $17
		WHERE id = $1
	`,
		id, next.BookingID, next.Title, next.Visibility, next.MaxAttendees,
		next.VenueApprovalStatus, next.VenueApprovalReason, next.VenueApprovalBy, next.VenueApprovalAt,
		next.AdminApprovalStatus, next.AdminApprovalReason, next.AdminApprovalBy, next.AdminApprovalAt,
		next.Status, next.StartsAt, next.EndsAt, next.UpdatedAt,
	)
	if err != nil {
		return entities.Event{}, mapError(err, "event", id)
	}
	if err := expectOneRow(res, "event", id); err != nil {
		return entities.Event{}, err
	}

	return updated, nil
}

// ReserveSeats checks capacity and increments the attendee count in a single statement,
// so concurrent purchases can never push current_attendees past max_attendees.
func (r *EventsRepo) ReserveSeats(ctx context.Context, id uuid.UUID, quantity int) (entities.Event, error) {
	var row eventRow
	err := sqlx.GetContext(ctx, r.tr(ctx), &row, `
		UPDATE events SET
			current_attendees = current_attendees + $2,
			updated_at = now()
		WHERE id = $1
			AND status = $3
			AND venue_approval_status = $4
			AND admin_approval_status = $4
			AND current_attendees + $2 <= max_attendees
		RETURNING `+eventColumns,
		id, quantity, entities.EventStatusUpcoming, entities.ApprovalApproved,
	)
	if err == nil {
		return row.toEntity(), nil
	}

	mapped := mapError(err, "event", id)
	if entities.KindOf(mapped) != entities.ErrNotFound {
		return entities.Event{}, mapped
	}

	// no row matched: tell a missing event from a closed or full one
	e, getErr := r.Get(ctx, id)
	if getErr != nil {
		return entities.Event{}, getErr
	}
	if !e.IsTicketable() {
		return entities.Event{}, entities.Errorf(entities.ErrInvalidState, "event %s is %s", id, e.Status)
	}
	return entities.Event{}, entities.ErrSoldOut
}

func (r *EventsRepo) ReleaseSeats(ctx context.Context, id uuid.UUID, quantity int) error {
	res, err := r.tr(ctx).ExecContext(ctx, `
		UPDATE events SET
			current_attendees = GREATEST(current_attendees - $2, 0),
			updated_at = now()
		WHERE id = $1
	`, id, quantity)
	if err != nil {
		return mapError(err, "event", id)
	}
	return expectOneRow(res, "event", id)
}

func (r *EventsRepo) ListToAdvance(ctx context.Context, now time.Time) ([]entities.Event, error) {
	var rows []eventRow
	err := sqlx.SelectContext(ctx, r.tr(ctx), &rows, `
		SELECT `+eventColumns+` FROM events
		WHERE (status = $1 AND starts_at <= $3)
			OR (status = $2 AND ends_at <= $3)
		ORDER BY starts_at
	`, entities.EventStatusUpcoming, entities.EventStatusOngoing, now)
	if err != nil {
		return nil, err
	}

	out := make([]entities.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
