package repository

import (
	"context"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

type VenuesRepo struct {
	conn
}

func NewVenuesRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *VenuesRepo {
	return &VenuesRepo{conn{db: db, getter: getter}}
}

const venueColumns = `id, owner_id, name, capacity, price_per_hour, created_at`

func (r *VenuesRepo) Add(ctx context.Context, v entities.Venue) error {
	_, err := r.tr(ctx).ExecContext(ctx, `
		INSERT INTO venues (`+venueColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, v.OwnerID, v.Name, v.Capacity, v.PricePerHour, v.CreatedAt)
	if err != nil {
		return mapError(err, "venue", v.ID)
	}

	for _, d := range v.BlockedDates {
		if err := r.AddBlockedDate(ctx, v.ID, d); err != nil {
			return err
		}
	}
	return nil
}

func (r *VenuesRepo) Get(ctx context.Context, id uuid.UUID) (entities.Venue, error) {
	return r.get(ctx, id, "")
}

// Lock reads the venue with a row lock, serializing bookings of the same venue.
func (r *VenuesRepo) Lock(ctx context.Context, id uuid.UUID) (entities.Venue, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *VenuesRepo) get(ctx context.Context, id uuid.UUID, suffix string) (entities.Venue, error) {
	var v entities.Venue
	err := sqlx.GetContext(ctx, r.tr(ctx), &v, `SELECT `+venueColumns+` FROM venues WHERE id = $1 `+suffix, id)
	if err != nil {
		return entities.Venue{}, mapError(err, "venue", id)
	}

	err = sqlx.SelectContext(ctx, r.tr(ctx), &v.BlockedDates, `
		SELECT blocked_date FROM venue_blocked_dates WHERE venue_id = $1 ORDER BY blocked_date
	`, id)
	if err != nil {
		return entities.Venue{}, mapError(err, "venue", id)
	}

	return v, nil
}

func (r *VenuesRepo) AddBlockedDate(ctx context.Context, venueID uuid.UUID, date time.Time) error {
	_, err := r.tr(ctx).ExecContext(ctx, `
		INSERT INTO venue_blocked_dates (venue_id, blocked_date)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, venueID, entities.TruncateToDate(date))

	return mapError(err, "venue", venueID)
}
