package venues

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
	"github.com/yagnesh-3/Fira-sub001/internal/log"
)

type VenuesRepo interface {
	Add(ctx context.Context, v entities.Venue) error
	Get(ctx context.Context, id uuid.UUID) (entities.Venue, error)
	AddBlockedDate(ctx context.Context, venueID uuid.UUID, date time.Time) error
}

type CreateVenueParams struct {
	Name         string
	Capacity     int
	PricePerHour int64
	BlockedDates []time.Time
}

type Usecase struct {
	venues VenuesRepo
}

func NewUsecase(venues VenuesRepo) *Usecase {
	return &Usecase{venues: venues}
}

func (u *Usecase) CreateVenue(ctx context.Context, actor entities.Actor, params CreateVenueParams) (entities.Venue, error) {
	if actor.Role != entities.RoleVenueOwner && !actor.IsAdmin() {
		return entities.Venue{}, entities.Errorf(entities.ErrForbidden, "role %s cannot register venues", actor.Role)
	}

	venue, err := entities.NewVenue(actor.ID, params.Name, params.Capacity, params.PricePerHour, time.Now())
	if err != nil {
		return entities.Venue{}, err
	}
	for _, d := range params.BlockedDates {
		venue.BlockedDates = append(venue.BlockedDates, entities.TruncateToDate(d))
	}

	if err := u.venues.Add(ctx, venue); err != nil {
		return entities.Venue{}, fmt.Errorf("failed to add venue: %w", err)
	}

	log.FromContext(ctx).WithField("venue_id", venue.ID).Info("Venue registered")
	return venue, nil
}

func (u *Usecase) BlockDate(ctx context.Context, actor entities.Actor, venueID uuid.UUID, date time.Time) (entities.Venue, error) {
	venue, err := u.venues.Get(ctx, venueID)
	if err != nil {
		return entities.Venue{}, err
	}
	if venue.OwnerID != actor.ID && !actor.IsAdmin() {
		return entities.Venue{}, entities.Errorf(entities.ErrForbidden, "venue %s belongs to another owner", venueID)
	}

	if err := u.venues.AddBlockedDate(ctx, venueID, date); err != nil {
		return entities.Venue{}, fmt.Errorf("failed to block date: %w", err)
	}

	return u.venues.Get(ctx, venueID)
}

func (u *Usecase) GetVenue(ctx context.Context, id uuid.UUID) (entities.Venue, error) {
	return u.venues.Get(ctx, id)
}
