package entities

import (
	"time"

	"github.com/google/uuid"
)

type Venue struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	OwnerID      uuid.UUID   `json:"owner_id" db:"owner_id"`
	Name         string      `json:"name" db:"name"`
	Capacity     int         `json:"capacity" db:"capacity"`
	PricePerHour int64       `json:"price_per_hour" db:"price_per_hour"`
	BlockedDates []time.Time `json:"blocked_dates" db:"-"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

func NewVenue(ownerID uuid.UUID, name string, capacity int, pricePerHour int64, now time.Time) (Venue, error) {
	if ownerID == uuid.Nil {
		return Venue{}, Errorf(ErrValidation, "owner id must be set")
	}
	if name == "" {
		return Venue{}, Errorf(ErrValidation, "venue name must be set")
	}
	if capacity <= 0 {
		return Venue{}, Errorf(ErrValidation, "venue capacity must be greater than 0")
	}
	if pricePerHour < 0 {
		return Venue{}, Errorf(ErrValidation, "price per hour cannot be negative")
	}

	return Venue{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Name:         name,
		Capacity:     capacity,
		PricePerHour: pricePerHour,
		CreatedAt:    now.UTC(),
	}, nil
}

func (v Venue) IsBlocked(date time.Time) bool {
	day := TruncateToDate(date)
	for _, blocked := range v.BlockedDates {
		if TruncateToDate(blocked).Equal(day) {
			return true
		}
	}
	return false
}

func TruncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
