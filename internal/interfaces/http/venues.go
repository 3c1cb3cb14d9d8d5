package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/venues"
	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

const dateLayout = "2006-01-02"

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, entities.Errorf(entities.ErrValidation, "invalid id %q", c.Param("id"))
	}
	return id, nil
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return entities.Errorf(entities.ErrValidation, "malformed request body")
	}
	return nil
}

type CreateVenueRequest struct {
	Name         string   `json:"name"`
	Capacity     int      `json:"capacity"`
	PricePerHour int64    `json:"price_per_hour"`
	BlockedDates []string `json:"blocked_dates"`
}

func (s *Server) CreateVenueHandler(c echo.Context) error {
	var request CreateVenueRequest
	if err := bind(c, &request); err != nil {
		return err
	}

	blocked := make([]time.Time, 0, len(request.BlockedDates))
	for _, d := range request.BlockedDates {
		date, err := time.Parse(dateLayout, d)
		if err != nil {
			return entities.Errorf(entities.ErrValidation, "invalid blocked date %q", d)
		}
		blocked = append(blocked, date)
	}

	venue, err := s.venues.CreateVenue(c.Request().Context(), actorFrom(c), venues.CreateVenueParams{
		Name:         request.Name,
		Capacity:     request.Capacity,
		PricePerHour: request.PricePerHour,
		BlockedDates: blocked,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, venue)
}

func (s *Server) GetVenueHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	venue, err := s.venues.GetVenue(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, venue)
}

type BlockDateRequest struct {
	Date string `json:"date"`
}

func (s *Server) BlockDateHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var request BlockDateRequest
	if err := bind(c, &request); err != nil {
		return err
	}
	date, err := time.Parse(dateLayout, request.Date)
	if err != nil {
		return entities.Errorf(entities.ErrValidation, "invalid date %q", request.Date)
	}

	venue, err := s.venues.BlockDate(c.Request().Context(), actorFrom(c), id, date)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, venue)
}
