package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/booking"
	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

type CreateBookingRequest struct {
	VenueID        uuid.UUID `json:"venue_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	ExpectedGuests int       `json:"expected_guests"`
	Purpose        string    `json:"purpose"`
}

func (s *Server) CreateBookingHandler(c echo.Context) error {
	var request CreateBookingRequest
	if err := bind(c, &request); err != nil {
		return err
	}

	b, err := s.bookings.CreateBooking(c.Request().Context(), actorFrom(c).ID, booking.CreateBookingParams{
		VenueID:        request.VenueID,
		Window:         entities.Window{Start: request.StartTime, End: request.EndTime},
		ExpectedGuests: request.ExpectedGuests,
		Purpose:        request.Purpose,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, b)
}

func (s *Server) GetBookingHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	b, err := s.bookings.GetBooking(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, b)
}

type RespondToBookingRequest struct {
	Decision entities.BookingDecision `json:"decision"`
	Reason   string                   `json:"reason"`
}

func (s *Server) RespondToBookingHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var request RespondToBookingRequest
	if err := bind(c, &request); err != nil {
		return err
	}

	b, err := s.bookings.Respond(c.Request().Context(), id, actorFrom(c).ID, request.Decision, request.Reason)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, b)
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) CancelBookingHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var request ReasonRequest
	if err := bind(c, &request); err != nil {
		return err
	}

	result, err := s.bookings.Cancel(c.Request().Context(), id, actorFrom(c).ID, request.Reason)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) CompleteBookingHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	b, err := s.bookings.Complete(c.Request().Context(), id, actorFrom(c).ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, b)
}

func (s *Server) InitiateBookingPaymentHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	payment, err := s.bookings.InitiatePayment(c.Request().Context(), id, actorFrom(c).ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, payment)
}
