package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/approval"
	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

type CreateEventRequest struct {
	VenueID      uuid.UUID           `json:"venue_id"`
	BookingID    *uuid.UUID          `json:"booking_id"`
	Title        string              `json:"title"`
	Visibility   entities.Visibility `json:"visibility"`
	TicketType   entities.TicketType `json:"ticket_type"`
	TicketPrice  int64               `json:"ticket_price"`
	MaxAttendees int                 `json:"max_attendees"`
	StartsAt     time.Time           `json:"starts_at"`
	EndsAt       time.Time           `json:"ends_at"`
}

func (s *Server) CreateEventHandler(c echo.Context) error {
	var request CreateEventRequest
	if err := bind(c, &request); err != nil {
		return err
	}

	actor := actorFrom(c)
	event, err := s.events.CreateEvent(c.Request().Context(), actor.ID, approval.CreateEventParams{
		VenueID:      request.VenueID,
		BookingID:    request.BookingID,
		Title:        request.Title,
		Visibility:   request.Visibility,
		TicketType:   request.TicketType,
		TicketPrice:  request.TicketPrice,
		MaxAttendees: request.MaxAttendees,
		StartsAt:     request.StartsAt,
		EndsAt:       request.EndsAt,
	})
	if err != nil {
		return err
	}

	// the organizer needs the private code to share it
	return c.JSON(http.StatusCreated, approval.EventView{Event: event, PrivateCode: event.PrivateCode})
}

func (s *Server) GetEventHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	view, err := s.events.GetEvent(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, view)
}

type ApprovalRequest struct {
	Decision entities.ApprovalDecision `json:"decision"`
	Reason   string                    `json:"reason"`
}

func (s *Server) VenueApproveHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var request ApprovalRequest
	if err := bind(c, &request); err != nil {
		return err
	}

	event, err := s.events.VenueApprove(c.Request().Context(), id, actorFrom(c).ID, request.Decision, request.Reason)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, event)
}

func (s *Server) AdminApproveHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var request ApprovalRequest
	if err := bind(c, &request); err != nil {
		return err
	}

	event, err := s.events.AdminApprove(c.Request().Context(), id, actorFrom(c), request.Decision, request.Reason)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, event)
}

type PrivateCodeRequest struct {
	Code string `json:"code"`
}

func (s *Server) CheckPrivateCodeHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var request PrivateCodeRequest
	if err := bind(c, &request); err != nil {
		return err
	}

	err = s.events.CheckPrivateCode(c.Request().Context(), id, actorFrom(c).ID, request.Code)
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) GetSalesHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	sales, err := s.events.GetSales(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, sales)
}
