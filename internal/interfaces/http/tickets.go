package http

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/tickets"
	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

type PurchaseTicketRequest struct {
	EventID    uuid.UUID           `json:"event_id"`
	Quantity   int                 `json:"quantity"`
	TicketType entities.TicketType `json:"ticket_type"`
}

func (s *Server) PurchaseTicketHandler(c echo.Context) error {
	var request PurchaseTicketRequest
	if err := bind(c, &request); err != nil {
		return err
	}

	result, err := s.tickets.Purchase(c.Request().Context(), actorFrom(c).ID, tickets.PurchaseParams{
		EventID:    request.EventID,
		Quantity:   request.Quantity,
		TicketType: request.TicketType,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

func (s *Server) GetTicketHandler(c echo.Context) error {
	ticket, err := s.tickets.GetTicket(c.Request().Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ticket)
}

type ScanRequest struct {
	QRPayload      string    `json:"qr_payload"`
	ScannerEventID uuid.UUID `json:"event_id"`
}

func (s *Server) ValidateTicketHandler(c echo.Context) error {
	var request ScanRequest
	if err := bind(c, &request); err != nil {
		return err
	}

	ticket, err := s.tickets.Validate(c.Request().Context(), c.Param("id"), request.QRPayload, request.ScannerEventID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ticket)
}

func (s *Server) CheckInHandler(c echo.Context) error {
	var request ScanRequest
	if err := bind(c, &request); err != nil {
		return err
	}

	ticket, err := s.tickets.CheckIn(c.Request().Context(), actorFrom(c), tickets.CheckInParams{
		TicketRef:      c.Param("id"),
		QRPayload:      request.QRPayload,
		ScannerEventID: request.ScannerEventID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ticket)
}

func (s *Server) CancelTicketHandler(c echo.Context) error {
	var request ReasonRequest
	if err := bind(c, &request); err != nil {
		return err
	}

	result, err := s.tickets.Cancel(c.Request().Context(), c.Param("id"), actorFrom(c).ID, request.Reason)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) TicketQRCodeHandler(c echo.Context) error {
	png, err := s.tickets.QRCode(c.Request().Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

func (s *Server) TicketPDFHandler(c echo.Context) error {
	pdf, err := s.tickets.PDF(c.Request().Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", "ticket-"+c.Param("id")+".pdf"))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
