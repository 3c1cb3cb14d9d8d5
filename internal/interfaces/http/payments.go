package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/payments"
	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

type InitiatePaymentRequest struct {
	TicketID uuid.UUID `json:"ticket_id"`
}

func (s *Server) InitiatePaymentHandler(c echo.Context) error {
	var request InitiatePaymentRequest
	if err := bind(c, &request); err != nil {
		return err
	}
	if request.TicketID == uuid.Nil {
		return entities.Errorf(entities.ErrValidation, "ticket_id must be set")
	}

	payment, err := s.payments.InitiateForTicket(c.Request().Context(), request.TicketID, actorFrom(c).ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, payment)
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

func (s *Server) VerifyPaymentHandler(c echo.Context) error {
	var request VerifyPaymentRequest
	if err := bind(c, &request); err != nil {
		return err
	}

	payment, err := s.payments.Verify(c.Request().Context(), payments.VerifyParams{
		OrderID:   request.OrderID,
		PaymentID: request.PaymentID,
		Signature: request.Signature,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, payment)
}

func (s *Server) GetPaymentHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	payment, err := s.payments.GetPayment(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, payment)
}
