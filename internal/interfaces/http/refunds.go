package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

type RequestRefundRequest struct {
	Reason string `json:"reason"`
	// Amount defaults to the refundable remainder of the payment.
	Amount *int64 `json:"amount"`
}

func (s *Server) RequestRefundHandler(c echo.Context) error {
	paymentID, err := pathID(c)
	if err != nil {
		return err
	}

	var request RequestRefundRequest
	if err := bind(c, &request); err != nil {
		return err
	}

	refund, err := s.refunds.RequestRefund(c.Request().Context(), actorFrom(c), paymentID, request.Reason, request.Amount)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, refund)
}

func (s *Server) GetRefundHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	refund, err := s.refunds.GetRefund(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, refund)
}

type ReviewRefundRequest struct {
	Decision entities.RefundDecision `json:"decision"`
	Notes    string                  `json:"notes"`
}

func (s *Server) ReviewRefundHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var request ReviewRefundRequest
	if err := bind(c, &request); err != nil {
		return err
	}

	refund, err := s.refunds.ReviewRefund(c.Request().Context(), actorFrom(c), id, request.Decision, request.Notes)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, refund)
}
