package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/approval"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/booking"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/payments"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/refunds"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/tickets"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/venues"
)

type Usecases struct {
	Venues   *venues.Usecase
	Bookings *booking.Usecase
	Events   *approval.Usecase
	Payments *payments.Orchestrator
	Tickets  *tickets.Usecase
	Refunds  *refunds.Usecase
}

type Server struct {
	e    *echo.Echo
	addr string

	venues   *venues.Usecase
	bookings *booking.Usecase
	events   *approval.Usecase
	payments *payments.Orchestrator
	tickets  *tickets.Usecase
	refunds  *refunds.Usecase
}

func NewServer(
	addr string,
	jwtSecret string,
	usecases Usecases,
	isReady func() bool,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HandleError

	srv := &Server{
		e:        e,
		addr:     addr,
		venues:   usecases.Venues,
		bookings: usecases.Bookings,
		events:   usecases.Events,
		payments: usecases.Payments,
		tickets:  usecases.Tickets,
		refunds:  usecases.Refunds,
	}

	e.Use(
		CorrelationIDMiddleware,
		TracingMiddleware,
		LoggingMiddleware,
		MetricsMiddleware,
	)

	e.GET("/health", func(c echo.Context) error {
		if !isReady() {
			return c.String(http.StatusServiceUnavailable, "not ready")
		}
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("", AuthMiddleware(jwtSecret), IdempotencyKeyMiddleware)

	api.POST("/venues", srv.CreateVenueHandler)
	api.GET("/venues/:id", srv.GetVenueHandler)
	api.POST("/venues/:id/blocked-dates", srv.BlockDateHandler)

	api.POST("/bookings", srv.CreateBookingHandler)
	api.GET("/bookings/:id", srv.GetBookingHandler)
	api.POST("/bookings/:id/respond", srv.RespondToBookingHandler)
	api.POST("/bookings/:id/cancel", srv.CancelBookingHandler)
	api.POST("/bookings/:id/complete", srv.CompleteBookingHandler)
	api.POST("/bookings/:id/payment", srv.InitiateBookingPaymentHandler)

	api.POST("/events", srv.CreateEventHandler)
	api.GET("/events/:id", srv.GetEventHandler)
	api.POST("/events/:id/venue-approve", srv.VenueApproveHandler)
	api.POST("/events/:id/admin-approve", srv.AdminApproveHandler)
	api.POST("/events/:id/private-code", srv.CheckPrivateCodeHandler)
	api.GET("/events/:id/sales", srv.GetSalesHandler)

	api.POST("/payments/initiate", srv.InitiatePaymentHandler)
	api.POST("/payments/verify", srv.VerifyPaymentHandler)
	api.GET("/payments/:id", srv.GetPaymentHandler)
	api.POST("/payments/:id/refund", srv.RequestRefundHandler)

	api.GET("/refunds/:id", srv.GetRefundHandler)
	api.POST("/refunds/:id/review", srv.ReviewRefundHandler)

	api.POST("/tickets", srv.PurchaseTicketHandler)
	api.GET("/tickets/:id", srv.GetTicketHandler)
	api.POST("/tickets/:id/validate", srv.ValidateTicketHandler)
	api.POST("/tickets/:id/check-in", srv.CheckInHandler)
	api.POST("/tickets/:id/cancel", srv.CancelTicketHandler)
	api.GET("/tickets/:id/qr.png", srv.TicketQRCodeHandler)
	api.GET("/tickets/:id/pdf", srv.TicketPDFHandler)

	return srv
}

// ServeHTTP lets tests drive the server without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

func (s *Server) Start() error {
	err := s.e.Start(s.addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
