package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/usecasetest"
	"github.com/yagnesh-3/Fira-sub001/internal/entities"
	fhttp "github.com/yagnesh-3/Fira-sub001/internal/interfaces/http"
)

const jwtSecret = "test-jwt-secret"

type testServer struct {
	t     *testing.T
	world *usecasetest.World
	srv   *fhttp.Server
}

func newTestServer(t *testing.T, ready bool) *testServer {
	w := usecasetest.NewWorld(t)
	srv := fhttp.NewServer(":0", jwtSecret, fhttp.Usecases{
		Venues:   w.Venues,
		Bookings: w.Bookings,
		Events:   w.Approval,
		Payments: w.Payments,
		Tickets:  w.Tickets,
		Refunds:  w.Refunds,
	}, func() bool { return ready })

	return &testServer{t: t, world: w, srv: srv}
}

func (s *testServer) do(actor *entities.Actor, method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		token, err := fhttp.NewToken(jwtSecret, *actor, time.Hour)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type idResponse struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

func TestHealth(t *testing.T) {
	rec := newTestServer(t, true).do(nil, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = newTestServer(t, false).do(nil, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(nil, http.MethodGet, "/venues/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode[fhttp.ErrorResponse](t, rec).Error)

	req := httptest.NewRequest(http.MethodGet, "/venues/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	s.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	otherSecret, err := fhttp.NewToken("other-secret", usecasetest.User(), time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/venues/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer "+otherSecret)
	rec = httptest.NewRecorder()
	s.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	user := usecasetest.User()
	rec = s.do(&user, http.MethodGet, "/venues/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCorrelationID(t *testing.T) {
	s := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Correlation-ID", "test-correlation")
	rec := httptest.NewRecorder()
	s.srv.ServeHTTP(rec, req)
	assert.Equal(t, "test-correlation", rec.Header().Get("Correlation-ID"))

	rec = s.do(nil, http.MethodGet, "/health", nil)
	assert.Contains(t, rec.Header().Get("Correlation-ID"), "gen_")
}

func TestVenues(t *testing.T) {
	s := newTestServer(t, true)
	owner, user := usecasetest.Owner(), usecasetest.User()

	rec := s.do(&user, http.MethodPost, "/venues", fhttp.CreateVenueRequest{Name: "Hall", Capacity: 50, PricePerHour: 1000})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(&owner, http.MethodPost, "/venues", fhttp.CreateVenueRequest{
		Name:         "Hall",
		Capacity:     50,
		PricePerHour: 1000,
		BlockedDates: []string{"not-a-date"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(&owner, http.MethodPost, "/venues", fhttp.CreateVenueRequest{Name: "Hall", Capacity: 50, PricePerHour: 1000})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	venue := decode[idResponse](t, rec)

	rec = s.do(&user, http.MethodGet, "/venues/"+venue.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(&user, http.MethodGet, "/venues/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingCheckout(t *testing.T) {
	s := newTestServer(t, true)
	owner, requester := usecasetest.Owner(), usecasetest.User()
	venue := s.world.Venue(t, owner, 100, 5000)
	day := usecasetest.Day()

	rec := s.do(&requester, http.MethodPost, "/bookings", fhttp.CreateBookingRequest{
		VenueID:        venue.ID,
		StartTime:      day.Add(12 * time.Hour),
		EndTime:        day.Add(10 * time.Hour),
		ExpectedGuests: 10,
		Purpose:        "birthday",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_window", decode[fhttp.ErrorResponse](t, rec).Error)

	rec = s.do(&requester, http.MethodPost, "/bookings", fhttp.CreateBookingRequest{
		VenueID:        venue.ID,
		StartTime:      day.Add(10 * time.Hour),
		EndTime:        day.Add(12 * time.Hour),
		ExpectedGuests: 10,
		Purpose:        "birthday",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booking := decode[idResponse](t, rec)
	assert.Equal(t, "pending", booking.Status)

	rec = s.do(&requester, http.MethodPost, "/bookings/"+booking.ID.String()+"/respond", fhttp.RespondToBookingRequest{
		Decision: entities.BookingDecisionAccept,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(&owner, http.MethodPost, "/bookings/"+booking.ID.String()+"/respond", fhttp.RespondToBookingRequest{
		Decision: entities.BookingDecisionAccept,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(&requester, http.MethodPost, "/bookings/"+booking.ID.String()+"/payment", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	payment := decode[struct {
		ID             uuid.UUID `json:"id"`
		GatewayOrderID string    `json:"gateway_order_id"`
	}](t, rec)

	rec = s.do(&requester, http.MethodPost, "/payments/verify", fhttp.VerifyPaymentRequest{
		OrderID:   payment.GatewayOrderID,
		PaymentID: "pay_http",
		Signature: "deadbeef",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// the rejected checkout is final; start a new one
	rec = s.do(&requester, http.MethodPost, "/bookings/"+booking.ID.String()+"/payment", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	payment = decode[struct {
		ID             uuid.UUID `json:"id"`
		GatewayOrderID string    `json:"gateway_order_id"`
	}](t, rec)

	rec = s.do(&requester, http.MethodPost, "/payments/verify", fhttp.VerifyPaymentRequest{
		OrderID:   payment.GatewayOrderID,
		PaymentID: "pay_http",
		Signature: s.world.Gateway.Sign(payment.GatewayOrderID, "pay_http"),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "success", decode[idResponse](t, rec).Status)

	rec = s.do(&requester, http.MethodPost, "/payments/verify", fhttp.VerifyPaymentRequest{
		OrderID:   payment.GatewayOrderID,
		PaymentID: "pay_http",
		Signature: s.world.Gateway.Sign(payment.GatewayOrderID, "pay_http"),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_processed", decode[fhttp.ErrorResponse](t, rec).Error)

	rec = s.do(&requester, http.MethodGet, "/bookings/"+booking.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[struct {
		Status        string `json:"status"`
		PaymentStatus string `json:"payment_status"`
	}](t, rec)
	assert.Equal(t, "accepted", got.Status)
	assert.Equal(t, "paid", got.PaymentStatus)

	stranger := usecasetest.User()
	rec = s.do(&stranger, http.MethodGet, "/payments/"+payment.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTicketDocuments(t *testing.T) {
	s := newTestServer(t, true)
	holder := usecasetest.User()
	event := s.world.PublishedEvent(t, usecasetest.User(), usecasetest.EventOptions{})

	rec := s.do(&holder, http.MethodPost, "/tickets", fhttp.PurchaseTicketRequest{EventID: event.ID, Quantity: 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := decode[struct {
		Ticket struct {
			ID uuid.UUID `json:"id"`
		} `json:"ticket"`
	}](t, rec)

	rec = s.do(&holder, http.MethodGet, "/tickets/"+result.Ticket.ID.String()+"/qr.png", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = s.do(&holder, http.MethodGet, "/tickets/"+result.Ticket.ID.String()+"/pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "ticket-")
}
