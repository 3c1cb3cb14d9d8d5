// Package usecasetest wires every workflow against the in-memory ledger and the sandbox gateway.
package usecasetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/approval"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/booking"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/payments"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/reaper"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/refunds"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/tickets"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/venues"
	"github.com/yagnesh-3/Fira-sub001/internal/entities"
	"github.com/yagnesh-3/Fira-sub001/internal/infrastructure/gateway"
	"github.com/yagnesh-3/Fira-sub001/internal/infrastructure/grants"
	"github.com/yagnesh-3/Fira-sub001/internal/infrastructure/ticketdoc"
	"github.com/yagnesh-3/Fira-sub001/internal/repository/memory"
)

const (
	FeePercent    = 10.0
	Currency      = "INR"
	GatewaySecret = "sandbox-secret"
)

var Policy = reaper.Policy{
	BookingResponseTTL: 72 * time.Hour,
	BookingPaymentTTL:  24 * time.Hour,
	TicketHoldTTL:      15 * time.Minute,
	PaymentTTL:         30 * time.Minute,
}

// Recorder keeps every event that made it past a commit.
type Recorder struct {
	mu     sync.Mutex
	events []any
}

func (r *Recorder) Publish(_ context.Context, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) All() []any {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]any(nil), r.events...)
}

// OfType returns the recorded events of type T, in publish order.
func OfType[T any](r *Recorder) []T {
	var out []T
	for _, e := range r.All() {
		if typed, ok := e.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

type World struct {
	Store    *memory.Store
	Gateway  *gateway.Sandbox
	Recorder *Recorder
	Grants   *grants.Memory
	Codec    entities.QRCodec

	Venues   *venues.Usecase
	Bookings *booking.Usecase
	Approval *approval.Usecase
	Payments *payments.Orchestrator
	Tickets  *tickets.Usecase
	Refunds  *refunds.Usecase
	Reaper   *reaper.Reaper
}

func NewWorld(t *testing.T) *World {
	t.Helper()

	store := memory.NewStore()
	recorder := &Recorder{}
	bus := memory.NewEventBus(store, recorder)
	sandbox := gateway.NewSandbox(GatewaySecret)
	accessGrants := grants.NewMemory(time.Hour)
	codec := entities.NewQRCodec("qr-secret")

	refundsUsecase := refunds.NewUsecase(
		store,
		bus,
		sandbox,
		store.Payments(),
		store.Refunds(),
		store.Bookings(),
		store.Tickets(),
		store.Events(),
	)

	orchestrator, err := payments.NewOrchestrator(
		store,
		bus,
		sandbox,
		store.Payments(),
		store.Bookings(),
		store.Tickets(),
		store.Events(),
		refundsUsecase,
		FeePercent,
		Currency,
	)
	require.NoError(t, err)

	return &World{
		Store:    store,
		Gateway:  sandbox,
		Recorder: recorder,
		Grants:   accessGrants,
		Codec:    codec,

		Venues:   venues.NewUsecase(store.Venues()),
		Bookings: booking.NewUsecase(store, bus, store.Venues(), store.Bookings(), store.Payments(), orchestrator, refundsUsecase, FeePercent),
		Approval: approval.NewUsecase(store, bus, store.Venues(), store.Bookings(), store.Events(), accessGrants, memory.NewSalesReadModel()),
		Payments: orchestrator,
		Tickets: tickets.NewUsecase(
			store,
			bus,
			store.Tickets(),
			store.Events(),
			store.Payments(),
			accessGrants,
			refundsUsecase,
			ticketdoc.NewRenderer(Currency),
			codec,
		),
		Refunds: refundsUsecase,
		Reaper: reaper.NewReaper(
			store,
			bus,
			store.Bookings(),
			store.Tickets(),
			store.Payments(),
			store.Events(),
			store.Refunds(),
			orchestrator,
			Policy,
		),
	}
}

func User() entities.Actor {
	return entities.Actor{ID: uuid.New(), Role: entities.RoleUser}
}

func Owner() entities.Actor {
	return entities.Actor{ID: uuid.New(), Role: entities.RoleVenueOwner}
}

func Admin() entities.Actor {
	return entities.Actor{ID: uuid.New(), Role: entities.RoleAdmin}
}

// Day is a calendar day far enough ahead that nothing in it has started yet.
func Day() time.Time {
	return entities.TruncateToDate(time.Now()).AddDate(0, 1, 0)
}

func (w *World) Venue(t *testing.T, owner entities.Actor, capacity int, pricePerHour int64) entities.Venue {
	t.Helper()

	venue, err := w.Venues.CreateVenue(context.Background(), owner, venues.CreateVenueParams{
		Name:         "Riverside Hall",
		Capacity:     capacity,
		PricePerHour: pricePerHour,
	})
	require.NoError(t, err)
	return venue
}

// Book requests venue for [from, to) hours of Day().
func (w *World) Book(t *testing.T, requester entities.Actor, venue entities.Venue, from, to int) (entities.Booking, error) {
	t.Helper()

	day := Day()
	return w.Bookings.CreateBooking(context.Background(), requester.ID, booking.CreateBookingParams{
		VenueID: venue.ID,
		Window: entities.Window{
			Start: day.Add(time.Duration(from) * time.Hour),
			End:   day.Add(time.Duration(to) * time.Hour),
		},
		ExpectedGuests: 10,
		Purpose:        "birthday",
	})
}

type EventOptions struct {
	Visibility   entities.Visibility
	TicketType   entities.TicketType
	TicketPrice  int64
	MaxAttendees int
}

// PublishedEvent creates an event at a fresh venue and runs both approval stages.
func (w *World) PublishedEvent(t *testing.T, organizer entities.Actor, opts EventOptions) entities.Event {
	t.Helper()
	ctx := context.Background()

	owner := Owner()
	venue := w.Venue(t, owner, 1000, 0)

	if opts.TicketType == "" {
		opts.TicketType = entities.TicketTypeFree
	}
	if opts.MaxAttendees == 0 {
		opts.MaxAttendees = 100
	}

	event, err := w.Approval.CreateEvent(ctx, organizer.ID, approval.CreateEventParams{
		VenueID:      venue.ID,
		Title:        "Open Air Concert",
		Visibility:   opts.Visibility,
		TicketType:   opts.TicketType,
		TicketPrice:  opts.TicketPrice,
		MaxAttendees: opts.MaxAttendees,
		StartsAt:     Day().Add(18 * time.Hour),
		EndsAt:       Day().Add(22 * time.Hour),
	})
	require.NoError(t, err)

	_, err = w.Approval.VenueApprove(ctx, event.ID, owner.ID, entities.ApprovalDecisionApprove, "")
	require.NoError(t, err)
	event, err = w.Approval.AdminApprove(ctx, event.ID, Admin(), entities.ApprovalDecisionApprove, "")
	require.NoError(t, err)
	require.Equal(t, entities.EventStatusUpcoming, event.Status)

	return event
}

// Pay completes a checkout the way the gateway's hosted page would and verifies it.
func (w *World) Pay(ctx context.Context, payment entities.Payment) (entities.Payment, error) {
	paymentID := "pay_" + uuid.NewString()[:8]

	return w.Payments.Verify(ctx, payments.VerifyParams{
		OrderID:   payment.GatewayOrderID,
		PaymentID: paymentID,
		Signature: w.Gateway.Sign(payment.GatewayOrderID, paymentID),
	})
}

// PaidTicket buys a priced ticket and pays for it.
func (w *World) PaidTicket(t *testing.T, holder entities.Actor, event entities.Event, quantity int) (entities.Ticket, entities.Payment) {
	t.Helper()
	ctx := context.Background()

	result, err := w.Tickets.Purchase(ctx, holder.ID, tickets.PurchaseParams{EventID: event.ID, Quantity: quantity})
	require.NoError(t, err)
	require.True(t, result.PaymentRequired)

	payment, err := w.Payments.InitiateForTicket(ctx, result.Ticket.ID, holder.ID)
	require.NoError(t, err)

	payment, err = w.Pay(ctx, payment)
	require.NoError(t, err)

	ticket, err := w.Store.Tickets().Get(ctx, result.Ticket.ID)
	require.NoError(t, err)
	return ticket, payment
}
