package app

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jmoiron/sqlx"

	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/approval"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/booking"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/payments"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/reaper"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/refunds"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/tickets"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/venues"
	"github.com/yagnesh-3/Fira-sub001/internal/interfaces/message/events"
	"github.com/yagnesh-3/Fira-sub001/internal/interfaces/message/outbox"
	"github.com/yagnesh-3/Fira-sub001/internal/repository"
	"github.com/yagnesh-3/Fira-sub001/internal/repository/memory"
)

type txManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type eventBus interface {
	Publish(ctx context.Context, event any) error
}

type venuesRepo interface {
	venues.VenuesRepo
	booking.VenuesRepo
	approval.VenuesRepo
}

type bookingsRepo interface {
	booking.BookingsRepo
	approval.BookingsRepo
	payments.BookingsRepo
	refunds.BookingsRepo
	reaper.BookingsRepo
}

type eventsRepo interface {
	approval.EventsRepo
	payments.EventsRepo
	tickets.EventsRepo
	refunds.EventsRepo
	reaper.EventsRepo
}

type paymentsRepo interface {
	booking.PaymentsRepo
	payments.PaymentsRepo
	tickets.PaymentsRepo
	refunds.PaymentsRepo
	reaper.PaymentsRepo
}

type ticketsRepo interface {
	payments.TicketsRepo
	tickets.TicketsRepo
	refunds.TicketsRepo
	reaper.TicketsRepo
}

type refundsRepo interface {
	refunds.RefundsRepo
	reaper.RefundsRepo
}

type salesReadModel interface {
	approval.SalesReadModel
	events.SalesReadModel
}

// ledger is the store every workflow runs against: Postgres with the SQL outbox,
// or the in-memory store with a post-commit bus.
type ledger struct {
	tx  txManager
	bus eventBus

	venues   venuesRepo
	bookings bookingsRepo
	events   eventsRepo
	payments paymentsRepo
	tickets  ticketsRepo
	refunds  refundsRepo

	sales    salesReadModel
	dataLake events.DataLake
}

func newPostgresLedger(db *sqlx.DB, watermillLogger watermill.LoggerAdapter) *ledger {
	getter := trmsqlx.DefaultCtxGetter
	trManager := manager.Must(trmsqlx.NewDefaultFactory(db))

	return &ledger{
		tx:       trManager,
		bus:      outbox.NewEventBus(db, getter, watermillLogger),
		venues:   repository.NewVenuesRepo(db, getter),
		bookings: repository.NewBookingsRepo(db, getter),
		events:   repository.NewEventsRepo(db, getter),
		payments: repository.NewPaymentsRepo(db, getter),
		tickets:  repository.NewTicketsRepo(db, getter),
		refunds:  repository.NewRefundsRepo(db, getter),
		sales:    repository.NewSalesReadModelRepo(db, getter, trManager),
		dataLake: repository.NewDataLakeRepo(db),
	}
}

func newMemoryLedger(next memory.Publisher) *ledger {
	store := memory.NewStore()

	return &ledger{
		tx:       store,
		bus:      memory.NewEventBus(store, next),
		venues:   store.Venues(),
		bookings: store.Bookings(),
		events:   store.Events(),
		payments: store.Payments(),
		tickets:  store.Tickets(),
		refunds:  store.Refunds(),
		sales:    memory.NewSalesReadModel(),
		dataLake: memory.NewDataLake(),
	}
}
