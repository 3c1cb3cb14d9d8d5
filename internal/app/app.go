package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/approval"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/booking"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/payments"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/reaper"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/refunds"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/tickets"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/venues"
	"github.com/yagnesh-3/Fira-sub001/internal/config"
	"github.com/yagnesh-3/Fira-sub001/internal/entities"
	"github.com/yagnesh-3/Fira-sub001/internal/infrastructure/event_publisher"
	"github.com/yagnesh-3/Fira-sub001/internal/infrastructure/gateway"
	"github.com/yagnesh-3/Fira-sub001/internal/infrastructure/grants"
	"github.com/yagnesh-3/Fira-sub001/internal/infrastructure/notify"
	"github.com/yagnesh-3/Fira-sub001/internal/infrastructure/ticketdoc"
	"github.com/yagnesh-3/Fira-sub001/internal/interfaces/http"
	watermillMessage "github.com/yagnesh-3/Fira-sub001/internal/interfaces/message"
	"github.com/yagnesh-3/Fira-sub001/internal/interfaces/message/events"
	"github.com/yagnesh-3/Fira-sub001/internal/interfaces/message/outbox"
	"github.com/yagnesh-3/Fira-sub001/internal/repository"
)

// Dependencies are the connections the app runs on. Nil members fall back to
// in-process implementations.
type Dependencies struct {
	DB          *sqlx.DB
	RedisClient *redis.Client
	Gateway     gateway.Gateway
	Notifier    events.Notifier
}

type App struct {
	logger zerolog.Logger

	db        *sqlx.DB
	router    *message.Router
	forwarder *outbox.Forwarder
	srv       *http.Server
	reaper    *reaper.Reaper

	reaperInterval time.Duration
	closers        []io.Closer

	Usecases http.Usecases
}

func NewApp(
	cfg config.Config,
	deps Dependencies,
	watermillLogger watermill.LoggerAdapter,
) (*App, error) {
	a := &App{
		logger:         zerolog.New(os.Stdout).With().Timestamp().Str("service", "fira").Logger(),
		db:             deps.DB,
		reaperInterval: cfg.Reaper.Interval,
	}

	var (
		brokerPublisher message.Publisher
		subscribers     events.SubscriberFactory
		accessGrants    interface {
			approval.AccessGrants
			tickets.AccessGrants
		}
	)
	if deps.RedisClient != nil {
		var err error
		brokerPublisher, err = event_publisher.NewRedisPublisher(watermillLogger, deps.RedisClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis publisher: %w", err)
		}
		subscribers = event_publisher.NewRedisSubscriberFactory(watermillLogger, deps.RedisClient)
		accessGrants = grants.NewRedis(deps.RedisClient, cfg.PrivateAccessTTL)
	} else {
		inProcess := event_publisher.NewInProcess(watermillLogger)
		a.closers = append(a.closers, inProcess)
		brokerPublisher = inProcess.Publisher()
		subscribers = inProcess.SubscriberFactory()
		accessGrants = grants.NewMemory(cfg.PrivateAccessTTL)
	}

	var l *ledger
	if deps.DB != nil {
		l = newPostgresLedger(deps.DB, watermillLogger)

		fwd, err := outbox.NewForwarder(deps.DB, brokerPublisher, watermillLogger, outbox.ForwarderConfig{})
		if err != nil {
			return nil, err
		}
		a.forwarder = fwd
	} else {
		brokerBus, err := events.NewEventBus(brokerPublisher, watermillLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create event bus: %w", err)
		}
		l = newMemoryLedger(brokerBus)
	}

	gw := deps.Gateway
	if gw == nil {
		if cfg.GatewayURL == "" {
			gw = gateway.NewSandbox(cfg.GatewayKeySecret)
		} else {
			gw = gateway.NewClient(gateway.Config{
				BaseURL:   cfg.GatewayURL,
				KeyID:     cfg.GatewayKeyID,
				KeySecret: cfg.GatewayKeySecret,
				Timeout:   cfg.GatewayTimeout,
			})
		}
	}
	gw = gateway.NewBreaker(gw, gateway.DefaultBreakerConfig())

	notifier := deps.Notifier
	if notifier == nil {
		if cfg.RabbitMQURL == "" {
			notifier = notify.Log{}
		} else {
			amqpNotifier, err := notify.NewAMQP(cfg.RabbitMQURL)
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, amqpNotifier)
			notifier = amqpNotifier
		}
	}

	refundsUsecase := refunds.NewUsecase(l.tx, l.bus, gw, l.payments, l.refunds, l.bookings, l.tickets, l.events)

	orchestrator, err := payments.NewOrchestrator(
		l.tx,
		l.bus,
		gw,
		l.payments,
		l.bookings,
		l.tickets,
		l.events,
		refundsUsecase,
		cfg.PlatformFeePercent,
		cfg.Currency,
	)
	if err != nil {
		return nil, err
	}

	a.Usecases = http.Usecases{
		Venues:   venues.NewUsecase(l.venues),
		Bookings: booking.NewUsecase(l.tx, l.bus, l.venues, l.bookings, l.payments, orchestrator, refundsUsecase, cfg.PlatformFeePercent),
		Events:   approval.NewUsecase(l.tx, l.bus, l.venues, l.bookings, l.events, accessGrants, l.sales),
		Payments: orchestrator,
		Tickets: tickets.NewUsecase(
			l.tx,
			l.bus,
			l.tickets,
			l.events,
			l.payments,
			accessGrants,
			refundsUsecase,
			ticketdoc.NewRenderer(cfg.Currency),
			entities.NewQRCodec(cfg.QRSecret),
		),
		Refunds: refundsUsecase,
	}

	a.reaper = reaper.NewReaper(
		l.tx,
		l.bus,
		l.bookings,
		l.tickets,
		l.payments,
		l.events,
		l.refunds,
		orchestrator,
		reaper.Policy{
			BookingResponseTTL: cfg.Reaper.BookingResponseTTL,
			BookingPaymentTTL:  cfg.Reaper.BookingPaymentTTL,
			TicketHoldTTL:      cfg.Reaper.TicketHoldTTL,
			PaymentTTL:         cfg.Reaper.PaymentTTL,
		},
	)

	a.router, err = watermillMessage.NewRouter(
		watermillLogger,
		subscribers,
		brokerPublisher,
		events.NewHandler(l.sales, notifier),
		l.dataLake,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	a.srv = http.NewServer(cfg.HTTPAddr, cfg.JWTSecret, a.Usecases, a.router.IsRunning)

	return a, nil
}

// Handler exposes the HTTP surface, mostly for tests.
func (a *App) Handler() *http.Server {
	return a.srv
}

func (a *App) Reaper() *reaper.Reaper {
	return a.reaper
}

func (a *App) Run(ctx context.Context) error {
	if a.db != nil {
		err := repository.InitializeDBSchema(ctx, a.db)
		if err != nil {
			return fmt.Errorf("failed to initialize db schema: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.forwarder != nil {
		g.Go(func() error {
			a.logger.Info().Msg("starting outbox forwarder")
			return a.forwarder.Run(ctx)
		})
	}

	g.Go(func() error {
		a.logger.Info().Msg("starting router")
		return a.router.Run(ctx)
	})

	g.Go(func() error {
		<-a.router.Running()
		a.logger.Info().Msg("router is running")

		a.logger.Info().Msg("starting server")
		return a.srv.Start()
	})

	g.Go(func() error {
		<-a.router.Running()
		a.logger.Info().Dur("interval", a.reaperInterval).Msg("starting reaper")

		return a.reaper.Run(ctx, a.reaperInterval)
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := a.srv.Stop(shutdownCtx)
		if err != nil {
			a.logger.Err(err).Msg("error stopping server")
		}

		return err
	})

	err := g.Wait()

	for _, c := range a.closers {
		if closeErr := c.Close(); closeErr != nil {
			a.logger.Err(closeErr).Msg("error closing resource")
		}
	}

	a.logger.Info().Msg("app stopped")

	return err
}
