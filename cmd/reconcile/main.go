package main

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/yagnesh-3/Fira-sub001/internal/app"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/payments"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/refunds"
	"github.com/yagnesh-3/Fira-sub001/internal/config"
	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

// Handler runs reconciliation against the Postgres ledger. Events it raises go
// through the outbox and are forwarded by the running service.
type Handler struct {
	refunds  *refunds.Usecase
	payments *payments.Orchestrator
	close    func()
}

func NewHandler() (*Handler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required: the in-memory ledger lives inside the server process")
	}

	db, err := sqlx.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	deps := app.Dependencies{DB: db}
	closers := []func() error{db.Close}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		deps.RedisClient = redisClient
		closers = append(closers, redisClient.Close)
	}

	a, err := app.NewApp(cfg, deps, watermill.NewStdLogger(false, false))
	if err != nil {
		return nil, err
	}

	return &Handler{
		refunds:  a.Usecases.Refunds,
		payments: a.Usecases.Payments,
		close: func() {
			for _, c := range closers {
				_ = c()
			}
		},
	}, nil
}

func parseID(c *cli.Context, entity string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Args().First())
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q: %w", entity, c.Args().First(), err)
	}
	return id, nil
}

func printRefunds(list []entities.Refund) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPAYMENT\tAMOUNT\tSTATUS\tUPDATED\tFAILURE")
	for _, r := range list {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			r.ID, r.PaymentID, r.Amount, r.Status, r.UpdatedAt.Format("2006-01-02 15:04:05"), r.FailureReason)
	}
	_ = w.Flush()
}

func printPayments(list []entities.Payment) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREFERENCE\tAMOUNT\tSTATUS\tORDER\tUPDATED")
	for _, p := range list {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			p.ID, p.Reference, p.Amount, p.Status, p.GatewayOrderID, p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	_ = w.Flush()
}

func main() {
	cliApp := &cli.App{
		Name:  "reconcile",
		Usage: "Inspect and repair refunds and payments that did not complete",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list failed or stuck refunds",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Value: string(entities.RefundStatusFailed),
						Usage: "failed or processing",
					},
				},
				Action: func(c *cli.Context) error {
					h, err := NewHandler()
					if err != nil {
						return err
					}
					defer h.close()

					list, err := h.refunds.ListByStatus(c.Context, entities.RefundStatus(c.String("status")))
					if err != nil {
						return err
					}

					printRefunds(list)
					return nil
				},
			},
			{
				Name:      "retry",
				ArgsUsage: "<refund_id>",
				Usage:     "send a failed refund to the gateway again",
				Action: func(c *cli.Context) error {
					id, err := parseID(c, "refund")
					if err != nil {
						return err
					}

					h, err := NewHandler()
					if err != nil {
						return err
					}
					defer h.close()

					refund, err := h.refunds.RetryRefund(c.Context, id)
					if err != nil {
						return err
					}

					printRefunds([]entities.Refund{refund})
					return nil
				},
			},
			{
				Name:      "resume",
				ArgsUsage: "<refund_id>",
				Usage:     "resume a refund left in processing",
				Action: func(c *cli.Context) error {
					id, err := parseID(c, "refund")
					if err != nil {
						return err
					}

					h, err := NewHandler()
					if err != nil {
						return err
					}
					defer h.close()

					refund, err := h.refunds.ResumeRefund(c.Context, id)
					if err != nil {
						return err
					}

					printRefunds([]entities.Refund{refund})
					return nil
				},
			},
			{
				Name:  "payments",
				Usage: "payments whose verification stopped halfway",
				Subcommands: []*cli.Command{
					{
						Name:  "list",
						Usage: "list payments stuck in processing",
						Flags: []cli.Flag{
							&cli.DurationFlag{
								Name:  "older-than",
								Value: 30 * time.Minute,
							},
						},
						Action: func(c *cli.Context) error {
							h, err := NewHandler()
							if err != nil {
								return err
							}
							defer h.close()

							list, err := h.payments.ListStuck(c.Context, time.Now().Add(-c.Duration("older-than")))
							if err != nil {
								return err
							}

							printPayments(list)
							return nil
						},
					},
					{
						Name:      "resume",
						ArgsUsage: "<payment_id>",
						Usage:     "verify a stuck payment again with its recorded gateway callback",
						Action: func(c *cli.Context) error {
							id, err := parseID(c, "payment")
							if err != nil {
								return err
							}

							h, err := NewHandler()
							if err != nil {
								return err
							}
							defer h.close()

							payment, err := h.payments.ResumePayment(c.Context, id)
							if err != nil {
								return err
							}

							printPayments([]entities.Payment{payment})
							return nil
						},
					},
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
