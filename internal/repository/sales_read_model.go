package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/avito-tech/go-transaction-manager/trm/v2/settings"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
	"github.com/yagnesh-3/Fira-sub001/internal/log"
)

// SalesReadModelRepo keeps one JSON document of sales counters per event.
type SalesReadModelRepo struct {
	db        *sqlx.DB
	getter    *trmsqlx.CtxGetter
	trManager *trmanager.Manager
}

func NewSalesReadModelRepo(
	db *sqlx.DB,
	getter *trmsqlx.CtxGetter,
	trManager *trmanager.Manager,
) *SalesReadModelRepo {
	return &SalesReadModelRepo{
		db:        db,
		getter:    getter,
		trManager: trManager,
	}
}

func (r *SalesReadModelRepo) Get(ctx context.Context, eventID uuid.UUID) (entities.EventSales, error) {
	s, err := r.find(ctx, eventID, "")
	if errors.Is(err, sql.ErrNoRows) {
		return entities.EventSales{EventID: eventID}, nil
	}
	return s, err
}

// Apply runs fn against the event's sales document at most once per message id.
func (r *SalesReadModelRepo) Apply(
	ctx context.Context,
	eventID uuid.UUID,
	messageID string,
	fn func(s *entities.EventSales),
) error {
	return r.trManager.DoWithSettings(
		ctx,
		trmsql.MustSettings(
			settings.Must(settings.WithCancelable(true)),
			trmsql.WithTxOptions(&sql.TxOptions{Isolation: sql.LevelRepeatableRead}),
		),
		func(ctx context.Context) error {
			tr := r.getter.DefaultTrOrDB(ctx, r.db)

			res, err := tr.ExecContext(ctx, `
				INSERT INTO read_model_applied_messages (message_id)
				VALUES ($1)
				ON CONFLICT DO NOTHING
			`, messageID)
			if err != nil {
				return fmt.Errorf("failed to mark message %s: %w", messageID, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				log.FromContext(ctx).WithField("message_id", messageID).Debug("Sales read model already has this message")
				return nil
			}

			s, err := r.find(ctx, eventID, "FOR UPDATE")
			if errors.Is(err, sql.ErrNoRows) {
				s = entities.EventSales{EventID: eventID}
			} else if err != nil {
				return fmt.Errorf("failed to find sales of event %s: %w", eventID, err)
			}

			fn(&s)
			s.LastUpdate = time.Now().UTC()

			payload, err := json.Marshal(s)
			if err != nil {
				return err
			}

			_, err = tr.ExecContext(ctx, `
				INSERT INTO read_model_event_sales (event_id, payload)
				VALUES ($1, $2)
				ON CONFLICT (event_id) DO UPDATE SET payload = excluded.payload
			`, eventID, payload)
			if err != nil {
				return fmt.Errorf("failed to update sales of event %s: %w", eventID, err)
			}

			return nil
		},
	)
}

func (r *SalesReadModelRepo) find(ctx context.Context, eventID uuid.UUID, suffix string) (entities.EventSales, error) {
	var payload []byte

	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(
		ctx,
		"SELECT payload FROM read_model_event_sales WHERE event_id = $1 "+suffix,
		eventID,
	).Scan(&payload)
	if err != nil {
		return entities.EventSales{}, err
	}

	var s entities.EventSales
	if err := json.Unmarshal(payload, &s); err != nil {
		return entities.EventSales{}, err
	}
	return s, nil
}
