package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

// DataLakeRepo stores every published domain event as-is.
// Postgres stands in for a real data lake (BigQuery, S3) here.
type DataLakeRepo struct {
	db *sqlx.DB
}

func NewDataLakeRepo(db *sqlx.DB) *DataLakeRepo {
	return &DataLakeRepo{db: db}
}

func (r *DataLakeRepo) SaveEvent(ctx context.Context, event entities.DataLakeEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ledger_events (event_id, published_at, event_name, event_payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
	`, event.ID, event.PublishedAt, event.EventName, event.Payload)

	return err
}

func (r *DataLakeRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT count(*) FROM ledger_events`)
	return n, err
}
