package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// conn carries the sqlx handle and resolves the transaction from ctx, if any.
type conn struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func (c conn) tr(ctx context.Context) trmsqlx.Tr {
	return c.getter.DefaultTrOrDB(ctx, c.db)
}

func mapError(err error, entity string, id any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Errorf(entities.ErrNotFound, "%s %v", entity, id)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%s %v: %w", entity, id, entities.ErrDuplicate)
		case pqForeignKeyViolation:
			return entities.Errorf(entities.ErrNotFound, "%s %v references a missing row (%s)", entity, id, pqErr.Constraint)
		case pqCheckViolation:
			return entities.Errorf(entities.ErrInvalidState, "%s %v violates %s", entity, id, pqErr.Constraint)
		}
	}

	return fmt.Errorf("%s %v: %w", entity, id, err)
}

func expectOneRow(res sql.Result, entity string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entities.Errorf(entities.ErrNotFound, "%s %v", entity, id)
	}
	return nil
}
