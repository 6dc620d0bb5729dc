package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/KunArthit/petterrain-api-sub000/apperr"
)

// Querier is satisfied by both *sql.DB and *sql.Tx so helpers can run inside
// or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back on error or panic. Errors already carrying an
// apperr kind pass through unchanged; anything else becomes a
// TransactionFailure.
func WithTx(ctx context.Context, db *sql.DB, op string, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.TransactionFailure(op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, rbErr)
		}
		if _, ok := apperr.As(err); ok {
			return err
		}
		return apperr.TransactionFailure(op, err)
	}

	if err := tx.Commit(); err != nil {
		return apperr.TransactionFailure(op, err)
	}
	return nil
}
