// Package dbx holds the small database plumbing shared by repositories:
// an interface both *sql.DB and *sql.Tx satisfy, and a transaction runner.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is the query surface repositories depend on. Passing a *sql.Tx makes
// a repository call part of an enclosing transaction; passing a *sql.DB runs
// it standalone.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back when it returns an error or panics; panics are
// rethrown after rollback.
//
// The submit path relies on this: appending a submission and clearing the
// draft must land together or not at all.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	done := false
	defer func() {
		if !done {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		done = true
		return err
	}

	if err := tx.Commit(); err != nil {
		done = true
		return fmt.Errorf("commit tx: %w", err)
	}

	done = true
	return nil
}
