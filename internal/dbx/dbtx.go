// Package dbx holds the handle types repositories are written against and
// the transaction helper services use to group repository calls.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is what a repository needs from its handle. *sql.DB and *sql.Tx
// both satisfy it, so one repository type serves pooled and transactional
// callers.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Acquirer hands out the process-wide connection pool, opening it on first
// use.
type Acquirer interface {
	Acquire(ctx context.Context) (*sql.DB, error)
}

// WithTx runs fn inside one transaction on db. The transaction commits when
// fn returns nil and rolls back otherwise; fn's error is returned as is so
// callers can still match on it. A panic in fn rolls back and re-panics.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
