package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

// maxTxAttempts bounds how often a transaction is re-run after a
// serialization failure or deadlock before the error is returned to the caller.
const maxTxAttempts = 3

// SQLSTATEs after which re-running the whole transaction can succeed.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// Transactor runs units of work inside a single database transaction.
//
// On PostgreSQL every transaction is SERIALIZABLE and retried on
// serialization failures and deadlocks. On SQLite the write lock taken at BEGIN
// (see _txlock=immediate in the DSN) already serializes writers.
type Transactor struct {
	db   *sqlx.DB
	opts *sql.TxOptions
}

func NewTransactor(db *sqlx.DB) *Transactor {
	var opts *sql.TxOptions
	if db.DriverName() == "pgx" {
		opts = &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return &Transactor{db: db, opts: opts}
}

// InTx calls fn with a transaction and commits when fn returns nil.
// Any error from fn rolls back every statement fn executed.
func (t *Transactor) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = t.run(ctx, fn)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
		slog.Warn("transaction serialization failure, retrying", "attempt", attempt, "error", err)
	}
	return fmt.Errorf("transaction failed after %d attempts: %w", maxTxAttempts, err)
}

func (t *Transactor) run(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := t.db.BeginTxx(ctx, t.opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = fn(tx)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
}

// isUniqueViolation checks for unique constraint violations (works for both SQLite and PostgreSQL)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value")
}
