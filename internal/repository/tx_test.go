package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtpultz/goal-digger/internal/db/dbtest"
)

func TestIsSerializationFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, want: true},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: true},
		{name: "wrapped deadlock", err: fmt.Errorf("update goal: %w", &pgconn.PgError{Code: "40P01"}), want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: false},
		{name: "plain error", err: errors.New("disk full"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isSerializationFailure(tt.err))
		})
	}
}

func TestInTxRetriesDeadlocks(t *testing.T) {
	tx := NewTransactor(dbtest.New(t))

	attempts := 0
	err := tx.InTx(context.Background(), func(*sqlx.Tx) error {
		attempts++
		if attempts == 1 {
			return &pgconn.PgError{Code: "40P01"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestInTxGivesUp(t *testing.T) {
	tx := NewTransactor(dbtest.New(t))
	deadlock := &pgconn.PgError{Code: "40P01"}

	attempts := 0
	err := tx.InTx(context.Background(), func(*sqlx.Tx) error {
		attempts++
		return deadlock
	})

	assert.ErrorIs(t, err, deadlock)
	assert.Equal(t, maxTxAttempts, attempts)

	attempts = 0
	other := errors.New("constraint failed")
	err = tx.InTx(context.Background(), func(*sqlx.Tx) error {
		attempts++
		return other
	})
	assert.ErrorIs(t, err, other)
	assert.Equal(t, 1, attempts, "other errors are not retried")
}
