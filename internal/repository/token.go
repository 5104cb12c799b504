package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mtpultz/goal-digger/internal/model"
)

var (
	ErrTokenNotFound = errors.New("token not found")
)

const tokenColumns = `id, user_id, type, token, expires_at, used_at, created_at`

type TokenRepository interface {
	Create(ctx context.Context, token *model.Token) error
	Consume(ctx context.Context, userID int64, token, tokenType string) (*model.Token, error)
	DeleteByUserAndType(ctx context.Context, userID int64, tokenType string) error
	CleanupExpired(ctx context.Context, olderThan time.Duration) (int64, error)
	WithTx(tx *sqlx.Tx) TokenRepository
}

type tokenRepository struct {
	db sqlx.ExtContext
}

func NewTokenRepository(db *sqlx.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) WithTx(tx *sqlx.Tx) TokenRepository {
	return &tokenRepository{db: tx}
}

func (r *tokenRepository) Create(ctx context.Context, token *model.Token) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO tokens (id, user_id, type, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.Type,
		token.Token,
		token.ExpiresAt,
		token.CreatedAt,
	)
	return err
}

// Consume marks an unused, unexpired token of the given type issued to
// userID as used and returns it. It is a single UPDATE, so of two concurrent requests only one
// gets the token; the other gets ErrTokenNotFound.
func (r *tokenRepository) Consume(ctx context.Context, userID int64, token, tokenType string) (*model.Token, error) {
	var t model.Token
	now := time.Now()

	query := `
		UPDATE tokens
		SET used_at = $1
		WHERE token = $2
		AND type = $3
		AND user_id = $4
		AND used_at IS NULL
		AND expires_at > $1
		RETURNING ` + tokenColumns

	err := sqlx.GetContext(ctx, r.db, &t, query, now, token, tokenType, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *tokenRepository) DeleteByUserAndType(ctx context.Context, userID int64, tokenType string) error {
	query := `DELETE FROM tokens WHERE user_id = $1 AND type = $2 AND used_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, userID, tokenType)
	return err
}

// CleanupExpired removes used and expired tokens older than olderThan.
// Tokens are otherwise kept as an audit trail; `do tokens prune` calls this.
func (r *tokenRepository) CleanupExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	query := `
		DELETE FROM tokens
		WHERE (used_at IS NOT NULL AND used_at < $1)
		   OR (expires_at < $1)
	`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
