package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mtpultz/goal-digger/internal/model"
)

var (
	ErrBuddyGoalNotFound  = errors.New("buddy goal not found")
	ErrDuplicateBuddyGoal = errors.New("user is already a buddy on this goal")
)

const buddyGoalColumns = `id, goal_id, user_id, buddy_id, status, role, accepted_at, created_at, updated_at`

type BuddyGoalRepository interface {
	Create(ctx context.Context, buddyGoal *model.BuddyGoal) error
	ByID(ctx context.Context, id int64) (*model.BuddyGoal, error)
	ForBuddy(ctx context.Context, buddyID int64) ([]*model.BuddyGoal, error)
	HasAccepted(ctx context.Context, goalID, buddyID int64) (bool, error)
	UpdateStatus(ctx context.Context, buddyGoal *model.BuddyGoal) error
	WithTx(tx *sqlx.Tx) BuddyGoalRepository
}

type buddyGoalRepository struct {
	db sqlx.ExtContext
}

func NewBuddyGoalRepository(db *sqlx.DB) BuddyGoalRepository {
	return &buddyGoalRepository{db: db}
}

func (r *buddyGoalRepository) WithTx(tx *sqlx.Tx) BuddyGoalRepository {
	return &buddyGoalRepository{db: tx}
}

func (r *buddyGoalRepository) Create(ctx context.Context, buddyGoal *model.BuddyGoal) error {
	now := time.Now()
	if buddyGoal.CreatedAt.IsZero() {
		buddyGoal.CreatedAt = now
	}
	if buddyGoal.UpdatedAt.IsZero() {
		buddyGoal.UpdatedAt = now
	}
	if buddyGoal.Status == "" {
		buddyGoal.Status = model.BuddyStatusPending
	}
	if buddyGoal.Role == "" {
		buddyGoal.Role = model.BuddyRoleViewer
	}

	query := `INSERT INTO buddy_goals (goal_id, user_id, buddy_id, status, role, accepted_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	err := sqlx.GetContext(ctx, r.db, &buddyGoal.ID, query,
		buddyGoal.GoalID,
		buddyGoal.UserID,
		buddyGoal.BuddyID,
		buddyGoal.Status,
		buddyGoal.Role,
		buddyGoal.AcceptedAt,
		buddyGoal.CreatedAt,
		buddyGoal.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateBuddyGoal
		}
		return err
	}

	return nil
}

func (r *buddyGoalRepository) ByID(ctx context.Context, id int64) (*model.BuddyGoal, error) {
	buddyGoal := &model.BuddyGoal{}
	query := `SELECT ` + buddyGoalColumns + ` FROM buddy_goals WHERE id = $1`

	err := sqlx.GetContext(ctx, r.db, buddyGoal, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBuddyGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return buddyGoal, nil
}

// ForBuddy returns every invitation addressed to buddyID, newest first.
func (r *buddyGoalRepository) ForBuddy(ctx context.Context, buddyID int64) ([]*model.BuddyGoal, error) {
	var buddyGoals []*model.BuddyGoal
	query := `SELECT ` + buddyGoalColumns + ` FROM buddy_goals WHERE buddy_id = $1 ORDER BY created_at DESC, id DESC`

	err := sqlx.SelectContext(ctx, r.db, &buddyGoals, query, buddyID)
	if err != nil {
		return nil, err
	}

	return buddyGoals, nil
}

func (r *buddyGoalRepository) HasAccepted(ctx context.Context, goalID, buddyID int64) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM buddy_goals WHERE goal_id = $1 AND buddy_id = $2 AND status = $3`

	err := sqlx.GetContext(ctx, r.db, &count, query, goalID, buddyID, model.BuddyStatusAccepted)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *buddyGoalRepository) UpdateStatus(ctx context.Context, buddyGoal *model.BuddyGoal) error {
	buddyGoal.UpdatedAt = time.Now()
	query := `UPDATE buddy_goals SET status = $1, accepted_at = $2, updated_at = $3 WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, buddyGoal.Status, buddyGoal.AcceptedAt, buddyGoal.UpdatedAt, buddyGoal.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrBuddyGoalNotFound
	}

	return nil
}
