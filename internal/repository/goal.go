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
	ErrGoalNotFound = errors.New("goal not found")
)

const goalColumns = `id, parent_id, root_id, user_id, title, description, due_date, status, links, created_at, updated_at`

type GoalRepository interface {
	Create(ctx context.Context, goal *model.Goal) error
	ByID(ctx context.Context, goalID int64) (*model.Goal, error)
	ByOwner(ctx context.Context, userID, goalID int64) (*model.Goal, error)
	ByIDs(ctx context.Context, goalIDs []int64) (map[int64]*model.Goal, error)
	Active(ctx context.Context, userID int64, limit, offset int) ([]*model.Goal, error)
	CountActive(ctx context.Context, userID int64) (int, error)
	FirstChildWithStatus(ctx context.Context, parentID int64, status model.GoalStatus) (*model.Goal, error)
	CountChildrenWithStatus(ctx context.Context, parentID int64, statuses ...model.GoalStatus) (int, error)
	ChildIDs(ctx context.Context, parentIDs []int64) ([]int64, error)
	UpdateStatus(ctx context.Context, goalID int64, status model.GoalStatus) error
	DeleteByIDs(ctx context.Context, goalIDs []int64) error
	WithTx(tx *sqlx.Tx) GoalRepository
}

type goalRepository struct {
	db sqlx.ExtContext
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

// WithTx returns a copy of the repository whose statements run on tx.
func (r *goalRepository) WithTx(tx *sqlx.Tx) GoalRepository {
	return &goalRepository{db: tx}
}

// Create inserts the goal and assigns its ID. A goal without a RootID is a
// tree root, so its root_id is pointed back at itself; call it inside a
// transaction to keep the two statements atomic.
func (r *goalRepository) Create(ctx context.Context, goal *model.Goal) error {
	now := time.Now()
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = now
	}
	if goal.UpdatedAt.IsZero() {
		goal.UpdatedAt = now
	}
	if goal.Status == "" {
		goal.Status = model.GoalStatusOpen
	}

	query := `INSERT INTO goals (parent_id, root_id, user_id, title, description, due_date, status, links, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`

	err := sqlx.GetContext(ctx, r.db, &goal.ID, query,
		goal.ParentID,
		goal.RootID,
		goal.UserID,
		goal.Title,
		goal.Description,
		goal.DueDate,
		goal.Status,
		goal.Links,
		goal.CreatedAt,
		goal.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if goal.RootID == nil {
		_, err = r.db.ExecContext(ctx, `UPDATE goals SET root_id = $1 WHERE id = $1`, goal.ID)
		if err != nil {
			return err
		}
		rootID := goal.ID
		goal.RootID = &rootID
	}

	return nil
}

func (r *goalRepository) ByID(ctx context.Context, goalID int64) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1`

	err := sqlx.GetContext(ctx, r.db, goal, query, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

func (r *goalRepository) ByOwner(ctx context.Context, userID, goalID int64) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1 AND user_id = $2`

	err := sqlx.GetContext(ctx, r.db, goal, query, goalID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

func (r *goalRepository) ByIDs(ctx context.Context, goalIDs []int64) (map[int64]*model.Goal, error) {
	result := make(map[int64]*model.Goal, len(goalIDs))
	if len(goalIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT `+goalColumns+` FROM goals WHERE id IN (?)`, goalIDs)
	if err != nil {
		return nil, err
	}

	var goals []*model.Goal
	err = sqlx.SelectContext(ctx, r.db, &goals, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	for _, goal := range goals {
		result[goal.ID] = goal
	}
	return result, nil
}

func (r *goalRepository) Active(ctx context.Context, userID int64, limit, offset int) ([]*model.Goal, error) {
	var goals []*model.Goal
	query := `SELECT ` + goalColumns + ` FROM goals
	          WHERE user_id = $1 AND status = $2
	          ORDER BY id ASC
	          LIMIT $3 OFFSET $4`

	err := sqlx.SelectContext(ctx, r.db, &goals, query, userID, model.GoalStatusActive, limit, offset)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) CountActive(ctx context.Context, userID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM goals WHERE user_id = $1 AND status = $2`
	err := sqlx.GetContext(ctx, r.db, &count, query, userID, model.GoalStatusActive)
	return count, err
}

// FirstChildWithStatus returns the lowest-id child of parentID in the given
// status, or ErrGoalNotFound when there is none.
func (r *goalRepository) FirstChildWithStatus(ctx context.Context, parentID int64, status model.GoalStatus) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT ` + goalColumns + ` FROM goals
	          WHERE parent_id = $1 AND status = $2
	          ORDER BY id ASC
	          LIMIT 1`

	err := sqlx.GetContext(ctx, r.db, goal, query, parentID, status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

func (r *goalRepository) CountChildrenWithStatus(ctx context.Context, parentID int64, statuses ...model.GoalStatus) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`SELECT COUNT(*) FROM goals WHERE parent_id = ? AND status IN (?)`, parentID, statuses)
	if err != nil {
		return 0, err
	}

	var count int
	err = sqlx.GetContext(ctx, r.db, &count, r.db.Rebind(query), args...)
	return count, err
}

func (r *goalRepository) ChildIDs(ctx context.Context, parentIDs []int64) ([]int64, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT id FROM goals WHERE parent_id IN (?) ORDER BY id ASC`, parentIDs)
	if err != nil {
		return nil, err
	}

	var ids []int64
	err = sqlx.SelectContext(ctx, r.db, &ids, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *goalRepository) UpdateStatus(ctx context.Context, goalID int64, status model.GoalStatus) error {
	query := `UPDATE goals SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), goalID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrGoalNotFound
	}

	return nil
}

// DeleteByIDs deletes exactly the given goals. Callers order the IDs so that
// children go before their parents.
func (r *goalRepository) DeleteByIDs(ctx context.Context, goalIDs []int64) error {
	for _, id := range goalIDs {
		_, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1`, id)
		if err != nil {
			return err
		}
	}
	return nil
}
