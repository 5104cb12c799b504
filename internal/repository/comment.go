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
	ErrCommentNotFound = errors.New("comment not found")
)

// Comment queries join the author so responses can carry the user's name.
const commentSelect = `SELECT c.id, c.goal_id, c.user_id, c.parent_id, c.content, c.created_at, c.updated_at, u.name AS user_name
	FROM comments c
	JOIN users u ON u.id = c.user_id`

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	ByGoalAndID(ctx context.Context, goalID, commentID int64) (*model.Comment, error)
	RootComment(ctx context.Context, goalID, commentID int64) (*model.Comment, error)
	Roots(ctx context.Context, goalID int64) ([]*model.Comment, error)
	Replies(ctx context.Context, parentIDs []int64) ([]*model.Comment, error)
	UpdateContent(ctx context.Context, comment *model.Comment) error
	ChildIDs(ctx context.Context, parentIDs []int64) ([]int64, error)
	DeleteByIDs(ctx context.Context, commentIDs []int64) error
	WithTx(tx *sqlx.Tx) CommentRepository
}

type commentRepository struct {
	db sqlx.ExtContext
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) WithTx(tx *sqlx.Tx) CommentRepository {
	return &commentRepository{db: tx}
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	now := time.Now()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	if comment.UpdatedAt.IsZero() {
		comment.UpdatedAt = now
	}

	query := `INSERT INTO comments (goal_id, user_id, parent_id, content, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	return sqlx.GetContext(ctx, r.db, &comment.ID, query,
		comment.GoalID,
		comment.UserID,
		comment.ParentID,
		comment.Content,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
}

func (r *commentRepository) ByGoalAndID(ctx context.Context, goalID, commentID int64) (*model.Comment, error) {
	return r.get(ctx, commentSelect+` WHERE c.id = $1 AND c.goal_id = $2`, commentID, goalID)
}

// RootComment returns commentID only if it is a root comment on goalID.
func (r *commentRepository) RootComment(ctx context.Context, goalID, commentID int64) (*model.Comment, error) {
	return r.get(ctx, commentSelect+` WHERE c.id = $1 AND c.goal_id = $2 AND c.parent_id IS NULL`, commentID, goalID)
}

func (r *commentRepository) get(ctx context.Context, query string, args ...any) (*model.Comment, error) {
	comment := &model.Comment{}
	err := sqlx.GetContext(ctx, r.db, comment, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// Roots returns the root comments of a goal, newest first.
func (r *commentRepository) Roots(ctx context.Context, goalID int64) ([]*model.Comment, error) {
	var comments []*model.Comment
	query := commentSelect + ` WHERE c.goal_id = $1 AND c.parent_id IS NULL ORDER BY c.created_at DESC, c.id DESC`

	err := sqlx.SelectContext(ctx, r.db, &comments, query, goalID)
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Replies returns the direct replies of the given comments, oldest first.
func (r *commentRepository) Replies(ctx context.Context, parentIDs []int64) ([]*model.Comment, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(commentSelect+` WHERE c.parent_id IN (?) ORDER BY c.created_at ASC, c.id ASC`, parentIDs)
	if err != nil {
		return nil, err
	}

	var comments []*model.Comment
	err = sqlx.SelectContext(ctx, r.db, &comments, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, comment *model.Comment) error {
	comment.UpdatedAt = time.Now()
	query := `UPDATE comments SET content = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, comment.Content, comment.UpdatedAt, comment.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCommentNotFound
	}

	return nil
}

func (r *commentRepository) ChildIDs(ctx context.Context, parentIDs []int64) ([]int64, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT id FROM comments WHERE parent_id IN (?) ORDER BY id ASC`, parentIDs)
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

// DeleteByIDs deletes the given comments in order.
func (r *commentRepository) DeleteByIDs(ctx context.Context, commentIDs []int64) error {
	for _, id := range commentIDs {
		_, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
		if err != nil {
			return err
		}
	}
	return nil
}
