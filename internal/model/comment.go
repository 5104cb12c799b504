package model

import (
	"time"
)

const CommentMaxContentLength = 1000

type Comment struct {
	ID        int64     `db:"id"`
	GoalID    int64     `db:"goal_id"`
	UserID    int64     `db:"user_id"`
	ParentID  *int64    `db:"parent_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	// Populated by joins, not a column of comments
	UserName string `db:"user_name"`
}

func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}

// CommentThread is a root comment with its direct replies.
type CommentThread struct {
	*Comment
	Replies []*Comment
}
