package model

import (
	"time"
)

type GoalStatus string

const (
	GoalStatusOpen     GoalStatus = "OPEN"
	GoalStatusActive   GoalStatus = "ACTIVE"
	GoalStatusComplete GoalStatus = "COMPLETE"
	GoalStatusSkipped  GoalStatus = "SKIPPED"
)

// GoalStatuses lists every valid status in declaration order.
var GoalStatuses = []GoalStatus{
	GoalStatusOpen,
	GoalStatusActive,
	GoalStatusComplete,
	GoalStatusSkipped,
}

func (s GoalStatus) Valid() bool {
	for _, status := range GoalStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsPending reports whether work is still expected on a goal in this status.
func (s GoalStatus) IsPending() bool {
	return s == GoalStatusOpen || s == GoalStatusActive
}

// IsClosed reports whether the goal is done with, either completed or skipped.
func (s GoalStatus) IsClosed() bool {
	return s == GoalStatusComplete || s == GoalStatusSkipped
}

type Goal struct {
	ID          int64      `db:"id"`
	ParentID    *int64     `db:"parent_id"`
	RootID      *int64     `db:"root_id"`
	UserID      int64      `db:"user_id"`
	Title       string     `db:"title"`
	Description *string    `db:"description"`
	DueDate     *time.Time `db:"due_date"`
	Status      GoalStatus `db:"status"`
	Links       *Links     `db:"links"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (g *Goal) IsRoot() bool {
	return g.ParentID == nil
}

// GoalWithRelations is a goal loaded together with its tree root and direct parent.
// Both are nil for a root goal.
type GoalWithRelations struct {
	*Goal
	Root   *Goal
	Parent *Goal
}
