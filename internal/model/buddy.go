package model

import (
	"time"
)

type BuddyStatus string

const (
	BuddyStatusPending  BuddyStatus = "PENDING"
	BuddyStatusAccepted BuddyStatus = "ACCEPTED"
	BuddyStatusRejected BuddyStatus = "REJECTED"
)

type BuddyRole string

const (
	BuddyRoleViewer       BuddyRole = "VIEWER"
	BuddyRoleContributor  BuddyRole = "CONTRIBUTOR"
	BuddyRoleCollaborator BuddyRole = "COLLABORATOR"
)

func (r BuddyRole) Valid() bool {
	switch r {
	case BuddyRoleViewer, BuddyRoleContributor, BuddyRoleCollaborator:
		return true
	}
	return false
}

// BuddyGoal is an invitation for BuddyID to follow GoalID and, through it,
// every descendant of that goal.
type BuddyGoal struct {
	ID         int64       `db:"id"`
	GoalID     int64       `db:"goal_id"`
	UserID     int64       `db:"user_id"` // Who sent the invitation
	BuddyID    int64       `db:"buddy_id"`
	Status     BuddyStatus `db:"status"`
	Role       BuddyRole   `db:"role"`
	AcceptedAt *time.Time  `db:"accepted_at"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

func (b *BuddyGoal) IsPending() bool {
	return b.Status == BuddyStatusPending
}

func (b *BuddyGoal) IsAccepted() bool {
	return b.Status == BuddyStatusAccepted
}
