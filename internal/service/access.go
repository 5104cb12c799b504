package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mtpultz/goal-digger/internal/model"
)

var ErrForbidden = errors.New("forbidden")

type goalLookup interface {
	ByID(ctx context.Context, goalID int64) (*model.Goal, error)
}

type buddyLookup interface {
	HasAccepted(ctx context.Context, goalID, buddyID int64) (bool, error)
}

// AccessService decides who may read a goal and its comments.
type AccessService struct {
	goals   goalLookup
	buddies buddyLookup
}

func NewAccessService(goals goalLookup, buddies buddyLookup) *AccessService {
	return &AccessService{goals: goals, buddies: buddies}
}

// HasAccess reports whether userID owns, or holds an accepted buddy
// invitation on, goal or any of its ancestors.
func (s *AccessService) HasAccess(ctx context.Context, userID int64, goal *model.Goal) (bool, error) {
	visited := map[int64]bool{}
	current := goal
	for {
		if visited[current.ID] {
			return false, fmt.Errorf("access check from goal %d: %w", goal.ID, ErrCycle)
		}
		visited[current.ID] = true

		if current.UserID == userID {
			return true, nil
		}

		accepted, err := s.buddies.HasAccepted(ctx, current.ID, userID)
		if err != nil {
			return false, fmt.Errorf("failed to check buddy access: %w", err)
		}
		if accepted {
			return true, nil
		}

		if current.ParentID == nil {
			return false, nil
		}
		current, err = s.goals.ByID(ctx, *current.ParentID)
		if err != nil {
			return false, fmt.Errorf("failed to load ancestor: %w", err)
		}
	}
}

// Authorize returns ErrForbidden unless userID has access to goal.
func (s *AccessService) Authorize(ctx context.Context, userID int64, goal *model.Goal) error {
	ok, err := s.HasAccess(ctx, userID, goal)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
