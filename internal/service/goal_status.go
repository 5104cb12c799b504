package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mtpultz/goal-digger/internal/model"
	"github.com/mtpultz/goal-digger/internal/repository"
)

var ErrCycle = errors.New("tree contains a cycle")

// goalTree is the view of the goal tree a status transition reads and
// writes. repository.GoalRepository bound to a transaction satisfies it.
type goalTree interface {
	ByID(ctx context.Context, goalID int64) (*model.Goal, error)
	FirstChildWithStatus(ctx context.Context, parentID int64, status model.GoalStatus) (*model.Goal, error)
	CountChildrenWithStatus(ctx context.Context, parentID int64, statuses ...model.GoalStatus) (int, error)
	UpdateStatus(ctx context.Context, goalID int64, status model.GoalStatus) error
}

// statusEffects lists the goals a transition changed besides the goal itself.
type statusEffects struct {
	Reopened  []int64
	Activated []int64
	Completed []int64
}

// applyStatus moves goal to status and propagates the change through the
// tree:
//
//   - reopening a closed goal reopens every COMPLETE ancestor up to the
//     first one that is not COMPLETE
//   - closing a goal activates its lowest-id OPEN sibling
//   - completing a goal completes each ancestor whose children are all closed
//
// All writes go through tree, so the caller decides the transaction scope.
// goal.Status is updated in place.
func applyStatus(ctx context.Context, tree goalTree, goal *model.Goal, status model.GoalStatus) (*statusEffects, error) {
	old := goal.Status
	effects := &statusEffects{}

	err := tree.UpdateStatus(ctx, goal.ID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal status: %w", err)
	}
	goal.Status = status

	if goal.ParentID == nil {
		return effects, nil
	}

	if old.IsClosed() && status.IsPending() {
		effects.Reopened, err = reopenAncestors(ctx, tree, goal)
		if err != nil {
			return nil, err
		}
	}

	if status.IsClosed() {
		effects.Activated, err = activateNextSibling(ctx, tree, *goal.ParentID)
		if err != nil {
			return nil, err
		}
	}

	if status == model.GoalStatusComplete {
		effects.Completed, err = completeAncestors(ctx, tree, goal)
		if err != nil {
			return nil, err
		}
	}

	return effects, nil
}

// reopenAncestors walks up from the goal's parent. Every step moves to a
// strictly higher node, so on an acyclic tree the walk ends at the root at
// the latest; the visited set turns corrupted data into ErrCycle.
func reopenAncestors(ctx context.Context, tree goalTree, goal *model.Goal) ([]int64, error) {
	var reopened []int64
	visited := map[int64]bool{goal.ID: true}

	for id := goal.ParentID; id != nil; {
		if visited[*id] {
			return nil, fmt.Errorf("reopen from goal %d: %w", goal.ID, ErrCycle)
		}
		visited[*id] = true

		ancestor, err := tree.ByID(ctx, *id)
		if err != nil {
			return nil, fmt.Errorf("failed to load ancestor %d: %w", *id, err)
		}
		if ancestor.Status != model.GoalStatusComplete {
			break
		}

		err = tree.UpdateStatus(ctx, ancestor.ID, model.GoalStatusOpen)
		if err != nil {
			return nil, fmt.Errorf("failed to reopen goal %d: %w", ancestor.ID, err)
		}
		reopened = append(reopened, ancestor.ID)
		id = ancestor.ParentID
	}

	return reopened, nil
}

func activateNextSibling(ctx context.Context, tree goalTree, parentID int64) ([]int64, error) {
	sibling, err := tree.FirstChildWithStatus(ctx, parentID, model.GoalStatusOpen)
	if errors.Is(err, repository.ErrGoalNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find open sibling: %w", err)
	}

	err = tree.UpdateStatus(ctx, sibling.ID, model.GoalStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to activate goal %d: %w", sibling.ID, err)
	}
	return []int64{sibling.ID}, nil
}

// completeAncestors completes each level whose children are all closed,
// stopping at the first level with pending work or above the root.
func completeAncestors(ctx context.Context, tree goalTree, goal *model.Goal) ([]int64, error) {
	var completed []int64
	visited := map[int64]bool{goal.ID: true}

	for id := goal.ParentID; id != nil; {
		if visited[*id] {
			return nil, fmt.Errorf("complete from goal %d: %w", goal.ID, ErrCycle)
		}
		visited[*id] = true

		pending, err := tree.CountChildrenWithStatus(ctx, *id, model.GoalStatusOpen, model.GoalStatusActive)
		if err != nil {
			return nil, fmt.Errorf("failed to count pending children of %d: %w", *id, err)
		}
		if pending > 0 {
			break
		}

		err = tree.UpdateStatus(ctx, *id, model.GoalStatusComplete)
		if err != nil {
			return nil, fmt.Errorf("failed to complete goal %d: %w", *id, err)
		}
		completed = append(completed, *id)

		ancestor, err := tree.ByID(ctx, *id)
		if err != nil {
			return nil, fmt.Errorf("failed to load ancestor %d: %w", *id, err)
		}
		id = ancestor.ParentID
	}

	return completed, nil
}
