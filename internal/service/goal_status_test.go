package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtpultz/goal-digger/internal/model"
	"github.com/mtpultz/goal-digger/internal/repository"
)

// memTree is an in-memory goal arena indexed by id.
type memTree struct {
	goals  map[int64]*model.Goal
	writes []int64
	failOn int64
}

func newMemTree() *memTree {
	return &memTree{goals: map[int64]*model.Goal{}}
}

func (m *memTree) add(id int64, parentID int64, status model.GoalStatus) *model.Goal {
	g := &model.Goal{ID: id, Status: status, Title: "goal"}
	if parentID != 0 {
		p := parentID
		g.ParentID = &p
	}
	m.goals[id] = g
	return g
}

func (m *memTree) status(id int64) model.GoalStatus {
	return m.goals[id].Status
}

func (m *memTree) snapshot() map[int64]model.GoalStatus {
	out := make(map[int64]model.GoalStatus, len(m.goals))
	for id, g := range m.goals {
		out[id] = g.Status
	}
	return out
}

func (m *memTree) children(parentID int64) []*model.Goal {
	var out []*model.Goal
	for _, g := range m.goals {
		if g.ParentID != nil && *g.ParentID == parentID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memTree) ByID(_ context.Context, goalID int64) (*model.Goal, error) {
	g, ok := m.goals[goalID]
	if !ok {
		return nil, repository.ErrGoalNotFound
	}
	clone := *g
	return &clone, nil
}

func (m *memTree) FirstChildWithStatus(_ context.Context, parentID int64, status model.GoalStatus) (*model.Goal, error) {
	for _, g := range m.children(parentID) {
		if g.Status == status {
			clone := *g
			return &clone, nil
		}
	}
	return nil, repository.ErrGoalNotFound
}

func (m *memTree) CountChildrenWithStatus(_ context.Context, parentID int64, statuses ...model.GoalStatus) (int, error) {
	count := 0
	for _, g := range m.children(parentID) {
		for _, s := range statuses {
			if g.Status == s {
				count++
				break
			}
		}
	}
	return count, nil
}

func (m *memTree) UpdateStatus(_ context.Context, goalID int64, status model.GoalStatus) error {
	if m.failOn == goalID {
		return errors.New("disk on fire")
	}
	g, ok := m.goals[goalID]
	if !ok {
		return repository.ErrGoalNotFound
	}
	g.Status = status
	m.writes = append(m.writes, goalID)
	return nil
}

func transition(t *testing.T, tree *memTree, id int64, status model.GoalStatus) error {
	t.Helper()
	goal, err := tree.ByID(context.Background(), id)
	require.NoError(t, err)
	_, err = applyStatus(context.Background(), tree, goal, status)
	return err
}

func TestCompleteActivatesNextOpenSibling(t *testing.T) {
	tree := newMemTree()
	tree.add(1, 0, model.GoalStatusActive)
	tree.add(2, 1, model.GoalStatusActive)
	tree.add(3, 1, model.GoalStatusOpen)

	require.NoError(t, transition(t, tree, 2, model.GoalStatusComplete))

	assert.Equal(t, model.GoalStatusComplete, tree.status(2))
	assert.Equal(t, model.GoalStatusActive, tree.status(3))
	assert.Equal(t, model.GoalStatusActive, tree.status(1))
}

func TestCompleteLastPendingChildCompletesParent(t *testing.T) {
	tree := newMemTree()
	tree.add(1, 0, model.GoalStatusActive)
	tree.add(2, 1, model.GoalStatusActive)
	tree.add(3, 1, model.GoalStatusComplete)

	require.NoError(t, transition(t, tree, 2, model.GoalStatusComplete))

	assert.Equal(t, model.GoalStatusComplete, tree.status(2))
	assert.Equal(t, model.GoalStatusComplete, tree.status(1))
}

func TestCompleteActivatesOnlyLowestIDSibling(t *testing.T) {
	tree := newMemTree()
	tree.add(1, 0, model.GoalStatusActive)
	tree.add(2, 1, model.GoalStatusActive)
	tree.add(5, 1, model.GoalStatusOpen)
	tree.add(4, 1, model.GoalStatusOpen)
	tree.add(3, 1, model.GoalStatusSkipped)

	require.NoError(t, transition(t, tree, 2, model.GoalStatusComplete))

	assert.Equal(t, model.GoalStatusActive, tree.status(4))
	assert.Equal(t, model.GoalStatusOpen, tree.status(5))
	assert.Equal(t, model.GoalStatusActive, tree.status(1))
}

func TestSkipActivatesSiblingWithoutBubbling(t *testing.T) {
	tree := newMemTree()
	tree.add(1, 0, model.GoalStatusActive)
	tree.add(2, 1, model.GoalStatusActive)
	tree.add(3, 1, model.GoalStatusComplete)

	require.NoError(t, transition(t, tree, 2, model.GoalStatusSkipped))

	assert.Equal(t, model.GoalStatusSkipped, tree.status(2))
	assert.Equal(t, model.GoalStatusActive, tree.status(1), "skipping never completes the parent")
}

func TestCompleteBubblesUntilAncestorHasPendingWork(t *testing.T) {
	tree := newMemTree()
	tree.add(1, 0, model.GoalStatusActive)  // root
	tree.add(2, 1, model.GoalStatusActive)  // grandparent
	tree.add(3, 1, model.GoalStatusOpen)    // grandparent's sibling keeps root open
	tree.add(4, 2, model.GoalStatusActive)  // parent
	tree.add(5, 4, model.GoalStatusActive)  // goal
	tree.add(6, 4, model.GoalStatusSkipped) // closed sibling

	require.NoError(t, transition(t, tree, 5, model.GoalStatusComplete))

	assert.Equal(t, model.GoalStatusComplete, tree.status(5))
	assert.Equal(t, model.GoalStatusComplete, tree.status(4))
	assert.Equal(t, model.GoalStatusComplete, tree.status(2))
	assert.Equal(t, model.GoalStatusActive, tree.status(1))
	assert.Equal(t, model.GoalStatusOpen, tree.status(3), "only the goal's own siblings are activated")
}

func TestCompleteBubblesToRoot(t *testing.T) {
	tree := newMemTree()
	tree.add(1, 0, model.GoalStatusActive)
	tree.add(2, 1, model.GoalStatusActive)
	tree.add(3, 2, model.GoalStatusActive)

	require.NoError(t, transition(t, tree, 3, model.GoalStatusComplete))

	assert.Equal(t, model.GoalStatusComplete, tree.status(3))
	assert.Equal(t, model.GoalStatusComplete, tree.status(2))
	assert.Equal(t, model.GoalStatusComplete, tree.status(1))
}

func TestReopenBubblesThroughCompleteAncestors(t *testing.T) {
	tree := newMemTree()
	tree.add(1, 0, model.GoalStatusComplete)
	tree.add(2, 1, model.GoalStatusComplete)
	tree.add(3, 2, model.GoalStatusComplete)

	require.NoError(t, transition(t, tree, 3, model.GoalStatusOpen))

	assert.Equal(t, model.GoalStatusOpen, tree.status(3))
	assert.Equal(t, model.GoalStatusOpen, tree.status(2))
	assert.Equal(t, model.GoalStatusOpen, tree.status(1))
}

func TestReopenStopsAtFirstNonCompleteAncestor(t *testing.T) {
	tree := newMemTree()
	tree.add(1, 0, model.GoalStatusComplete)
	tree.add(2, 1, model.GoalStatusActive)
	tree.add(3, 2, model.GoalStatusComplete)
	tree.add(4, 3, model.GoalStatusSkipped)

	require.NoError(t, transition(t, tree, 4, model.GoalStatusActive))

	assert.Equal(t, model.GoalStatusActive, tree.status(4))
	assert.Equal(t, model.GoalStatusOpen, tree.status(3))
	assert.Equal(t, model.GoalStatusActive, tree.status(2))
	assert.Equal(t, model.GoalStatusComplete, tree.status(1), "walk stops below the first non-complete ancestor")
}

func TestReopenFromPendingDoesNotTouchAncestors(t *testing.T) {
	tree := newMemTree()
	tree.add(1, 0, model.GoalStatusComplete)
	tree.add(2, 1, model.GoalStatusOpen)

	require.NoError(t, transition(t, tree, 2, model.GoalStatusActive))

	assert.Equal(t, model.GoalStatusComplete, tree.status(1))
}

func TestRootTransitionsTouchNoOtherGoal(t *testing.T) {
	for _, status := range model.GoalStatuses {
		t.Run(string(status), func(t *testing.T) {
			tree := newMemTree()
			tree.add(1, 0, model.GoalStatusComplete)
			tree.add(2, 1, model.GoalStatusOpen)
			tree.add(3, 1, model.GoalStatusActive)

			require.NoError(t, transition(t, tree, 1, status))

			assert.Equal(t, []int64{1}, tree.writes)
			assert.Equal(t, model.GoalStatusOpen, tree.status(2))
			assert.Equal(t, model.GoalStatusActive, tree.status(3))
		})
	}
}

func TestSameStatusIsStable(t *testing.T) {
	tree := newMemTree()
	tree.add(1, 0, model.GoalStatusActive)
	tree.add(2, 1, model.GoalStatusComplete)
	tree.add(3, 1, model.GoalStatusActive)
	tree.add(4, 1, model.GoalStatusOpen)

	require.NoError(t, transition(t, tree, 2, model.GoalStatusComplete))
	first := tree.snapshot()
	assert.Equal(t, model.GoalStatusActive, first[4], "re-completing still activates the next open sibling")

	require.NoError(t, transition(t, tree, 2, model.GoalStatusComplete))
	assert.Equal(t, first, tree.snapshot())

	require.NoError(t, transition(t, tree, 3, model.GoalStatusActive))
	assert.Equal(t, first, tree.snapshot())
}

func TestCycleIsReported(t *testing.T) {
	tree := newMemTree()
	tree.add(1, 2, model.GoalStatusComplete)
	tree.add(2, 1, model.GoalStatusComplete)
	tree.add(3, 1, model.GoalStatusSkipped)

	err := transition(t, tree, 3, model.GoalStatusOpen)
	assert.ErrorIs(t, err, ErrCycle)
}

func TestCompleteCycleIsReported(t *testing.T) {
	tree := newMemTree()
	tree.add(1, 2, model.GoalStatusActive)
	tree.add(2, 1, model.GoalStatusComplete)
	tree.add(3, 1, model.GoalStatusActive)

	err := transition(t, tree, 3, model.GoalStatusComplete)
	assert.ErrorIs(t, err, ErrCycle)
}

func TestWriteFailureIsReturned(t *testing.T) {
	tree := newMemTree()
	tree.add(1, 0, model.GoalStatusActive)
	tree.add(2, 1, model.GoalStatusActive)
	tree.failOn = 1

	err := transition(t, tree, 2, model.GoalStatusComplete)
	assert.Error(t, err)
}

func TestEffectsListPropagatedGoals(t *testing.T) {
	tree := newMemTree()
	tree.add(1, 0, model.GoalStatusActive)
	tree.add(2, 1, model.GoalStatusActive)
	tree.add(3, 2, model.GoalStatusActive)
	tree.add(4, 2, model.GoalStatusSkipped)

	goal, err := tree.ByID(context.Background(), 3)
	require.NoError(t, err)

	effects, err := applyStatus(context.Background(), tree, goal, model.GoalStatusComplete)
	require.NoError(t, err)
	assert.Empty(t, effects.Reopened)
	assert.Empty(t, effects.Activated)
	assert.Equal(t, []int64{2, 1}, effects.Completed)
	assert.Equal(t, model.GoalStatusComplete, goal.Status)

	goal, err = tree.ByID(context.Background(), 3)
	require.NoError(t, err)

	effects, err = applyStatus(context.Background(), tree, goal, model.GoalStatusOpen)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, effects.Reopened)
	assert.Empty(t, effects.Completed)
}
