package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtpultz/goal-digger/internal/model"
	"github.com/mtpultz/goal-digger/internal/repository"
	"github.com/mtpultz/goal-digger/internal/validation"
)

func TestCreateCommentAndReply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	goal := env.addGoal(t, owner, nil, "goal", model.GoalStatusOpen)

	root, err := env.comment.Create(ctx, owner.ID, goal.ID, "first!", nil)
	require.NoError(t, err)
	assert.Equal(t, "owner", root.UserName)
	assert.True(t, root.IsRoot())

	reply, err := env.comment.Create(ctx, owner.ID, goal.ID, "a reply", &root.ID)
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, root.ID, *reply.ParentID)

	_, err = env.comment.Create(ctx, owner.ID, goal.ID, "too deep", &reply.ID)
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, []string{"Parent comment must be a root comment for this goal."}, verrs["parent_id"])

	other := env.addGoal(t, owner, nil, "other", model.GoalStatusOpen)
	_, err = env.comment.Create(ctx, owner.ID, other.ID, "wrong goal", &root.ID)
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "parent_id")
}

func TestCommentContentLength(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	goal := env.addGoal(t, owner, nil, "goal", model.GoalStatusOpen)

	_, err := env.comment.Create(ctx, owner.ID, goal.ID, strings.Repeat("\u00e9", model.CommentMaxContentLength), nil)
	assert.NoError(t, err)

	_, err = env.comment.Create(ctx, owner.ID, goal.ID, strings.Repeat("a", model.CommentMaxContentLength+1), nil)
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "content")

	_, err = env.comment.Create(ctx, owner.ID, goal.ID, "  ", nil)
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, []string{"The content field is required."}, verrs["content"])
}

func TestCommentContentIsNormalized(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	goal := env.addGoal(t, owner, nil, "goal", model.GoalStatusOpen)

	// "e" followed by a combining acute accent, 1000 times, is 2000 code
	// points decomposed but 1000 once composed.
	decomposed := strings.Repeat("é", model.CommentMaxContentLength)

	comment, err := env.comment.Create(ctx, owner.ID, goal.ID, decomposed, nil)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("\u00e9", model.CommentMaxContentLength), comment.Content)
}

func TestListCommentsOrdersThreads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	goal := env.addGoal(t, owner, nil, "goal", model.GoalStatusOpen)

	older, err := env.comment.Create(ctx, owner.ID, goal.ID, "older", nil)
	require.NoError(t, err)
	newer, err := env.comment.Create(ctx, owner.ID, goal.ID, "newer", nil)
	require.NoError(t, err)
	r1, err := env.comment.Create(ctx, owner.ID, goal.ID, "r1", &older.ID)
	require.NoError(t, err)
	r2, err := env.comment.Create(ctx, owner.ID, goal.ID, "r2", &older.ID)
	require.NoError(t, err)

	threads, err := env.comment.List(ctx, owner.ID, goal.ID)
	require.NoError(t, err)
	require.Len(t, threads, 2)

	assert.Equal(t, newer.ID, threads[0].ID)
	assert.Empty(t, threads[0].Replies)
	assert.NotNil(t, threads[0].Replies)

	assert.Equal(t, older.ID, threads[1].ID)
	require.Len(t, threads[1].Replies, 2)
	assert.Equal(t, r1.ID, threads[1].Replies[0].ID)
	assert.Equal(t, r2.ID, threads[1].Replies[1].ID)
}

func TestUpdateAndDeleteCommentRequireAuthor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	buddy := env.user(t, "buddy")
	goal := env.addGoal(t, owner, nil, "goal", model.GoalStatusOpen)
	other := env.addGoal(t, owner, nil, "other", model.GoalStatusOpen)
	env.share(t, goal, buddy, model.BuddyStatusAccepted)

	comment, err := env.comment.Create(ctx, buddy.ID, goal.ID, "from a buddy", nil)
	require.NoError(t, err)

	_, err = env.comment.Update(ctx, owner.ID, goal.ID, comment.ID, "edited")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, env.comment.Delete(ctx, owner.ID, goal.ID, comment.ID), ErrForbidden)

	_, err = env.comment.Update(ctx, buddy.ID, other.ID, comment.ID, "edited")
	assert.ErrorIs(t, err, repository.ErrCommentNotFound)

	updated, err := env.comment.Update(ctx, buddy.ID, goal.ID, comment.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	stored, err := env.comments.ByGoalAndID(ctx, goal.ID, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", stored.Content)
}

func TestDeleteCommentCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	goal := env.addGoal(t, owner, nil, "goal", model.GoalStatusOpen)

	root, err := env.comment.Create(ctx, owner.ID, goal.ID, "root", nil)
	require.NoError(t, err)
	reply, err := env.comment.Create(ctx, owner.ID, goal.ID, "reply", &root.ID)
	require.NoError(t, err)
	keep, err := env.comment.Create(ctx, owner.ID, goal.ID, "unrelated", nil)
	require.NoError(t, err)

	// Deeper nesting cannot be created through the service but may exist
	// in older data.
	nested := &model.Comment{GoalID: goal.ID, UserID: owner.ID, ParentID: &reply.ID, Content: "nested"}
	require.NoError(t, env.comments.Create(ctx, nested))

	require.NoError(t, env.comment.Delete(ctx, owner.ID, goal.ID, root.ID))

	for _, id := range []int64{root.ID, reply.ID, nested.ID} {
		_, err = env.comments.ByGoalAndID(ctx, goal.ID, id)
		assert.ErrorIs(t, err, repository.ErrCommentNotFound)
	}
	_, err = env.comments.ByGoalAndID(ctx, goal.ID, keep.ID)
	assert.NoError(t, err)
}

func TestBuddyOnAncestorCanComment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	accepted := env.user(t, "accepted")
	pending := env.user(t, "pending")
	rejected := env.user(t, "rejected")

	root := env.addGoal(t, owner, nil, "root", model.GoalStatusOpen)
	mid := env.addGoal(t, owner, root, "mid", model.GoalStatusOpen)
	leaf := env.addGoal(t, owner, mid, "leaf", model.GoalStatusOpen)

	env.share(t, root, accepted, model.BuddyStatusAccepted)
	env.share(t, mid, pending, model.BuddyStatusPending)
	env.share(t, mid, rejected, model.BuddyStatusRejected)

	_, err := env.comment.Create(ctx, accepted.ID, leaf.ID, "go go go", nil)
	require.NoError(t, err)

	threads, err := env.comment.List(ctx, accepted.ID, leaf.ID)
	require.NoError(t, err)
	assert.Len(t, threads, 1)

	for _, user := range []*model.User{pending, rejected} {
		_, err = env.comment.List(ctx, user.ID, leaf.ID)
		assert.ErrorIs(t, err, ErrForbidden, user.Name)

		_, err = env.comment.Create(ctx, user.ID, leaf.ID, "hi", nil)
		assert.ErrorIs(t, err, ErrForbidden, user.Name)
	}

	_, err = env.comment.List(ctx, owner.ID, 9999)
	assert.ErrorIs(t, err, repository.ErrGoalNotFound)
}

func TestHasAccessDoesNotLookBelow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	buddy := env.user(t, "buddy")

	root := env.addGoal(t, owner, nil, "root", model.GoalStatusOpen)
	child := env.addGoal(t, owner, root, "child", model.GoalStatusOpen)
	env.share(t, child, buddy, model.BuddyStatusAccepted)

	ok, err := env.access.HasAccess(ctx, buddy.ID, child)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.access.HasAccess(ctx, buddy.ID, root)
	require.NoError(t, err)
	assert.False(t, ok)
}
