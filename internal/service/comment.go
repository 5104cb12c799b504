package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"golang.org/x/text/unicode/norm"

	"github.com/mtpultz/goal-digger/internal/model"
	"github.com/mtpultz/goal-digger/internal/repository"
	"github.com/mtpultz/goal-digger/internal/validation"
)

const invalidParentComment = "Parent comment must be a root comment for this goal."

type CommentService struct {
	repo   repository.CommentRepository
	goals  goalLookup
	access *AccessService
	tx     *repository.Transactor
}

func NewCommentService(
	repo repository.CommentRepository,
	goals repository.GoalRepository,
	access *AccessService,
	tx *repository.Transactor,
) *CommentService {
	return &CommentService{
		repo:   repo,
		goals:  goals,
		access: access,
		tx:     tx,
	}
}

func validateContent(content string) error {
	return validation.Check(
		validation.Field("content", content, validation.Required, validation.MaxLength(model.CommentMaxContentLength)),
	)
}

// authorizedGoal loads goalID and checks that userID may see it.
func (s *CommentService) authorizedGoal(ctx context.Context, userID, goalID int64) (*model.Goal, error) {
	goal, err := s.goals.ByID(ctx, goalID)
	if err != nil {
		return nil, err
	}

	err = s.access.Authorize(ctx, userID, goal)
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// List returns the root comments of a goal, newest first, each with its
// direct replies in the order they were written.
func (s *CommentService) List(ctx context.Context, userID, goalID int64) ([]*model.CommentThread, error) {
	_, err := s.authorizedGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	roots, err := s.repo.Roots(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	ids := make([]int64, 0, len(roots))
	for _, root := range roots {
		ids = append(ids, root.ID)
	}

	replies, err := s.repo.Replies(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}

	byParent := make(map[int64][]*model.Comment, len(roots))
	for _, reply := range replies {
		byParent[*reply.ParentID] = append(byParent[*reply.ParentID], reply)
	}

	threads := make([]*model.CommentThread, 0, len(roots))
	for _, root := range roots {
		thread := &model.CommentThread{Comment: root, Replies: byParent[root.ID]}
		if thread.Replies == nil {
			thread.Replies = []*model.Comment{}
		}
		threads = append(threads, thread)
	}
	return threads, nil
}

// Create adds a comment to a goal. A reply must point at a root comment of
// the same goal.
func (s *CommentService) Create(ctx context.Context, userID, goalID int64, content string, parentID *int64) (*model.Comment, error) {
	err := validateContent(content)
	if err != nil {
		return nil, err
	}

	_, err = s.authorizedGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		_, err = s.repo.RootComment(ctx, goalID, *parentID)
		if errors.Is(err, repository.ErrCommentNotFound) {
			return nil, validation.Fail("parent_id", invalidParentComment)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load parent comment: %w", err)
		}
	}

	comment := &model.Comment{
		GoalID:   goalID,
		UserID:   userID,
		ParentID: parentID,
		Content:  norm.NFC.String(content),
	}

	err = s.repo.Create(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return s.repo.ByGoalAndID(ctx, goalID, comment.ID)
}

// ownComment loads a comment on goalID and checks that userID wrote it.
func (s *CommentService) ownComment(ctx context.Context, repo repository.CommentRepository, userID, goalID, commentID int64) (*model.Comment, error) {
	comment, err := repo.ByGoalAndID(ctx, goalID, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, ErrForbidden
	}
	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, userID, goalID, commentID int64, content string) (*model.Comment, error) {
	err := validateContent(content)
	if err != nil {
		return nil, err
	}

	comment, err := s.ownComment(ctx, s.repo, userID, goalID, commentID)
	if err != nil {
		return nil, err
	}

	comment.Content = norm.NFC.String(content)
	err = s.repo.UpdateContent(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return comment, nil
}

// Delete removes a comment written by userID and every reply below it,
// replies first, in one transaction.
func (s *CommentService) Delete(ctx context.Context, userID, goalID, commentID int64) error {
	var count int
	err := s.tx.InTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)

		_, err := s.ownComment(ctx, repo, userID, goalID, commentID)
		if err != nil {
			return err
		}

		ids, err := collectDescendants(ctx, repo.ChildIDs, commentID)
		if err != nil {
			return err
		}
		count = len(ids)

		err = repo.DeleteByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("comment deleted", "comment_id", commentID, "goal_id", goalID, "user_id", userID, "deleted", count)
	return nil
}
