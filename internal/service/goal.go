package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mtpultz/goal-digger/internal/metrics"
	"github.com/mtpultz/goal-digger/internal/model"
	"github.com/mtpultz/goal-digger/internal/repository"
	"github.com/mtpultz/goal-digger/internal/validation"
)

// GoalsPerPage is the page size of the active goals listing.
const GoalsPerPage = 25

const maxGoalTitleLength = 255

type GoalService struct {
	repo   repository.GoalRepository
	access *AccessService
	tx     *repository.Transactor
}

func NewGoalService(repo repository.GoalRepository, access *AccessService, tx *repository.Transactor) *GoalService {
	return &GoalService{
		repo:   repo,
		access: access,
		tx:     tx,
	}
}

type CreateGoalInput struct {
	ParentID    *int64
	Title       string
	Description *string
	DueDate     *time.Time
	Links       *model.Links
}

// GoalPage is one page of a goal listing.
type GoalPage struct {
	Goals    []*model.GoalWithRelations
	Page     int
	PerPage  int
	Total    int
	LastPage int
}

// Create adds a goal owned by userID. A child goal joins the tree of its
// parent, which must belong to the same user.
func (s *GoalService) Create(ctx context.Context, userID int64, input CreateGoalInput) (*model.GoalWithRelations, error) {
	err := validation.Check(
		validation.Field("title", input.Title, validation.Required, validation.MaxLength(maxGoalTitleLength)),
		validation.Field("parent_id", input.ParentID, validation.Positive),
	)
	if err != nil {
		return nil, err
	}

	goal := &model.Goal{
		ParentID:    input.ParentID,
		UserID:      userID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		DueDate:     input.DueDate,
		Status:      model.GoalStatusOpen,
		Links:       input.Links,
	}

	var result *model.GoalWithRelations
	err = s.tx.InTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)

		if input.ParentID != nil {
			parent, err := repo.ByOwner(ctx, userID, *input.ParentID)
			if errors.Is(err, repository.ErrGoalNotFound) {
				return validation.Fail("parent_id", "The selected parent id is invalid.")
			}
			if err != nil {
				return fmt.Errorf("failed to load parent goal: %w", err)
			}
			goal.RootID = parent.RootID
		}

		err := repo.Create(ctx, goal)
		if err != nil {
			return fmt.Errorf("failed to create goal: %w", err)
		}

		result, err = oneWithRelations(ctx, repo, goal)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("goal created", "goal_id", goal.ID, "user_id", userID, "parent_id", goal.ParentID)
	return result, nil
}

// Get returns a goal the user owns or follows as a buddy.
func (s *GoalService) Get(ctx context.Context, userID, goalID int64) (*model.GoalWithRelations, error) {
	goal, err := s.repo.ByID(ctx, goalID)
	if err != nil {
		return nil, err
	}

	err = s.access.Authorize(ctx, userID, goal)
	if err != nil {
		return nil, err
	}

	return oneWithRelations(ctx, s.repo, goal)
}

// Transition changes the status of a goal owned by userID and propagates the
// change through its tree in one transaction. Goals owned by someone else
// are reported as repository.ErrGoalNotFound.
func (s *GoalService) Transition(ctx context.Context, userID, goalID int64, status model.GoalStatus) (*model.GoalWithRelations, error) {
	if !status.Valid() {
		return nil, validation.Fail("status", "The selected status is invalid.")
	}

	var (
		result  *model.GoalWithRelations
		old     model.GoalStatus
		effects *statusEffects
	)
	err := s.tx.InTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)

		goal, err := repo.ByOwner(ctx, userID, goalID)
		if err != nil {
			return err
		}
		old = goal.Status

		effects, err = applyStatus(ctx, repo, goal, status)
		if err != nil {
			return err
		}

		goal, err = repo.ByID(ctx, goalID)
		if err != nil {
			return fmt.Errorf("failed to reload goal: %w", err)
		}

		result, err = oneWithRelations(ctx, repo, goal)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition(string(old), string(status))
	metrics.RecordPropagation("reopened", len(effects.Reopened))
	metrics.RecordPropagation("activated", len(effects.Activated))
	metrics.RecordPropagation("completed", len(effects.Completed))

	slog.Info("goal status changed",
		"goal_id", goalID,
		"user_id", userID,
		"from", old,
		"to", status,
		"reopened", effects.Reopened,
		"activated", effects.Activated,
		"completed", effects.Completed,
	)
	return result, nil
}

// Active returns the user's ACTIVE goals, GoalsPerPage at a time. Pages
// start at 1; a page past the end is empty.
func (s *GoalService) Active(ctx context.Context, userID int64, page int) (*GoalPage, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.repo.CountActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count active goals: %w", err)
	}

	goals, err := s.repo.Active(ctx, userID, GoalsPerPage, (page-1)*GoalsPerPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list active goals: %w", err)
	}

	loaded, err := withRelations(ctx, s.repo, goals...)
	if err != nil {
		return nil, err
	}

	lastPage := (total + GoalsPerPage - 1) / GoalsPerPage
	if lastPage < 1 {
		lastPage = 1
	}

	return &GoalPage{
		Goals:    loaded,
		Page:     page,
		PerPage:  GoalsPerPage,
		Total:    total,
		LastPage: lastPage,
	}, nil
}

// Delete removes a goal owned by userID together with all its descendants,
// deepest first.
func (s *GoalService) Delete(ctx context.Context, userID, goalID int64) error {
	var count int
	err := s.tx.InTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)

		_, err := repo.ByOwner(ctx, userID, goalID)
		if err != nil {
			return err
		}

		ids, err := collectDescendants(ctx, repo.ChildIDs, goalID)
		if err != nil {
			return err
		}
		count = len(ids)

		err = repo.DeleteByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to delete goals: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("goal deleted", "goal_id", goalID, "user_id", userID, "deleted", count)
	return nil
}

// collectDescendants walks the tree below id level by level and returns
// every node, id included, ordered so that children precede their parents.
func collectDescendants(ctx context.Context, childIDs func(context.Context, []int64) ([]int64, error), id int64) ([]int64, error) {
	order := []int64{id}
	seen := map[int64]bool{id: true}
	level := []int64{id}

	for len(level) > 0 {
		children, err := childIDs(ctx, level)
		if err != nil {
			return nil, fmt.Errorf("failed to load children: %w", err)
		}

		next := make([]int64, 0, len(children))
		for _, child := range children {
			if seen[child] {
				return nil, fmt.Errorf("descendants of %d: %w", id, ErrCycle)
			}
			seen[child] = true
			next = append(next, child)
		}
		order = append(order, next...)
		level = next
	}

	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

type goalsByIDs interface {
	ByIDs(ctx context.Context, goalIDs []int64) (map[int64]*model.Goal, error)
}

func oneWithRelations(ctx context.Context, repo goalsByIDs, goal *model.Goal) (*model.GoalWithRelations, error) {
	loaded, err := withRelations(ctx, repo, goal)
	if err != nil {
		return nil, err
	}
	return loaded[0], nil
}

// withRelations attaches root and parent to each goal with one query.
func withRelations(ctx context.Context, repo goalsByIDs, goals ...*model.Goal) ([]*model.GoalWithRelations, error) {
	ids := make([]int64, 0, len(goals)*2)
	for _, goal := range goals {
		if goal.IsRoot() {
			continue
		}
		ids = append(ids, *goal.ParentID)
		if goal.RootID != nil {
			ids = append(ids, *goal.RootID)
		}
	}

	related, err := repo.ByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load related goals: %w", err)
	}

	out := make([]*model.GoalWithRelations, 0, len(goals))
	for _, goal := range goals {
		loaded := &model.GoalWithRelations{Goal: goal}
		if !goal.IsRoot() {
			loaded.Parent = related[*goal.ParentID]
			if goal.RootID != nil {
				loaded.Root = related[*goal.RootID]
			}
		}
		out = append(out, loaded)
	}
	return out, nil
}
