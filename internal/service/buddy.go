package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mtpultz/goal-digger/internal/model"
	"github.com/mtpultz/goal-digger/internal/repository"
	"github.com/mtpultz/goal-digger/internal/validation"
)

type BuddyService struct {
	repo   repository.BuddyGoalRepository
	goals  repository.GoalRepository
	users  repository.UserRepository
	mailer Mailer
}

func NewBuddyService(
	repo repository.BuddyGoalRepository,
	goals repository.GoalRepository,
	users repository.UserRepository,
	mailer Mailer,
) *BuddyService {
	return &BuddyService{
		repo:   repo,
		goals:  goals,
		users:  users,
		mailer: mailer,
	}
}

// Invitation is a buddy goal together with the goal it grants access to.
type Invitation struct {
	*model.BuddyGoal
	Goal *model.Goal
}

// Invite asks the user registered under email to follow a goal owned by
// ownerID. Accepting grants access to the goal and all of its descendants.
func (s *BuddyService) Invite(ctx context.Context, ownerID, goalID int64, email string, role model.BuddyRole) (*Invitation, error) {
	goal, err := s.goals.ByOwner(ctx, ownerID, goalID)
	if err != nil {
		return nil, err
	}

	buddy, err := s.users.ByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, validation.Fail("email", "The selected email is invalid.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find buddy: %w", err)
	}
	if buddy.ID == ownerID {
		return nil, validation.Fail("email", "You cannot invite yourself.")
	}

	if role == "" {
		role = model.BuddyRoleViewer
	}
	if !role.Valid() {
		return nil, validation.Fail("role", "The selected role is invalid.")
	}

	buddyGoal := &model.BuddyGoal{
		GoalID:  goal.ID,
		UserID:  ownerID,
		BuddyID: buddy.ID,
		Status:  model.BuddyStatusPending,
		Role:    role,
	}
	err = s.repo.Create(ctx, buddyGoal)
	if errors.Is(err, repository.ErrDuplicateBuddyGoal) {
		return nil, validation.Fail("email", "This user has already been invited to this goal.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	owner, err := s.users.ByID(ctx, ownerID)
	if err != nil {
		slog.Warn("failed to load inviting user", "error", err, "user_id", ownerID)
	} else {
		err = s.mailer.SendBuddyInvitationEmail(ctx, buddy.Email, buddy.Name, owner.Name, goal.Title)
		if err != nil {
			slog.Warn("failed to send buddy invitation email", "error", err, "buddy_goal_id", buddyGoal.ID)
		}
	}

	slog.Info("buddy invited", "buddy_goal_id", buddyGoal.ID, "goal_id", goal.ID, "buddy_id", buddy.ID, "role", role)
	return &Invitation{BuddyGoal: buddyGoal, Goal: goal}, nil
}

// Invitations lists every invitation addressed to userID, newest first.
func (s *BuddyService) Invitations(ctx context.Context, userID int64) ([]*Invitation, error) {
	buddyGoals, err := s.repo.ForBuddy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}

	ids := make([]int64, 0, len(buddyGoals))
	for _, bg := range buddyGoals {
		ids = append(ids, bg.GoalID)
	}
	goals, err := s.goals.ByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load invited goals: %w", err)
	}

	invitations := make([]*Invitation, 0, len(buddyGoals))
	for _, bg := range buddyGoals {
		invitations = append(invitations, &Invitation{BuddyGoal: bg, Goal: goals[bg.GoalID]})
	}
	return invitations, nil
}

// Respond accepts or rejects a pending invitation addressed to userID.
// Invitations addressed to someone else are reported as not found.
func (s *BuddyService) Respond(ctx context.Context, userID, buddyGoalID int64, status model.BuddyStatus) (*Invitation, error) {
	if status != model.BuddyStatusAccepted && status != model.BuddyStatusRejected {
		return nil, validation.Fail("status", "The selected status is invalid.")
	}

	buddyGoal, err := s.repo.ByID(ctx, buddyGoalID)
	if err != nil {
		return nil, err
	}
	if buddyGoal.BuddyID != userID {
		return nil, repository.ErrBuddyGoalNotFound
	}
	if !buddyGoal.IsPending() {
		return nil, validation.Fail("status", "This invitation has already been answered.")
	}

	buddyGoal.Status = status
	if status == model.BuddyStatusAccepted {
		now := time.Now()
		buddyGoal.AcceptedAt = &now
	}

	err = s.repo.UpdateStatus(ctx, buddyGoal)
	if err != nil {
		return nil, fmt.Errorf("failed to update invitation: %w", err)
	}

	goal, err := s.goals.ByID(ctx, buddyGoal.GoalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invited goal: %w", err)
	}

	slog.Info("buddy invitation answered", "buddy_goal_id", buddyGoal.ID, "buddy_id", userID, "status", status)
	return &Invitation{BuddyGoal: buddyGoal, Goal: goal}, nil
}
