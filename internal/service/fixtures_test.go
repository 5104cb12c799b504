package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mtpultz/goal-digger/internal/db/dbtest"
	"github.com/mtpultz/goal-digger/internal/model"
	"github.com/mtpultz/goal-digger/internal/repository"
)

const testJWTSecret = "test-secret-that-is-long-enough"

type sentMail struct {
	Kind   string
	To     string
	UserID int64
	Token  string
	Extra  string
}

// fakeMailer records every message instead of sending it.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) record(mail sentMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mail)
	return nil
}

func (m *fakeMailer) SendVerificationEmail(_ context.Context, email, _ string, userID int64, token string) error {
	return m.record(sentMail{Kind: "verify", To: email, UserID: userID, Token: token})
}

func (m *fakeMailer) SendPasswordResetEmail(_ context.Context, email, _ string, token string) error {
	return m.record(sentMail{Kind: "reset", To: email, Token: token})
}

func (m *fakeMailer) SendBuddyInvitationEmail(_ context.Context, email, _, ownerName, goalTitle string) error {
	return m.record(sentMail{Kind: "invite", To: email, Extra: ownerName + ": " + goalTitle})
}

// last returns the most recent message of kind.
func (m *fakeMailer) last(t *testing.T, kind string) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Kind == kind {
			return m.sent[i]
		}
	}
	t.Fatalf("no %s email sent", kind)
	return sentMail{}
}

func (m *fakeMailer) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, mail := range m.sent {
		if mail.Kind == kind {
			n++
		}
	}
	return n
}

type testEnv struct {
	users    repository.UserRepository
	tokens   repository.TokenRepository
	goals    repository.GoalRepository
	buddies  repository.BuddyGoalRepository
	comments repository.CommentRepository
	tx       *repository.Transactor
	mailer   *fakeMailer

	access  *AccessService
	auth    *AuthService
	goal    *GoalService
	comment *CommentService
	buddy   *BuddyService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := dbtest.New(t)

	env := &testEnv{
		users:    repository.NewUserRepository(database),
		tokens:   repository.NewTokenRepository(database),
		goals:    repository.NewGoalRepository(database),
		buddies:  repository.NewBuddyGoalRepository(database),
		comments: repository.NewCommentRepository(database),
		tx:       repository.NewTransactor(database),
		mailer:   &fakeMailer{},
	}

	env.access = NewAccessService(env.goals, env.buddies)
	env.auth = NewAuthService(env.users, env.tokens, env.mailer, env.tx, testJWTSecret, time.Hour, 24*time.Hour, time.Hour)
	env.goal = NewGoalService(env.goals, env.access, env.tx)
	env.comment = NewCommentService(env.comments, env.goals, env.access, env.tx)
	env.buddy = NewBuddyService(env.buddies, env.goals, env.users, env.mailer)
	return env
}

// user stores an account whose password is "correct-horse-battery".
func (e *testEnv) user(t *testing.T, name string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse-battery"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &model.User{
		Name:         name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: string(hash),
	}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

// addGoal stores a goal in the given status under parent, or as a root when
// parent is nil.
func (e *testEnv) addGoal(t *testing.T, owner *model.User, parent *model.Goal, title string, status model.GoalStatus) *model.Goal {
	t.Helper()
	goal := &model.Goal{
		UserID: owner.ID,
		Title:  title,
		Status: status,
	}
	if parent != nil {
		goal.ParentID = &parent.ID
		goal.RootID = parent.RootID
	}
	require.NoError(t, e.goals.Create(context.Background(), goal))
	return goal
}

func (e *testEnv) status(t *testing.T, goal *model.Goal) model.GoalStatus {
	t.Helper()
	reloaded, err := e.goals.ByID(context.Background(), goal.ID)
	require.NoError(t, err)
	return reloaded.Status
}

// share records a buddy invitation on goal in the given status.
func (e *testEnv) share(t *testing.T, goal *model.Goal, buddy *model.User, status model.BuddyStatus) *model.BuddyGoal {
	t.Helper()
	bg := &model.BuddyGoal{
		GoalID:  goal.ID,
		UserID:  goal.UserID,
		BuddyID: buddy.ID,
		Status:  status,
		Role:    model.BuddyRoleViewer,
	}
	require.NoError(t, e.buddies.Create(context.Background(), bg))
	return bg
}

var errInjected = errors.New("injected failure")

// failingGoals fails UpdateStatus for one goal, inside transactions too.
type failingGoals struct {
	repository.GoalRepository
	failOn int64
}

func (f failingGoals) WithTx(tx *sqlx.Tx) repository.GoalRepository {
	return failingGoals{GoalRepository: f.GoalRepository.WithTx(tx), failOn: f.failOn}
}

func (f failingGoals) UpdateStatus(ctx context.Context, goalID int64, status model.GoalStatus) error {
	if goalID == f.failOn {
		return errInjected
	}
	return f.GoalRepository.UpdateStatus(ctx, goalID, status)
}
