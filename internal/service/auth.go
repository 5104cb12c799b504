package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"github.com/mtpultz/goal-digger/internal/model"
	"github.com/mtpultz/goal-digger/internal/repository"
	"github.com/mtpultz/goal-digger/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrInvalidToken            = errors.New("invalid token")
	ErrInvalidResetToken       = errors.New("invalid token or email")
	ErrInvalidVerificationLink = errors.New("invalid verification link")
)

const (
	emailTakenMessage       = "An account with this email address already exists."
	passwordMismatchMessage = "Password confirmation does not match."
	unknownEmailMessage     = "The selected email is invalid."
	unknownUserIDMessage    = "The selected id is invalid."
	maxEmailLength          = 255
)

type AuthService struct {
	userRepository           repository.UserRepository
	tokenRepository          repository.TokenRepository
	mailer                   Mailer
	tx                       *repository.Transactor
	jwtSecret                string
	jwtExpiry                time.Duration
	tokenEmailVerifyExpiry   time.Duration
	tokenPasswordResetExpiry time.Duration
}

func NewAuthService(
	userRepository repository.UserRepository,
	tokenRepository repository.TokenRepository,
	mailer Mailer,
	tx *repository.Transactor,
	jwtSecret string,
	jwtExpiry time.Duration,
	tokenEmailVerifyExpiry time.Duration,
	tokenPasswordResetExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepository:           userRepository,
		tokenRepository:          tokenRepository,
		mailer:                   mailer,
		tx:                       tx,
		jwtSecret:                jwtSecret,
		jwtExpiry:                jwtExpiry,
		tokenEmailVerifyExpiry:   tokenEmailVerifyExpiry,
		tokenPasswordResetExpiry: tokenPasswordResetExpiry,
	}
}

type RegisterInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

type ResetPasswordInput struct {
	Email                string
	Token                string
	Password             string
	PasswordConfirmation string
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// Register creates an account, issues an email verification token and
// returns the new user with an access token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, string, error) {
	email := normalizeEmail(input.Email)

	err := validation.Check(
		validation.Field("name", input.Name, validation.Required, validation.Name),
		validation.Field("email", email, validation.Required, validation.MaxLength(maxEmailLength), validation.Email),
		validation.Field("password", input.Password, validation.Required,
			validation.ConfirmedWith(input.PasswordConfirmation, passwordMismatchMessage), validation.Password),
	)
	if err != nil {
		return nil, "", err
	}

	hash, err := s.HashPassword(input.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
	}

	var verifyToken string
	err = s.tx.InTx(ctx, func(tx *sqlx.Tx) error {
		err := s.userRepository.WithTx(tx).Create(ctx, user)
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return validation.Fail("email", emailTakenMessage)
		}
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		verifyToken, err = s.issueToken(ctx, s.tokenRepository.WithTx(tx), user.ID, model.TokenTypeEmailVerify, s.tokenEmailVerifyExpiry)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	err = s.mailer.SendVerificationEmail(ctx, user.Email, user.Name, user.ID, verifyToken)
	if err != nil {
		// The account exists; the user can ask for another link.
		slog.Warn("failed to send verification email", "error", err, "user_id", user.ID)
	}

	accessToken, err := s.GenerateJWT(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate access token: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, accessToken, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = normalizeEmail(email)

	err := validation.Check(
		validation.Field("email", email, validation.Required, validation.Email),
		validation.Field("password", password, validation.Required),
	)
	if err != nil {
		return nil, "", err
	}

	user, err := s.userRepository.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", fmt.Errorf("invalid credentials: %w", ErrInvalidCredentials)
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	err = s.ComparePassword(password, user.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("invalid credentials: %w", ErrInvalidCredentials)
	}

	accessToken, err := s.GenerateJWT(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate access token: %w", err)
	}

	slog.Info("user logged in", "user_id", user.ID)
	return user, accessToken, nil
}

// existingUser validates email and loads its account. Unknown addresses are
// a validation failure on the email field.
func (s *AuthService) existingUser(ctx context.Context, email string) (*model.User, error) {
	err := validation.Check(
		validation.Field("email", email, validation.Required, validation.Email),
	)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepository.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, validation.Fail("email", unknownEmailMessage)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ForgotPassword replaces any outstanding reset token of the user and mails a new one.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.existingUser(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}

	err = s.tokenRepository.DeleteByUserAndType(ctx, user.ID, model.TokenTypePasswordReset)
	if err != nil {
		slog.Warn("failed to delete old password reset tokens", "error", err, "user_id", user.ID)
	}

	resetToken, err := s.issueToken(ctx, s.tokenRepository, user.ID, model.TokenTypePasswordReset, s.tokenPasswordResetExpiry)
	if err != nil {
		return err
	}

	err = s.mailer.SendPasswordResetEmail(ctx, user.Email, user.Name, resetToken)
	if err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	slog.Info("password reset link sent", "user_id", user.ID)
	return nil
}

// ResetPassword consumes a reset token issued to email and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	email := normalizeEmail(input.Email)

	err := validation.Check(
		validation.Field("email", email, validation.Required, validation.Email),
		validation.Field("token", input.Token, validation.Required),
		validation.Field("password", input.Password, validation.Required,
			validation.ConfirmedWith(input.PasswordConfirmation, passwordMismatchMessage), validation.Password),
	)
	if err != nil {
		return err
	}

	user, err := s.existingUser(ctx, email)
	if err != nil {
		return err
	}

	hash, err := s.HashPassword(input.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.tx.InTx(ctx, func(tx *sqlx.Tx) error {
		_, err := s.tokenRepository.WithTx(tx).Consume(ctx, user.ID, input.Token, model.TokenTypePasswordReset)
		if errors.Is(err, repository.ErrTokenNotFound) {
			return ErrInvalidResetToken
		}
		if err != nil {
			return fmt.Errorf("failed to consume reset token: %w", err)
		}

		user.PasswordHash = hash
		err = s.userRepository.WithTx(tx).Update(ctx, user)
		if err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("password reset", "user_id", user.ID)
	return nil
}

// VerifyEmail consumes the verification token hash issued to userID. It
// reports true without touching any token when the address was already verified.
func (s *AuthService) VerifyEmail(ctx context.Context, userID int64, hash string) (bool, error) {
	err := validation.Check(
		validation.Field("id", userID, validation.Required, validation.Positive),
		validation.Field("hash", hash, validation.Required),
	)
	if err != nil {
		return false, err
	}

	user, err := s.userRepository.ByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return false, validation.Fail("id", unknownUserIDMessage)
	}
	if err != nil {
		return false, fmt.Errorf("failed to get user: %w", err)
	}

	if user.HasVerifiedEmail() {
		return true, nil
	}

	err = s.tx.InTx(ctx, func(tx *sqlx.Tx) error {
		_, err := s.tokenRepository.WithTx(tx).Consume(ctx, user.ID, hash, model.TokenTypeEmailVerify)
		if errors.Is(err, repository.ErrTokenNotFound) {
			return ErrInvalidVerificationLink
		}
		if err != nil {
			return fmt.Errorf("failed to consume verification token: %w", err)
		}

		now := time.Now()
		user.EmailVerifiedAt = &now
		err = s.userRepository.WithTx(tx).Update(ctx, user)
		if err != nil {
			return fmt.Errorf("failed to mark email verified: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	slog.Info("email verified", "user_id", user.ID)
	return false, nil
}

// ResendVerification mails a fresh verification link. It reports true and
// sends nothing when the address was already verified.
func (s *AuthService) ResendVerification(ctx context.Context, email string) (bool, error) {
	user, err := s.existingUser(ctx, normalizeEmail(email))
	if err != nil {
		return false, err
	}

	if user.HasVerifiedEmail() {
		return true, nil
	}

	err = s.tokenRepository.DeleteByUserAndType(ctx, user.ID, model.TokenTypeEmailVerify)
	if err != nil {
		slog.Warn("failed to delete old verification tokens", "error", err, "user_id", user.ID)
	}

	verifyToken, err := s.issueToken(ctx, s.tokenRepository, user.ID, model.TokenTypeEmailVerify, s.tokenEmailVerifyExpiry)
	if err != nil {
		return false, err
	}

	err = s.mailer.SendVerificationEmail(ctx, user.Email, user.Name, user.ID, verifyToken)
	if err != nil {
		return false, fmt.Errorf("failed to send verification email: %w", err)
	}

	return false, nil
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.VerifyJWT(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	// JSON numbers decode as float64
	rawID, ok := claims["user_id"].(float64)
	if !ok || rawID < 1 {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepository.ByID(ctx, int64(rawID))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (s *AuthService) issueToken(ctx context.Context, tokens repository.TokenRepository, userID int64, tokenType string, ttl time.Duration) (string, error) {
	value, err := s.GenerateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	err = tokens.Create(ctx, &model.Token{
		UserID:    userID,
		Type:      tokenType,
		Token:     value,
		ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}
	return value, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func (s *AuthService) GenerateJWT(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(s.jwtExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
