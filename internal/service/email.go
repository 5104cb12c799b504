package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/resend/resend-go/v2"
)

// Mailer delivers transactional email.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, email, name string, userID int64, token string) error
	SendPasswordResetEmail(ctx context.Context, email, name, token string) error
	SendBuddyInvitationEmail(ctx context.Context, email, buddyName, ownerName, goalTitle string) error
}

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

func (s *EmailService) SendVerificationEmail(ctx context.Context, email, name string, userID int64, token string) error {
	verifyURL := fmt.Sprintf("%s/verify-email?id=%d&hash=%s", s.appURL, userID, url.QueryEscape(token))
	subject, body := verificationEmailTemplate(name, verifyURL, s.appName)
	return s.send(ctx, "email_verification", email, subject, body, verifyURL)
}

func (s *EmailService) SendPasswordResetEmail(ctx context.Context, email, name, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s&email=%s", s.appURL, url.QueryEscape(token), url.QueryEscape(email))
	subject, body := passwordResetEmailTemplate(name, resetURL, s.appName)
	return s.send(ctx, "password_reset", email, subject, body, resetURL)
}

func (s *EmailService) SendBuddyInvitationEmail(ctx context.Context, email, buddyName, ownerName, goalTitle string) error {
	invitationsURL := fmt.Sprintf("%s/buddy-goals", s.appURL)
	subject, body := buddyInvitationEmailTemplate(buddyName, ownerName, goalTitle, invitationsURL, s.appName)
	return s.send(ctx, "buddy_invitation", email, subject, body, invitationsURL)
}

func (s *EmailService) send(ctx context.Context, kind, to, subject, body, link string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", kind, "to", to, "subject", subject, "url", link)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	slog.Info("email sent", "type", kind, "to", to)
	return nil
}
