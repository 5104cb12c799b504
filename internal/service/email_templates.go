package service

import "fmt"

func verificationEmailTemplate(name, verifyURL, appName string) (string, string) {
	subject := fmt.Sprintf("Verify your email for %s", appName)
	body := fmt.Sprintf(`Hi %s,

Thanks for signing up! Please confirm your email address with this link:
%s

This link expires in 24 hours and can only be used once.

If you didn't create an account, you can safely ignore this email.

Best,
The %s Team`, name, verifyURL, appName)

	return subject, body
}

func passwordResetEmailTemplate(name, resetURL, appName string) (string, string) {
	subject := fmt.Sprintf("Reset your password for %s", appName)
	body := fmt.Sprintf(`Hi %s,

You requested to reset your password. Choose a new one here:
%s

This link expires in 1 hour and can only be used once.

If you didn't request this, you can safely ignore this email. Your password won't be changed.

Best,
The %s Team`, name, resetURL, appName)

	return subject, body
}

func buddyInvitationEmailTemplate(buddyName, ownerName, goalTitle, invitationsURL, appName string) (string, string) {
	subject := fmt.Sprintf("%s invited you to a goal on %s", ownerName, appName)
	body := fmt.Sprintf(`Hi %s,

%s would like you to follow along on "%s".

Accept or decline the invitation here:
%s

Best,
The %s Team`, buddyName, ownerName, goalTitle, invitationsURL, appName)

	return subject, body
}
