// Package mail abstracts delivery of signup verification codes. The
// default implementation only logs the code; a real SMTP sender can be
// dropped in without touching the handlers.
package mail

import (
	"context"
	"log/slog"
)

// Mailer delivers a verification code to an email address.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

// LogMailer writes codes to the structured log instead of sending mail.
// Useful for development and for kiosk deployments without SMTP access.
type LogMailer struct{}

func (LogMailer) SendVerificationCode(_ context.Context, email, code string) error {
	slog.Info("verification code issued", "email", email, "code", code)
	return nil
}
