package audit

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	pkgctx "github.com/baechuer/real-time-ressys/services/user-service/internal/pkg/context"
)

// Logger provides structured audit logging for account recovery events
type Logger struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Logger {
	return &Logger{
		log: log.With().Bool("audit", true).Logger(),
	}
}

// Nop discards every audit line.
func Nop() *Logger {
	return New(zerolog.Nop())
}

// PasswordResetRequested logs that a reset link was issued
func (l *Logger) PasswordResetRequested(ctx context.Context, userID, email string) {
	l.log.Info().
		Str("action", "password_reset_requested").
		Str("user_id", userID).
		Str("email", maskEmail(email)).
		Str("request_id", pkgctx.GetRequestID(ctx)).
		Msg("Password reset requested")
}

// PasswordResetUnknownEmail logs a reset request for an address with no account
func (l *Logger) PasswordResetUnknownEmail(ctx context.Context, email string) {
	l.log.Warn().
		Str("action", "password_reset_unknown_email").
		Str("email", maskEmail(email)).
		Str("request_id", pkgctx.GetRequestID(ctx)).
		Msg("Password reset requested for unknown email")
}

func (l *Logger) ResetTokenRejected(ctx context.Context, step string) {
	l.log.Warn().
		Str("action", "reset_token_rejected").
		Str("step", step).
		Str("request_id", pkgctx.GetRequestID(ctx)).
		Msg("Reset token rejected")
}

// PasswordReset logs a completed reset
func (l *Logger) PasswordReset(ctx context.Context, userID, email string) {
	l.log.Info().
		Str("action", "password_reset").
		Str("user_id", userID).
		Str("email", maskEmail(email)).
		Str("request_id", pkgctx.GetRequestID(ctx)).
		Msg("User password reset")
}

// maskEmail partially masks email for privacy in logs
func maskEmail(email string) string {
	if len(email) < 5 {
		return "***"
	}
	at := strings.IndexByte(email, '@')
	if at < 0 {
		return email[:1] + "***"
	}
	if at < 2 {
		return email[:1] + "***" + email[at:]
	}
	return email[:2] + "***" + email[at:]
}
