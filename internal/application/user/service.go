package user

import (
	"github.com/baechuer/real-time-ressys/services/user-service/internal/audit"
)

const defaultResetSubject = "Reset your password"

type Service struct {
	users    UserDirectory
	encoder  PasswordEncoder
	tokens   TokenGenerator
	notifier Notifier

	audit   *audit.Logger
	outcome func(step, status string)

	// e.g. https://frontend/reset-password?token=
	resetBaseURL string
	resetSubject string
}

type Config struct {
	PasswordResetBaseURL string
	ResetSubject         string
}

func NewService(
	users UserDirectory,
	encoder PasswordEncoder,
	tokens TokenGenerator,
	notifier Notifier,
	cfg Config,
) *Service {
	subject := cfg.ResetSubject
	if subject == "" {
		subject = defaultResetSubject
	}
	return &Service{
		users:    users,
		encoder:  encoder,
		tokens:   tokens,
		notifier: notifier,
		audit:    audit.Nop(),
		outcome:  func(string, string) {},

		resetBaseURL: cfg.PasswordResetBaseURL,
		resetSubject: subject,
	}
}

func (s *Service) WithAudit(l *audit.Logger) *Service {
	if l != nil {
		s.audit = l
	}
	return s
}

// WithOutcome registers a hook called once per workflow step with "ok" or an error code.
func (s *Service) WithOutcome(fn func(step, status string)) *Service {
	if fn != nil {
		s.outcome = fn
	}
	return s
}

// Steps reported through the outcome hook.
const (
	StepCurrentUser     = "current_user"
	StepForgotPassword  = "forgot_password"
	StepCheckResetToken = "check_reset_token"
	StepResetPassword   = "reset_password"
)

func (s *Service) report(step string, err error) {
	s.outcome(step, statusOf(err))
}
