package user

import (
	"context"
	"fmt"
	"html"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

// ResetPasswordInput carries a reset token and the replacement password. Never persisted.
type ResetPasswordInput struct {
	Token       string
	NewPassword string
}

// ForgotPassword mints a reset token for the account and mails the reset link.
// A new call replaces any outstanding token.
func (s *Service) ForgotPassword(ctx context.Context, email string) (err error) {
	defer func() { s.report(StepForgotPassword, err) }()

	email = domain.NormalizeUsername(email)
	if email == "" {
		return domain.ErrEmailNotFound()
	}

	u, err := s.users.FindByUsername(ctx, email)
	if err != nil {
		if domain.Is(err, domain.CodeUserNotFound) {
			s.audit.PasswordResetUnknownEmail(ctx, email)
			return domain.ErrEmailNotFound()
		}
		return err
	}

	token, err := s.tokens.NewToken()
	if err != nil {
		return err
	}

	u.ResetKey = token
	saved, err := s.users.Save(ctx, u)
	if err != nil {
		return err
	}

	// no compensation: a failed send leaves the stored token in place
	if err := s.notifier.Send(ctx, s.resetMessage(saved, token)); err != nil {
		return err
	}

	s.audit.PasswordResetRequested(ctx, saved.ID, saved.Username)
	return nil
}

// CheckResetToken returns the owner of token without changing anything.
func (s *Service) CheckResetToken(ctx context.Context, token string) (u domain.User, err error) {
	defer func() { s.report(StepCheckResetToken, err) }()

	u, err = s.findByToken(ctx, token)
	if err != nil {
		if domain.Is(err, domain.CodeResetTokenInvalid) {
			s.audit.ResetTokenRejected(ctx, StepCheckResetToken)
		}
		return domain.User{}, err
	}
	return u, nil
}

// ResetPassword sets a new password for the token owner and consumes the token.
func (s *Service) ResetPassword(ctx context.Context, in ResetPasswordInput) (err error) {
	defer func() { s.report(StepResetPassword, err) }()

	u, err := s.findByToken(ctx, in.Token)
	if err != nil {
		if domain.Is(err, domain.CodeResetTokenInvalid) {
			s.audit.ResetTokenRejected(ctx, StepResetPassword)
		}
		return err
	}

	if in.NewPassword == "" {
		return domain.ErrMissingField("password")
	}

	hash, err := s.encoder.Encode(in.NewPassword)
	if err != nil {
		return err
	}

	u.PasswordHash = hash
	u.ResetKey = ""
	if _, err := s.users.Save(ctx, u); err != nil {
		return err
	}

	s.audit.PasswordReset(ctx, u.ID, u.Username)
	return nil
}

func (s *Service) findByToken(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, domain.ErrResetTokenInvalid()
	}
	u, err := s.users.FindByResetKey(ctx, token)
	if err != nil {
		if domain.Is(err, domain.CodeUserNotFound) {
			return domain.User{}, domain.ErrResetTokenInvalid()
		}
		return domain.User{}, err
	}
	return u, nil
}

func (s *Service) resetMessage(u domain.User, token string) Message {
	link := s.resetBaseURL + token
	text := fmt.Sprintf(
		"We received a request to reset the password for %s.\n\nOpen this link to choose a new password:\n%s\n\nIf you did not ask for this, ignore this email.\n",
		u.Username, link,
	)
	body := fmt.Sprintf(
		`<p>We received a request to reset the password for <strong>%s</strong>.</p>
<p><a href="%s">Choose a new password</a></p>
<p>If you did not ask for this, ignore this email.</p>`,
		html.EscapeString(u.Username), html.EscapeString(link),
	)
	return Message{
		UserID:  u.ID,
		To:      u.Username,
		Subject: s.resetSubject,
		Text:    text,
		HTML:    body,
		Link:    link,
	}
}
