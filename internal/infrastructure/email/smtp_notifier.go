package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/application/user"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	Insecure bool
}

// SMTPNotifier delivers messages directly over SMTP.
type SMTPNotifier struct {
	lg  zerolog.Logger
	cfg Config

	dialAndSend func(ctx context.Context, c *mail.Client, m *mail.Msg) error
}

func NewSMTPNotifier(cfg Config, lg zerolog.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		lg:  lg.With().Str("component", "smtp_notifier").Logger(),
		cfg: cfg,
		dialAndSend: func(ctx context.Context, c *mail.Client, m *mail.Msg) error {
			return c.DialAndSendWithContext(ctx, m)
		},
	}
}

func (s *SMTPNotifier) Send(ctx context.Context, msg user.Message) error {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	m, err := s.buildMsg(msg)
	if err != nil {
		return err
	}

	c, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return domain.ErrNotifierUnavailable(err)
	}

	if err := s.dialAndSend(ctx, c, m); err != nil {
		s.lg.Error().Err(err).Str("to", msg.To).Msg("smtp send failed")
		if containsAny(err.Error(), "535", "5.7.8", "authentication") {
			return domain.WithMeta(domain.ErrNotifierUnavailable(err), map[string]string{"reason": "auth"})
		}
		return domain.ErrNotifierUnavailable(err)
	}

	s.lg.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("smtp send ok")
	return nil
}

func (s *SMTPNotifier) buildMsg(msg user.Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, domain.ErrInvalidField("from", err.Error())
	}
	if err := m.To(msg.To); err != nil {
		return nil, domain.ErrInvalidField("to", err.Error())
	}
	m.Subject(msg.Subject)

	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	return m, nil
}

func (s *SMTPNotifier) clientOptions() []mail.Option {
	tlsPolicy := mail.TLSMandatory
	if s.cfg.Insecure {
		tlsPolicy = mail.TLSOpportunistic
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(tlsPolicy),
	}
	if s.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.cfg.Timeout))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

func containsAny(s string, subs ...string) bool {
	for _, x := range subs {
		if x != "" && strings.Contains(s, x) {
			return true
		}
	}
	return false
}
