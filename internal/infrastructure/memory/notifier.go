package memory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/application/user"
)

// LogNotifier writes messages to the log instead of delivering them.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "log_notifier").Logger()}
}

func (n *LogNotifier) Send(ctx context.Context, msg user.Message) error {
	n.log.Info().
		Str("user_id", msg.UserID).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("link", msg.Link).
		Msg("notification (not delivered)")
	return nil
}
