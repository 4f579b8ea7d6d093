package user

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

/*
UserDirectory
-------------
Persistence port for accounts.
Lookups report a missing account as domain.ErrUserNotFound().
Save is an upsert keyed by username.
*/
type UserDirectory interface {
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	FindByResetKey(ctx context.Context, resetKey string) (domain.User, error)
	Save(ctx context.Context, u domain.User) (domain.User, error)
}

/*
PasswordEncoder
---------------
One-way password encoding (bcrypt).
*/
type PasswordEncoder interface {
	Encode(raw string) (string, error)
	Matches(encoded, raw string) bool
}

// TokenGenerator mints unguessable, URL-safe reset tokens.
type TokenGenerator interface {
	NewToken() (string, error)
}

/*
Notifier
--------
Delivers a message to a user. Backed by SMTP, RabbitMQ (email-service
consumes the event) or a log sink in development.
*/
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a rendered notification. Link is the actionable URL it carries.
type Message struct {
	UserID  string
	To      string
	Subject string
	Text    string
	HTML    string
	Link    string
}
