package domain

import (
	"strings"
	"time"
)

// User is a platform account. Username is the account email.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	// ResetKey holds the outstanding password-reset token, empty when none.
	ResetKey  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) HasResetKey() bool { return u.ResetKey != "" }

// NormalizeUsername trims and lower-cases an email-style username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

const RoleUser = "user"
