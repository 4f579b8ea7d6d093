package postgres

import (
	"database/sql"
	"time"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

type userRow struct {
	ID           string
	Username     string
	PasswordHash string
	ResetKey     sql.NullString
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func toDomainUser(ur userRow) domain.User {
	return domain.User{
		ID:           ur.ID,
		Username:     ur.Username,
		PasswordHash: ur.PasswordHash,
		ResetKey:     ur.ResetKey.String,
		Role:         ur.Role,
		CreatedAt:    ur.CreatedAt,
		UpdatedAt:    ur.UpdatedAt,
	}
}

func nullableKey(key string) sql.NullString {
	return sql.NullString{String: key, Valid: key != ""}
}
