package postgres

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

type SeederEncoder interface {
	Encode(raw string) (string, error)
}

type SeederRepo interface {
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	Save(ctx context.Context, u domain.User) (domain.User, error)
}

// SeedUsers creates development accounts that do not exist yet. Existing accounts are left untouched.
func SeedUsers(ctx context.Context, repo SeederRepo, enc SeederEncoder) int {
	type seedUser struct {
		Username string
		Role     string
		Pass     string
	}

	seeds := []seedUser{
		{Username: "admin@example.com", Role: "admin", Pass: "AdminPassword123!"},
		{Username: "user@example.com", Role: domain.RoleUser, Pass: "UserPassword123!"},
	}

	created := 0
	for _, s := range seeds {
		if _, err := repo.FindByUsername(ctx, s.Username); err == nil {
			continue
		}

		hash, err := enc.Encode(s.Pass)
		if err != nil {
			log.Warn().Err(err).Str("username", s.Username).Msg("seed: hash failed")
			continue
		}

		if _, err := repo.Save(ctx, domain.User{
			Username:     s.Username,
			PasswordHash: hash,
			Role:         s.Role,
		}); err != nil {
			log.Warn().Err(err).Str("username", s.Username).Msg("seed: save failed")
			continue
		}
		created++
	}

	log.Info().Int("created", created).Msg("seed: users seeded")
	return created
}
