package user

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

// CurrentUser returns the account of the authenticated principal.
func (s *Service) CurrentUser(ctx context.Context, username string) (u domain.User, err error) {
	defer func() { s.report(StepCurrentUser, err) }()

	username = domain.NormalizeUsername(username)
	if username == "" {
		return domain.User{}, domain.ErrUserNotFound()
	}

	u, err = s.users.FindByUsername(ctx, username)
	if err != nil {
		if domain.Is(err, domain.CodeUserNotFound) {
			return domain.User{}, domain.ErrUserNotFound()
		}
		return domain.User{}, err
	}
	return u, nil
}
