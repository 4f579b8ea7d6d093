package dto

import (
	"time"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

// UserView is the public projection of an account. Hash and reset key never leave the service.
type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

func NewUserView(u domain.User) UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

type TokenCheckView struct {
	Valid    bool   `json:"valid"`
	Username string `json:"username"`
}
