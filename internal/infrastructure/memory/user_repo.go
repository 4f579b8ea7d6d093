package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

// UserRepo keeps accounts in process memory. Used in dev and tests.
type UserRepo struct {
	mu         sync.RWMutex
	byUsername map[string]domain.User
	byResetKey map[string]string // reset key -> username
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byUsername: make(map[string]domain.User),
		byResetKey: make(map[string]string),
	}
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byUsername[domain.NormalizeUsername(username)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (r *UserRepo) FindByResetKey(ctx context.Context, resetKey string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if resetKey == "" {
		return domain.User{}, domain.ErrUserNotFound()
	}
	username, ok := r.byResetKey[resetKey]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return r.byUsername[username], nil
}

func (r *UserRepo) Save(ctx context.Context, u domain.User) (domain.User, error) {
	u.Username = domain.NormalizeUsername(u.Username)
	if u.Username == "" {
		return domain.User{}, domain.ErrMissingField("username")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if u.ResetKey != "" {
		if owner, taken := r.byResetKey[u.ResetKey]; taken && owner != u.Username {
			return domain.User{}, domain.ErrResetKeyConflict()
		}
	}

	now := time.Now().UTC()
	if prev, ok := r.byUsername[u.Username]; ok {
		if prev.ResetKey != "" {
			delete(r.byResetKey, prev.ResetKey)
		}
		u.ID = prev.ID
		u.CreatedAt = prev.CreatedAt
	} else {
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		u.CreatedAt = now
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	u.UpdatedAt = now

	if u.ResetKey != "" {
		r.byResetKey[u.ResetKey] = u.Username
	}
	r.byUsername[u.Username] = u
	return u, nil
}

func (r *UserRepo) Ping(ctx context.Context) error { return nil }
