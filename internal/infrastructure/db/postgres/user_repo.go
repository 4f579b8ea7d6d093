package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

// SQLSTATE unique_violation
const uniqueViolation = "23505"

const userColumns = `id, username, password_hash, reset_key, role, created_at, updated_at`

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (userRow, error) {
	var ur userRow
	err := row.Scan(
		&ur.ID,
		&ur.Username,
		&ur.PasswordHash,
		&ur.ResetKey,
		&ur.Role,
		&ur.CreatedAt,
		&ur.UpdatedAt,
	)
	return ur, err
}

func (r *UserRepo) findOne(ctx context.Context, q string, arg string) (domain.User, error) {
	ur, err := scanUser(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(ur), nil
}

// ---------- user.UserDirectory ----------

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	username = domain.NormalizeUsername(username)
	if username == "" {
		return domain.User{}, domain.ErrUserNotFound()
	}

	const q = `
SELECT ` + userColumns + `
FROM users
WHERE username = $1
LIMIT 1;
`
	return r.findOne(ctx, q, username)
}

func (r *UserRepo) FindByResetKey(ctx context.Context, resetKey string) (domain.User, error) {
	if resetKey == "" {
		return domain.User{}, domain.ErrUserNotFound()
	}

	const q = `
SELECT ` + userColumns + `
FROM users
WHERE reset_key = $1
LIMIT 1;
`
	return r.findOne(ctx, q, resetKey)
}

// Save inserts the user or, when the username exists, overwrites its mutable fields.
func (r *UserRepo) Save(ctx context.Context, u domain.User) (domain.User, error) {
	u.Username = domain.NormalizeUsername(u.Username)
	if u.Username == "" {
		return domain.User{}, domain.ErrMissingField("username")
	}
	if u.PasswordHash == "" {
		return domain.User{}, domain.ErrMissingField("password_hash")
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}

	const q = `
INSERT INTO users (id, username, password_hash, reset_key, role)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (username) DO UPDATE SET
  password_hash = EXCLUDED.password_hash,
  reset_key     = EXCLUDED.reset_key,
  role          = EXCLUDED.role,
  updated_at    = now()
RETURNING ` + userColumns + `;
`
	ur, err := scanUser(r.db.QueryRowContext(ctx, q,
		u.ID, u.Username, u.PasswordHash, nullableKey(u.ResetKey), u.Role,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// username conflicts are absorbed by the upsert, so this is reset_key
			return domain.User{}, domain.WithMeta(domain.ErrResetKeyConflict(),
				map[string]string{"constraint": pgErr.ConstraintName})
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(ur), nil
}

// Ping backs the readiness probe.
func (r *UserRepo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}
