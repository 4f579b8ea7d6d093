package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

var userCols = []string{"id", "username", "password_hash", "reset_key", "role", "created_at", "updated_at"}

func setupMockDB(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewUserRepo(db), mock
}

func TestFindByUsername_Found(t *testing.T) {
	repo, mock := setupMockDB(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)SELECT .+ FROM users\s+WHERE username = \$1`).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "a@b.com", "hash", nil, "user", now, now))

	u, err := repo.FindByUsername(context.Background(), " A@B.com ")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Empty(t, u.ResetKey)
	assert.Equal(t, now, u.CreatedAt)
}

func TestFindByUsername_NotFound(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery(`(?s)SELECT .+ FROM users\s+WHERE username = \$1`).
		WithArgs("ghost@b.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUsername(context.Background(), "ghost@b.com")
	assert.True(t, domain.Is(err, domain.CodeUserNotFound))
}

func TestFindByUsername_Empty_NoQuery(t *testing.T) {
	repo, _ := setupMockDB(t)

	_, err := repo.FindByUsername(context.Background(), "  ")
	assert.True(t, domain.Is(err, domain.CodeUserNotFound))
}

func TestFindByResetKey(t *testing.T) {
	repo, mock := setupMockDB(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)SELECT .+ FROM users\s+WHERE reset_key = \$1`).
		WithArgs("key123").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "a@b.com", "hash", "key123", "user", now, now))

	u, err := repo.FindByResetKey(context.Background(), "key123")
	require.NoError(t, err)
	assert.Equal(t, "key123", u.ResetKey)

	_, err = repo.FindByResetKey(context.Background(), "")
	assert.True(t, domain.Is(err, domain.CodeUserNotFound))
}

func TestFindByResetKey_DBError(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery(`(?s)SELECT .+ FROM users\s+WHERE reset_key = \$1`).
		WithArgs("key123").
		WillReturnError(errors.New("conn reset"))

	_, err := repo.FindByResetKey(context.Background(), "key123")
	assert.True(t, domain.Is(err, "db_unavailable"))
}

func TestSave_UpsertsAndClearsKey(t *testing.T) {
	repo, mock := setupMockDB(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)INSERT INTO users .+ON CONFLICT \(username\) DO UPDATE`).
		WithArgs("u1", "a@b.com", "newhash", sql.NullString{}, "user").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "a@b.com", "newhash", nil, "user", now, now))

	u, err := repo.Save(context.Background(), domain.User{
		ID: "u1", Username: "a@b.com", PasswordHash: "newhash", Role: "user",
	})
	require.NoError(t, err)
	assert.Empty(t, u.ResetKey)
}

func TestSave_GeneratesIDAndDefaultRole(t *testing.T) {
	repo, mock := setupMockDB(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "a@b.com", "hash", sql.NullString{String: "key123", Valid: true}, domain.RoleUser).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("generated", "a@b.com", "hash", "key123", "user", now, now))

	u, err := repo.Save(context.Background(), domain.User{Username: "A@b.com", PasswordHash: "hash", ResetKey: "key123"})
	require.NoError(t, err)
	assert.Equal(t, "generated", u.ID)
	assert.Equal(t, "key123", u.ResetKey)
}

func TestSave_Validation(t *testing.T) {
	repo, _ := setupMockDB(t)

	_, err := repo.Save(context.Background(), domain.User{PasswordHash: "x"})
	assert.True(t, domain.Is(err, domain.CodeMissingField))

	_, err = repo.Save(context.Background(), domain.User{Username: "a@b.com"})
	assert.True(t, domain.Is(err, domain.CodeMissingField))
}

func TestSave_DuplicateResetKey(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery(`(?s)INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_reset_key_uniq"})

	_, err := repo.Save(context.Background(), domain.User{Username: "a@b.com", PasswordHash: "h", ResetKey: "k"})
	require.True(t, domain.Is(err, domain.CodeResetKeyConflict))
	de, _ := domain.As(err)
	assert.Equal(t, "users_reset_key_uniq", de.Meta["constraint"])
}
