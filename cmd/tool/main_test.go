package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/infrastructure/security"
)

func TestRun_Usage(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, run(nil, &out, &errOut))
	assert.Contains(t, errOut.String(), "usage:")

	errOut.Reset()
	assert.Equal(t, 2, run([]string{"nope"}, &out, &errOut))
	assert.Contains(t, errOut.String(), `unknown command "nope"`)

	assert.Equal(t, 0, run([]string{"help"}, &out, &errOut))
}

func TestRun_Hash(t *testing.T) {
	var out, errOut bytes.Buffer
	require.Equal(t, 0, run([]string{"hash", "-cost", "4", "s3cret"}, &out, &errOut), errOut.String())

	hash := strings.TrimSpace(out.String())
	assert.True(t, security.NewBcryptEncoder(4).Matches(hash, "s3cret"))

	assert.Equal(t, 1, run([]string{"hash", "a", "b"}, &out, &errOut))
}

func TestRun_HashPrompt(t *testing.T) {
	oldRead, oldTerm := readPassword, isTerminal
	t.Cleanup(func() { readPassword, isTerminal = oldRead, oldTerm })

	isTerminal = func(int) bool { return false }
	var out, errOut bytes.Buffer
	assert.Equal(t, 1, run([]string{"hash"}, &out, &errOut))
	assert.Contains(t, errOut.String(), "terminal")

	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) { return []byte("typed"), nil }
	out.Reset()
	require.Equal(t, 0, run([]string{"hash", "-cost", "4"}, &out, &errOut))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	hash := lines[len(lines)-1]
	assert.True(t, security.NewBcryptEncoder(4).Matches(hash, "typed"))

	readPassword = func(int) ([]byte, error) { return nil, errors.New("tty gone") }
	assert.Equal(t, 1, run([]string{"hash"}, &out, &errOut))
}

func TestRun_Tokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.csv")

	var out, errOut bytes.Buffer
	code := run([]string{"tokens", "-n", "3", "-secret", "k", "-issuer", "cityevents", "-out", path}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)

	v := security.NewJWTVerifier("k", "cityevents")
	for _, l := range lines {
		c, err := v.Verify(l)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(c.Subject, "@load.test"))
	}
}

func TestRun_TokensFixedSubjectToStdout(t *testing.T) {
	var out, errOut bytes.Buffer
	require.Equal(t, 0, run([]string{"tokens", "-n", "1", "-secret", "k", "-subject", "user@example.com"}, &out, &errOut))

	c, err := security.NewJWTVerifier("k", "").Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", c.Subject)
}

func TestRun_TokensRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	var out, errOut bytes.Buffer
	assert.Equal(t, 1, run([]string{"tokens"}, &out, &errOut))
	assert.Contains(t, errOut.String(), "JWT_SECRET")
}

func TestRun_Migrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	oldOpen, oldMigrate := openDB, migrate
	t.Cleanup(func() { openDB, migrate = oldOpen, oldMigrate })

	var gotDSN string
	openDB = func(dsn string, _ bool) (*sql.DB, error) {
		gotDSN = dsn
		return db, nil
	}
	called := false
	migrate = func(context.Context, *sql.DB) error {
		called = true
		return nil
	}

	var out, errOut bytes.Buffer
	require.Equal(t, 0, run([]string{"migrate", "-dsn", "postgres://x"}, &out, &errOut), errOut.String())
	assert.Equal(t, "postgres://x", gotDSN)
	assert.True(t, called)
	assert.Contains(t, out.String(), "migrations applied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_MigrateErrors(t *testing.T) {
	t.Setenv("DB_ADDR", "")
	var out, errOut bytes.Buffer
	assert.Equal(t, 1, run([]string{"migrate"}, &out, &errOut))

	oldOpen := openDB
	t.Cleanup(func() { openDB = oldOpen })
	openDB = func(string, bool) (*sql.DB, error) { return nil, errors.New("refused") }

	errOut.Reset()
	assert.Equal(t, 1, run([]string{"migrate", "-dsn", "postgres://x"}, &out, &errOut))
	assert.Contains(t, errOut.String(), "refused")
}
