package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
)

const (
	dbMaxOpen      = 20
	dbMaxIdle      = 10
	dbIdleTimeout  = 5 * time.Minute
	dbConnLifetime = time.Hour
	dbPingTimeout  = 3 * time.Second
)

// NewDB opens a pooled pgx-backed *sql.DB and pings it once.
func NewDB(dsn string, debug bool) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("config: empty DB_ADDR")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("config: open db: %w", err)
	}
	db.SetMaxOpenConns(dbMaxOpen)
	db.SetMaxIdleConns(dbMaxIdle)
	db.SetConnMaxIdleTime(dbIdleTimeout)
	db.SetConnMaxLifetime(dbConnLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("config: ping db: %w", err)
	}

	if debug {
		var who, name, version string
		row := db.QueryRowContext(ctx, "SELECT current_user, current_database(), current_setting('server_version')")
		if err := row.Scan(&who, &name, &version); err == nil {
			log.Info().Str("user", who).Str("db", name).Str("version", version).Msg("db connected")
		}
	}
	return db, nil
}
