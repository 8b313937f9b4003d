package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"deluxxe/internal/config"
)

// schema creates the winners table used for season history.
const schema = `
CREATE TABLE IF NOT EXISTS raffle_winners (
	resource_id        TEXT PRIMARY KEY,
	raffle_id          TEXT        NOT NULL,
	season             TEXT        NOT NULL,
	event_name         TEXT        NOT NULL,
	drawing_type       TEXT        NOT NULL,
	candidate_name     TEXT        NOT NULL,
	car_number         TEXT        NOT NULL,
	sponsor_name       TEXT        NOT NULL,
	prize_description  TEXT        NOT NULL,
	sku                TEXT        NOT NULL,
	serial             TEXT        NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS raffle_winners_season_idx ON raffle_winners (season);
`

// DB holds database connections
type DB struct {
	Postgres *sqlx.DB
}

// NewDB creates new database connections using config
func NewDB(ctx context.Context, cfg *config.Config) (*DB, error) {
	postgres, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	postgres.SetMaxOpenConns(cfg.Database.MaxConns)
	postgres.SetMaxIdleConns(cfg.Database.MinConns)
	postgres.SetConnMaxLifetime(time.Hour)

	if err := postgres.PingContext(ctx); err != nil {
		postgres.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	if _, err := postgres.ExecContext(ctx, schema); err != nil {
		postgres.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Infof("Successfully connected to PostgreSQL")

	return &DB{
		Postgres: postgres,
	}, nil
}

// Close closes all database connections
func (db *DB) Close() error {
	if err := db.Postgres.Close(); err != nil {
		return fmt.Errorf("failed to close PostgreSQL: %w", err)
	}

	return nil
}
