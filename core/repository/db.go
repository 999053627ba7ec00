package repository

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// DB wraps the database handle shared by the repositories
type DB struct {
	*sql.DB
}

// NewDB opens a Postgres connection and verifies it
func NewDB(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{DB: db}, nil
}

// Migrate creates the schema if it does not exist yet
func (db *DB) Migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS training_runs (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			epochs INT NOT NULL,
			batch_size INT NOT NULL,
			dataset_path TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			started_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS run_events (
			id BIGSERIAL PRIMARY KEY,
			run_id UUID NOT NULL,
			at TIMESTAMPTZ NOT NULL,
			event_type TEXT NOT NULL,
			payload_json TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS epoch_metrics (
			id BIGSERIAL PRIMARY KEY,
			run_id UUID NOT NULL,
			epoch INT NOT NULL,
			train_loss DOUBLE PRECISION NOT NULL,
			val_loss DOUBLE PRECISION NOT NULL,
			train_acc DOUBLE PRECISION NOT NULL,
			val_acc DOUBLE PRECISION NOT NULL,
			train_f1 DOUBLE PRECISION NOT NULL DEFAULT 0,
			val_f1 DOUBLE PRECISION NOT NULL DEFAULT 0,
			learning_rate DOUBLE PRECISION NOT NULL,
			seconds DOUBLE PRECISION NOT NULL,
			UNIQUE (run_id, epoch)
		)`,
		`CREATE TABLE IF NOT EXISTS run_artifacts (
			id BIGSERIAL PRIMARY KEY,
			run_id UUID NOT NULL,
			type TEXT NOT NULL,
			uri TEXT NOT NULL,
			meta_json TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
