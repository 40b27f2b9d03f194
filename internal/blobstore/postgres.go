package blobstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// The blob lives in a single-row table; the check constraint keeps it that way.
const createTableSQL = `
CREATE TABLE IF NOT EXISTS app_snapshot (
    id         INT PRIMARY KEY CHECK (id = 1),
    data       JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore keeps the aggregate blob in a single-row Postgres table
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects to Postgres and ensures the snapshot table exists
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshot table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Get returns the stored blob or nil when the row has never been written
func (s *PostgresStore) Get(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, "SELECT data FROM app_snapshot WHERE id = 1")
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot read failed: %w", err)
	}
	return data, nil
}

// Set fully replaces the stored blob
func (s *PostgresStore) Set(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO app_snapshot (id, data, updated_at) VALUES (1, $1, NOW())
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		data)
	if err != nil {
		return fmt.Errorf("snapshot write failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
