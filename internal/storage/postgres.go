package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/opsdash/forget-me-not/internal/service/exclusions"
)

// PostgresStore keeps the excluded-module set as a JSON array in a
// site_config row, one row per configuration key:
//
//	CREATE TABLE site_config (
//	    name       TEXT PRIMARY KEY,
//	    value      JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type PostgresStore struct{ db *sql.DB }

// NewPostgresStore creates a Postgres-backed store.
func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

// Get returns the persisted excluded module names.
func (s *PostgresStore) Get(ctx context.Context) ([]string, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM site_config WHERE name = $1`,
		exclusions.ConfigKey,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get excluded modules: %w", err)
	}

	var modules []string
	if err := json.Unmarshal(raw, &modules); err != nil {
		return nil, fmt.Errorf("decode excluded modules: %w", err)
	}
	return modules, nil
}

// Set replaces the persisted set via upsert.
func (s *PostgresStore) Set(ctx context.Context, modules []string) error {
	if modules == nil {
		modules = []string{}
	}
	raw, err := json.Marshal(modules)
	if err != nil {
		return fmt.Errorf("encode excluded modules: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO site_config (name, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET value = $2, updated_at = NOW()
	`, exclusions.ConfigKey, raw)
	if err != nil {
		return fmt.Errorf("set excluded modules: %w", err)
	}
	return nil
}

// Delete removes the row entirely. Deleting an absent row is a no-op.
func (s *PostgresStore) Delete(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM site_config WHERE name = $1`,
		exclusions.ConfigKey,
	)
	if err != nil {
		return fmt.Errorf("delete excluded modules: %w", err)
	}
	return nil
}
