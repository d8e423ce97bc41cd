// Package storage provides the persistent backends for the excluded-module
// configuration key. The backend is selected by config (local JSON file,
// Redis or PostgreSQL); all three implement exclusions.Store.
package storage

import (
	"database/sql"
	"fmt"

	"github.com/opsdash/forget-me-not/internal/config"
	"github.com/opsdash/forget-me-not/internal/service/exclusions"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// New creates the configured exclusion store backend.
func New(cfg config.StorageConfig) (exclusions.Store, error) {
	switch cfg.Type {
	case "local", "":
		return NewLocalStore(cfg.LocalPath)

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		return NewRedisStore(client), nil

	case "postgres":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		return NewPostgresStore(db), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
