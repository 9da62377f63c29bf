// Package session persists credentials, the cached user and local preferences
// behind a small key-value interface.
package session

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/finadm/internal/config"
	"gitlab.com/yelinaung/finadm/internal/database"
	"gitlab.com/yelinaung/finadm/internal/logger"
)

// Store is a durable string key-value store.
type Store interface {
	// Get returns the value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	// Clear removes every key owned by the store.
	Clear(ctx context.Context) error
}

// namespace scopes redis keys and postgres rows.
const namespace = "finadm"

// Open builds the store selected by cfg. The returned close func releases
// any connection the store holds.
func Open(ctx context.Context, cfg *config.Config) (Store, func(), error) {
	switch cfg.SessionStore {
	case config.StoreMemory:
		return NewMemoryStore(), func() {}, nil

	case config.StoreFile:
		return NewFileStore(cfg.SessionPath), func() {}, nil

	case config.StoreRedis:
		client, err := ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(client, namespace), func() { _ = client.Close() }, nil

	case config.StorePostgres:
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect session database: %w", err)
		}
		if err := database.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to migrate session database: %w", err)
		}
		logger.Log.Debug().Msg("Session database ready")
		return NewPostgresStore(pool, namespace), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}
