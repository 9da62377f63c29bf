package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"gitlab.com/yelinaung/finadm/internal/database"
)

// PostgresStore keeps values in the kv_store table.
type PostgresStore struct {
	db        database.PGXDB
	namespace string
}

// NewPostgresStore creates a store over db. The schema must already exist.
func NewPostgresStore(db database.PGXDB, namespace string) *PostgresStore {
	return &PostgresStore{db: db, namespace: namespace}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(ctx,
		`SELECT value FROM kv_store WHERE namespace = $1 AND key = $2`,
		s.namespace, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO kv_store (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (namespace, key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()
	`, s.namespace, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx,
		`DELETE FROM kv_store WHERE namespace = $1 AND key = ANY($2)`,
		s.namespace, keys,
	)
	if err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM kv_store WHERE namespace = $1`, s.namespace); err != nil {
		return fmt.Errorf("failed to clear keys: %w", err)
	}
	return nil
}
