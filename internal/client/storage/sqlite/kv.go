package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yski/yski-client/internal/client/storage"
)

// KV реализует storage.KV поверх таблицы kv
type KV struct {
	db        *sql.DB
	namespace string
}

var _ storage.KV = (*KV)(nil)

// Get retrieves value by key
func (k *KV) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value
		FROM kv
		WHERE namespace = ? AND key = ?
	`

	var value []byte
	err := k.db.QueryRowContext(ctx, query, k.namespace, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return value, nil
}

// Put stores value, replacing the previous one
func (k *KV) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	if _, err := k.db.ExecContext(ctx, query, k.namespace, key, value, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}

	return nil
}

// Delete removes key; missing key is not an error
func (k *KV) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM kv WHERE namespace = ? AND key = ?`

	if _, err := k.db.ExecContext(ctx, query, k.namespace, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	return nil
}
