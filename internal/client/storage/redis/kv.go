// Package redis хранит сессии dashboard в Redis, чтобы несколько инстансов
// dashboard видели одну и ту же сессию браузера.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yski/yski-client/internal/client/storage"
)

// KV реализует storage.KV; ключи получают префикс, значения живут ttl
type KV struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

var _ storage.KV = (*KV)(nil)

// New создает KV поверх готового клиента. ttl = 0 - без истечения.
func New(client *goredis.Client, prefix string, ttl time.Duration) *KV {
	return &KV{client: client, prefix: prefix, ttl: ttl}
}

// Connect открывает клиента и проверяет соединение
func Connect(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (k *KV) key(key string) string {
	return k.prefix + key
}

// Get retrieves value by key
func (k *KV) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := k.client.Get(ctx, k.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrNotFound
		}
		if errors.Is(err, goredis.ErrClosed) {
			return nil, fmt.Errorf("%w: %v", storage.ErrStorageClosed, err)
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

// Put stores value and refreshes its ttl
func (k *KV) Put(ctx context.Context, key string, value []byte) error {
	if err := k.client.Set(ctx, k.key(key), value, k.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Delete removes key; missing key is not an error
func (k *KV) Delete(ctx context.Context, key string) error {
	if err := k.client.Del(ctx, k.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
