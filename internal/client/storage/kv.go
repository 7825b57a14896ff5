package storage

import "context"

// KV - непрозрачное долговременное key-value хранилище.
// Реализации: boltdb (мобильный клиент), sqlite и redis (dashboard).
type KV interface {
	// Get возвращает значение или ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Put сохраняет значение, перезаписывая предыдущее
	Put(ctx context.Context, key string, value []byte) error

	// Delete удаляет ключ; отсутствие ключа ошибкой не считается
	Delete(ctx context.Context, key string) error
}
