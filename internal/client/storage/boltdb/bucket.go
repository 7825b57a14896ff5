package boltdb

import (
	"context"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"
	bolterrors "go.etcd.io/bbolt/errors"

	"github.com/yski/yski-client/internal/client/storage"
)

// Bucket реализует storage.KV поверх одного bucket'а
type Bucket struct {
	db   *bbolt.DB
	name []byte
}

var _ storage.KV = (*Bucket)(nil)

// Get returns a copy of the stored value
func (b *Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.name)
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", b.name)
		}

		data := bucket.Get([]byte(key))
		if data == nil {
			return storage.ErrNotFound
		}

		// значение валидно только внутри транзакции
		out = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

// Put stores value under key
func (b *Bucket) Put(ctx context.Context, key string, value []byte) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.name)
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", b.name)
		}
		if err := bucket.Put([]byte(key), value); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
		return nil
	})
	return mapErr(err)
}

// Delete removes key; missing key is not an error
func (b *Bucket) Delete(ctx context.Context, key string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.name)
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", b.name)
		}
		if err := bucket.Delete([]byte(key)); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
		return nil
	})
	return mapErr(err)
}

func mapErr(err error) error {
	if errors.Is(err, bolterrors.ErrDatabaseNotOpen) {
		return fmt.Errorf("%w: %v", storage.ErrStorageClosed, err)
	}
	return err
}
