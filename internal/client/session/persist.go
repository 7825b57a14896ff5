package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/yski/yski-client/internal/client/storage"
)

const (
	// WebKey - ключ снимка web dashboard
	WebKey = "yski-auth"
	// MobileKey - ключ снимка мобильного клиента
	MobileKey = "auth-storage"
)

// Persister сохраняет сессию в долговременное хранилище
type Persister interface {
	// Load возвращает ErrNoSession, если сохраненной сессии нет
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// BlobPersister хранит всю сессию одним JSON под одним ключом
type BlobPersister struct {
	kv  storage.KV
	key string
}

// NewBlobPersister создает persister для ключа key
func NewBlobPersister(kv storage.KV, key string) *BlobPersister {
	return &BlobPersister{kv: kv, key: key}
}

// Load читает и мигрирует снимок
func (p *BlobPersister) Load(ctx context.Context) (Session, error) {
	raw, err := p.kv.Get(ctx, p.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("failed to read session: %w", err)
	}

	snap, err := DecodeSnapshot(raw)
	if err != nil {
		return Session{}, err
	}
	return snap.Session(), nil
}

// Save пишет снимок текущей версии
func (p *BlobPersister) Save(ctx context.Context, s Session) error {
	raw, err := EncodeSnapshot(s)
	if err != nil {
		return err
	}
	if err := p.kv.Put(ctx, p.key, raw); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear удаляет снимок
func (p *BlobPersister) Clear(ctx context.Context) error {
	if err := p.kv.Delete(ctx, p.key); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
