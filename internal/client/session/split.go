package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yski/yski-client/internal/client/storage"
	"github.com/yski/yski-client/internal/crypto"
)

// sealedTokens - содержимое защищенного хранилища (до шифрования)
type sealedTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SplitPersister хранит профиль в обычном KV, а токены - зашифрованными
// в отдельном защищенном KV (мобильный клиент).
type SplitPersister struct {
	state  storage.KV
	secure storage.KV
	sealer *crypto.Sealer
	logger *slog.Logger
	key    string
}

// NewSplitPersister создает persister; logger может быть nil
func NewSplitPersister(state, secure storage.KV, sealer *crypto.Sealer, key string, logger *slog.Logger) *SplitPersister {
	if logger == nil {
		logger = slog.Default()
	}
	return &SplitPersister{
		state:  state,
		secure: secure,
		sealer: sealer,
		key:    key,
		logger: logger,
	}
}

// Load объединяет профиль и токены.
// Нет или не расшифровываются токены - сессия без аутентификации, профиль отбрасывается.
func (p *SplitPersister) Load(ctx context.Context) (Session, error) {
	raw, err := p.state.Get(ctx, p.key)
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

	// старый формат держал токены прямо в профиле: переносим их в защищенное хранилище
	if snap.State.AccessToken != "" || snap.State.RefreshToken != "" {
		s := snap.Session()
		if err := p.Save(ctx, s); err != nil {
			p.logger.WarnContext(ctx, "failed to move legacy tokens to secure storage", slog.Any("error", err))
		}
		return s, nil
	}

	tokens, err := p.loadTokens(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "secure token entry unusable, session dropped", slog.Any("error", err))
		return Session{}, nil
	}

	return Session{
		User:         snap.State.User,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}.normalize(), nil
}

func (p *SplitPersister) loadTokens(ctx context.Context) (*sealedTokens, error) {
	sealed, err := p.secure.Get(ctx, p.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read secure entry: %w", err)
	}
	plain, err := p.sealer.Open(string(sealed))
	if err != nil {
		return nil, err
	}
	var tokens sealedTokens
	if err := json.Unmarshal(plain, &tokens); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tokens: %w", err)
	}
	return &tokens, nil
}

// Save пишет токены в защищенное хранилище, затем профиль без токенов
func (p *SplitPersister) Save(ctx context.Context, s Session) error {
	s = s.normalize()

	plain, err := json.Marshal(sealedTokens{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken})
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}
	sealed, err := p.sealer.Seal(plain)
	if err != nil {
		return fmt.Errorf("failed to seal tokens: %w", err)
	}
	if err := p.secure.Put(ctx, p.key, []byte(sealed)); err != nil {
		return fmt.Errorf("failed to save tokens: %w", err)
	}

	snap := NewSnapshot(s)
	snap.State.AccessToken = ""
	snap.State.RefreshToken = ""
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := p.state.Put(ctx, p.key, raw); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear удаляет обе записи; ошибки объединяются
func (p *SplitPersister) Clear(ctx context.Context) error {
	var errs []error
	if err := p.secure.Delete(ctx, p.key); err != nil {
		errs = append(errs, fmt.Errorf("failed to clear tokens: %w", err))
	}
	if err := p.state.Delete(ctx, p.key); err != nil {
		errs = append(errs, fmt.Errorf("failed to clear session: %w", err))
	}
	return errors.Join(errs...)
}
