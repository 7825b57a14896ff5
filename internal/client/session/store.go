package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yski/yski-client/internal/models"
)

// Store - TokenStore: единственный писатель сохраненных учетных данных.
// Безопасен для конкурентного использования.
type Store struct {
	persister    Persister
	mirror       CookieMirror
	logger       *slog.Logger
	now          func() time.Time
	current      Session
	cookieTTL    time.Duration
	mu           sync.RWMutex
	cookieSecure bool
}

// Option настраивает Store
type Option func(*Store)

// WithCookieMirror включает зеркалирование access token'а в cookie (web)
func WithCookieMirror(m CookieMirror, ttl time.Duration, secure bool) Option {
	return func(s *Store) {
		s.mirror = m
		s.cookieTTL = ttl
		s.cookieSecure = secure
	}
}

// WithLogger задает логгер
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithClock подменяет часы (тесты)
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore создает пустой (неаутентифицированный) Store
func NewStore(p Persister, opts ...Option) *Store {
	s := &Store{
		persister: p,
		logger:    slog.Default(),
		now:       time.Now,
		cookieTTL: DefaultCookieTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate читает сохраненное состояние. Срок токена не проверяется.
// При ошибке чтения сессия остается пустой.
func (s *Store) Hydrate(ctx context.Context) error {
	loaded, err := s.persister.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		s.logger.DebugContext(ctx, "no persisted session")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.current = Session{}
		return fmt.Errorf("hydrate session: %w", err)
	}

	s.current = loaded.normalize()
	s.logger.DebugContext(ctx, "session hydrated",
		slog.Bool("authenticated", s.current.IsAuthenticated),
	)
	return nil
}

// SetAuth записывает профиль и оба токена, сохраняет и зеркалирует access token в cookie.
// Состояние в памяти обновляется даже при ошибке сохранения.
func (s *Store) SetAuth(ctx context.Context, user *models.UserProfile, accessToken, refreshToken string) error {
	if user == nil || accessToken == "" {
		return ErrIncompleteSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = Session{
		User:         user.Clone(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}.normalize()

	return s.commitLocked(ctx)
}

// UpdateTokens заменяет пару токенов, сохраняя профиль (после refresh).
// Пустой refreshToken оставляет прежний.
func (s *Store) UpdateTokens(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken == "" {
		return ErrIncompleteSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.User == nil {
		return ErrNotAuthenticated
	}

	s.current.AccessToken = accessToken
	if refreshToken != "" {
		s.current.RefreshToken = refreshToken
	}
	s.current = s.current.normalize()

	return s.commitLocked(ctx)
}

// ClearAuth очищает сессию, удаляет сохраненные записи и cookie.
// Память очищается даже если хранилище вернуло ошибку.
func (s *Store) ClearAuth(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = Session{}
	if s.mirror != nil {
		s.mirror.MirrorCookie(ctx, ExpiredCookie(s.cookieSecure))
	}
	if err := s.persister.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Store) commitLocked(ctx context.Context) error {
	if s.mirror != nil {
		s.mirror.MirrorCookie(ctx, AccessCookie(s.current.AccessToken, s.cookieTTL, s.now(), s.cookieSecure))
	}
	if err := s.persister.Save(ctx, s.current); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Session возвращает копию текущего состояния
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// User возвращает копию профиля или nil
func (s *Store) User() *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.User.Clone()
}

// AccessToken возвращает текущий access token ("" если нет)
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.AccessToken
}

// RefreshToken возвращает текущий refresh token ("" если нет)
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.RefreshToken
}

// IsAuthenticated сообщает, есть ли активная сессия
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.IsAuthenticated
}
