// Package sessions - сессии браузеров dashboard (BFF).
//
// Браузер получает непрозрачный HttpOnly cookie yski_sid. Токены backend'а
// живут на сервере в session.Store под ключом yski-auth:<fingerprint(sid)>;
// в браузер зеркалируется только access_token для edge-проверки.
// Для каждой сессии свой Coordinator: single-flight refresh в пределах браузера.
package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yski/yski-client/internal/authz"
	"github.com/yski/yski-client/internal/client/api"
	"github.com/yski/yski-client/internal/client/auth"
	"github.com/yski/yski-client/internal/client/gateway"
	"github.com/yski/yski-client/internal/client/session"
	"github.com/yski/yski-client/internal/client/storage"
	"github.com/yski/yski-client/internal/crypto"
	"github.com/yski/yski-client/internal/models"
)

// CookieName - cookie с идентификатором сессии браузера
const CookieName = "yski_sid"

// Session - серверное состояние одного браузера
type Session struct {
	lastSeen time.Time
	Store    *session.Store
	Coord    *gateway.Coordinator
	Client   *gateway.Client
	Auth     *auth.Service
	Model    *authz.Model
	ID       string
	mu       sync.Mutex
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Config - параметры Registry
type Config struct {
	KV           storage.KV
	Logger       *slog.Logger
	Observer     gateway.Observer
	BaseURL      string
	APITimeout   time.Duration
	CookieTTL    time.Duration
	CookieSecure bool
}

// Registry создает, загружает и кэширует сессии браузеров
type Registry struct {
	cfg      Config
	api      *api.Client
	now      func() time.Time
	sessions map[string]*Session
	mu       sync.Mutex
}

// NewRegistry создает реестр сессий
func NewRegistry(cfg Config) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.CookieTTL <= 0 {
		cfg.CookieTTL = session.DefaultCookieTTL
	}
	return &Registry{
		cfg:      cfg,
		api:      api.NewClient(cfg.BaseURL, api.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout})),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// storageKey - ключ KV; сам sid в хранилище не попадает
func storageKey(sid string) string {
	return session.WebKey + ":" + crypto.Fingerprint(sid)
}

// Get возвращает сессию по sid, при необходимости загружая ее из KV.
// Поврежденная или отсутствующая запись дает пустую сессию.
// Чтение KV идет вне блокировки реестра; при гонке побеждает первая вставленная сессия.
func (r *Registry) Get(ctx context.Context, sid string) *Session {
	if s := r.cached(sid); s != nil {
		return s
	}

	s := r.build(sid)
	if err := s.Store.Hydrate(ctx); err != nil {
		r.cfg.Logger.WarnContext(ctx, "failed to hydrate browser session", slog.Any("error", err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[sid]; ok {
		existing.touch(r.now())
		return existing
	}
	s.touch(r.now())
	r.sessions[sid] = s
	return s
}

func (r *Registry) cached(sid string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	s.touch(r.now())
	return s
}

// New создает новую пустую сессию
func (r *Registry) New() *Session {
	sid := uuid.NewString()
	s := r.build(sid)
	s.touch(r.now())

	r.mu.Lock()
	r.sessions[sid] = s
	r.mu.Unlock()
	return s
}

// Forget убирает сессию из кэша (после logout)
func (r *Registry) Forget(sid string) {
	r.mu.Lock()
	delete(r.sessions, sid)
	r.mu.Unlock()
}

// Sweep выгружает из памяти сессии, простаивающие дольше maxIdle.
// Сохраненное состояние остается в KV.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for sid, s := range r.sessions {
		if s.idleSince(now) > maxIdle {
			delete(r.sessions, sid)
			n++
		}
	}
	return n
}

// Len - число сессий в памяти
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) build(sid string) *Session {
	logger := r.cfg.Logger.With("sid", crypto.Fingerprint(sid)[:12])

	store := session.NewStore(
		session.NewBlobPersister(r.cfg.KV, storageKey(sid)),
		session.WithCookieMirror(session.MirrorFunc(mirrorToResponse), r.cfg.CookieTTL, r.cfg.CookieSecure),
		session.WithLogger(logger),
	)

	s := &Session{
		ID:    sid,
		Store: store,
		Auth:  auth.NewService(r.api, store, models.SurfaceDashboard, logger),
		Model: authz.NewModel(authz.DashboardTable, store),
	}
	s.Coord = gateway.NewCoordinator(store, r.api,
		gateway.WithLogger(logger),
		gateway.WithObserver(r.cfg.Observer),
		gateway.OnExpired(func(ctx context.Context) {
			logger.InfoContext(ctx, "browser session expired")
		}),
	)
	s.Client = gateway.NewClient(r.cfg.BaseURL, gateway.NewTransport(r.cfg.BaseURL, nil, store, s.Coord), r.cfg.APITimeout)
	return s
}

// SessionCookie - cookie с sid
func (r *Registry) SessionCookie(sid string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// String для отладки
func (s *Session) String() string {
	return fmt.Sprintf("Session(%s, authenticated=%t)", crypto.Fingerprint(s.ID)[:12], s.Store.IsAuthenticated())
}
