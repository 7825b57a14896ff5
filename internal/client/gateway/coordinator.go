// Package gateway - HTTP шлюз к backend'у: подставляет bearer token, а при 401
// обновляет токен ровно одним refresh-запросом на событие истечения и
// повторяет исходный запрос не более одного раза.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yski/yski-client/internal/client/api"
	"github.com/yski/yski-client/internal/client/session"
	"github.com/yski/yski-client/internal/token"
	pkgapi "github.com/yski/yski-client/pkg/api"
)

// Результаты refresh для Observer
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeNetwork  = "network"
	OutcomeAborted  = "aborted"
)

// Refresher - эндпоинт POST /auth/refresh (api.Client)
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*pkgapi.TokenResponse, error)
}

// TokenStore - часть session.Store, нужная координатору
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	UpdateTokens(ctx context.Context, accessToken, refreshToken string) error
	ClearAuth(ctx context.Context) error
}

// Observer получает события refresh/replay (метрики)
type Observer interface {
	RefreshFinished(outcome string, waiters int, d time.Duration)
	Replayed(ok bool)
}

type nopObserver struct{}

func (nopObserver) RefreshFinished(string, int, time.Duration) {}
func (nopObserver) Replayed(bool)                              {}

// flight - один refresh в полете; done закрывается после записи token/err
type flight struct {
	done    chan struct{}
	err     error
	token   string
	waiters int
}

// Coordinator гарантирует не более одного refresh одновременно.
// Состояние полета принадлежит экземпляру; глобального состояния нет.
type Coordinator struct {
	store     TokenStore
	refresher Refresher
	observer  Observer
	logger    *slog.Logger
	onExpired func(ctx context.Context)
	now       func() time.Time
	inflight  *flight
	mu        sync.Mutex
}

// CoordinatorOption настраивает Coordinator
type CoordinatorOption func(*Coordinator)

// WithLogger задает логгер
func WithLogger(l *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// WithObserver задает наблюдателя (метрики)
func WithObserver(o Observer) CoordinatorOption {
	return func(c *Coordinator) {
		if o != nil {
			c.observer = o
		}
	}
}

// OnExpired задает хук, вызываемый после того как refresh token отвергнут
// и сессия очищена (переход на экран входа).
func OnExpired(fn func(ctx context.Context)) CoordinatorOption {
	return func(c *Coordinator) {
		c.onExpired = fn
	}
}

// WithClock подменяет часы (тесты)
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) {
		c.now = now
	}
}

// NewCoordinator создает координатор для хранилища и refresh-эндпоинта
func NewCoordinator(store TokenStore, refresher Refresher, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:     store,
		refresher: refresher,
		observer:  nopObserver{},
		logger:    slog.Default(),
		onExpired: func(context.Context) {},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Recover вызывается, когда запрос с токеном failed получил 401.
// Возвращает токен для повтора. Если токен уже обновлен другим запросом,
// refresh не выполняется. Отмена ctx прерывает только ожидание вызывающего,
// общий refresh продолжается.
//
// Сессия очищается (и вызывается onExpired) только когда backend отклонил
// refresh token. Сетевая ошибка при refresh возвращает ErrNetwork и сессию
// сохраняет: refresh token еще может быть валиден, следующий 401 повторит попытку.
func (c *Coordinator) Recover(ctx context.Context, failed string) (string, error) {
	c.mu.Lock()
	if c.inflight == nil {
		if current := c.store.AccessToken(); current != "" && current != failed {
			c.mu.Unlock()
			return current, nil
		}
		// сессии нет (logout или refresh уже отвергнут)
		if c.store.RefreshToken() == "" {
			c.mu.Unlock()
			return "", api.ErrAuthExpired
		}
	}

	f := c.inflight
	if f == nil {
		f = &flight{done: make(chan struct{})}
		c.inflight = f
		go c.run(context.WithoutCancel(ctx), f)
	} else {
		f.waiters++
	}
	c.mu.Unlock()

	select {
	case <-f.done:
		return f.token, f.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// RefreshIfExpiring обновляет токен заранее, если до истечения осталось не больше lead.
// Использует тот же single-flight. Возвращает true, если refresh выполнялся.
func (c *Coordinator) RefreshIfExpiring(ctx context.Context, lead time.Duration) (bool, error) {
	current := c.store.AccessToken()
	if current == "" {
		return false, nil
	}

	claims, err := token.ParseUnverified(current)
	if err != nil || !claims.ExpiresWithin(c.now(), lead) {
		return false, nil
	}

	if _, err := c.Recover(ctx, current); err != nil {
		return true, err
	}
	return true, nil
}

// run выполняет refresh и освобождает всех ожидающих
func (c *Coordinator) run(ctx context.Context, f *flight) {
	start := c.now()
	outcome := OutcomeSuccess

	defer func() {
		c.mu.Lock()
		waiters := f.waiters
		c.inflight = nil
		c.mu.Unlock()
		c.observer.RefreshFinished(outcome, waiters, c.now().Sub(start))
		close(f.done)
	}()

	resp, err := c.refresher.Refresh(ctx, c.store.RefreshToken())
	if err != nil {
		if errors.Is(err, api.ErrNetwork) {
			// refresh token не отвергнут - сессию сохраняем
			outcome = OutcomeNetwork
			c.logger.WarnContext(ctx, "token refresh failed: network", slog.Any("error", err))
			f.err = err
			return
		}

		outcome = OutcomeRejected
		if !errors.Is(err, api.ErrRefreshInvalid) {
			err = fmt.Errorf("%w: %w", api.ErrRefreshInvalid, err)
		}
		f.err = err
		c.logger.WarnContext(ctx, "token refresh rejected, session cleared", slog.Any("error", err))
		if cerr := c.store.ClearAuth(ctx); cerr != nil {
			c.logger.ErrorContext(ctx, "failed to clear session", slog.Any("error", cerr))
		}
		c.onExpired(ctx)
		return
	}

	if err := c.store.UpdateTokens(ctx, resp.AccessToken, resp.RefreshToken); err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			// сессию закрыли (logout), пока шел refresh
			outcome = OutcomeAborted
			f.err = fmt.Errorf("%w: session closed during refresh", api.ErrAuthExpired)
			return
		}
		// токены уже в памяти; не сохранились только на диск
		c.logger.ErrorContext(ctx, "failed to persist refreshed tokens", slog.Any("error", err))
	}

	c.logger.DebugContext(ctx, "token refreshed")
	f.token = resp.AccessToken
}
