// Package edge - проверка навигации dashboard до рендера страницы.
//
// Guard читает cookie access_token, декодирует claim role БЕЗ проверки подписи
// и перенаправляет на логин роли, которым dashboard недоступен. Это UX-фильтр,
// а не граница доверия: подделанный токен пройдет Guard, но любой запрос к API
// с ним отвергнет backend.
package edge

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/yski/yski-client/internal/client/session"
	"github.com/yski/yski-client/internal/models"
	"github.com/yski/yski-client/internal/token"
)

// Decision - результат проверки навигации
type Decision string

const (
	// Allow - пропустить к обработчику
	Allow Decision = "allow"
	// Login - нет сессии или токен не разбирается
	Login Decision = "login"
	// Denied - роль не допускается на поверхность
	Denied Decision = "denied"
)

// AccessDenied - значение параметра error страницы логина
const AccessDenied = "access_denied"

// Observer получает решения (метрики)
type Observer interface {
	EdgeDecision(decision string)
}

// Guard - edge-проверка для одной поверхности
type Guard struct {
	observer       Observer
	logger         *slog.Logger
	surface        models.Surface
	loginPath      string
	cookieName     string
	publicPrefixes []string
}

// Option настраивает Guard
type Option func(*Guard)

// WithObserver задает наблюдателя решений
func WithObserver(o Observer) Option {
	return func(g *Guard) {
		g.observer = o
	}
}

// WithLogger задает логгер
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = l
	}
}

// WithPublic добавляет публичные префиксы путей
func WithPublic(prefixes ...string) Option {
	return func(g *Guard) {
		g.publicPrefixes = append(g.publicPrefixes, prefixes...)
	}
}

// DefaultPublic - пути без проверки: логин, статика, favicon, health, метрики
var DefaultPublic = []string{"/login", "/static/", "/favicon", "/healthz", "/metrics"}

// New создает Guard для поверхности
func New(surface models.Surface, opts ...Option) *Guard {
	g := &Guard{
		surface:        surface,
		loginPath:      "/login",
		cookieName:     session.CookieName,
		publicPrefixes: append([]string(nil), DefaultPublic...),
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Decide классифицирует запрос. Не паникует на любом содержимом cookie.
func (g *Guard) Decide(r *http.Request) Decision {
	if g.isPublic(r.URL.Path) {
		return Allow
	}

	cookie, err := r.Cookie(g.cookieName)
	if err != nil || cookie.Value == "" {
		return Login
	}

	claims, err := token.ParseUnverified(cookie.Value)
	if err != nil {
		g.logger.DebugContext(r.Context(), "edge: malformed token cookie", slog.Any("error", err))
		return Login
	}

	if !g.surface.Allows(claims.Role) {
		return Denied
	}
	return Allow
}

// Middleware перенаправляет (307) на логин все, что не Allow
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := g.Decide(r)
		if g.observer != nil {
			g.observer.EdgeDecision(string(decision))
		}

		switch decision {
		case Allow:
			next.ServeHTTP(w, r)
		case Denied:
			g.logger.InfoContext(r.Context(), "edge: role not allowed", "path", r.URL.Path)
			http.Redirect(w, r, g.loginURL(true), http.StatusTemporaryRedirect)
		default:
			http.Redirect(w, r, g.loginURL(false), http.StatusTemporaryRedirect)
		}
	})
}

func (g *Guard) isPublic(path string) bool {
	for _, prefix := range g.publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (g *Guard) loginURL(denied bool) string {
	if !denied {
		return g.loginPath
	}
	q := url.Values{}
	q.Set("error", AccessDenied)
	return g.loginPath + "?" + q.Encode()
}
