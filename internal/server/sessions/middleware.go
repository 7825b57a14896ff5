package sessions

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/yski/yski-client/internal/client/session"
)

type ctxKey struct{}

// requestState - сессия и cookie текущего запроса
type requestState struct {
	session *Session
	cookies *cookieSync
	mu      sync.Mutex
}

func stateFrom(ctx context.Context) *requestState {
	st, _ := ctx.Value(ctxKey{}).(*requestState)
	return st
}

// FromContext возвращает сессию текущего запроса
func FromContext(ctx context.Context) *Session {
	st := stateFrom(ctx)
	if st == nil {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.session
}

// cookieSync накапливает cookie от Store и выставляет их один раз перед заголовками ответа.
// Cookie, пришедшие после отправки заголовков, отбрасываются.
type cookieSync struct {
	w        http.ResponseWriter
	reg      *Registry
	store    *session.Store
	pending  []*http.Cookie
	access   *http.Cookie
	incoming string
	mu       sync.Mutex
	written  bool
}

func (cs *cookieSync) add(c *http.Cookie) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.written {
		return
	}
	if c.Name == session.CookieName {
		cs.access = c
		return
	}
	cs.pending = append(cs.pending, c)
}

func (cs *cookieSync) setStore(s *session.Store) {
	cs.mu.Lock()
	cs.store = s
	cs.mu.Unlock()
}

// flush выставляет накопленные cookie.
// Если токен обновился в другом запросе этого браузера, cookie строится по текущему Store.
func (cs *cookieSync) flush() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.written {
		return
	}
	cs.written = true

	access := cs.access
	if access == nil && cs.store.AccessToken() != cs.incoming {
		access = session.AccessCookie(cs.store.AccessToken(), cs.reg.cfg.CookieTTL, cs.reg.now(), cs.reg.cfg.CookieSecure)
	}
	for _, c := range cs.pending {
		http.SetCookie(cs.w, c)
	}
	if access != nil {
		http.SetCookie(cs.w, access)
	}
}

// mirrorToResponse - CookieMirror для Store сессий браузера
func mirrorToResponse(ctx context.Context, c *http.Cookie) {
	if st := stateFrom(ctx); st != nil {
		st.cookies.add(c)
	}
}

type syncWriter struct {
	http.ResponseWriter
	cookies *cookieSync
}

func (w *syncWriter) WriteHeader(code int) {
	w.cookies.flush()
	w.ResponseWriter.WriteHeader(code)
}

func (w *syncWriter) Write(b []byte) (int, error) {
	w.cookies.flush()
	return w.ResponseWriter.Write(b)
}

func (w *syncWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Middleware находит или создает сессию браузера и кладет ее в контекст
func (r *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		cs := &cookieSync{w: w, reg: r}
		if c, err := req.Cookie(session.CookieName); err == nil {
			cs.incoming = c.Value
		}

		var sess *Session
		if c, err := req.Cookie(CookieName); err == nil && c.Value != "" {
			sess = r.Get(ctx, c.Value)
		} else {
			sess = r.New()
			cs.pending = append(cs.pending, r.SessionCookie(sess.ID))
		}
		cs.store = sess.Store

		ctx = context.WithValue(ctx, ctxKey{}, &requestState{session: sess, cookies: cs})
		next.ServeHTTP(&syncWriter{ResponseWriter: w, cookies: cs}, req.WithContext(ctx))
		cs.flush()
	})
}

// Rotate заменяет сессию запроса новой с новым sid (перед входом).
// Старая сессия выгружается из памяти, ее запись в KV удаляется.
func (r *Registry) Rotate(ctx context.Context) *Session {
	st := stateFrom(ctx)
	fresh := r.New()
	if st == nil {
		return fresh
	}

	st.mu.Lock()
	old := st.session
	st.session = fresh
	st.mu.Unlock()

	if old != nil {
		r.Forget(old.ID)
		if err := old.Store.ClearAuth(ctx); err != nil {
			r.cfg.Logger.WarnContext(ctx, "failed to clear rotated session", slog.Any("error", err))
		}
	}
	st.cookies.setStore(fresh.Store)
	st.cookies.add(r.SessionCookie(fresh.ID))
	return fresh
}

// RequireAuth перенаправляет на loginPath, если сессия браузера не аутентифицирована
func RequireAuth(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := FromContext(r.Context())
			if sess == nil || !sess.Store.IsAuthenticated() {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
