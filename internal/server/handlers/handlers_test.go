package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yski/yski-client/internal/client/api/apitest"
	"github.com/yski/yski-client/internal/client/session"
	"github.com/yski/yski-client/internal/client/storage/sqlite"
	"github.com/yski/yski-client/internal/models"
	"github.com/yski/yski-client/internal/server/sessions"
	"github.com/yski/yski-client/internal/server/view"
)

const testPassword = "rahasia123"

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type env struct {
	backend  *apitest.Backend
	registry *sessions.Registry
	server   *httptest.Server
	client   *http.Client
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	logger := setupTestLogger()

	backend := apitest.New(t)
	backend.AddUser("admin@yski.org", testPassword, models.RoleAdmin)
	backend.AddUser("pengurus@yski.org", testPassword, models.RolePengurus)
	backend.AddUser("sahabat@yski.org", testPassword, models.RoleSahabat)

	db, err := sqlite.New(ctx, filepath.Join(t.TempDir(), "dashboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	registry := sessions.NewRegistry(sessions.Config{
		KV:         db.Namespace("sessions"),
		Logger:     logger,
		BaseURL:    backend.URL(),
		APITimeout: 5 * time.Second,
	})

	views, err := view.NewEngine()
	require.NoError(t, err)

	pages := NewPages(logger, views, registry, time.Minute)
	authHandler := NewAuthHandler(pages, nil)
	dashboard := NewDashboardHandler(pages)

	r := chi.NewRouter()
	r.Use(registry.Middleware)
	authHandler.MountRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(sessions.RequireAuth(LoginPath))
		dashboard.MountRoutes(r)
		authHandler.MountProtected(r)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &env{
		backend:  backend,
		registry: registry,
		server:   srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (e *env) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (e *env) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.PostForm(e.server.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (e *env) login(t *testing.T, email string) {
	t.Helper()
	resp, _ := e.post(t, LoginPath, url.Values{"email": {email}, "password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))
}

func (e *env) cookie(t *testing.T, name string) string {
	t.Helper()
	u, err := url.Parse(e.server.URL)
	require.NoError(t, err)
	for _, c := range e.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() {
		assert.NoError(t, resp.Body.Close())
	}()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestLogin_Success(t *testing.T) {
	e := newEnv(t)

	// первая страница выдает анонимную сессию
	resp, body := e.get(t, LoginPath)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `action="/login"`)
	anonymous := e.cookie(t, sessions.CookieName)
	require.NotEmpty(t, anonymous)

	e.login(t, "admin@yski.org")

	sid := e.cookie(t, sessions.CookieName)
	assert.NotEmpty(t, sid)
	assert.NotEqual(t, anonymous, sid, "вход выдает новый sid")
	assert.NotEmpty(t, e.cookie(t, session.CookieName), "access token зеркалируется в cookie")

	resp, body = e.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "admin@yski.org")
	assert.Contains(t, body, `href="/r/users"`)
	assert.Contains(t, body, `href="/r/finance"`)
	assert.Contains(t, body, "change_role")
}

func TestLogin_ValidationErrors(t *testing.T) {
	e := newEnv(t)

	resp, body := e.post(t, LoginPath, url.Values{"email": {"bukan-email"}, "password": {""}})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Email tidak valid")
	assert.Contains(t, body, "Password wajib diisi")
	assert.Contains(t, body, `value="bukan-email"`)
	assert.Zero(t, e.backend.LoginCalls(), "невалидная форма не уходит на backend")
}

func TestLogin_WrongPassword(t *testing.T) {
	e := newEnv(t)

	resp, body := e.post(t, LoginPath, url.Values{"email": {"admin@yski.org"}, "password": {"salah-password"}})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Incorrect email or password")
	assert.Empty(t, e.cookie(t, session.CookieName))
}

func TestLogin_NonStaffDenied(t *testing.T) {
	e := newEnv(t)

	resp, body := e.post(t, LoginPath, url.Values{"email": {"sahabat@yski.org"}, "password": {testPassword}})

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body, "Akses ditolak")
	assert.Empty(t, e.cookie(t, session.CookieName), "токен не попадает в браузер")

	resp, _ = e.get(t, "/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, LoginPath, resp.Header.Get("Location"))
}

func TestLogin_AccessDeniedBanner(t *testing.T) {
	e := newEnv(t)

	resp, body := e.get(t, LoginPath+"?error=access_denied")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Akses ditolak")
}

func TestLoginPage_RedirectsWhenAuthenticated(t *testing.T) {
	e := newEnv(t)
	e.login(t, "pengurus@yski.org")

	resp, _ := e.get(t, LoginPath)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestHome_RequiresSession(t *testing.T) {
	e := newEnv(t)

	for _, path := range []string{"/", "/r/users"} {
		resp, _ := e.get(t, path)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, LoginPath, resp.Header.Get("Location"), path)
	}
}

func TestResource_Page(t *testing.T) {
	e := newEnv(t)
	e.login(t, "pengurus@yski.org")

	resp, body := e.get(t, "/r/donations")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "&#34;resource&#34;: &#34;donations&#34;")
	assert.Contains(t, body, "verify")

	resp, _ = e.get(t, "/r/pickups")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "экран мобильного приложения не раздел dashboard")
}

func TestResource_RefreshesExpiredToken(t *testing.T) {
	e := newEnv(t)
	e.login(t, "admin@yski.org")
	before := e.cookie(t, session.CookieName)

	e.backend.ExpireAccessTokens()

	resp, _ := e.get(t, "/r/users")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, e.backend.RefreshCalls())

	after := e.cookie(t, session.CookieName)
	assert.NotEmpty(t, after)
	assert.NotEqual(t, before, after, "cookie обновлена вместе с токеном")
}

func TestResource_RefreshRejectedEndsSession(t *testing.T) {
	e := newEnv(t)
	e.login(t, "admin@yski.org")

	e.backend.FailRefresh(true)
	e.backend.ExpireAccessTokens()

	resp, _ := e.get(t, "/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, LoginPath, resp.Header.Get("Location"))
	assert.Empty(t, e.cookie(t, session.CookieName))

	resp, _ = e.get(t, "/r/users")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	e := newEnv(t)
	e.login(t, "admin@yski.org")
	require.Equal(t, 1, e.registry.Len())

	resp, _ := e.post(t, "/logout", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, LoginPath, resp.Header.Get("Location"))
	assert.EqualValues(t, 1, e.backend.LogoutCalls())
	assert.Empty(t, e.cookie(t, session.CookieName))

	resp, _ = e.get(t, "/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestTitleOf(t *testing.T) {
	assert.Equal(t, "Users", titleOf("users"))
	assert.Equal(t, "", titleOf(""))
	assert.True(t, strings.HasPrefix(titleOf("finance"), "F"))
}
