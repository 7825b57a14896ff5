// Package apitest - in-process фейковый backend YSKI для тестов.
// Выдает HS256 JWT, ротирует refresh token'ы и считает вызовы refresh.
package apitest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yski/yski-client/internal/models"
	"github.com/yski/yski-client/pkg/api"
)

type account struct {
	profile  models.UserProfile
	password string
}

type claims struct {
	Role  models.Role `json:"role"`
	Email string      `json:"email"`
	Type  string      `json:"type"`
	Gen   int64       `json:"gen"`
	jwt.RegisteredClaims
}

// Backend - фейковый backend
type Backend struct {
	Server *httptest.Server

	refreshHook func()
	accounts    map[string]*account // по email
	refresh     map[string]string   // refresh token -> email
	secret      []byte
	mu          sync.Mutex

	accessTTL    time.Duration
	gen          atomic.Int64
	refreshCalls atomic.Int64
	loginCalls   atomic.Int64
	logoutCalls  atomic.Int64
	rejected     atomic.Int64
	failRefresh  atomic.Bool
}

// New запускает backend; сервер закрывается через t.Cleanup
func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		accounts:  make(map[string]*account),
		refresh:   make(map[string]string),
		secret:    []byte("apitest-secret"),
		accessTTL: 15 * time.Minute,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", b.handleLogin)
	mux.HandleFunc("POST /auth/register", b.handleRegister)
	mux.HandleFunc("POST /auth/refresh", b.handleRefresh)
	mux.HandleFunc("POST /auth/logout", b.authenticated(b.handleLogout))
	mux.HandleFunc("GET /users/me", b.authenticated(b.handleMe))
	mux.HandleFunc("GET /dashboard/overview", b.authenticated(b.handleOverview))
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		mux.HandleFunc(method+" /echo", b.authenticated(b.handleEcho))
	}
	mux.HandleFunc("GET /{resource}", b.authenticated(b.handleList))

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Server.Close)
	return b
}

// URL - базовый адрес (аналог .../api/v1)
func (b *Backend) URL() string {
	return b.Server.URL
}

// AddUser регистрирует пользователя напрямую
func (b *Backend) AddUser(email, password string, role models.Role) *models.UserProfile {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc := &account{
		password: password,
		profile: models.UserProfile{
			ID:        uuid.NewString(),
			FullName:  strings.Split(email, "@")[0],
			Email:     email,
			Role:      role,
			IsActive:  true,
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		},
	}
	b.accounts[email] = acc
	p := acc.profile
	return &p
}

// Deactivate помечает пользователя неактивным
func (b *Backend) Deactivate(email string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if acc, ok := b.accounts[email]; ok {
		acc.profile.IsActive = false
	}
}

// Issue выдает пару токенов для пользователя, минуя login
func (b *Backend) Issue(email string) (access, refresh string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[email]
	if !ok {
		panic("apitest: unknown user " + email)
	}
	return b.issueLocked(acc)
}

// SetAccessTTL задает срок жизни новых access token'ов (отрицательный - сразу истекшие)
func (b *Backend) SetAccessTTL(ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accessTTL = ttl
}

// ExpireAccessTokens делает все ранее выданные access token'ы невалидными
func (b *Backend) ExpireAccessTokens() {
	b.gen.Add(1)
}

// SetRefreshHook задает функцию, вызываемую в начале каждого refresh до проверки токена
func (b *Backend) SetRefreshHook(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshHook = fn
}

// FailRefresh заставляет refresh отвечать 401
func (b *Backend) FailRefresh(fail bool) {
	b.failRefresh.Store(fail)
}

// RefreshCalls - число вызовов POST /auth/refresh
func (b *Backend) RefreshCalls() int64 { return b.refreshCalls.Load() }

// LoginCalls - число вызовов POST /auth/login
func (b *Backend) LoginCalls() int64 { return b.loginCalls.Load() }

// Rejected - число запросов, отвергнутых с 401 из-за токена
func (b *Backend) Rejected() int64 { return b.rejected.Load() }

// LogoutCalls - число вызовов POST /auth/logout
func (b *Backend) LogoutCalls() int64 { return b.logoutCalls.Load() }

func (b *Backend) issueLocked(acc *account) (string, string) {
	now := time.Now()
	c := claims{
		Role:  acc.profile.Role,
		Email: acc.profile.Email,
		Type:  "access",
		Gen:   b.gen.Load(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.profile.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(b.accessTTL)),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(b.secret)
	if err != nil {
		panic(err)
	}
	refresh := uuid.NewString()
	b.refresh[refresh] = acc.profile.Email
	return access, refresh
}

func (b *Backend) verify(raw string) (*claims, error) {
	c := &claims{}
	_, err := jwt.ParseWithClaims(raw, c, func(*jwt.Token) (any, error) {
		return b.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if c.Gen != b.gen.Load() {
		return nil, errors.New("token revoked")
	}
	return c, nil
}

func (b *Backend) authenticated(next func(http.ResponseWriter, *http.Request, *account)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			b.rejected.Add(1)
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		c, err := b.verify(raw)
		if err != nil {
			b.rejected.Add(1)
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		b.mu.Lock()
		acc, ok := b.accounts[c.Email]
		b.mu.Unlock()
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "User not found")
			return
		}
		next(w, r, acc)
	}
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	b.loginCalls.Add(1)

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[req.Email]
	if !ok || acc.password != req.Password {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	if !acc.profile.IsActive {
		writeDetail(w, http.StatusForbidden, "Inactive user")
		return
	}

	access, refresh := b.issueLocked(acc)
	writeJSON(w, http.StatusOK, api.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(b.accessTTL / time.Second),
	})
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	b.mu.Lock()
	_, exists := b.accounts[req.Email]
	b.mu.Unlock()
	if exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}

	b.AddUser(req.Email, req.Password, models.RoleSahabat)
	b.mu.Lock()
	acc := b.accounts[req.Email]
	acc.profile.FullName = req.FullName
	acc.profile.Phone = req.Phone
	p := acc.profile
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, p)
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)
	b.mu.Lock()
	hook := b.refreshHook
	b.mu.Unlock()
	if hook != nil {
		hook()
	}

	var req api.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if b.failRefresh.Load() {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	email, ok := b.refresh[req.RefreshToken]
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	// ротация: старый refresh token больше не действует
	delete(b.refresh, req.RefreshToken)

	access, refresh := b.issueLocked(b.accounts[email])
	writeJSON(w, http.StatusOK, api.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(b.accessTTL / time.Second),
	})
}

func (b *Backend) handleLogout(w http.ResponseWriter, _ *http.Request, _ *account) {
	b.logoutCalls.Add(1)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (b *Backend) handleMe(w http.ResponseWriter, _ *http.Request, acc *account) {
	b.mu.Lock()
	p := acc.profile
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) handleOverview(w http.ResponseWriter, _ *http.Request, _ *account) {
	writeJSON(w, http.StatusOK, map[string]any{
		"total_donations":  12,
		"pending_bookings": 3,
		"active_auctions":  1,
	})
}

// EchoResponse - ответ /echo
type EchoResponse struct {
	Method        string `json:"method"`
	Body          string `json:"body"`
	Authorization string `json:"authorization"`
	RequestID     string `json:"request_id"`
}

func (b *Backend) handleEcho(w http.ResponseWriter, r *http.Request, _ *account) {
	body, _ := io.ReadAll(r.Body)
	writeJSON(w, http.StatusOK, EchoResponse{
		Method:        r.Method,
		Body:          string(body),
		Authorization: r.Header.Get("Authorization"),
		RequestID:     r.Header.Get("X-Request-ID"),
	})
}

func (b *Backend) handleList(w http.ResponseWriter, r *http.Request, _ *account) {
	writeJSON(w, http.StatusOK, map[string]any{
		"resource": r.PathValue("resource"),
		"items":    []any{},
		"total":    0,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// String для отладки
func (b *Backend) String() string {
	return fmt.Sprintf("apitest.Backend(%s)", b.URL())
}
