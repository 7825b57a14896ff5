package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yski/yski-client/internal/authz"
	"github.com/yski/yski-client/internal/client/api"
	"github.com/yski/yski-client/internal/edge"
	"github.com/yski/yski-client/internal/server/sessions"
	"github.com/yski/yski-client/internal/validation"
)

// Сообщения страницы входа
const (
	msgLoginFailed = "Login gagal. Periksa email dan password Anda."
	msgTooMany     = "Terlalu banyak percobaan. Coba lagi dalam satu menit."
)

type loginPageData struct {
	Errors       map[string]string
	Email        string
	General      string
	AccessDenied bool
}

// AuthHandler - вход и выход dashboard
type AuthHandler struct {
	*Pages
	loginLimit func(http.Handler) http.Handler
}

// NewAuthHandler создает обработчики входа; loginLimit ограничивает POST /login
func NewAuthHandler(pages *Pages, loginLimit func(http.Handler) http.Handler) *AuthHandler {
	if loginLimit == nil {
		loginLimit = func(next http.Handler) http.Handler { return next }
	}
	return &AuthHandler{Pages: pages, loginLimit: loginLimit}
}

// MountRoutes регистрирует маршруты входа
func (h *AuthHandler) MountRoutes(r chi.Router) {
	r.Get(LoginPath, h.showLogin)
	r.With(h.loginLimit).Post(LoginPath, h.handleLogin)
}

// MountProtected регистрирует маршруты, требующие сессии
func (h *AuthHandler) MountProtected(r chi.Router) {
	r.Post("/logout", h.handleLogout)
}

func (h *AuthHandler) showLogin(w http.ResponseWriter, r *http.Request) {
	denied := r.URL.Query().Get("error") == edge.AccessDenied

	// Браузер мог потерять access_token cookie, пока серверная сессия жива.
	// Истекающий токен обновляется, и Middleware выставит cookie заново.
	if sess := sessions.FromContext(r.Context()); sess != nil && !denied && sess.Store.IsAuthenticated() {
		if _, err := sess.Coord.RefreshIfExpiring(r.Context(), h.refreshLead); err != nil {
			h.logger.InfoContext(r.Context(), "session refresh on login page failed", slog.Any("error", err))
		} else if len(sess.Model.Resources(authz.DashboardResources)) > 0 {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}

	h.render(w, r, http.StatusOK, "login.html", h.pageData(r, "Masuk", loginPageData{AccessDenied: denied}))
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	data := loginPageData{Email: r.PostFormValue("email")}

	// вход всегда в новой сессии с новым sid
	sess := h.registry.Rotate(ctx)
	_, err := sess.Auth.Login(ctx, data.Email, r.PostFormValue("password"))
	if err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	status := http.StatusUnauthorized
	var fieldErrs validation.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		status = http.StatusBadRequest
		data.Errors = fieldErrs
	case errors.Is(err, authz.ErrAuthorizationDenied):
		status = http.StatusForbidden
		data.AccessDenied = true
	case errors.Is(err, api.ErrNetwork):
		status = http.StatusBadGateway
		data.General = msgLoginFailed
		h.logger.WarnContext(ctx, "login: backend unavailable", slog.Any("error", err))
	default:
		data.General = msgLoginFailed
		if detail := api.DetailOf(err); detail != "" {
			data.General = detail
		}
		h.logger.InfoContext(ctx, "login failed", slog.Any("error", err))
	}

	h.render(w, r, status, "login.html", h.pageData(r, "Masuk", data))
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := sessions.FromContext(r.Context()); sess != nil {
		if err := sess.Auth.Logout(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "logout", slog.Any("error", err))
		}
		h.registry.Forget(sess.ID)
	}
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

// TooManyLogins - ответ при превышении лимита попыток входа
func (h *AuthHandler) TooManyLogins(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusTooManyRequests, "login.html",
		h.pageData(r, "Masuk", loginPageData{General: msgTooMany}))
}
