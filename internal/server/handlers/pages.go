// Package handlers - HTTP обработчики dashboard
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yski/yski-client/internal/authz"
	"github.com/yski/yski-client/internal/client/api"
	"github.com/yski/yski-client/internal/server/sessions"
	"github.com/yski/yski-client/internal/server/view"
)

// LoginPath - страница входа
const LoginPath = "/login"

// Pages - общая часть обработчиков страниц
type Pages struct {
	logger      *slog.Logger
	views       *view.Engine
	registry    *sessions.Registry
	refreshLead time.Duration
}

// NewPages создает обработчики страниц.
// refreshLead - за сколько до истечения токен обновляется при заходе на /login.
func NewPages(logger *slog.Logger, views *view.Engine, registry *sessions.Registry, refreshLead time.Duration) *Pages {
	return &Pages{
		logger:      logger,
		views:       views,
		registry:    registry,
		refreshLead: refreshLead,
	}
}

// pageData заполняет шапку: пользователь и разделы, доступные его роли
func (p *Pages) pageData(r *http.Request, title string, data any) view.TemplateData {
	td := view.TemplateData{
		Title:       title,
		CurrentPath: r.URL.Path,
		Data:        data,
	}

	sess := sessions.FromContext(r.Context())
	if sess == nil {
		return td
	}
	if user := sess.Store.User(); user != nil {
		td.UserName = user.FullName
		td.Role = string(user.Role)
	}

	td.Nav = append(td.Nav, view.NavItem{Path: "/", Label: "Beranda", Active: r.URL.Path == "/"})
	for _, res := range sess.Model.Resources(authz.DashboardResources) {
		path := "/r/" + string(res)
		td.Nav = append(td.Nav, view.NavItem{
			Path:   path,
			Label:  titleOf(res),
			Active: r.URL.Path == path,
		})
	}
	return td
}

func (p *Pages) render(w http.ResponseWriter, r *http.Request, status int, name string, data view.TemplateData) {
	if err := p.views.Render(w, status, name, data); err != nil {
		p.logger.ErrorContext(r.Context(), "render page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (p *Pages) renderError(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	p.render(w, r, status, "error.html", p.pageData(r, title, map[string]string{"Message": message}))
}

// handleAPIError переводит ошибку gateway в ответ страницы.
// Закончившаяся сессия ведет на вход.
func (p *Pages) handleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, api.ErrRefreshInvalid), errors.Is(err, api.ErrAuthExpired):
		p.logger.InfoContext(r.Context(), "session ended, redirecting to login", slog.Any("error", err))
		if sess := sessions.FromContext(r.Context()); sess != nil {
			if cerr := sess.Store.ClearAuth(r.Context()); cerr != nil {
				p.logger.WarnContext(r.Context(), "failed to clear session", slog.Any("error", cerr))
			}
		}
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
	case errors.Is(err, api.ErrNetwork):
		p.logger.WarnContext(r.Context(), "backend unavailable", slog.Any("error", err))
		p.renderError(w, r, http.StatusBadGateway, "Server tidak tersedia", "Tidak dapat terhubung ke server. Coba lagi nanti.")
	default:
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			status := apiErr.StatusCode
			if status < 400 || status > 599 {
				status = http.StatusBadGateway
			}
			p.renderError(w, r, status, http.StatusText(status), apiErr.Detail)
			return
		}
		p.logger.ErrorContext(r.Context(), "request failed", slog.Any("error", err))
		p.renderError(w, r, http.StatusInternalServerError, "Terjadi kesalahan", "Terjadi kesalahan. Coba lagi nanti.")
	}
}

func titleOf(r authz.Resource) string {
	s := string(r)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
