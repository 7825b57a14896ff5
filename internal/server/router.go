// Package server собирает HTTP роутер dashboard
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/yski/yski-client/internal/edge"
	"github.com/yski/yski-client/internal/models"
	"github.com/yski/yski-client/internal/server/handlers"
	"github.com/yski/yski-client/internal/server/middleware"
	"github.com/yski/yski-client/internal/server/sessions"
	"github.com/yski/yski-client/internal/server/view"
)

// Observer - метрики, которые пишет роутер
type Observer interface {
	middleware.Observer
	edge.Observer
}

// Options - зависимости роутера
type Options struct {
	Logger         *slog.Logger
	Registry       *sessions.Registry
	Views          *view.Engine
	Observer       Observer
	Metrics        http.Handler
	Version        string
	RefreshLead    time.Duration
	LoginRateLimit int
	Production     bool
}

// NewRouter создает роутер dashboard.
// Порядок: request id, recovery, логирование, security headers, сессия, edge guard.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           opts.Production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !opts.Production,
	})

	// logout должен проходить и с истекшей cookie: иначе 307 превратит его в POST /login
	guardOpts := []edge.Option{edge.WithLogger(logger), edge.WithPublic("/logout")}
	if opts.Observer != nil {
		guardOpts = append(guardOpts, edge.WithObserver(opts.Observer))
	}
	guard := edge.New(models.SurfaceDashboard, guardOpts...)

	pages := handlers.NewPages(logger, opts.Views, opts.Registry, opts.RefreshLead)
	health := handlers.NewHealthHandler(logger, opts.Version)
	dashboard := handlers.NewDashboardHandler(pages)

	authHandler := handlers.NewAuthHandler(pages, nil)
	if opts.LoginRateLimit > 0 {
		authHandler = handlers.NewAuthHandler(pages, httprate.Limit(opts.LoginRateLimit, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(authHandler.TooManyLogins),
		))
	}

	var observer middleware.Observer
	if opts.Observer != nil {
		observer = opts.Observer
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger, observer, "/healthz", "/metrics"))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if err := secureMiddleware.Process(w, req); err != nil {
				logger.WarnContext(req.Context(), "secure headers blocked request", slog.Any("error", err))
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	r.Get("/healthz", health.Health)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}
	r.Handle("/static/*", view.Static())

	r.Group(func(r chi.Router) {
		r.Use(opts.Registry.Middleware)
		r.Use(guard.Middleware)

		authHandler.MountRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(sessions.RequireAuth(handlers.LoginPath))
			dashboard.MountRoutes(r)
			authHandler.MountProtected(r)
		})
	})

	return r
}
