package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/yski/yski-client/internal/client/storage"
	"github.com/yski/yski-client/internal/client/storage/redis"
	"github.com/yski/yski-client/internal/client/storage/sqlite"
	"github.com/yski/yski-client/internal/config"
	"github.com/yski/yski-client/internal/metrics"
	"github.com/yski/yski-client/internal/server"
	"github.com/yski/yski-client/internal/server/sessions"
	"github.com/yski/yski-client/internal/server/view"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const (
	sweepInterval   = 5 * time.Minute
	sessionIdle     = 30 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, prune, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	views, err := view.NewEngine()
	if err != nil {
		return err
	}

	registry := sessions.NewRegistry(sessions.Config{
		KV:           kv,
		Logger:       logger,
		Observer:     m,
		BaseURL:      cfg.APIBaseURL,
		APITimeout:   cfg.APITimeout,
		CookieTTL:    cfg.CookieTTL,
		CookieSecure: cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr: cfg.DashboardAddr,
		Handler: server.NewRouter(server.Options{
			Logger:         logger,
			Registry:       registry,
			Views:          views,
			Observer:       m,
			Metrics:        metrics.Handler(reg),
			Version:        Version,
			RefreshLead:    cfg.RefreshLead,
			LoginRateLimit: cfg.LoginRateLimit,
			Production:     cfg.CookieSecure,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("dashboard listening",
			slog.String("addr", cfg.DashboardAddr),
			slog.String("store", cfg.DashboardStore),
			slog.String("version", Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down dashboard")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := registry.Sweep(sessionIdle); n > 0 {
					logger.Debug("idle sessions unloaded", slog.Int("count", n))
				}
				if prune != nil {
					if n, err := prune(gctx, cfg.SessionTTL); err != nil {
						logger.Warn("failed to prune sessions", slog.Any("error", err))
					} else if n > 0 {
						logger.Info("stale sessions pruned", slog.Int64("count", n))
					}
				}
			}
		}
	})

	return g.Wait()
}

// openSessionStore открывает KV сессий браузеров.
// У redis истечение через TTL ключей, у sqlite - периодический Prune.
func openSessionStore(ctx context.Context, cfg *config.Config) (
	storage.KV, func(context.Context, time.Duration) (int64, error), func(), error,
) {
	switch cfg.DashboardStore {
	case config.StoreRedis:
		client, err := redis.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				slog.Error("failed to close redis", slog.Any("error", err))
			}
		}
		return redis.New(client, "yski:", cfg.SessionTTL), nil, closeFn, nil
	default:
		db, err := sqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open session database: %w", err)
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				slog.Error("failed to close session database", slog.Any("error", err))
			}
		}
		return db.Namespace("dashboard"), db.Prune, closeFn, nil
	}
}

func printVersion() {
	fmt.Printf("YSKI Dashboard\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
