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

	"github.com/yski/yski-client/internal/authz"
	"github.com/yski/yski-client/internal/client/api"
	"github.com/yski/yski-client/internal/client/auth"
	"github.com/yski/yski-client/internal/client/cli"
	"github.com/yski/yski-client/internal/client/gateway"
	"github.com/yski/yski-client/internal/client/iocli"
	"github.com/yski/yski-client/internal/client/session"
	"github.com/yski/yski-client/internal/client/storage/boltdb"
	"github.com/yski/yski-client/internal/config"
	"github.com/yski/yski-client/internal/crypto"
	"github.com/yski/yski-client/internal/models"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
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

	// Глобальные флаги; переопределяют переменные окружения
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", cfg.APIBaseURL, "Backend API base URL")
	dbPath := flag.String("db", cfg.DBPath, "Path to local database")
	flag.Parse()

	if *showVersion {
		printVersion()
		return nil
	}

	stdio := iocli.NewStdio()
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage(stdio)
		return errors.New("no command given")
	}

	logger := config.NewLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	boltStorage, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	// ключ шифрования токенов лежит рядом с базой
	key, err := crypto.DeviceKey(*dbPath+".key", cfg.SecurePassphrase)
	if err != nil {
		return fmt.Errorf("failed to load device key: %w", err)
	}
	sealer, err := crypto.NewSealer(key)
	if err != nil {
		return err
	}

	store := session.NewStore(
		session.NewSplitPersister(boltStorage.State(), boltStorage.Secure(), sealer, session.MobileKey, logger),
		session.WithLogger(logger),
	)
	if err := store.Hydrate(ctx); err != nil {
		// поврежденная сессия равна отсутствующей
		logger.Warn("failed to restore session", slog.Any("error", err))
	}

	apiClient := api.NewClient(*serverURL, api.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}))
	coord := gateway.NewCoordinator(store, apiClient,
		gateway.WithLogger(logger),
		gateway.OnExpired(func(ctx context.Context) {
			stdio.Println("Sesi berakhir. Silakan login kembali.")
		}),
	)

	app := cli.New(stdio, cli.Deps{
		Auth:        auth.NewService(apiClient, store, models.SurfaceMobile, logger),
		Store:       store,
		Coord:       coord,
		Gateway:     gateway.NewClient(*serverURL, gateway.NewTransport(*serverURL, nil, store, coord), cfg.APITimeout),
		Model:       authz.NewModel(authz.MobileTable, store),
		Logger:      logger,
		RefreshLead: cfg.RefreshLead,
	})

	err = app.Run(ctx, args[0], args[1:])
	if errors.Is(err, cli.ErrUnknownCommand) {
		cli.PrintUsage(stdio)
	}
	return err
}

func printVersion() {
	fmt.Printf("YSKI Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
