// Package cli - команды мобильной поверхности: вход, статус сессии и
// запросы к backend'у через gateway.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yski/yski-client/internal/authz"
	"github.com/yski/yski-client/internal/client/auth"
	"github.com/yski/yski-client/internal/client/gateway"
	"github.com/yski/yski-client/internal/client/iocli"
	"github.com/yski/yski-client/internal/client/session"
)

// ErrUnknownCommand - команда не распознана
var ErrUnknownCommand = errors.New("unknown command")

// Deps - зависимости команд
type Deps struct {
	Auth    *auth.Service
	Store   *session.Store
	Coord   *gateway.Coordinator
	Gateway *gateway.Client
	Model   *authz.Model
	Logger  *slog.Logger
	// RefreshLead - за сколько до истечения токен обновляется заранее;
	// <= 0 отключает упреждающий refresh
	RefreshLead time.Duration
}

type Cli struct {
	io          iocli.IO
	authService *auth.Service
	store       *session.Store
	coord       *gateway.Coordinator
	gw          *gateway.Client
	model       *authz.Model
	logger      *slog.Logger
	now         func() time.Time
	refreshLead time.Duration
}

func New(io iocli.IO, d Deps) *Cli {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cli{
		io:          io,
		authService: d.Auth,
		store:       d.Store,
		coord:       d.Coord,
		gw:          d.Gateway,
		model:       d.Model,
		logger:      logger,
		now:         time.Now,
		refreshLead: d.RefreshLead,
	}
}

// Run выполняет команду
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return c.runRegister(ctx)
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "whoami":
		return c.runWhoami(ctx)
	case "can":
		return c.runCan(ctx, args)
	case "screens":
		return c.runScreens(ctx)
	case "get":
		return c.runGet(ctx, args)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}

// PrintUsage печатает справку
func PrintUsage(io iocli.IO) {
	io.Println("YSKI Client")
	io.Println()
	io.Println("Usage:")
	io.Println("  yski [OPTIONS] COMMAND")
	io.Println()
	io.Println("Options:")
	io.Println("  --version                    Show version information")
	io.Println("  --server URL                 API base URL (default: $YSKI_API_BASE_URL)")
	io.Println("  --db PATH                    Path to local database (default: $YSKI_DB_PATH)")
	io.Println()
	io.Println("Commands:")
	io.Println("  register                Create an account and sign in")
	io.Println("  login                   Sign in")
	io.Println("  logout                  Sign out and delete the local session")
	io.Println("  status                  Show session status")
	io.Println("  whoami                  Fetch the current profile from the server")
	io.Println("  can <action> <screen>   Check a capability of the current role")
	io.Println("  screens                 List screens available to the current role")
	io.Println("  get <path>              GET an API path with the current session")
	io.Println()
	io.Println("Examples:")
	io.Println("  yski login")
	io.Println("  yski can manage content")
	io.Println("  yski get /donations")
	io.Println("  yski --server https://api.yski.org/api/v1 status")
}
