// Package config - конфигурация из переменных окружения (префикс YSKI)
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix - префикс переменных окружения
const Prefix = "YSKI"

// Хранилища сессий dashboard
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config - настройки CLI и dashboard
type Config struct {
	APIBaseURL string        `envconfig:"API_BASE_URL" default:"http://localhost:8000/api/v1"`
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// мобильный CLI
	DBPath           string        `envconfig:"DB_PATH" default:"yski-client.db"`
	SecurePassphrase string        `envconfig:"SECURE_PASSPHRASE"`
	RefreshLead      time.Duration `envconfig:"REFRESH_LEAD" default:"60s"`

	// dashboard
	DashboardAddr  string        `envconfig:"DASHBOARD_ADDR" default:":3000"`
	DashboardStore string        `envconfig:"DASHBOARD_STORE" default:"sqlite"`
	SQLitePath     string        `envconfig:"SQLITE_PATH" default:"yski-dashboard.db"`
	RedisAddr      string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"168h"`
	CookieTTL      time.Duration `envconfig:"COOKIE_TTL" default:"15m"`
	CookieSecure   bool          `envconfig:"COOKIE_SECURE" default:"false"`
	LoginRateLimit int           `envconfig:"LOGIN_RATE_LIMIT" default:"10"`
}

// Load читает конфигурацию из окружения
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("api base url must be provided")
	}
	switch c.DashboardStore {
	case StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("unknown dashboard store %q", c.DashboardStore)
	}
	if c.CookieTTL <= 0 {
		return errors.New("cookie ttl must be positive")
	}
	if c.LoginRateLimit <= 0 {
		return errors.New("login rate limit must be positive")
	}
	return nil
}
