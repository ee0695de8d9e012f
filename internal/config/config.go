package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds service configuration.
type Config struct {
	StoreDriver     string        `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	SQLitePath      string        `env:"SQLITE_PATH" envDefault:"homegame.db"`
	MigrationsDir   string        `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	ServerAddr      string        `env:"SERVER_ADDR" envDefault:"0.0.0.0:8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ProfileCacheTTL time.Duration `env:"PROFILE_CACHE_TTL" envDefault:"5m"`
	PollInterval    time.Duration `env:"POLL_INTERVAL" envDefault:"3s"`
	ShortCodeLength int           `env:"SHORT_CODE_LENGTH" envDefault:"6"`
	NotifyChannel   string        `env:"NOTIFY_CHANNEL" envDefault:"game_changes"`

	Postgres PostgresParts
}

// PostgresParts builds a DSN when DATABASE_URL is unset.
type PostgresParts struct {
	User     string `env:"POSTGRES_USER" envDefault:"homegame"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:"homegame"`
	DB       string `env:"POSTGRES_DB" envDefault:"homegame"`
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     string `env:"POSTGRES_PORT" envDefault:"5432"`
	SSLMode  string `env:"DATABASE_SSLMODE" envDefault:"disable"`
}

func (p PostgresParts) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from the environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = cfg.Postgres.DSN()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.ShortCodeLength < 4 {
		return fmt.Errorf("SHORT_CODE_LENGTH must be at least 4")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	return nil
}
