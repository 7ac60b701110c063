package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Server       ServerConfig
	Ticketmaster TicketmasterConfig
	Store        StoreConfig
	Search       SearchConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
}

type ServerConfig struct {
	Host     string `env:"SERVER_HOST" envDefault:"localhost"`
	Port     int    `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

type TicketmasterConfig struct {
	BaseURL   string        `env:"TICKETMASTER_BASE_URL" envDefault:"https://app.ticketmaster.com/discovery/v2"`
	APIKey    string        `env:"TICKETMASTER_API_KEY,required,notEmpty"`
	Country   string        `env:"TICKETMASTER_COUNTRY" envDefault:"US"`
	Locale    string        `env:"TICKETMASTER_LOCALE" envDefault:"en-us"`
	PageSize  int           `env:"PAGE_SIZE" envDefault:"20"`
	CacheTTL  time.Duration `env:"API_CACHE_TTL" envDefault:"10m"`
	Timeout   time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
	RateLimit float64       `env:"API_RATE_LIMIT" envDefault:"5"`
	RateBurst int           `env:"API_RATE_BURST" envDefault:"5"`
}

type StoreConfig struct {
	Backend    string `env:"STORE_BACKEND" envDefault:"sqlite"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"./data/citypulse.db"`

	// CleanupSchedule is a cron spec for periodic eviction. Empty runs it only at start.
	CleanupSchedule string        `env:"CLEANUP_SCHEDULE"`
	Retention       time.Duration `env:"CACHE_RETENTION" envDefault:"168h"`
}

type SearchConfig struct {
	Debounce         time.Duration `env:"SEARCH_DEBOUNCE" envDefault:"500ms"`
	PersistQueueSize int           `env:"PERSIST_QUEUE_SIZE" envDefault:"256"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type PostgresConfig struct {
	User     string `env:"POSTGRES_USER"`
	Password string `env:"POSTGRES_PASSWORD"`
	Name     string `env:"POSTGRES_DB"`
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	SSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
}

// DSN builds a postgres:// URL with escaped credentials.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     "/" + p.Name,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}

	return u.String()
}

func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// UseRedis reports whether a Redis server is configured, whatever the store backend.
func (c *Config) UseRedis() bool {
	return c.Redis.Addr != ""
}

// SlogLevel parses LOG_LEVEL; unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Server.LogLevel)); err != nil {
		return slog.LevelInfo
	}

	return lvl
}

// New loads .env if present, then parses the environment.
func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))

	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("%w: SQLITE_PATH is empty", ErrInvalid)
		}
	case BackendRedis:
		if !c.UseRedis() {
			return fmt.Errorf("%w: STORE_BACKEND=redis requires REDIS_ADDR", ErrInvalid)
		}
	case BackendPostgres:
		if c.Postgres.User == "" || c.Postgres.Password == "" || c.Postgres.Name == "" {
			return fmt.Errorf("%w: STORE_BACKEND=postgres requires POSTGRES_USER, POSTGRES_PASSWORD and POSTGRES_DB", ErrInvalid)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown STORE_BACKEND %q", ErrInvalid, c.Store.Backend)
	}

	if c.Ticketmaster.PageSize <= 0 || c.Ticketmaster.PageSize > 200 {
		return fmt.Errorf("%w: PAGE_SIZE must be in 1..200, got %d", ErrInvalid, c.Ticketmaster.PageSize)
	}

	if c.Ticketmaster.CacheTTL <= 0 {
		return fmt.Errorf("%w: API_CACHE_TTL must be positive", ErrInvalid)
	}

	if c.Search.Debounce <= 0 {
		return fmt.Errorf("%w: SEARCH_DEBOUNCE must be positive", ErrInvalid)
	}

	if c.Store.CleanupSchedule != "" {
		if _, err := cron.ParseStandard(c.Store.CleanupSchedule); err != nil {
			return fmt.Errorf("%w: CLEANUP_SCHEDULE: %v", ErrInvalid, err)
		}
	}

	return nil
}
