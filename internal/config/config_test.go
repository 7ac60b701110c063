package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("TICKETMASTER_API_KEY", "key")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.ServerAddr())
	assert.Equal(t, "https://app.ticketmaster.com/discovery/v2", cfg.Ticketmaster.BaseURL)
	assert.Equal(t, "US", cfg.Ticketmaster.Country)
	assert.Equal(t, "en-us", cfg.Ticketmaster.Locale)
	assert.Equal(t, 20, cfg.Ticketmaster.PageSize)
	assert.Equal(t, 10*time.Minute, cfg.Ticketmaster.CacheTTL)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, 7*24*time.Hour, cfg.Store.Retention)
	assert.Equal(t, 500*time.Millisecond, cfg.Search.Debounce)
	assert.Equal(t, 256, cfg.Search.PersistQueueSize)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Setenv("TICKETMASTER_API_KEY", "")

	_, err := New()
	assert.Error(t, err)
}

func TestNew_CustomValues(t *testing.T) {
	t.Setenv("TICKETMASTER_API_KEY", "key")
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "3000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("API_CACHE_TTL", "90s")
	t.Setenv("CLEANUP_SCHEDULE", "@every 6h")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3000", cfg.ServerAddr())
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.True(t, cfg.UseRedis())
	assert.Equal(t, 90*time.Second, cfg.Ticketmaster.CacheTTL)
	assert.Equal(t, "@every 6h", cfg.Store.CleanupSchedule)
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown backend", env: map[string]string{"STORE_BACKEND": "mongo"}},
		{name: "redis without addr", env: map[string]string{"STORE_BACKEND": "redis", "REDIS_ADDR": ""}},
		{name: "postgres without credentials", env: map[string]string{"STORE_BACKEND": "postgres", "POSTGRES_USER": ""}},
		{name: "page size", env: map[string]string{"PAGE_SIZE": "500"}},
		{name: "cron", env: map[string]string{"CLEANUP_SCHEDULE": "every tuesday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TICKETMASTER_API_KEY", "key")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := New()
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestPostgresConfig_DSN(t *testing.T) {
	p := PostgresConfig{User: "app", Password: "p@ss word", Name: "citypulse", Host: "db", Port: 5432, SSLMode: "disable"}

	assert.Equal(t, "postgres://app:p%40ss%20word@db:5432/citypulse?sslmode=disable", p.DSN())
}
