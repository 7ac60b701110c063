package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirinyoku/citypulse/internal/config"
	"github.com/kirinyoku/citypulse/internal/gateway"
	"github.com/kirinyoku/citypulse/internal/postgres"
	"github.com/kirinyoku/citypulse/internal/redis"
	"github.com/kirinyoku/citypulse/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/citypulse/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/citypulse/internal/repository/redis"
	sqliterepo "github.com/kirinyoku/citypulse/internal/repository/sqlite"
	"github.com/kirinyoku/citypulse/internal/service"
	"github.com/kirinyoku/citypulse/internal/service/search"
	"github.com/kirinyoku/citypulse/internal/service/storage"
	"github.com/kirinyoku/citypulse/internal/sqlite"
	httpgin "github.com/kirinyoku/citypulse/internal/transport/http/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	services   *service.Services
	httpServer *http.Server
	scheduler  *cron.Cron
	closers    []func() error
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx := context.Background()

	a := &App{
		cfg:    cfg,
		logger: logger,
	}

	// Initialize dependencies
	var rdb *goredis.Client
	if cfg.UseRedis() {
		client, err := redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}

		rdb = client
		a.closers = append(a.closers, rdb.Close)
	}

	kv, err := a.openStore(ctx, rdb)
	if err != nil {
		a.close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Initialize services
	a.services = service.NewServices(kv, service.Config{
		Gateway: gateway.Config{
			BaseURL:  cfg.Ticketmaster.BaseURL,
			APIKey:   cfg.Ticketmaster.APIKey,
			Country:  cfg.Ticketmaster.Country,
			Locale:   cfg.Ticketmaster.Locale,
			PageSize: cfg.Ticketmaster.PageSize,
			CacheTTL: cfg.Ticketmaster.CacheTTL,
			Timeout:  cfg.Ticketmaster.Timeout,
			Limiter:  a.apiLimiter(rdb),
			Metrics:  gateway.NewMetrics(reg),
		},
		Storage: storage.Config{
			Retention: cfg.Store.Retention,
		},
		Search: search.Config{
			Debounce:  cfg.Search.Debounce,
			QueueSize: cfg.Search.PersistQueueSize,
		},
	}, logger)

	if cfg.Store.CleanupSchedule != "" {
		a.scheduler = cron.New()

		_, err := a.scheduler.AddFunc(cfg.Store.CleanupSchedule, func() {
			a.services.Storage.CleanupExpiredData(context.Background())
		})
		if err != nil {
			a.services.Close()
			a.close()
			return nil, fmt.Errorf("failed to schedule cleanup: %w", err)
		}
	}

	// Initialize Gin router
	router := httpgin.NewRouter(a.services, reg, logger)

	a.httpServer = &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Evict past events once per start, before the first request can read them.
	a.services.Storage.CleanupExpiredData(ctx)

	if a.scheduler != nil {
		a.scheduler.Start()
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "addr", a.httpServer.Addr, "store", a.cfg.Store.Backend)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := a.httpServer.Shutdown(ctx)

		if a.scheduler != nil {
			<-a.scheduler.Stop().Done()
		}

		a.services.Close()
		a.close()

		return err
	})

	return g.Wait()
}

func (a *App) openStore(ctx context.Context, rdb *goredis.Client) (storage.KV, error) {
	switch a.cfg.Store.Backend {
	case config.BackendMemory:
		a.logger.Warn("using in-memory store, favorites will not survive a restart")
		return memory.New(), nil

	case config.BackendRedis:
		return redisrepo.New(rdb), nil

	case config.BackendPostgres:
		pool, err := postgres.New(ctx, postgres.Config{DSN: a.cfg.Postgres.DSN()})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}

		a.closers = append(a.closers, func() error {
			pool.Close()
			return nil
		})

		kv := postgresrepo.NewKV(pool)
		if err := kv.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare postgres schema: %w", err)
		}

		return kv, nil

	default:
		db, err := sqlite.Open(ctx, a.cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite: %w", err)
		}

		a.closers = append(a.closers, db.Close)

		kv := sqliterepo.NewKV(db)
		if err := kv.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare sqlite schema: %w", err)
		}

		return kv, nil
	}
}

// apiLimiter shares the API quota through Redis when it is available so that
// several instances using one key stay under the provider limit.
func (a *App) apiLimiter(rdb *goredis.Client) gateway.Limiter {
	tm := a.cfg.Ticketmaster

	if rdb == nil {
		return gateway.NewRateLimiter(tm.RateLimit, tm.RateBurst)
	}

	perSecond := max(1, int(math.Ceil(tm.RateLimit)))

	return redisrepo.NewSlidingWindowLimiter(rdb, "citypulse:v1:rl", perSecond, time.Second).Scoped("ticketmaster")
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}

	a.closers = nil
}
