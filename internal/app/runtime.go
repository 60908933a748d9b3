package app

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/freelanceflow/freelanceflow/internal/analytics"
	"github.com/freelanceflow/freelanceflow/internal/finance"
	"github.com/freelanceflow/freelanceflow/internal/ledger"
	"github.com/freelanceflow/freelanceflow/internal/observability"
	"github.com/freelanceflow/freelanceflow/internal/platform/cache"
)

const testModeEnv = "FREELANCEFLOW_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

// detectTestMode reads the FREELANCEFLOW_TEST_MODE flag once.
func detectTestMode() {
	testModeFlag.Store(os.Getenv(testModeEnv) == "1")
}

// InTestMode reports whether the binaries should skip runtime side effects.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode updates the cached flag after environment changes.
func RefreshTestMode() {
	detectTestMode()
}

// Runtime is the assembled ledger shared by the server, the worker and the
// CLI.
type Runtime struct {
	Config     *Config
	Logger     *slog.Logger
	Store      LedgerStore
	Ledger     *ledger.Service
	Dashboards *analytics.Service
	Facade     *finance.Facade
	Metrics    *observability.Metrics
	// Redis is nil when the server could not be reached at startup.
	Redis *redis.Client
}

// NewRuntime opens the store and wires the ledger, the dashboard cache and
// the metrics. Redis is optional: without it dashboards are computed on
// every request.
func NewRuntime(ctx context.Context, cfg *Config, logger *slog.Logger) (*Runtime, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	rt := &Runtime{Config: cfg, Logger: logger, Store: store, Metrics: observability.NewMetrics()}
	rt.Ledger = ledger.NewService(store, ledger.ServiceConfig{
		AllowOverpayment: cfg.AllowOverpayment,
		Logger:           logger,
	})
	rt.Ledger.SetObserver(rt.Metrics)

	var dashboardCache *analytics.Cache
	if client, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Warn("redis unavailable, dashboard cache disabled", slog.Any("error", err))
	} else {
		rt.Redis = client
		if cfg.DashboardCacheTTL > 0 {
			dashboardCache = analytics.NewCache(client, cfg.DashboardCacheTTL)
			rt.Ledger.SetInvalidator(dashboardCache)
		}
	}

	rt.Dashboards = analytics.NewService(store, dashboardCache, logger)
	rt.Facade = finance.NewFacade(rt.Ledger, rt.Dashboards, cfg.DisplayCurrency)
	return rt, nil
}

// Close releases the store and the Redis connection.
func (rt *Runtime) Close() {
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			rt.Logger.Warn("redis close", slog.Any("error", err))
		}
	}
	if err := rt.Store.Close(); err != nil {
		rt.Logger.Warn("store close", slog.Any("error", err))
	}
}

// Ping checks that the store answers queries.
func (rt *Runtime) Ping(ctx context.Context) error {
	_, err := rt.Store.GetProject(ctx, uuid.Nil)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil
	}
	return err
}
