// Package app wires configuration, storage, the quote provider and the usecase services together.
package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"github.com/simaogato/portfolio-tracker/internal/adapter/quotes/yahoo"
	"github.com/simaogato/portfolio-tracker/internal/adapter/repository/postgres"
	"github.com/simaogato/portfolio-tracker/internal/adapter/repository/redis"
	"github.com/simaogato/portfolio-tracker/internal/config"
	"github.com/simaogato/portfolio-tracker/internal/domain"
	"github.com/simaogato/portfolio-tracker/internal/logging"
	"github.com/simaogato/portfolio-tracker/internal/usecase/basket"
	"github.com/simaogato/portfolio-tracker/internal/usecase/dashboard"
	"github.com/simaogato/portfolio-tracker/internal/usecase/ledger"
	"github.com/simaogato/portfolio-tracker/internal/usecase/position"
	"github.com/simaogato/portfolio-tracker/internal/usecase/pricing"
	"github.com/simaogato/portfolio-tracker/internal/usecase/seeder"
	"github.com/simaogato/portfolio-tracker/internal/usecase/timeseries"
)

const (
	CacheBackendPostgres = "postgres"
	CacheBackendRedis    = "redis"
)

// connectAttempts bounds how long startup waits for Postgres
const connectAttempts = 5

// App holds every long-lived dependency of a process
type App struct {
	Config   *config.Config
	Location *time.Location
	DB       *postgres.DB
	Redis    *goredis.Client

	PortfolioRepo   domain.PortfolioRepository
	GroupRepo       domain.GroupRepository
	AssetRepo       domain.AssetRepository
	TransactionRepo domain.TransactionRepository
	BasketRepo      domain.BasketRepository
	QuoteCacheRepo  domain.QuoteCacheRepository

	PricingService    *pricing.PricingService
	LedgerService     *ledger.LedgerService
	BasketService     *basket.BasketService
	PositionService   *position.PositionService
	DashboardService  *dashboard.DashboardService
	TimeSeriesService *timeseries.TimeSeriesService
	Seeder            *seeder.SystemSeeder
}

// New connects to the stores named by cfg and builds the services on top of them.
// Callers must Close the returned App.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	// 1. Setup Database
	db, err := ConnectDB(ctx, cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Location: loc, DB: db}

	// 2. Initialize Repositories
	a.PortfolioRepo = postgres.NewPortfolioRepository(db)
	a.GroupRepo = postgres.NewGroupRepository(db)
	a.AssetRepo = postgres.NewAssetRepository(db)
	a.TransactionRepo = postgres.NewTransactionRepository(db)
	a.BasketRepo = postgres.NewBasketRepository(db)

	switch cfg.Pricing.Cache {
	case CacheBackendPostgres, "":
		a.QuoteCacheRepo = postgres.NewQuoteCacheRepository(db)
	case CacheBackendRedis:
		client, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		a.Redis = client
		a.QuoteCacheRepo = redis.NewQuoteCacheRepository(client)
	default:
		_ = db.Close()
		return nil, fmt.Errorf("unknown pricing.cache %q", cfg.Pricing.Cache)
	}

	// 3. Initialize Services
	source := yahoo.NewSource(cfg.Quotes.BaseURL, cfg.Quotes.Timeout, cfg.Quotes.Retries)
	a.PricingService = pricing.NewPricingService(a.QuoteCacheRepo, source, cfg.Pricing.TTL, cfg.Pricing.SymbolAliases())
	a.LedgerService = ledger.NewLedgerService(a.PortfolioRepo, a.GroupRepo, a.AssetRepo, a.TransactionRepo, a.BasketRepo)
	a.BasketService = basket.NewBasketService(a.BasketRepo, a.AssetRepo)
	a.PositionService = position.NewPositionService(a.AssetRepo, a.GroupRepo, a.TransactionRepo, a.PricingService)
	a.DashboardService = dashboard.NewDashboardService(a.AssetRepo, a.GroupRepo, a.TransactionRepo, a.BasketRepo, a.PricingService)
	a.TimeSeriesService = timeseries.NewTimeSeriesService(a.AssetRepo, a.TransactionRepo, a.BasketRepo, a.PricingService, loc)
	if cfg.Pricing.HistoryLookback > 0 {
		a.TimeSeriesService.HistoryLookback = cfg.Pricing.HistoryLookback
	}
	if cfg.Pricing.AssetHistoryDays > 0 {
		a.TimeSeriesService.AssetHistoryDays = cfg.Pricing.AssetHistoryDays
	}
	a.Seeder = seeder.NewSystemSeeder(a.PortfolioRepo, a.GroupRepo)

	return a, nil
}

// ConnectDB opens Postgres, retrying with exponential backoff while the server is still starting
func ConnectDB(ctx context.Context, dsn string) (*postgres.DB, error) {
	var db *postgres.DB
	backoff := retry.WithMaxRetries(connectAttempts, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		conn, err := postgres.NewDB(dsn)
		if err != nil {
			logging.FromContext(ctx).WithError(err).Warn("database not ready, retrying")
			return retry.RetryableError(err)
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Close releases the database and cache connections
func (a *App) Close() error {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			return fmt.Errorf("failed to close redis: %w", err)
		}
	}
	return a.DB.Close()
}
