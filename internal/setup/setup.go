// Package setup bootstraps the application dependencies in the correct order.
package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/codyssey/codyssey/internal/database"
	"github.com/codyssey/codyssey/internal/redis"
	"github.com/codyssey/codyssey/internal/setup/config"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// App bundles all core dependencies and services needed by the application.
// Each field represents a subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config  // Application configuration
	Logger       *zap.Logger     // Main application logger
	DBLogger     *zap.Logger     // Database-specific logger
	DB           database.Client // Database connection pool
	RedisManager *redis.Manager  // Redis connection manager
	CacheClient  rueidis.Client  // Redis client backing the view cache
}

// InitializeApp bootstraps all application dependencies, ensuring each
// component has its required dependencies available.
func InitializeApp(ctx context.Context, logDir string) (*App, error) {
	// Load app configuration
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logger, dbLogger, err := GetLoggers(logDir, cfg.Debug.LogLevel, cfg.Debug.MaxLogsToKeep)
	if err != nil {
		return nil, err
	}

	// Redis manager provides the connection pool for the view cache
	redisManager := redis.NewManager(&cfg.Redis, logger)

	cacheClient, err := redisManager.GetClient(redis.CacheDBIndex)
	if err != nil {
		return nil, err
	}

	// Probe Redis with exponential backoff so a slow container start does not
	// kill the process. The cache degrades to always-miss at runtime, but a
	// misconfigured address should surface at boot.
	if err := probeRedis(ctx, cacheClient); err != nil {
		logger.Warn("Redis unreachable at startup, cache will degrade to miss", zap.Error(err))
	}

	// Initialize database and ensure schema exists
	db, err := database.NewConnection(ctx, &cfg.PostgreSQL, dbLogger, true)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &App{
		Config:       cfg,
		Logger:       logger,
		DBLogger:     dbLogger,
		DB:           db,
		RedisManager: redisManager,
		CacheClient:  cacheClient,
	}, nil
}

// Cleanup gracefully closes all resources in reverse initialization order.
func (a *App) Cleanup() {
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("Failed to close database connection", zap.Error(err))
	}

	a.RedisManager.Close()

	_ = a.Logger.Sync()
	_ = a.DBLogger.Sync()
}

// probeRedis pings the cache store a few times with exponential backoff.
func probeRedis(ctx context.Context, client rueidis.Client) error {
	operation := func() error {
		return client.Do(ctx, client.B().Ping().Build()).Error()
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = 10 * time.Second

	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}
