package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/xfey-rate-tracker/internal/cache"
	"github.com/yourorg/xfey-rate-tracker/internal/config"
	"github.com/yourorg/xfey-rate-tracker/internal/history"
	"github.com/yourorg/xfey-rate-tracker/internal/types"
)

// redisKeyPrefix namespaces cache entries in a shared Redis
const redisKeyPrefix = "xfey:"

// setupLogging configures the logging for the application
func setupLogging(cfg config.Config) {
	switch cfg.LogFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	switch cfg.LogLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.Info("Logging configured")
}

// backends holds the storage selected by configuration
type backends struct {
	cache   cache.Store
	history history.Store

	pool  *pgxpool.Pool
	redis *redis.Client
}

// openBackends connects the history store and the cache backend. The Postgres pool
// is shared when both live in the database.
func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}

	if cfg.DatabaseURL != "" {
		pool, err := history.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		b.pool = pool

		store := history.NewPostgresStore(pool)
		if cfg.HistoryMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				b.Close()
				return nil, err
			}
		}
		b.history = store
	} else {
		logrus.Warn("DATABASE_URL not set, history is kept in memory")
		b.history = history.NewMemoryStore()
	}

	switch cfg.CacheBackend {
	case config.CacheMemory:
		b.cache = cache.NewMemoryStore()

	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store := cache.NewRedisStore(client, redisKeyPrefix)
		if err := store.Ping(ctx); err != nil {
			// cache failures degrade to misses, so an unreachable Redis is not fatal
			logrus.WithError(err).Warn("Redis not reachable at startup")
		}
		b.redis = client
		b.cache = store

	case config.CachePostgres:
		if b.pool == nil {
			b.Close()
			return nil, &types.ConfigError{Key: "DATABASE_URL"}
		}
		store := cache.NewPostgresStore(b.pool)
		if cfg.HistoryMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				b.Close()
				return nil, err
			}
		}
		b.cache = store

	default:
		b.Close()
		return nil, fmt.Errorf("unknown CACHE_BACKEND %q", cfg.CacheBackend)
	}

	logrus.WithFields(logrus.Fields{
		"cache":    cfg.CacheBackend,
		"postgres": b.pool != nil,
	}).Info("Storage initialized")

	return b, nil
}

// Close releases pooled connections
func (b *backends) Close() {
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close Redis client")
		}
	}
	if b.pool != nil {
		b.pool.Close()
	}
}
