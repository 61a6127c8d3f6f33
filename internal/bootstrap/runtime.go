// Package bootstrap wires the process-wide resources shared by the server and
// the CLI: the database pool, the optional Redis client and the schema.
package bootstrap

import (
	"context"
	"fmt"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	ApplySchema bool
	SeedCatalog bool
}

// Runtime holds the connections a process owns.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// InitRuntime connects to the database and Redis, then optionally applies
// the schema and the built-in catalog. Redis may come back nil.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	rt := &Runtime{DB: db, Redis: cache.Connect(ctx, cfg.RedisURL)}

	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			rt.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	if opts.SeedCatalog {
		catalog, err := seed.DefaultCatalog()
		if err == nil {
			_, _, err = seed.ApplyCatalog(ctx, db, catalog)
		}
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to seed built-in catalog: %w", err)
		}
	}

	return rt, nil
}

// Close releases Redis and the database pool.
func (rt *Runtime) Close() {
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			middleware.Logger.Warn("error closing redis", "error", err)
		}
	}
	if err := database.Close(rt.DB); err != nil {
		middleware.Logger.Warn("error closing database", "error", err)
	}
}
