package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roster-cli/internal/cache"
	"github.com/sells-group/roster-cli/internal/config"
	"github.com/sells-group/roster-cli/internal/store"
)

func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	switch c.Store.Driver {
	case "sqlite":
		dsn := c.Store.DatabaseURL
		if dsn == "" {
			dsn = "roster.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, c.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
}

// openStore initializes the configured store and applies migrations.
func openStore(ctx context.Context, c *config.Config) (store.Store, error) {
	st, err := initStore(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// initCache connects to Redis when configured. A connection failure is
// logged and the run proceeds uncached.
func initCache(ctx context.Context, c *config.Config) *cache.Cache {
	rc, err := cache.New(ctx, cache.Options{
		URL:         c.Redis.URL,
		TTL:         c.Redis.TTL(),
		KeyPrefix:   c.Redis.KeyPrefix,
		PoolSize:    c.Redis.PoolSize,
		DialTimeout: secs(c.Redis.DialTimeoutSecs),
	})
	if err != nil {
		zap.L().Warn("roster cache unavailable, continuing without it", zap.Error(err))
		return nil
	}
	return rc
}
