// Package database picks and opens the storage driver named in the configuration.
package database

import (
	"context"
	"fmt"

	"tripRecapAPI/internal/config"
	"tripRecapAPI/internal/logging"
	"tripRecapAPI/internal/store"
	"tripRecapAPI/internal/store/memory"
	"tripRecapAPI/internal/store/mongo"
	"tripRecapAPI/internal/store/postgres"
)

// Open acquires the store for the lifetime of the process. The caller owns the
// returned store and must Close it on shutdown.
func Open(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.DatabaseURL)
	case config.DriverMongo:
		return mongo.Open(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
	case config.DriverMemory:
		logging.Warn().Msg("using in-memory store, data is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
