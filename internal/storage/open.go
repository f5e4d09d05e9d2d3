package storage

import (
	"context"
	"fmt"

	"directchat/backend/internal/config"
)

// Open returns the Storage selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config) (Storage, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		return OpenPostgres(cfg.PostgresDSN)
	case config.StoreDriverMongo:
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.StoreDriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
