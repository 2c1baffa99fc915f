package core

import (
	"context"
	"fmt"

	"bloodbank/internal/blob"
	"bloodbank/internal/infra/persistence/blobstate"
	"bloodbank/internal/infra/persistence/memory"
	"bloodbank/internal/infra/persistence/postgres"
	redisstore "bloodbank/internal/infra/persistence/redis"
	"bloodbank/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete snapshot store implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageRedis    StorageDriver = "redis"    // Redis server
	StorageBlob     StorageDriver = "blob"     // one object per collection on a blob driver
)

// StorageConfig selects and configures the snapshot store.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
	Redis       redisstore.Config
	Blob        blob.Config
	BlobPrefix  string
}

// OpenSnapshotStore opens the backend named by cfg.Driver, defaulting to
// sqlite when unset.
func OpenSnapshotStore(ctx context.Context, cfg StorageConfig) (SnapshotStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath)
	case StoragePostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	case StorageRedis:
		return redisstore.New(ctx, cfg.Redis)
	case StorageBlob:
		blobs, err := blob.Open(ctx, cfg.Blob)
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		return blobstate.New(blobs, cfg.BlobPrefix), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
