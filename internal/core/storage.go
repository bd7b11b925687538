package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"venueflow/internal/infra/blob"
	"venueflow/internal/infra/persistence/memory"
	"venueflow/internal/infra/persistence/objectstore"
	"venueflow/internal/infra/persistence/postgres"
	"venueflow/internal/infra/persistence/sqlite"
	"venueflow/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageBlob     StorageDriver = "blob"     // snapshot generations in an object store
)

// StorageConfig selects and parameterises the snapshot backend.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
	Blob        blob.Config
	BlobPrefix  string
	BlobRetain  int
}

type durableStore interface {
	domain.PersistentStore
	domain.SnapshotStore
	SetSnapshotSink(memory.SnapshotSink)
}

// OpenPersistentStore opens the configured backend (default sqlite) and
// instruments its snapshot saves with metrics.
func OpenPersistentStore(ctx context.Context, cfg StorageConfig, engine *domain.RulesEngine, metrics *Metrics, logger zerolog.Logger, opts ...memory.Option) (domain.PersistentStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	var (
		store durableStore
		err   error
	)
	switch driver {
	case StorageMemory:
		logger.Info().Str("driver", string(driver)).Msg("storage opened")
		return memory.NewStore(engine, opts...), nil
	case StorageSQLite:
		store, err = sqlite.NewStore(ctx, cfg.SQLitePath, engine, opts...)
	case StoragePostgres:
		store, err = postgres.NewStore(ctx, cfg.PostgresDSN, engine, opts...)
	case StorageBlob:
		objects, openErr := blob.Open(ctx, cfg.Blob)
		if openErr != nil {
			return nil, fmt.Errorf("open blob store: %w", openErr)
		}
		store, err = objectstore.NewStore(ctx, objects, cfg.BlobPrefix, cfg.BlobRetain, engine, opts...)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
	if err != nil {
		return nil, err
	}
	store.SetSnapshotSink(metrics.InstrumentSink(store.SaveSnapshot))
	logger.Info().Str("driver", string(driver)).Msg("storage opened")
	return store, nil
}
