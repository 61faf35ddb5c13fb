package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/louisbranch/contractdesk/internal/platform/config"
	"github.com/louisbranch/contractdesk/internal/platform/timeouts"
	"github.com/louisbranch/contractdesk/internal/services/contracts/storage"
	"github.com/louisbranch/contractdesk/internal/services/contracts/storage/memory"
	"github.com/louisbranch/contractdesk/internal/services/contracts/storage/postgres"
	"github.com/louisbranch/contractdesk/internal/services/contracts/storage/sqlite"
)

// OpenStore opens the record store selected by cfg.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (storage.RecordStore, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.StoreOpen)
	defer cancel()

	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	default:
		if dir := filepath.Dir(cfg.DBPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := sqlite.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	}
}

// OpenService opens the configured store and loads a Service from it.
func OpenService(ctx context.Context, cfg config.StorageConfig, opts ...Option) (*Service, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	service, err := Open(ctx, append([]Option{WithStore(store)}, opts...)...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return service, nil
}
