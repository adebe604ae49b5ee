// Package backend opens the indicator store selected in the configuration.
package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"moodcycle/internal/config"
	"moodcycle/internal/store"
	"moodcycle/internal/store/pgstore"
)

// Open returns the indicator store and run log for cfg.Backend.
func Open(ctx context.Context, cfg config.Storage) (store.Backend, error) {
	switch strings.ToLower(cfg.Backend) {
	case config.BackendParquet, "":
		return store.NewParquetStore(cfg.DataDir), nil
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("creating sqlite directory: %w", err)
		}
		s, err := store.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendPostgres:
		s, err := pgstore.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
