package backend

import (
	"context"
	"path/filepath"
	"testing"

	"moodcycle/internal/config"
	"moodcycle/internal/store"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := Open(ctx, config.Storage{Backend: config.BackendParquet, DataDir: dir})
	if err != nil {
		t.Fatalf("Open(parquet): %v", err)
	}
	if _, ok := b.(*store.ParquetStore); !ok {
		t.Errorf("Open(parquet) = %T, want *store.ParquetStore", b)
	}

	b, err = Open(ctx, config.Storage{Backend: "SQLite", SQLitePath: filepath.Join(dir, "db", "mood.db")})
	if err != nil {
		t.Fatalf("Open(sqlite): %v", err)
	}
	defer b.Close()
	if _, ok := b.(*store.SQLiteStore); !ok {
		t.Errorf("Open(sqlite) = %T, want *store.SQLiteStore", b)
	}

	if _, err := Open(ctx, config.Storage{Backend: "csv"}); err == nil {
		t.Error("Open(csv) should fail")
	}
}
