package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/goliatone/go-sitekit/internal/navigation"
	"github.com/goliatone/go-sitekit/internal/pagecontent"
	"github.com/goliatone/go-sitekit/internal/runtimeconfig"
)

func TestOpenRejectsMemoryProvider(t *testing.T) {
	_, err := Open(runtimeconfig.StorageConfig{Provider: runtimeconfig.StorageMemory})
	if !errors.Is(err, ErrSQLProviderRequired) {
		t.Fatalf("expected ErrSQLProviderRequired, got %v", err)
	}
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(runtimeconfig.StorageConfig{Provider: "postgres"})
	if !errors.Is(err, ErrDSNRequired) {
		t.Fatalf("expected ErrDSNRequired, got %v", err)
	}
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := Open(runtimeconfig.StorageConfig{
		Provider: "SQLite",
		DSN:      "file:storage_adapter_test?mode=memory&cache=shared",
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if err := Ping(ctx, db); err != nil {
		t.Fatalf("ping: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := Migrate(ctx, db); err != nil {
			t.Fatalf("migrate run %d: %v", i+1, err)
		}
	}

	pages := navigation.NewBunPageRepository(db)
	if _, err := pages.Save(ctx, navigation.PageRecord{ID: 1, Keyword: "home", URL: "/", Language: "en"}); err != nil {
		t.Fatalf("save page: %v", err)
	}
	docs := pagecontent.NewBunRepository(db)
	if _, err := docs.Save(ctx, pagecontent.Document{PageID: 1, Language: "en", Payload: json.RawMessage(`[null]`)}); err != nil {
		t.Fatalf("save document: %v", err)
	}
	nodes, err := docs.FetchContent(ctx, 1, "en")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(nodes) != 1 || nodes[0] != nil {
		t.Fatalf("expected a single null slot, got %v", nodes)
	}
}

func TestMigrateRejectsNilDatabase(t *testing.T) {
	if err := Migrate(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil database")
	}
}
