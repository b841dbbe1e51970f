package di

import (
	"context"
	"fmt"
	"testing"
	"time"

	sitecmd "github.com/goliatone/go-sitekit/internal/commands/site"
	"github.com/goliatone/go-sitekit/internal/navigation"
	"github.com/goliatone/go-sitekit/internal/pagecontent"
	"github.com/goliatone/go-sitekit/internal/runtimeconfig"
	"github.com/goliatone/go-sitekit/internal/styles"
)

func sqliteConfig(name string) runtimeconfig.Config {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Provider = runtimeconfig.StorageSQLite
	cfg.Storage.DSN = fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	return cfg
}

func TestContainerOpensAndMigratesSQLite(t *testing.T) {
	container, err := NewContainer(sqliteConfig("container_sqlite"))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	if container.bunDB == nil || !container.ownsDB {
		t.Fatal("expected container to own an opened database")
	}
	if container.cacheService == nil || container.keySerializer == nil {
		t.Fatal("expected repository cache defaults to be configured")
	}
	if _, ok := container.pageRepo.(*navigation.BunPageRepository); !ok {
		t.Fatalf("expected bun page repository, got %T", container.pageRepo)
	}
	if _, ok := container.contentRepo.(*pagecontent.BunRepository); !ok {
		t.Fatalf("expected bun content repository, got %T", container.contentRepo)
	}

	ctx := context.Background()
	nav := 0
	if _, err := container.PageRepository().Save(ctx, navigation.PageRecord{ID: 1, Keyword: "home", URL: "/", NavPosition: &nav, Language: "en"}); err != nil {
		t.Fatalf("save page: %v", err)
	}
	doc, err := pagecontent.NewDocument(1, "en", []*styles.Node{nil, {Kind: styles.KindHeading, Fields: map[string]styles.Field[any]{"text": styles.NewField[any]("Welcome")}}})
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	if _, err := container.ContentRepository().Save(ctx, doc); err != nil {
		t.Fatalf("save document: %v", err)
	}

	result := container.Resolver().ResolvePath(ctx, "/", "en")
	if !result.Ready() {
		t.Fatalf("expected ready result, got %s: %v", result.State, result.Err)
	}
	if len(result.Nodes) != 2 || result.Nodes[0] != nil || result.Nodes[1].Text("text", "") != "Welcome" {
		t.Fatalf("unexpected nodes %+v", result.Nodes)
	}

	if err := container.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if container.DB() != nil {
		t.Fatal("expected database to be released")
	}
}

func TestContainerLeavesInjectedDatabaseOpen(t *testing.T) {
	owner, err := NewContainer(sqliteConfig("container_injected"))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	t.Cleanup(func() { _ = owner.Close() })

	cfg := runtimeconfig.DefaultConfig()
	cfg.Cache.Enabled = false
	borrower, err := NewContainer(cfg, WithBunDB(owner.DB()))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if borrower.cacheService != nil {
		t.Fatal("expected no repository cache when disabled")
	}
	if err := borrower.Close(); err != nil {
		t.Fatalf("close borrower: %v", err)
	}
	if err := owner.DB().PingContext(context.Background()); err != nil {
		t.Fatalf("expected injected database to stay open: %v", err)
	}
}

func TestContainerRejectsUnreachableStorage(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Provider = runtimeconfig.StorageSQLite
	cfg.Storage.DSN = "file:/nonexistent-dir/sitekit.db?mode=ro"

	if _, err := NewContainer(cfg); err == nil {
		t.Fatal("expected migrate error for unreachable database")
	}
}

func seedHome(t *testing.T, container *Container, text string) {
	t.Helper()
	ctx := context.Background()
	if _, err := container.PageRepository().Save(ctx, navigation.PageRecord{ID: 1, Keyword: "home", URL: "/", Language: "en"}); err != nil {
		t.Fatalf("save page: %v", err)
	}
	doc, err := pagecontent.NewDocument(1, "en", []*styles.Node{{Kind: styles.KindHeading, Fields: map[string]styles.Field[any]{"text": styles.NewField[any](text)}}})
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	if _, err := container.ContentRepository().Save(ctx, doc); err != nil {
		t.Fatalf("save document: %v", err)
	}
}

func writeHeadingExternally(t *testing.T, container *Container, text string) {
	t.Helper()
	doc, err := pagecontent.NewDocument(1, "en", []*styles.Node{{Kind: styles.KindHeading, Fields: map[string]styles.Field[any]{"text": styles.NewField[any](text)}}})
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	if _, err := container.DB().NewRaw("UPDATE site_page_contents SET payload = ? WHERE page_id = ?", string(doc.Payload), 1).Exec(context.Background()); err != nil {
		t.Fatalf("external update: %v", err)
	}
}

func resolvedHeading(t *testing.T, container *Container) string {
	t.Helper()
	result := container.Resolver().Resolve(context.Background(), "home", "en")
	if !result.Ready() || len(result.Nodes) != 1 {
		t.Fatalf("expected ready result, got %s: %v", result.State, result.Err)
	}
	return result.Nodes[0].Text("text", "")
}

func TestContainerCommandsFlushRepositoryCache(t *testing.T) {
	cfg := sqliteConfig("container_flush")
	cfg.Resolver.FreshFor = time.Hour
	cfg.Cache.TTL = time.Hour
	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })
	if len(container.SourceCaches()) != 2 {
		t.Fatalf("expected both bun repositories as source caches, got %d", len(container.SourceCaches()))
	}

	ctx := context.Background()
	seedHome(t, container, "v1")
	if got := resolvedHeading(t, container); got != "v1" {
		t.Fatalf("expected v1, got %q", got)
	}

	writeHeadingExternally(t, container, "v2")
	if err := container.Commands().InvalidateContent.Execute(ctx, sitecmd.InvalidateContentCommand{PageID: 1, Language: "en"}); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if got := resolvedHeading(t, container); got != "v2" {
		t.Fatalf("expected invalidation to reach storage, got %q", got)
	}

	if _, err := container.DB().NewRaw("UPDATE site_pages SET keyword = ? WHERE page_id = ?", "start", 1).Exec(ctx); err != nil {
		t.Fatalf("external page update: %v", err)
	}
	if err := container.Commands().RefreshNavigation.Execute(ctx, sitecmd.RefreshNavigationCommand{Language: "en"}); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, ok := container.NavigationService().Current("en").Lookup("start"); !ok {
		t.Fatal("expected refreshed snapshot to see the renamed page")
	}
}

func TestContainerBypassCacheSkipsRepositoryCache(t *testing.T) {
	cfg := sqliteConfig("container_bypass")
	cfg.Resolver.BypassCache = true
	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	seedHome(t, container, "v1")
	if got := resolvedHeading(t, container); got != "v1" {
		t.Fatalf("expected v1, got %q", got)
	}
	writeHeadingExternally(t, container, "v2")
	if got := resolvedHeading(t, container); got != "v2" {
		t.Fatalf("expected bypass to read storage directly, got %q", got)
	}
}

func TestContainerCapsRepositoryCacheTTLAtFreshness(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Cache.TTL = time.Minute
	cfg.Resolver.FreshFor = 2 * time.Second
	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if container.cacheTTL != 2*time.Second {
		t.Fatalf("expected cache TTL capped at the freshness window, got %s", container.cacheTTL)
	}
}
