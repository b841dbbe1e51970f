package pagecontent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repocache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-sitekit/internal/styles"
	"github.com/goliatone/go-sitekit/pkg/testsupport"
)

const samplePayload = `[
  null,
  {"id": {"content": 1}, "style_name": "heading", "css": "hero", "text": {"content": "Welcome"}},
  null,
  {"id": {"content": 2}, "style_name": "container", "children": [
    {"id": {"content": 3}, "style_name": "textarea", "text": {"content": "Hello"}}
  ]}
]`

func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	if _, err := repo.FetchContent(ctx, 1, "en"); !IsNotFound(err) {
		t.Fatalf("expected not found before save, got %v", err)
	}

	saved, err := repo.Save(ctx, Document{PageID: 1, Language: "en", Payload: json.RawMessage(samplePayload)})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.PageID != 1 || saved.Language != "en" {
		t.Fatalf("unexpected saved document: %+v", saved)
	}

	nodes, err := repo.FetchContent(ctx, 1, "en")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(nodes) != 4 || nodes[0] != nil || nodes[2] != nil {
		t.Fatalf("expected null slots to be preserved, got %d nodes", len(nodes))
	}
	if nodes[1].Kind != styles.KindHeading || nodes[1].Text("text", "") != "Welcome" {
		t.Fatalf("unexpected heading node: %+v", nodes[1])
	}
	if len(nodes[3].Children) != 1 {
		t.Fatalf("expected container child, got %d", len(nodes[3].Children))
	}

	if _, err := repo.FetchContent(ctx, 1, "es"); !IsNotFound(err) {
		t.Fatalf("expected languages to be isolated, got %v", err)
	}

	replacement, err := NewDocument(1, "en", []*styles.Node{{
		ID:   styles.NewField(int64(9)),
		Kind: styles.KindMarkdown,
		Fields: map[string]styles.Field[any]{
			"body": styles.NewField[any]("# Updated"),
		},
	}})
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	if _, err := repo.Save(ctx, replacement); err != nil {
		t.Fatalf("replace: %v", err)
	}
	doc, err := repo.Get(ctx, 1, "en")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	nodes, err = doc.Nodes()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(nodes) != 1 || nodes[0].NodeID() != 9 || nodes[0].Text("body", "") != "# Updated" {
		t.Fatalf("unexpected replaced content: %+v", nodes)
	}

	if err := repo.Delete(ctx, 1, "en"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, 1, "en"); !IsNotFound(err) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}

	_, err = repo.Save(ctx, Document{PageID: 2, Payload: json.RawMessage(`{"not":"an array"}`)})
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if _, err := repo.Save(ctx, Document{PageID: 0, Payload: json.RawMessage(`[]`)}); !errors.Is(err, ErrInvalidPageID) {
		t.Fatalf("expected ErrInvalidPageID, got %v", err)
	}
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository())
}

func TestBunRepository(t *testing.T) {
	db := testsupport.NewBunDB(t, (*DocumentModel)(nil))
	exerciseRepository(t, NewBunRepository(db))
}

func TestBunRepositoryRecordsNodeCount(t *testing.T) {
	db := testsupport.NewBunDB(t, (*DocumentModel)(nil))
	repo := NewBunRepository(db)
	repo.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	ctx := context.Background()

	if _, err := repo.Save(ctx, Document{PageID: 5, Language: "en", Payload: json.RawMessage(samplePayload)}); err != nil {
		t.Fatalf("save: %v", err)
	}
	var model DocumentModel
	if err := db.NewSelect().Model(&model).Where("page_id = ?", 5).Scan(ctx); err != nil {
		t.Fatalf("select: %v", err)
	}
	if model.NodeCount != 3 {
		t.Fatalf("expected 3 nodes, got %d", model.NodeCount)
	}
}

func TestDocumentNodesReturnsFreshTrees(t *testing.T) {
	doc := Document{PageID: 1, Payload: json.RawMessage(samplePayload)}
	first, err := doc.Nodes()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	first[1].CSS = "changed"
	second, _ := doc.Nodes()
	if second[1].CSS != "hero" {
		t.Fatalf("expected independent decodes, got %q", second[1].CSS)
	}
}

func TestBunRepositoryInvalidateCacheSeesExternalWrites(t *testing.T) {
	db := testsupport.NewBunDB(t, (*DocumentModel)(nil))
	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = time.Hour
	cacheService, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	repo := NewBunRepositoryWithCache(db, cacheService, repocache.NewDefaultKeySerializer())
	ctx := context.Background()

	first, err := NewDocument(1, "en", []*styles.Node{{Kind: styles.KindHeading, Fields: map[string]styles.Field[any]{"text": styles.NewField[any]("v1")}}})
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	if _, err := repo.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := repo.FetchContent(ctx, 1, "en"); err != nil {
		t.Fatalf("warm fetch: %v", err)
	}

	second, err := NewDocument(1, "en", []*styles.Node{{Kind: styles.KindHeading, Fields: map[string]styles.Field[any]{"text": styles.NewField[any]("v2")}}})
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	if _, err := db.NewRaw("UPDATE site_page_contents SET payload = ? WHERE page_id = ?", string(second.Payload), 1).Exec(ctx); err != nil {
		t.Fatalf("external update: %v", err)
	}

	if err := repo.InvalidateCache(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	nodes, err := repo.FetchContent(ctx, 1, "en")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Text("text", "") != "v2" {
		t.Fatalf("expected fetch to read through after invalidation, got %+v", nodes)
	}
}
