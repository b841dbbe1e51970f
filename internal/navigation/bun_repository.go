package navigation

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-sitekit/internal/identity"
)

// PageModel is the stored form of a PageRecord. The primary key is derived
// from the page id and language so imports are idempotent.
type PageModel struct {
	bun.BaseModel `bun:"table:site_pages,alias:sp"`

	ID             uuid.UUID `bun:",pk,type:uuid" json:"id"`
	PageID         int64     `bun:"page_id,notnull" json:"page_id"`
	Language       string    `bun:"language,notnull,default:''" json:"language"`
	Keyword        string    `bun:"keyword,notnull" json:"keyword"`
	URL            string    `bun:"url" json:"url,omitempty"`
	ParentID       *int64    `bun:"parent_id" json:"parent_id,omitempty"`
	NavPosition    *int      `bun:"nav_position" json:"nav_position,omitempty"`
	FooterPosition *int      `bun:"footer_position" json:"footer_position,omitempty"`
	Headless       bool      `bun:"headless,notnull,default:false" json:"headless"`
	Title          string    `bun:"title" json:"title,omitempty"`
	CreatedAt      time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

func (m *PageModel) record() PageRecord {
	return PageRecord{
		ID:             m.PageID,
		Keyword:        m.Keyword,
		URL:            m.URL,
		Parent:         m.ParentID,
		NavPosition:    m.NavPosition,
		FooterPosition: m.FooterPosition,
		IsHeadless:     m.Headless,
		Language:       m.Language,
		Title:          m.Title,
	}.Clone()
}

func pageModel(record PageRecord) *PageModel {
	record = record.Clone()
	return &PageModel{
		ID:             identity.PageUUID(record.ID, record.Language),
		PageID:         record.ID,
		Language:       strings.TrimSpace(record.Language),
		Keyword:        record.Keyword,
		URL:            record.URL,
		ParentID:       record.Parent,
		NavPosition:    record.NavPosition,
		FooterPosition: record.FooterPosition,
		Headless:       record.IsHeadless,
		Title:          record.Title,
	}
}

// NewPageModelRepository creates the go-repository-bun repository for pages.
func NewPageModelRepository(db *bun.DB) repository.Repository[*PageModel] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*PageModel]{
		NewRecord: func() *PageModel { return &PageModel{} },
		GetID: func(m *PageModel) uuid.UUID {
			return m.ID
		},
		SetID: func(m *PageModel, id uuid.UUID) {
			m.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(m *PageModel) string {
			return m.ID.String()
		},
	})
}

// BunPageRepository implements PageRepository on bun with optional caching.
type BunPageRepository struct {
	repo         repository.Repository[*PageModel]
	cacheService cache.CacheService
	cachePrefix  string
	now          func() time.Time
}

// pageNamespace is the key namespace the repository cache derives from the
// PageModel type name.
const pageNamespace = "page_model"

// NewBunPageRepository creates a page repository without caching.
func NewBunPageRepository(db *bun.DB) *BunPageRepository {
	return NewBunPageRepositoryWithCache(db, nil, nil)
}

// NewBunPageRepositoryWithCache creates a page repository backed by the
// repository cache. Writes drop every cached page read.
func NewBunPageRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunPageRepository {
	base := NewPageModelRepository(db)
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		svc = cacheService
	}
	prefix := ""
	if svc != nil {
		prefix = cachePrefix(pageNamespace)
	}
	return &BunPageRepository{
		repo:         base,
		cacheService: svc,
		cachePrefix:  prefix,
		now:          time.Now,
	}
}

var _ PageRepository = (*BunPageRepository)(nil)

// ListPages returns the pages of language ordered by page id.
func (r *BunPageRepository) ListPages(ctx context.Context, language string) ([]PageRecord, error) {
	language = strings.TrimSpace(language)
	models, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.language = ?", language).
				OrderExpr("?TableAlias.page_id ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "page", language)
	}
	out := make([]PageRecord, 0, len(models))
	for _, model := range models {
		out = append(out, model.record())
	}
	return out, nil
}

func (r *BunPageRepository) Get(ctx context.Context, language string, id int64) (PageRecord, error) {
	model, err := r.repo.GetByID(ctx, identity.PageUUID(id, language).String())
	if err != nil {
		return PageRecord{}, mapRepositoryError(err, "page", pageKeyString(strings.TrimSpace(language), id))
	}
	return model.record(), nil
}

// Save inserts or replaces the record identified by its id and language.
func (r *BunPageRepository) Save(ctx context.Context, record PageRecord) (PageRecord, error) {
	if err := record.Validate(); err != nil {
		return PageRecord{}, invalidRecord(err)
	}
	model := pageModel(record)
	model.UpdatedAt = r.now()

	existing, err := r.repo.GetByID(ctx, model.ID.String())
	switch {
	case err == nil:
		model.CreatedAt = existing.CreatedAt
		if _, err := r.repo.Update(ctx, model); err != nil {
			return PageRecord{}, mapRepositoryError(err, "page", pageKeyString(model.Language, model.PageID))
		}
	case goerrors.IsCategory(err, repository.CategoryDatabaseNotFound):
		model.CreatedAt = model.UpdatedAt
		if _, err := r.repo.Create(ctx, model); err != nil {
			return PageRecord{}, mapRepositoryError(err, "page", pageKeyString(model.Language, model.PageID))
		}
	default:
		return PageRecord{}, mapRepositoryError(err, "page", pageKeyString(model.Language, model.PageID))
	}

	if err := r.InvalidateCache(ctx); err != nil {
		return PageRecord{}, err
	}
	return model.record(), nil
}

func (r *BunPageRepository) Delete(ctx context.Context, language string, id int64) error {
	if _, err := r.Get(ctx, language, id); err != nil {
		return err
	}
	if err := r.repo.Delete(ctx, &PageModel{ID: identity.PageUUID(id, language)}); err != nil {
		return mapRepositoryError(err, "page", pageKeyString(strings.TrimSpace(language), id))
	}
	return r.InvalidateCache(ctx)
}

// InvalidateCache drops every cached page read.
func (r *BunPageRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

func cachePrefix(namespace string) string {
	if namespace == "" {
		return ""
	}
	return namespace + cache.KeySeparator
}
