package pagecontent

import (
	"context"
	"encoding/json"
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
	"github.com/goliatone/go-sitekit/internal/styles"
)

// DocumentModel is the stored form of a Document.
type DocumentModel struct {
	bun.BaseModel `bun:"table:site_page_contents,alias:spc"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	PageID    int64     `bun:"page_id,notnull" json:"page_id"`
	Language  string    `bun:"language,notnull,default:''" json:"language"`
	Payload   string    `bun:"payload,notnull" json:"payload"`
	NodeCount int       `bun:"node_count,notnull,default:0" json:"node_count"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

func (m *DocumentModel) document() Document {
	return Document{
		PageID:    m.PageID,
		Language:  m.Language,
		Payload:   json.RawMessage(m.Payload),
		UpdatedAt: m.UpdatedAt,
	}
}

// NewDocumentModelRepository creates the go-repository-bun repository for
// content documents.
func NewDocumentModelRepository(db *bun.DB) repository.Repository[*DocumentModel] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*DocumentModel]{
		NewRecord: func() *DocumentModel { return &DocumentModel{} },
		GetID: func(m *DocumentModel) uuid.UUID {
			return m.ID
		},
		SetID: func(m *DocumentModel, id uuid.UUID) {
			m.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(m *DocumentModel) string {
			return m.ID.String()
		},
	})
}

// BunRepository implements Repository on bun with optional caching.
type BunRepository struct {
	repo         repository.Repository[*DocumentModel]
	cacheService cache.CacheService
	cachePrefix  string
	now          func() time.Time
}

// documentNamespace is the key namespace the repository cache derives from
// the DocumentModel type name.
const documentNamespace = "document_model"

// NewBunRepository creates a document repository without caching.
func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache creates a document repository backed by the
// repository cache.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	base := NewDocumentModelRepository(db)
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		svc = cacheService
	}
	prefix := ""
	if svc != nil {
		prefix = documentNamespace + cache.KeySeparator
	}
	return &BunRepository{
		repo:         base,
		cacheService: svc,
		cachePrefix:  prefix,
		now:          time.Now,
	}
}

var _ Repository = (*BunRepository)(nil)

func (r *BunRepository) FetchContent(ctx context.Context, pageID int64, language string) ([]*styles.Node, error) {
	doc, err := r.Get(ctx, pageID, language)
	if err != nil {
		return nil, err
	}
	return doc.Nodes()
}

func (r *BunRepository) Get(ctx context.Context, pageID int64, language string) (Document, error) {
	language = strings.TrimSpace(language)
	model, err := r.repo.GetByID(ctx, identity.ContentUUID(pageID, language).String())
	if err != nil {
		return Document{}, mapRepositoryError(err, pageID, language)
	}
	return model.document(), nil
}

// Save inserts or replaces the document for its page and language.
func (r *BunRepository) Save(ctx context.Context, doc Document) (Document, error) {
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	doc = doc.clone()
	nodes, _ := doc.Nodes()

	model := &DocumentModel{
		ID:        identity.ContentUUID(doc.PageID, doc.Language),
		PageID:    doc.PageID,
		Language:  doc.Language,
		Payload:   string(doc.Payload),
		NodeCount: styles.CountNodes(nodes),
		UpdatedAt: r.now(),
	}

	existing, err := r.repo.GetByID(ctx, model.ID.String())
	switch {
	case err == nil:
		model.CreatedAt = existing.CreatedAt
		if _, err := r.repo.Update(ctx, model); err != nil {
			return Document{}, mapRepositoryError(err, doc.PageID, doc.Language)
		}
	case goerrors.IsCategory(err, repository.CategoryDatabaseNotFound):
		model.CreatedAt = model.UpdatedAt
		if _, err := r.repo.Create(ctx, model); err != nil {
			return Document{}, mapRepositoryError(err, doc.PageID, doc.Language)
		}
	default:
		return Document{}, mapRepositoryError(err, doc.PageID, doc.Language)
	}

	if err := r.InvalidateCache(ctx); err != nil {
		return Document{}, err
	}
	return model.document(), nil
}

func (r *BunRepository) Delete(ctx context.Context, pageID int64, language string) error {
	if _, err := r.Get(ctx, pageID, language); err != nil {
		return err
	}
	if err := r.repo.Delete(ctx, &DocumentModel{ID: identity.ContentUUID(pageID, language)}); err != nil {
		return mapRepositoryError(err, pageID, language)
	}
	return r.InvalidateCache(ctx)
}

// InvalidateCache drops every cached document read.
func (r *BunRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func mapRepositoryError(err error, pageID int64, language string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{PageID: pageID, Language: language}
	}
	return fmt.Errorf("page content repository error: %w", err)
}
