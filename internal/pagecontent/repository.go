package pagecontent

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-sitekit/internal/styles"
)

// Repository stores content documents keyed by page id and language. Its
// FetchContent method is the content source consumed by the resolver.
type Repository interface {
	FetchContent(ctx context.Context, pageID int64, language string) ([]*styles.Node, error)
	Get(ctx context.Context, pageID int64, language string) (Document, error)
	Save(ctx context.Context, doc Document) (Document, error)
	Delete(ctx context.Context, pageID int64, language string) error
}

type documentKey struct {
	pageID   int64
	language string
}

type memoryRepository struct {
	mu   sync.RWMutex
	docs map[documentKey]Document
	now  func() time.Time
}

// NewMemoryRepository constructs an in-memory document repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		docs: map[documentKey]Document{},
		now:  time.Now,
	}
}

func (m *memoryRepository) FetchContent(ctx context.Context, pageID int64, language string) ([]*styles.Node, error) {
	doc, err := m.Get(ctx, pageID, language)
	if err != nil {
		return nil, err
	}
	return doc.Nodes()
}

func (m *memoryRepository) Get(_ context.Context, pageID int64, language string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	language = strings.TrimSpace(language)
	doc, ok := m.docs[documentKey{pageID, language}]
	if !ok {
		return Document{}, &NotFoundError{PageID: pageID, Language: language}
	}
	return doc.clone(), nil
}

func (m *memoryRepository) Save(_ context.Context, doc Document) (Document, error) {
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	stored := doc.clone()
	stored.UpdatedAt = m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[documentKey{stored.PageID, stored.Language}] = stored
	return stored.clone(), nil
}

func (m *memoryRepository) Delete(_ context.Context, pageID int64, language string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := documentKey{pageID, strings.TrimSpace(language)}
	if _, ok := m.docs[key]; !ok {
		return &NotFoundError{PageID: pageID, Language: key.language}
	}
	delete(m.docs, key)
	return nil
}
