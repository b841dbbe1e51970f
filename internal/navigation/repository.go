package navigation

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// PageRepository persists page records per language. Every repository is
// also a PageSource.
type PageRepository interface {
	PageSource
	Get(ctx context.Context, language string, id int64) (PageRecord, error)
	Save(ctx context.Context, record PageRecord) (PageRecord, error)
	Delete(ctx context.Context, language string, id int64) error
}

type pageKey struct {
	language string
	id       int64
}

type memoryPageRepository struct {
	mu      sync.RWMutex
	records map[pageKey]PageRecord
	order   map[string][]int64
}

// NewMemoryPageRepository constructs an in-memory page repository. Pages are
// listed in insertion order, which is the tie-break order for siblings that
// share a nav position.
func NewMemoryPageRepository(seed ...PageRecord) PageRepository {
	repo := &memoryPageRepository{
		records: map[pageKey]PageRecord{},
		order:   map[string][]int64{},
	}
	for _, record := range seed {
		repo.put(record)
	}
	return repo
}

func (m *memoryPageRepository) ListPages(_ context.Context, language string) ([]PageRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	language = strings.TrimSpace(language)
	ids := m.order[language]
	out := make([]PageRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.records[pageKey{language, id}].Clone())
	}
	return out, nil
}

func (m *memoryPageRepository) Get(_ context.Context, language string, id int64) (PageRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[pageKey{strings.TrimSpace(language), id}]
	if !ok {
		return PageRecord{}, &NotFoundError{Resource: "page", Key: pageKeyString(language, id)}
	}
	return record.Clone(), nil
}

func (m *memoryPageRepository) Save(_ context.Context, record PageRecord) (PageRecord, error) {
	if err := record.Validate(); err != nil {
		return PageRecord{}, invalidRecord(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(record)
	return record.Clone(), nil
}

func (m *memoryPageRepository) Delete(_ context.Context, language string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	language = strings.TrimSpace(language)
	key := pageKey{language, id}
	if _, ok := m.records[key]; !ok {
		return &NotFoundError{Resource: "page", Key: pageKeyString(language, id)}
	}
	delete(m.records, key)
	m.order[language] = slices.DeleteFunc(m.order[language], func(existing int64) bool {
		return existing == id
	})
	return nil
}

func (m *memoryPageRepository) put(record PageRecord) {
	record.Language = strings.TrimSpace(record.Language)
	key := pageKey{record.Language, record.ID}
	if _, exists := m.records[key]; !exists {
		m.order[record.Language] = append(m.order[record.Language], record.ID)
	}
	m.records[key] = record.Clone()
}
