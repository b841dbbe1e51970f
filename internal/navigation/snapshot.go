package navigation

import (
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-sitekit/internal/routes"
)

// Snapshot is an immutable navigation state for one language: the ordered
// forest, the derived menu and footer lists, and the lookup tables used to
// resolve keywords and paths. A snapshot is never modified after
// construction; refreshes build a new one.
type Snapshot struct {
	Language string
	Roots    []*NavigationNode
	Menu     []PageRecord
	Footer   []PageRecord
	Issues   []Issue
	BuiltAt  time.Time

	byKeyword map[string]PageRecord
	byID      map[int64]PageRecord
	parents   map[int64]int64
	templates map[string]*routes.Template
	table     *routes.Table

	linkOptions LinkOptions
	linksOnce   sync.Once
	links       *LinkBuilder
	linksErr    error
}

// PathMatch is a request path resolved to a page.
type PathMatch struct {
	Record PageRecord
	Params map[string]string
}

// NewSnapshot builds a snapshot from a flat record list. A record whose URL
// template does not compile fails the whole build; the error is tagged with
// the validation category.
func NewSnapshot(language string, records []PageRecord, opts ...SnapshotOption) (*Snapshot, error) {
	cfg := snapshotConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	forest := Build(records)
	snap := &Snapshot{
		Language:    language,
		Roots:       forest.Roots,
		Issues:      forest.Issues,
		Menu:        DeriveMenu(forest.Roots),
		Footer:      DeriveFooter(forest.Roots),
		BuiltAt:     cfg.now(),
		byKeyword:   map[string]PageRecord{},
		byID:        map[int64]PageRecord{},
		parents:     map[int64]int64{},
		templates:   map[string]*routes.Template{},
		linkOptions: cfg.links,
	}

	var (
		table   []routes.Route
		walkErr error
	)
	Walk(forest.Roots, func(node *NavigationNode, _ int) bool {
		if walkErr != nil {
			return false
		}
		record := node.Record
		snap.byID[record.ID] = record
		for _, child := range node.Children {
			snap.parents[child.Record.ID] = record.ID
		}
		if _, seen := snap.byKeyword[record.Keyword]; seen {
			return true
		}
		snap.byKeyword[record.Keyword] = record

		tmpl, err := routes.Compile(record.Route())
		if err != nil {
			walkErr = routes.WrapCompileError(fmt.Errorf("page %q: %w", record.Keyword, err))
			return false
		}
		snap.templates[record.Keyword] = tmpl
		table = append(table, routes.Route{Key: record.Keyword, Template: tmpl})
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	snap.table = routes.NewTable(table)
	return snap, nil
}

// SnapshotOption configures NewSnapshot.
type SnapshotOption func(*snapshotConfig)

type snapshotConfig struct {
	now   func() time.Time
	links LinkOptions
}

// WithSnapshotClock overrides the BuiltAt clock.
func WithSnapshotClock(now func() time.Time) SnapshotOption {
	return func(cfg *snapshotConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// WithSnapshotLinks configures absolute link generation.
func WithSnapshotLinks(opts LinkOptions) SnapshotOption {
	return func(cfg *snapshotConfig) {
		cfg.links = opts
	}
}

// Lookup finds a page by keyword. When a keyword is used by more than one
// page, the first in tree order wins.
func (s *Snapshot) Lookup(keyword string) (PageRecord, bool) {
	if s == nil {
		return PageRecord{}, false
	}
	record, ok := s.byKeyword[keyword]
	if !ok {
		return PageRecord{}, false
	}
	return record.Clone(), true
}

// Record finds a page by id.
func (s *Snapshot) Record(id int64) (PageRecord, bool) {
	if s == nil {
		return PageRecord{}, false
	}
	record, ok := s.byID[id]
	if !ok {
		return PageRecord{}, false
	}
	return record.Clone(), true
}

// ParentOf returns the id of the page placed above id in the tree.
func (s *Snapshot) ParentOf(id int64) (int64, bool) {
	if s == nil {
		return 0, false
	}
	parent, ok := s.parents[id]
	return parent, ok
}

// Breadcrumbs returns the chain from the root down to keyword.
func (s *Snapshot) Breadcrumbs(keyword string) []PageRecord {
	record, ok := s.Lookup(keyword)
	if !ok {
		return nil
	}
	chain := []PageRecord{record}
	current := record.ID
	for steps := 0; steps < len(s.byID); steps++ {
		parent, ok := s.parents[current]
		if !ok {
			break
		}
		chain = append(chain, s.byID[parent].Clone())
		current = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Match resolves a request path through the route table.
func (s *Snapshot) Match(path string) (PathMatch, bool) {
	if s == nil {
		return PathMatch{}, false
	}
	route, result, ok := s.table.Match(path)
	if !ok {
		return PathMatch{}, false
	}
	return PathMatch{Record: s.byKeyword[route.Key].Clone(), Params: result.Params}, true
}

// Template returns the compiled route template for keyword.
func (s *Snapshot) Template(keyword string) (*routes.Template, bool) {
	if s == nil {
		return nil, false
	}
	tmpl, ok := s.templates[keyword]
	return tmpl, ok
}

// Routes returns the route table in match order.
func (s *Snapshot) Routes() *routes.Table {
	if s == nil {
		return nil
	}
	return s.table
}

// Path builds the relative path for keyword from params.
func (s *Snapshot) Path(keyword string, params map[string]string) (string, error) {
	tmpl, ok := s.Template(keyword)
	if !ok {
		return "", &NotFoundError{Resource: "page", Key: keyword}
	}
	return tmpl.Build(params)
}

// Link builds an absolute link for keyword through go-urlkit.
func (s *Snapshot) Link(keyword string, params map[string]string) (string, error) {
	if s == nil {
		return "", &NotFoundError{Resource: "page", Key: keyword}
	}
	s.linksOnce.Do(func() {
		s.links, s.linksErr = NewLinkBuilder(s.linkOptions, s.Language, s.table.Routes())
	})
	if s.linksErr != nil {
		return "", s.linksErr
	}
	if _, ok := s.templates[keyword]; !ok {
		return "", &NotFoundError{Resource: "page", Key: keyword}
	}
	return s.links.Link(keyword, params)
}

// Size returns the number of pages in the snapshot.
func (s *Snapshot) Size() int {
	if s == nil {
		return 0
	}
	return len(s.byID)
}
