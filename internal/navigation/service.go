package navigation

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-sitekit/internal/logging"
	"github.com/goliatone/go-sitekit/pkg/interfaces"
)

// PageSource supplies the flat page list for a language.
type PageSource interface {
	ListPages(ctx context.Context, language string) ([]PageRecord, error)
}

// PageSourceFunc adapts a function to PageSource.
type PageSourceFunc func(ctx context.Context, language string) ([]PageRecord, error)

func (f PageSourceFunc) ListPages(ctx context.Context, language string) ([]PageRecord, error) {
	return f(ctx, language)
}

// Service keeps one navigation snapshot per language. Readers always see a
// complete snapshot; refreshes build a replacement and swap it in.
type Service interface {
	// Snapshot returns the current snapshot, building it on first use.
	Snapshot(ctx context.Context, language string) (*Snapshot, error)
	// Current returns the installed snapshot without loading, or nil.
	Current(language string) *Snapshot
	// Refresh rebuilds the snapshot from the page source. On failure the
	// previous snapshot stays installed.
	Refresh(ctx context.Context, language string) (*Snapshot, error)
	// Invalidate drops the snapshot so the next Snapshot call rebuilds it.
	Invalidate(language string)
	// Languages lists the languages with an installed snapshot.
	Languages() []string
}

// ServiceOption configures the navigation service.
type ServiceOption func(*service)

// WithLogger overrides the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source stamped on snapshots.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithLinkOptions configures absolute link generation on built snapshots.
func WithLinkOptions(opts LinkOptions) ServiceOption {
	return func(s *service) {
		s.links = opts
	}
}

// WithDefaultLanguage sets the language used when callers pass an empty one.
func WithDefaultLanguage(language string) ServiceOption {
	return func(s *service) {
		s.defaultLanguage = strings.TrimSpace(language)
	}
}

type service struct {
	source          PageSource
	logger          interfaces.Logger
	now             func() time.Time
	links           LinkOptions
	defaultLanguage string

	mu        sync.RWMutex
	snapshots map[string]*atomic.Pointer[Snapshot]
	group     singleflight.Group
}

// NewService constructs a navigation service over source.
func NewService(source PageSource, opts ...ServiceOption) (Service, error) {
	if source == nil {
		return nil, ErrPageSourceRequired
	}
	s := &service{
		source:    source,
		logger:    logging.NoOp(),
		now:       time.Now,
		snapshots: map[string]*atomic.Pointer[Snapshot]{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *service) Snapshot(ctx context.Context, language string) (*Snapshot, error) {
	language = s.language(language)
	if snap := s.slot(language, false); snap != nil {
		if current := snap.Load(); current != nil {
			return current, nil
		}
	}
	return s.Refresh(ctx, language)
}

func (s *service) Current(language string) *Snapshot {
	slot := s.slot(s.language(language), false)
	if slot == nil {
		return nil
	}
	return slot.Load()
}

func (s *service) Refresh(ctx context.Context, language string) (*Snapshot, error) {
	language = s.language(language)
	result := s.group.DoChan(language, func() (any, error) {
		return s.rebuild(context.WithoutCancel(ctx), language)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

func (s *service) rebuild(ctx context.Context, language string) (*Snapshot, error) {
	logger := logging.WithFields(s.logger, map[string]any{"language": language})

	records, err := s.source.ListPages(ctx, language)
	if err != nil {
		logger.Error("navigation.refresh.failed", "error", err)
		return nil, fmt.Errorf("navigation: list pages for %q: %w", language, err)
	}

	snap, err := NewSnapshot(language, records,
		WithSnapshotClock(s.now),
		WithSnapshotLinks(s.links),
	)
	if err != nil {
		logger.Error("navigation.refresh.failed", "error", err)
		return nil, err
	}

	for _, issue := range snap.Issues {
		logger.Warn("navigation."+string(issue.Kind),
			"page_id", issue.PageID,
			"keyword", issue.Keyword,
			"parent_id", issue.ParentID,
			"detail", issue.Detail,
		)
	}

	s.slot(language, true).Store(snap)
	logger.Debug("navigation.refresh.completed", "pages", snap.Size(), "menu", len(snap.Menu), "issues", len(snap.Issues))
	return snap, nil
}

func (s *service) Invalidate(language string) {
	if slot := s.slot(s.language(language), false); slot != nil {
		slot.Store(nil)
	}
}

func (s *service) Languages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.snapshots))
	for language, slot := range s.snapshots {
		if slot.Load() != nil {
			out = append(out, language)
		}
	}
	slices.Sort(out)
	return out
}

func (s *service) slot(language string, create bool) *atomic.Pointer[Snapshot] {
	s.mu.RLock()
	slot, ok := s.snapshots[language]
	s.mu.RUnlock()
	if ok || !create {
		return slot
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if slot, ok = s.snapshots[language]; ok {
		return slot
	}
	slot = &atomic.Pointer[Snapshot]{}
	s.snapshots[language] = slot
	return slot
}

func (s *service) language(language string) string {
	if trimmed := strings.TrimSpace(language); trimmed != "" {
		return trimmed
	}
	return s.defaultLanguage
}
