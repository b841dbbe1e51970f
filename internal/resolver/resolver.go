package resolver

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-sitekit/internal/logging"
	"github.com/goliatone/go-sitekit/internal/navigation"
	"github.com/goliatone/go-sitekit/internal/styles"
	"github.com/goliatone/go-sitekit/pkg/interfaces"
)

// ContentSource fetches the content tree of a page. Nil entries in the
// returned slice are positional placeholders and must be preserved.
type ContentSource interface {
	FetchContent(ctx context.Context, pageID int64, language string) ([]*styles.Node, error)
}

// ContentSourceFunc adapts a function to ContentSource.
type ContentSourceFunc func(ctx context.Context, pageID int64, language string) ([]*styles.Node, error)

func (f ContentSourceFunc) FetchContent(ctx context.Context, pageID int64, language string) ([]*styles.Node, error) {
	return f(ctx, pageID, language)
}

// Navigation provides the snapshots keywords and paths are resolved against.
// navigation.Service satisfies it.
type Navigation interface {
	Snapshot(ctx context.Context, language string) (*navigation.Snapshot, error)
	Current(language string) *navigation.Snapshot
}

// State is the resolution state of one (page, language) key.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Origin tells where the nodes of a ready result came from.
type Origin string

const (
	OriginOverride Origin = "override"
	OriginCache    Origin = "cache"
	OriginFetch    Origin = "fetch"
	OriginStale    Origin = "stale"
)

// Result is the outcome of a resolution. A ready result may carry Err when
// it is serving stale content after a failed refetch.
type Result struct {
	State    State
	Nodes    []*styles.Node
	Err      error
	Stale    bool
	Origin   Origin
	Keyword  string
	Language string
	PageID   int64
	Params   map[string]string
}

// Ready reports whether the result carries content.
func (r Result) Ready() bool {
	return r.State == StateReady
}

// Option configures the resolver.
type Option func(*Resolver)

// WithCache replaces the default TTL cache.
func WithCache(cache Cache) Option {
	return func(r *Resolver) {
		if cache != nil {
			r.cache = cache
		}
	}
}

// WithFreshFor sets the freshness window of the default cache.
func WithFreshFor(window time.Duration) Option {
	return func(r *Resolver) {
		r.freshFor = window
	}
}

// WithFetchTimeout bounds each content fetch. Zero disables the bound.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		if timeout >= 0 {
			r.fetchTimeout = timeout
		}
	}
}

// WithLogger overrides the resolver logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDefaultLanguage sets the language used when callers pass an empty one.
func WithDefaultLanguage(language string) Option {
	return func(r *Resolver) {
		r.defaultLanguage = strings.TrimSpace(language)
	}
}

// Resolver maps keywords and request paths to content trees. Overrides win
// over cached and fetched content; fetches for the same key are shared.
type Resolver struct {
	nav             Navigation
	source          ContentSource
	cache           Cache
	freshFor        time.Duration
	fetchTimeout    time.Duration
	logger          interfaces.Logger
	defaultLanguage string

	group singleflight.Group

	mu        sync.RWMutex
	overrides map[string][]*styles.Node
	states    map[Key]State
	// Invalidation epochs. A fetch only commits while the sum it started
	// with is still current.
	keyEpochs      map[Key]uint64
	languageEpochs map[string]uint64
	globalEpoch    uint64
}

// NewResolver wires a resolver over a navigation provider and a content
// source.
func NewResolver(nav Navigation, source ContentSource, opts ...Option) (*Resolver, error) {
	if nav == nil {
		return nil, ErrNavigationRequired
	}
	if source == nil {
		return nil, ErrContentSourceRequired
	}
	r := &Resolver{
		nav:       nav,
		source:    source,
		freshFor:  DefaultFreshFor,
		logger:    logging.NoOp(),
		overrides:      map[string][]*styles.Node{},
		states:         map[Key]State{},
		keyEpochs:      map[Key]uint64{},
		languageEpochs: map[string]uint64{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.cache == nil {
		r.cache = NewTTLCache(r.freshFor)
	}
	return r, nil
}

// Resolve returns the content tree for keyword in language.
func (r *Resolver) Resolve(ctx context.Context, keyword, language string) Result {
	language = r.language(language)
	result := Result{Keyword: keyword, Language: language}

	if nodes, ok := r.override(keyword); ok {
		result.State = StateReady
		result.Nodes = nodes
		result.Origin = OriginOverride
		return result
	}

	snap, err := r.nav.Snapshot(ctx, language)
	if err != nil {
		return r.failure(result, navigationFailed(err))
	}
	record, ok := snap.Lookup(keyword)
	if !ok {
		return r.failure(result, pageNotFound(keyword, language))
	}
	result.PageID = record.ID
	return r.resolveRecord(ctx, result)
}

// ResolvePath matches path against the route table of language and resolves
// the matched page. Route parameters are returned on the result.
func (r *Resolver) ResolvePath(ctx context.Context, path, language string) Result {
	language = r.language(language)
	result := Result{Language: language}

	snap, err := r.nav.Snapshot(ctx, language)
	if err != nil {
		return r.failure(result, navigationFailed(err))
	}
	match, ok := snap.Match(path)
	if !ok {
		return r.failure(result, noRouteMatch(path, language))
	}
	result.Keyword = match.Record.Keyword
	result.Params = match.Params
	result.PageID = match.Record.ID

	if nodes, ok := r.override(result.Keyword); ok {
		result.State = StateReady
		result.Nodes = nodes
		result.Origin = OriginOverride
		return result
	}
	return r.resolveRecord(ctx, result)
}

func (r *Resolver) resolveRecord(ctx context.Context, result Result) Result {
	key := Key{PageID: result.PageID, Language: result.Language}
	logger := logging.WithPageContext(r.logger, result.Keyword, result.Language, result.PageID)

	entry, fresh, cached := r.cache.Get(key)
	if cached && fresh {
		result.State = StateReady
		result.Nodes = entry.Nodes
		result.Origin = OriginCache
		return result
	}

	r.mu.Lock()
	r.states[key] = StateLoading
	epoch := r.epochLocked(key)
	r.mu.Unlock()

	flight := key.String() + "@" + strconv.FormatUint(epoch, 10)
	ch := r.group.DoChan(flight, func() (any, error) {
		return r.fetch(ctx, key, epoch, logger)
	})

	select {
	case <-ctx.Done():
		logger.Debug("resolver.caller.abandoned", "error", ctx.Err())
		result.State = StateLoading
		result.Err = ctx.Err()
		return result
	case res := <-ch:
		if res.Err == nil {
			result.State = StateReady
			result.Nodes = styles.CloneNodes(res.Val.([]*styles.Node))
			result.Origin = OriginFetch
			return result
		}
		if cached {
			logger.Warn("resolver.fetch.stale", "error", res.Err, "stored_at", entry.StoredAt)
			result.State = StateReady
			result.Nodes = entry.Nodes
			result.Origin = OriginStale
			result.Stale = true
			result.Err = res.Err
			return result
		}
		result.State = StateError
		result.Err = res.Err
		return result
	}
}

// fetch runs detached from the caller so an abandoned resolution still fills
// the cache. Results of a fetch that was invalidated while in flight are
// handed to its callers but never cached.
func (r *Resolver) fetch(ctx context.Context, key Key, epoch uint64, logger interfaces.Logger) ([]*styles.Node, error) {
	fetchCtx := context.WithoutCancel(ctx)
	if r.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(fetchCtx, r.fetchTimeout)
		defer cancel()
	}

	started := time.Now()
	nodes, err := r.source.FetchContent(fetchCtx, key.PageID, key.Language)
	if err != nil {
		r.mu.Lock()
		if r.epochLocked(key) == epoch {
			// Stale content is still served, so the key stays ready.
			state := StateError
			if _, _, cached := r.cache.Get(key); cached {
				state = StateReady
			}
			r.states[key] = state
		}
		r.mu.Unlock()
		logger.Error("resolver.fetch.failed", "error", err, "duration", time.Since(started))
		return nil, fetchFailed(key, err)
	}
	if nodes == nil {
		nodes = []*styles.Node{}
	}

	r.mu.Lock()
	current := r.epochLocked(key) == epoch
	if current {
		r.cache.Set(key, nodes)
		r.states[key] = StateReady
	}
	r.mu.Unlock()
	if !current {
		logger.Debug("resolver.fetch.discarded", "reason", "invalidated")
		return nodes, nil
	}
	logger.Debug("resolver.fetch.completed", "nodes", styles.CountNodes(nodes), "duration", time.Since(started))
	return nodes, nil
}

func (r *Resolver) failure(result Result, err error) Result {
	r.logger.Warn("resolver.resolve.failed", "keyword", result.Keyword, "language", result.Language, "error", err)
	result.State = StateError
	result.Err = err
	return result
}

// Status reports the state of keyword in language without triggering any
// work. Overridden keywords are always ready; keywords unknown to the
// current snapshot are idle.
func (r *Resolver) Status(keyword, language string) State {
	if _, ok := r.override(keyword); ok {
		return StateReady
	}
	language = r.language(language)
	snap := r.nav.Current(language)
	if snap == nil {
		return StateIdle
	}
	record, ok := snap.Lookup(keyword)
	if !ok {
		return StateIdle
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if state, ok := r.states[Key{PageID: record.ID, Language: language}]; ok {
		return state
	}
	return StateIdle
}

// SetOverride installs nodes as the content of keyword in every language
// until it is cleared. The nodes are copied.
func (r *Resolver) SetOverride(keyword string, nodes []*styles.Node) {
	if nodes == nil {
		nodes = []*styles.Node{}
	}
	r.mu.Lock()
	r.overrides[keyword] = styles.CloneNodes(nodes)
	r.mu.Unlock()
	r.logger.Debug("resolver.override.set", "keyword", keyword, "nodes", styles.CountNodes(nodes))
}

// ClearOverride removes the override of keyword. It reports whether one was
// installed.
func (r *Resolver) ClearOverride(keyword string) bool {
	r.mu.Lock()
	_, ok := r.overrides[keyword]
	delete(r.overrides, keyword)
	r.mu.Unlock()
	if ok {
		r.logger.Debug("resolver.override.cleared", "keyword", keyword)
	}
	return ok
}

// Overrides lists the overridden keywords in sorted order.
func (r *Resolver) Overrides() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.overrides))
}

// Invalidate drops the cached content of one page. Fetches already in
// flight for it no longer fill the cache.
func (r *Resolver) Invalidate(pageID int64, language string) {
	key := Key{PageID: pageID, Language: r.language(language)}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keyEpochs[key]++
	delete(r.states, key)
	r.cache.Delete(key)
}

// InvalidateLanguage drops the cached content of every page in language.
// An empty language clears the whole cache.
func (r *Resolver) InvalidateLanguage(language string) {
	language = strings.TrimSpace(language)
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.states {
		if language == "" || key.Language == language {
			delete(r.states, key)
		}
	}
	if language == "" {
		r.globalEpoch++
		r.cache.Clear()
		return
	}
	r.languageEpochs[language]++
	r.cache.DeleteLanguage(language)
}

func (r *Resolver) epochLocked(key Key) uint64 {
	return r.keyEpochs[key] + r.languageEpochs[key.Language] + r.globalEpoch
}

func (r *Resolver) override(keyword string) ([]*styles.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nodes, ok := r.overrides[keyword]
	if !ok {
		return nil, false
	}
	return styles.CloneNodes(nodes), true
}

func (r *Resolver) language(language string) string {
	if trimmed := strings.TrimSpace(language); trimmed != "" {
		return trimmed
	}
	return r.defaultLanguage
}
