package resolver

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-sitekit/internal/styles"
)

// DefaultFreshFor is the freshness window of cached content.
const DefaultFreshFor = time.Second

// Key identifies one resolvable content tree.
type Key struct {
	PageID   int64
	Language string
}

func (k Key) String() string {
	return strconv.FormatInt(k.PageID, 10) + ":" + k.Language
}

// Entry is a cached content tree.
type Entry struct {
	Nodes    []*styles.Node
	StoredAt time.Time
}

// Cache stores fetched content trees. Get reports entries past their
// freshness window as not fresh instead of dropping them, so callers can
// fall back to them when a refetch fails.
type Cache interface {
	Get(key Key) (entry Entry, fresh bool, ok bool)
	Set(key Key, nodes []*styles.Node)
	Delete(key Key)
	DeleteLanguage(language string)
	Clear()
}

// TTLCache is an in-memory Cache with a fixed freshness window.
type TTLCache struct {
	mu       sync.RWMutex
	entries  map[Key]Entry
	freshFor time.Duration
	now      func() time.Time
}

// TTLOption configures a TTLCache.
type TTLOption func(*TTLCache)

// WithTTLClock overrides the cache clock.
func WithTTLClock(now func() time.Time) TTLOption {
	return func(c *TTLCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewTTLCache creates a cache whose entries stay fresh for freshFor. A
// non-positive window falls back to DefaultFreshFor.
func NewTTLCache(freshFor time.Duration, opts ...TTLOption) *TTLCache {
	if freshFor <= 0 {
		freshFor = DefaultFreshFor
	}
	c := &TTLCache{
		entries:  map[Key]Entry{},
		freshFor: freshFor,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// FreshFor returns the freshness window.
func (c *TTLCache) FreshFor() time.Duration {
	return c.freshFor
}

func (c *TTLCache) Get(key Key) (Entry, bool, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, false, false
	}
	fresh := c.now().Sub(entry.StoredAt) < c.freshFor
	return Entry{Nodes: styles.CloneNodes(entry.Nodes), StoredAt: entry.StoredAt}, fresh, true
}

func (c *TTLCache) Set(key Key, nodes []*styles.Node) {
	entry := Entry{Nodes: styles.CloneNodes(nodes), StoredAt: c.now()}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

func (c *TTLCache) Delete(key Key) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *TTLCache) DeleteLanguage(language string) {
	language = strings.TrimSpace(language)
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key.Language == language {
			delete(c.entries, key)
		}
	}
}

func (c *TTLCache) Clear() {
	c.mu.Lock()
	c.entries = map[Key]Entry{}
	c.mu.Unlock()
}

// Len returns the number of stored entries, fresh or not.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
