package noop

import (
	"context"

	"github.com/goliatone/go-sitekit/internal/navigation"
	"github.com/goliatone/go-sitekit/internal/resolver"
	"github.com/goliatone/go-sitekit/internal/styles"
)

// Cache returns a resolver cache that stores nothing, so every resolution
// goes to the content source.
func Cache() resolver.Cache {
	return cacheAdapter{}
}

type cacheAdapter struct{}

func (cacheAdapter) Get(resolver.Key) (resolver.Entry, bool, bool) {
	return resolver.Entry{}, false, false
}

func (cacheAdapter) Set(resolver.Key, []*styles.Node) {}

func (cacheAdapter) Delete(resolver.Key) {}

func (cacheAdapter) DeleteLanguage(string) {}

func (cacheAdapter) Clear() {}

// Pages returns a page source with no pages.
func Pages() navigation.PageSource {
	return pagesAdapter{}
}

type pagesAdapter struct{}

func (pagesAdapter) ListPages(context.Context, string) ([]navigation.PageRecord, error) {
	return []navigation.PageRecord{}, nil
}

// Content returns a content source that serves an empty tree for every page.
func Content() resolver.ContentSource {
	return contentAdapter{}
}

type contentAdapter struct{}

func (contentAdapter) FetchContent(context.Context, int64, string) ([]*styles.Node, error) {
	return []*styles.Node{}, nil
}
