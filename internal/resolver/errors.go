package resolver

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

var (
	ErrNavigationRequired    = errors.New("resolver: navigation is required")
	ErrContentSourceRequired = errors.New("resolver: content source is required")
	ErrPageNotFound          = errors.New("resolver: page not found")
	ErrNoRouteMatch          = errors.New("resolver: no route matches path")
	ErrFetchFailed           = errors.New("resolver: content fetch failed")
)

const (
	pageNotFoundCode       = "PAGE_NOT_FOUND"
	contentFetchFailedCode = "CONTENT_FETCH_FAILED"
	navigationFailedCode   = "NAVIGATION_UNAVAILABLE"
)

func pageNotFound(keyword, language string) error {
	return goerrors.Wrap(fmt.Errorf("%w: keyword %q (language %q)", ErrPageNotFound, keyword, language), goerrors.CategoryNotFound, "page not found").
		WithTextCode(pageNotFoundCode)
}

func noRouteMatch(path, language string) error {
	return goerrors.Wrap(fmt.Errorf("%w: %q (language %q)", ErrNoRouteMatch, path, language), goerrors.CategoryNotFound, "page not found").
		WithTextCode(pageNotFoundCode)
}

func fetchFailed(key Key, err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(fmt.Errorf("%w for page %s: %w", ErrFetchFailed, key, err), goerrors.CategoryExternal, "content fetch failed").
		WithTextCode(contentFetchFailedCode)
}

func navigationFailed(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, "navigation unavailable").
		WithTextCode(navigationFailedCode)
}
