package navigation

import (
	"fmt"
	"strings"

	urlkit "github.com/goliatone/go-urlkit"

	"github.com/goliatone/go-sitekit/internal/routes"
)

const defaultLinkGroup = "site"

// LinkOptions configures absolute link generation.
type LinkOptions struct {
	// BaseURL is prepended to every link, for example https://example.com.
	BaseURL string
	// Group names the go-urlkit group that holds the page routes.
	Group string
	// DefaultLanguage is served without a language prefix. Other languages
	// get a nested group mounted at /<language>.
	DefaultLanguage string
	// Extra groups are registered alongside the page group. A group using
	// the page group's name is ignored.
	Extra []urlkit.GroupConfig
}

// LinkBuilder turns page keywords into absolute URLs using go-urlkit. Each
// page route is registered under its keyword.
type LinkBuilder struct {
	manager *urlkit.RouteManager
	group   string
	child   string
}

// NewLinkBuilder registers the routes of one language snapshot.
func NewLinkBuilder(opts LinkOptions, language string, table []routes.Route) (*LinkBuilder, error) {
	group := strings.TrimSpace(opts.Group)
	if group == "" {
		group = defaultLinkGroup
	}

	paths := make(map[string]string, len(table))
	for _, route := range table {
		if _, exists := paths[route.Key]; exists {
			continue
		}
		paths[route.Key] = route.Template.URLKitPath()
	}

	root := urlkit.GroupConfig{
		Name:    group,
		BaseURL: strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
	}

	builder := &LinkBuilder{group: group}
	language = strings.TrimSpace(language)
	if language != "" && language != strings.TrimSpace(opts.DefaultLanguage) {
		root.Paths = map[string]string{}
		root.Groups = []urlkit.GroupConfig{{
			Name:  language,
			Path:  "/" + language,
			Paths: paths,
		}}
		builder.child = language
	} else {
		root.Paths = paths
	}

	groups := []urlkit.GroupConfig{root}
	for _, extra := range opts.Extra {
		if extra.Name == "" || extra.Name == group {
			continue
		}
		groups = append(groups, extra)
	}

	builder.manager = urlkit.NewRouteManager(&urlkit.Config{Groups: groups})
	if builder.manager == nil {
		return nil, fmt.Errorf("navigation: urlkit route manager unavailable")
	}
	return builder, nil
}

// Route builds a link from one of the extra groups.
func (b *LinkBuilder) Route(groupName, route string, params map[string]string) (string, error) {
	group, err := lookupGroup(b.manager, groupName)
	if err != nil {
		return "", err
	}
	builder, err := safeBuilder(group, route)
	if err != nil {
		return "", err
	}
	for key, value := range params {
		builder.WithParam(key, value)
	}
	return builder.Build()
}

// Link builds the URL for keyword. Params fill the :name placeholders of the
// route; optional segments are not part of generated links.
func (b *LinkBuilder) Link(keyword string, params map[string]string) (string, error) {
	group, err := lookupGroup(b.manager, b.group)
	if err != nil {
		return "", err
	}
	if b.child != "" {
		if group, err = lookupChildGroup(group, b.child); err != nil {
			return "", err
		}
	}
	builder, err := safeBuilder(group, keyword)
	if err != nil {
		return "", err
	}
	for key, value := range params {
		builder.WithParam(key, value)
	}
	return builder.Build()
}

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	if group == nil {
		return nil, fmt.Errorf("navigation: urlkit group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			builder = nil
			err = fmt.Errorf("navigation: urlkit route %q unavailable: %v", route, rec)
		}
	}()
	return group.Builder(route), nil
}

func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	if manager == nil {
		return nil, fmt.Errorf("navigation: route manager not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			group = nil
			err = fmt.Errorf("navigation: route group %q not found", name)
		}
	}()
	return manager.Group(name), nil
}

func lookupChildGroup(parent *urlkit.Group, name string) (group *urlkit.Group, err error) {
	if parent == nil {
		return nil, fmt.Errorf("navigation: parent group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			group = nil
			err = fmt.Errorf("navigation: child group %q not found", name)
		}
	}()
	return parent.Group(name), nil
}
