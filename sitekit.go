package sitekit

import (
	"context"
	"net/http"

	sitecmd "github.com/goliatone/go-sitekit/internal/commands/site"
	"github.com/goliatone/go-sitekit/internal/di"
	"github.com/goliatone/go-sitekit/internal/importer"
	"github.com/goliatone/go-sitekit/internal/navigation"
	"github.com/goliatone/go-sitekit/internal/resolver"
	"github.com/goliatone/go-sitekit/internal/styles"
)

// PageRecord exports the flat page description.
type PageRecord = navigation.PageRecord

// NavigationNode exports a page placed in the navigation tree.
type NavigationNode = navigation.NavigationNode

// Snapshot exports an immutable per-language navigation snapshot.
type Snapshot = navigation.Snapshot

// NavigationService exports the per-language snapshot service contract.
type NavigationService = navigation.Service

// Node exports a content tree node.
type Node = styles.Node

// RenderOutput exports the result of rendering a content tree.
type RenderOutput = styles.Output

// Resolution exports the outcome of resolving a keyword or path.
type Resolution = resolver.Result

// ResolutionState exports the resolution state values.
type ResolutionState = resolver.State

// ImportOptions exports the importer run options.
type ImportOptions = importer.Options

// ImportResult exports the summary of an import run.
type ImportResult = importer.Result

// CommandHandlers exports the site command handler set.
type CommandHandlers = sitecmd.HandlerSet

// Module is the top level sitekit runtime.
type Module struct {
	container *di.Container
}

// New constructs a sitekit module from cfg and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Navigation returns the navigation snapshot service.
func (m *Module) Navigation() NavigationService {
	return m.container.NavigationService()
}

// Resolver returns the content resolver.
func (m *Module) Resolver() *resolver.Resolver {
	return m.container.Resolver()
}

// Renderer returns the content tree renderer.
func (m *Module) Renderer() *styles.Renderer {
	return m.container.Renderer()
}

// Commands returns the site command handlers.
func (m *Module) Commands() *CommandHandlers {
	return m.container.Commands()
}

// Importer returns the markdown importer, or nil when it is disabled.
func (m *Module) Importer() *importer.Importer {
	return m.container.Importer()
}

// Handler returns the HTTP handler serving the site and its API.
func (m *Module) Handler() http.Handler {
	return m.container.SiteAPI()
}

// Snapshot returns the navigation snapshot of language.
func (m *Module) Snapshot(ctx context.Context, language string) (*Snapshot, error) {
	return m.container.NavigationService().Snapshot(ctx, language)
}

// Resolve returns the content tree of keyword in language.
func (m *Module) Resolve(ctx context.Context, keyword, language string) Resolution {
	return m.container.Resolver().Resolve(ctx, keyword, language)
}

// ResolvePath returns the content tree of the page routed at path.
func (m *Module) ResolvePath(ctx context.Context, path, language string) Resolution {
	return m.container.Resolver().ResolvePath(ctx, path, language)
}

// Render renders a resolved content tree.
func (m *Module) Render(ctx context.Context, nodes []*Node) (RenderOutput, error) {
	return m.container.Renderer().Render(ctx, nodes)
}

// Import loads the markdown files under dir and refreshes the navigation
// and content of every imported language.
func (m *Module) Import(ctx context.Context, dir string, opts ImportOptions) (ImportResult, error) {
	imp := m.container.Importer()
	if imp == nil {
		return ImportResult{}, sitecmd.ErrImporterDisabled
	}
	result, err := imp.ImportDirectory(ctx, dir, opts)
	if err != nil {
		return result, err
	}
	if opts.DryRun {
		return result, nil
	}
	return result, sitecmd.ApplyImport(ctx, result, m.container.NavigationService(), m.container.Resolver(), m.container.SourceCaches()...)
}

// Watch blocks re-importing the content directory on change until ctx is
// done. It returns immediately when watching is disabled.
func (m *Module) Watch(ctx context.Context) error {
	watcher := m.container.Watcher()
	if watcher == nil {
		return nil
	}
	return watcher.Run(ctx)
}

// Close releases the resources owned by the module.
func (m *Module) Close() error {
	return m.container.Close()
}
