package di

import (
	"context"
	"errors"
	"strings"
	"time"

	command "github.com/goliatone/go-command"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-sitekit/internal/adapters/noop"
	"github.com/goliatone/go-sitekit/internal/adapters/storage"
	sitecmd "github.com/goliatone/go-sitekit/internal/commands/site"
	sitehttp "github.com/goliatone/go-sitekit/internal/http"
	"github.com/goliatone/go-sitekit/internal/importer"
	"github.com/goliatone/go-sitekit/internal/logging"
	"github.com/goliatone/go-sitekit/internal/logging/console"
	"github.com/goliatone/go-sitekit/internal/logging/gologger"
	"github.com/goliatone/go-sitekit/internal/markdown"
	"github.com/goliatone/go-sitekit/internal/navigation"
	"github.com/goliatone/go-sitekit/internal/pagecontent"
	"github.com/goliatone/go-sitekit/internal/resolver"
	"github.com/goliatone/go-sitekit/internal/runtimeconfig"
	"github.com/goliatone/go-sitekit/internal/styles"
	"github.com/goliatone/go-sitekit/pkg/interfaces"
)

// Container wires the sitekit services from a runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger

	bunDB         *bun.DB
	ownsDB        bool
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	pageRepo    navigation.PageRepository
	contentRepo pagecontent.Repository
	pageSource  navigation.PageSource
	contentSrc  resolver.ContentSource
	sources     []sitecmd.SourceCache

	navigation navigation.Service
	resolver   *resolver.Resolver
	renderer   *styles.Renderer
	importer   *importer.Importer
	watcher    *importer.Watcher

	commandRegistry sitecmd.CommandRegistry
	commands        *sitecmd.HandlerSet
	api             *sitehttp.SiteAPI
	apiKey          string
}

// Option mutates the container before services are built.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithBunDB uses db for page and content storage instead of opening one
// from the storage config.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the repository cache service and key serializer.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithPageSource replaces the stored pages as the navigation source. The
// importer keeps writing to the configured repositories.
func WithPageSource(source navigation.PageSource) Option {
	return func(c *Container) {
		c.pageSource = source
	}
}

// WithContentSource replaces the stored documents as the resolver source.
func WithContentSource(source resolver.ContentSource) Option {
	return func(c *Container) {
		c.contentSrc = source
	}
}

// WithCommandRegistry registers the site command handlers with reg.
func WithCommandRegistry(reg sitecmd.CommandRegistry) Option {
	return func(c *Container) {
		c.commandRegistry = reg
	}
}

// WithAPIKey guards the preview and command routes of the site API.
func WithAPIKey(key string) Option {
	return func(c *Container) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// NewContainer validates cfg and builds every service it enables.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config:   cfg,
		cacheTTL: cfg.Cache.TTL,
	}
	// Repository reads must not outlive the resolver freshness window.
	if fresh := cfg.Resolver.FreshFor; fresh > 0 && c.cacheTTL > fresh {
		c.cacheTTL = fresh
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	steps := []func() error{
		c.configureLoggerProvider,
		c.configureCacheDefaults,
		c.configureStorage,
		c.configureRepositories,
		c.configureNavigation,
		c.configureResolver,
		c.configureRenderer,
		c.configureImporter,
		c.configureCommands,
		c.configureAPI,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			c.closeDB()
			return nil, err
		}
	}

	c.logger.Info("sitekit.container.ready",
		"storage", runtimeconfig.NormalizeProvider(cfg.Storage.Provider),
		"cache", c.cacheService != nil,
		"importer", c.importer != nil,
		"watch", c.watcher != nil,
		"commands", c.commands != nil,
	)
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider == nil && c.Config.Features.Logger {
		logCfg := c.Config.Logging
		switch runtimeconfig.NormalizeProvider(logCfg.Provider) {
		case "gologger":
			provider, err := gologger.NewProvider(gologger.Config{
				Level:     logCfg.Level,
				Format:    logCfg.Format,
				AddSource: logCfg.AddSource,
				Focus:     logCfg.Focus,
			})
			if err != nil {
				return err
			}
			c.loggerProvider = provider
		default:
			level := console.ParseLevel(logCfg.Level)
			c.loggerProvider = console.NewProvider(console.Options{MinLevel: &level})
		}
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, "sitekit")
	return nil
}

func (c *Container) configureCacheDefaults() error {
	if !c.Config.Cache.Enabled {
		return nil
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			c.logger.Warn("sitekit.cache.unavailable", "error", err)
			return nil
		}
		c.cacheService = service
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
	return nil
}

func (c *Container) configureStorage() error {
	if c.bunDB != nil {
		return nil
	}
	if runtimeconfig.NormalizeProvider(c.Config.Storage.Provider) == runtimeconfig.StorageMemory {
		return nil
	}

	db, err := storage.Open(c.Config.Storage)
	if err != nil {
		return err
	}
	if err := storage.Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return err
	}
	c.bunDB = db
	c.ownsDB = true
	return nil
}

func (c *Container) configureRepositories() error {
	if c.bunDB != nil {
		cacheService, serializer := c.cacheService, c.keySerializer
		if c.Config.Resolver.BypassCache {
			cacheService, serializer = nil, nil
		}
		c.pageRepo = navigation.NewBunPageRepositoryWithCache(c.bunDB, cacheService, serializer)
		c.contentRepo = pagecontent.NewBunRepositoryWithCache(c.bunDB, cacheService, serializer)
	} else {
		c.pageRepo = navigation.NewMemoryPageRepository()
		c.contentRepo = pagecontent.NewMemoryRepository()
	}

	candidates := []any{c.pageRepo, c.contentRepo}
	if c.pageSource == nil {
		c.pageSource = c.pageRepo
	} else {
		candidates = append(candidates, c.pageSource)
	}
	if c.contentSrc == nil {
		c.contentSrc = c.contentRepo
	} else {
		candidates = append(candidates, c.contentSrc)
	}
	for _, candidate := range candidates {
		if source, ok := candidate.(sitecmd.SourceCache); ok {
			c.sources = append(c.sources, source)
		}
	}
	return nil
}

func (c *Container) configureNavigation() error {
	navCfg := c.Config.Navigation
	links := navigation.LinkOptions{
		BaseURL:         strings.TrimSpace(navCfg.BaseURL),
		Group:           strings.TrimSpace(navCfg.LinkGroup),
		DefaultLanguage: c.Config.DefaultLanguage,
	}
	if navCfg.RouteConfig != nil {
		links.Extra = navCfg.RouteConfig.Groups
	}

	service, err := navigation.NewService(c.pageSource,
		navigation.WithLogger(logging.NavigationLogger(c.loggerProvider)),
		navigation.WithLinkOptions(links),
		navigation.WithDefaultLanguage(c.Config.DefaultLanguage),
	)
	if err != nil {
		return err
	}
	c.navigation = service
	return nil
}

func (c *Container) configureResolver() error {
	resolverCfg := c.Config.Resolver
	opts := []resolver.Option{
		resolver.WithFreshFor(resolverCfg.FreshFor),
		resolver.WithFetchTimeout(resolverCfg.FetchTimeout),
		resolver.WithDefaultLanguage(c.Config.DefaultLanguage),
		resolver.WithLogger(logging.ResolverLogger(c.loggerProvider)),
	}
	if resolverCfg.BypassCache {
		opts = append(opts, resolver.WithCache(noop.Cache()))
	}

	res, err := resolver.NewResolver(c.navigation, c.contentSrc, opts...)
	if err != nil {
		return err
	}
	c.resolver = res
	return nil
}

func (c *Container) configureRenderer() error {
	opts := []styles.RendererOption{
		styles.WithRendererLogger(logging.RenderLogger(c.loggerProvider)),
		styles.WithMarkdownConverter(markdown.NewConverter(c.Config.MarkdownOptions())),
		styles.WithMaxDepth(c.Config.Rendering.MaxDepth),
	}
	c.renderer = styles.NewRenderer(opts...)
	return nil
}

func (c *Container) configureImporter() error {
	if !c.Config.Features.Importer {
		return nil
	}
	importerCfg := c.Config.Importer
	logger := logging.ImporterLogger(c.loggerProvider)

	imp, err := importer.New(c.pageRepo, c.contentRepo,
		importer.WithLogger(logger),
		importer.WithPattern(importerCfg.Pattern),
		importer.WithDefaultLanguage(c.Config.DefaultLanguage),
	)
	if err != nil {
		return err
	}
	c.importer = imp

	if !importerCfg.Watch {
		return nil
	}
	watcher, err := importer.NewWatcher(imp, importerCfg.ContentDir, c.applyImport,
		importer.WithDebounce(importerCfg.Debounce),
		importer.WithWatcherLogger(logger),
	)
	if err != nil {
		return err
	}
	c.watcher = watcher
	return nil
}

func (c *Container) applyImport(ctx context.Context, result importer.Result) {
	if err := sitecmd.ApplyImport(ctx, result, c.navigation, c.resolver, c.sources...); err != nil {
		c.logger.Error("sitekit.import.apply_failed", "error", err)
	}
}

func (c *Container) configureCommands() error {
	deps := sitecmd.Dependencies{
		Navigation: c.navigation,
		Content:    c.resolver,
		Previews:   c.resolver,
		Sources:    c.sources,
	}
	if c.importer != nil {
		deps.Importer = c.importer
	}

	var reg sitecmd.CommandRegistry
	if c.Config.Features.Commands {
		reg = c.commandRegistry
	}
	set, err := sitecmd.RegisterSiteCommands(reg, deps, c.loggerProvider)
	if err != nil {
		return err
	}
	c.commands = set
	return nil
}

func (c *Container) configureAPI() error {
	opts := []sitehttp.Option{
		sitehttp.WithLogger(logging.HTTPLogger(c.loggerProvider)),
		sitehttp.WithDefaultLanguage(c.Config.DefaultLanguage),
		sitehttp.WithAPIKey(c.apiKey),
	}
	if c.importer != nil {
		opts = append(opts, sitehttp.WithImportDirectory(c.Config.Importer.ContentDir))
	}

	api, err := sitehttp.NewSiteAPI(sitehttp.Dependencies{
		Navigation: c.navigation,
		Resolver:   c.resolver,
		Renderer:   c.renderer,
		Content:    c.contentSrc,
		Commands:   c.commands,
	}, opts...)
	if err != nil {
		return err
	}
	c.api = api
	return nil
}

// RegisterRefreshCron schedules a full navigation refresh with reg using the
// given cron expression.
func (c *Container) RegisterRefreshCron(reg sitecmd.CronRegistrar, expression string) error {
	if c.commands == nil || c.commands.RefreshNavigation == nil {
		return errors.New("di: refresh handler is not configured")
	}
	cfg := command.HandlerConfig{Expression: strings.TrimSpace(expression)}
	return sitecmd.RegisterRefreshCron(reg, c.commands.RefreshNavigation, cfg, sitecmd.RefreshNavigationCommand{InvalidateContent: true})
}

// SourceCaches lists the read caches in front of the page and content
// sources. Refresh, invalidate and import commands flush them.
func (c *Container) SourceCaches() []sitecmd.SourceCache {
	return append([]sitecmd.SourceCache(nil), c.sources...)
}

// Close releases the database opened by the container. A database passed
// with WithBunDB is left to the caller.
func (c *Container) Close() error {
	return c.closeDB()
}

func (c *Container) closeDB() error {
	if !c.ownsDB || c.bunDB == nil {
		return nil
	}
	err := c.bunDB.Close()
	c.bunDB = nil
	c.ownsDB = false
	return err
}

// LoggerProvider returns the provider every module logger comes from. It is
// nil when logging is disabled.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Logger returns the root sitekit logger.
func (c *Container) Logger() interfaces.Logger {
	return c.logger
}

// DB returns the bun database, or nil for memory storage.
func (c *Container) DB() *bun.DB {
	return c.bunDB
}

// PageRepository returns the page store.
func (c *Container) PageRepository() navigation.PageRepository {
	return c.pageRepo
}

// ContentRepository returns the content document store.
func (c *Container) ContentRepository() pagecontent.Repository {
	return c.contentRepo
}

// NavigationService returns the per-language navigation snapshots.
func (c *Container) NavigationService() navigation.Service {
	return c.navigation
}

// Resolver returns the content resolver.
func (c *Container) Resolver() *resolver.Resolver {
	return c.resolver
}

// Renderer returns the content tree renderer.
func (c *Container) Renderer() *styles.Renderer {
	return c.renderer
}

// Importer returns the markdown importer, or nil when the feature is off.
func (c *Container) Importer() *importer.Importer {
	return c.importer
}

// Watcher returns the content directory watcher, or nil when watching is off.
func (c *Container) Watcher() *importer.Watcher {
	return c.watcher
}

// Commands returns the site command handlers.
func (c *Container) Commands() *sitecmd.HandlerSet {
	return c.commands
}

// SiteAPI returns the HTTP handler of the site.
func (c *Container) SiteAPI() *sitehttp.SiteAPI {
	return c.api
}
