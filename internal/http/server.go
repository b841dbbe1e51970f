package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	sitecmd "github.com/goliatone/go-sitekit/internal/commands/site"
	"github.com/goliatone/go-sitekit/internal/logging"
	"github.com/goliatone/go-sitekit/internal/navigation"
	"github.com/goliatone/go-sitekit/internal/resolver"
	"github.com/goliatone/go-sitekit/internal/styles"
	"github.com/goliatone/go-sitekit/pkg/interfaces"
)

var (
	ErrNavigationRequired = errors.New("http: navigation service is required")
	ErrResolverRequired   = errors.New("http: resolver is required")
)

// Dependencies are the services behind the site API. Content backs the
// /api source routes; Commands backs the write routes. Either may be nil, in
// which case those routes are not mounted.
type Dependencies struct {
	Navigation navigation.Service
	Resolver   *resolver.Resolver
	Renderer   *styles.Renderer
	Content    resolver.ContentSource
	Commands   *sitecmd.HandlerSet
}

// Option configures the SiteAPI.
type Option func(*SiteAPI)

// WithLogger overrides the API logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(api *SiteAPI) {
		if logger != nil {
			api.logger = logger
		}
	}
}

// WithAPIKey guards the write routes with a bearer token.
func WithAPIKey(key string) Option {
	return func(api *SiteAPI) {
		api.apiKey = strings.TrimSpace(key)
	}
}

// WithDefaultLanguage sets the language used when a request names none.
func WithDefaultLanguage(language string) Option {
	return func(api *SiteAPI) {
		if trimmed := strings.TrimSpace(language); trimmed != "" {
			api.defaultLanguage = trimmed
		}
	}
}

// WithImportDirectory sets the content directory of POST /content/import.
// Requests may name a relative subdirectory of it and nothing else. Without
// it the route answers 501.
func WithImportDirectory(dir string) Option {
	return func(api *SiteAPI) {
		api.importDir = strings.TrimSpace(dir)
	}
}

// SiteAPI serves navigation, rendered pages and previews.
type SiteAPI struct {
	router          chi.Router
	nav             navigation.Service
	resolver        *resolver.Resolver
	renderer        *styles.Renderer
	content         resolver.ContentSource
	commands        *sitecmd.HandlerSet
	logger          interfaces.Logger
	apiKey          string
	defaultLanguage string
	importDir       string
}

func NewSiteAPI(deps Dependencies, opts ...Option) (*SiteAPI, error) {
	if deps.Navigation == nil {
		return nil, ErrNavigationRequired
	}
	if deps.Resolver == nil {
		return nil, ErrResolverRequired
	}
	api := &SiteAPI{
		nav:             deps.Navigation,
		resolver:        deps.Resolver,
		renderer:        deps.Renderer,
		content:         deps.Content,
		commands:        deps.Commands,
		logger:          logging.NoOp(),
		defaultLanguage: "en",
	}
	if api.renderer == nil {
		api.renderer = styles.NewRenderer()
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	api.setupRoutes()
	return api, nil
}

func (api *SiteAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.router.ServeHTTP(w, r)
}

// Router exposes the chi router so hosts can mount it.
func (api *SiteAPI) Router() chi.Router {
	return api.router
}

func (api *SiteAPI) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(api.logger))

	r.Get("/health", api.handleHealth)

	r.Route("/navigation", func(r chi.Router) {
		r.Get("/", api.handleNavigation)
		r.Get("/menu", api.handleMenu)
		r.Get("/footer", api.handleFooter)
		r.Get("/breadcrumbs/{keyword}", api.handleBreadcrumbs)
		if api.commands != nil {
			r.With(api.guards()...).Post("/refresh", api.handleRefresh)
		}
	})
	r.Get("/pages", api.handlePage)
	r.Get("/pages/*", api.handlePage)

	if api.content != nil {
		r.Get("/api/pages", api.handleSourcePages)
		r.Get("/api/pages/{id}/content", api.handleSourceContent)
	}

	if api.commands != nil {
		r.Group(func(r chi.Router) {
			r.Use(api.guards()...)
			r.Get("/preview", api.handlePreviewList)
			r.Put("/preview/{keyword}", api.handlePreviewSet)
			r.Delete("/preview/{keyword}", api.handlePreviewClear)
			r.Post("/content/invalidate", api.handleInvalidate)
			r.Post("/content/import", api.handleImport)
		})
	}

	api.router = r
}

func (api *SiteAPI) guards() []func(http.Handler) http.Handler {
	if api.apiKey == "" {
		return nil
	}
	return []func(http.Handler) http.Handler{APIKeyMiddleware(api.apiKey, api.logger)}
}

func (api *SiteAPI) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"languages": api.nav.Languages(),
	})
}

func (api *SiteAPI) language(r *http.Request) string {
	if r != nil && r.URL != nil {
		if language := strings.TrimSpace(r.URL.Query().Get("language")); language != "" {
			return language
		}
	}
	return api.defaultLanguage
}
