package runtimeconfig

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	urlkit "github.com/goliatone/go-urlkit"

	"github.com/goliatone/go-sitekit/internal/markdown"
)

var ErrDefaultLanguageRequired = errors.New("sitekit config: default language is required")
var ErrDefaultLanguageNotListed = errors.New("sitekit config: default language must be part of the configured languages")
var ErrFreshnessWindowInvalid = errors.New("sitekit config: resolver freshness window must be positive")
var ErrFetchTimeoutInvalid = errors.New("sitekit config: resolver fetch timeout must be zero or positive")
var ErrStorageProviderUnknown = errors.New("sitekit config: storage provider is invalid")
var ErrStorageDSNRequired = errors.New("sitekit config: storage DSN is required for SQL providers")
var ErrCacheTTLInvalid = errors.New("sitekit config: cache TTL must be positive when cache is enabled")
var ErrMarkdownExtensionUnknown = errors.New("sitekit config: markdown extension is not supported")
var ErrImporterFeatureRequired = errors.New("sitekit config: importer feature must be enabled to watch content")
var ErrImporterContentDirRequired = errors.New("sitekit config: importer content directory is required when importer is enabled")
var ErrLoggingProviderRequired = errors.New("sitekit config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("sitekit config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("sitekit config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("sitekit config: logging format is invalid")

// Config aggregates the runtime settings of a sitekit module. It is the one
// process-wide settings record; components receive the parts they need at
// construction time.
type Config struct {
	DefaultLanguage string
	Languages       []string
	Navigation      NavigationConfig
	Resolver        ResolverConfig
	Rendering       RenderingConfig
	Storage         StorageConfig
	Cache           CacheConfig
	Logging         LoggingConfig
	Importer        ImporterConfig
	Server          ServerConfig
	Features        Features
}

// NavigationConfig captures link generation settings.
type NavigationConfig struct {
	// RouteConfig holds extra go-urlkit groups registered next to the
	// generated page routes, for links that are not pages.
	RouteConfig *urlkit.Config
	BaseURL     string
	LinkGroup   string
}

// ResolverConfig controls content caching and fetch bounds.
type ResolverConfig struct {
	FreshFor     time.Duration
	FetchTimeout time.Duration
	// BypassCache sends every resolution to the content source.
	BypassCache bool
}

// RenderingConfig controls the content tree renderer.
type RenderingConfig struct {
	Markdown MarkdownConfig
	MaxDepth int
}

// MarkdownConfig mirrors markdown.Options for runtime configuration.
type MarkdownConfig struct {
	Extensions []string
	HardWraps  bool
	SafeMode   bool
}

// StorageConfig selects the page and content persistence.
type StorageConfig struct {
	Provider string
	DSN      string
	Debug    bool
}

// CacheConfig captures repository cache behaviour.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// ImporterConfig captures markdown ingestion settings.
type ImporterConfig struct {
	ContentDir string
	Pattern    string
	Watch      bool
	Debounce   time.Duration
}

// ServerConfig captures the site API listener.
type ServerConfig struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Features toggles module functionality.
type Features struct {
	Logger   bool
	Commands bool
	Importer bool
}

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// DefaultConfig returns the defaults used when a host does not override them.
func DefaultConfig() Config {
	return Config{
		DefaultLanguage: "en",
		Languages:       []string{"en"},
		Navigation: NavigationConfig{
			LinkGroup: "site",
		},
		Resolver: ResolverConfig{
			FreshFor:     time.Second,
			FetchTimeout: 10 * time.Second,
		},
		Rendering: RenderingConfig{
			Markdown: MarkdownConfig{
				Extensions: []string{"gfm"},
				SafeMode:   true,
			},
			MaxDepth: 64,
		},
		Storage: StorageConfig{
			Provider: StorageMemory,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Minute,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Importer: ImporterConfig{
			ContentDir: "content",
			Pattern:    "*.md",
			Debounce:   250 * time.Millisecond,
		},
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	language := strings.TrimSpace(cfg.DefaultLanguage)
	if language == "" {
		return ErrDefaultLanguageRequired
	}
	if len(cfg.Languages) > 0 && !slices.Contains(cfg.Languages, language) {
		return fmt.Errorf("%w: %s", ErrDefaultLanguageNotListed, language)
	}
	if cfg.Resolver.FreshFor <= 0 {
		return ErrFreshnessWindowInvalid
	}
	if cfg.Resolver.FetchTimeout < 0 {
		return ErrFetchTimeoutInvalid
	}
	for _, ext := range cfg.Rendering.Markdown.Extensions {
		if !markdown.KnownExtension(ext) {
			return fmt.Errorf("%w: %s", ErrMarkdownExtensionUnknown, ext)
		}
	}

	switch provider := NormalizeProvider(cfg.Storage.Provider); provider {
	case StorageMemory:
	case StorageSQLite, StoragePostgres:
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return fmt.Errorf("%w: %s", ErrStorageDSNRequired, provider)
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, provider)
	}
	if cfg.Cache.Enabled && cfg.Cache.TTL <= 0 {
		return ErrCacheTTLInvalid
	}

	if cfg.Importer.Watch && !cfg.Features.Importer {
		return ErrImporterFeatureRequired
	}
	if cfg.Features.Importer && strings.TrimSpace(cfg.Importer.ContentDir) == "" {
		return ErrImporterContentDirRequired
	}

	if cfg.Features.Logger {
		provider := NormalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedLoggingProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

// MarkdownOptions converts the rendering settings into parser options.
func (cfg Config) MarkdownOptions() markdown.Options {
	return markdown.Options{
		Extensions: slices.Clone(cfg.Rendering.Markdown.Extensions),
		HardWraps:  cfg.Rendering.Markdown.HardWraps,
		SafeMode:   cfg.Rendering.Markdown.SafeMode,
	}
}

// NormalizeProvider lower-cases and trims a provider name.
func NormalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedLoggingProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
