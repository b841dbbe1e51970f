package runtimeconfig_test

import (
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-sitekit/internal/runtimeconfig"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
	if cfg.Resolver.FreshFor != time.Second {
		t.Fatalf("expected one second freshness window, got %v", cfg.Resolver.FreshFor)
	}
	if !cfg.Rendering.Markdown.SafeMode {
		t.Fatalf("expected markdown safe mode by default")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*runtimeconfig.Config)
		want   error
	}{
		{
			name:   "default language required",
			mutate: func(cfg *runtimeconfig.Config) { cfg.DefaultLanguage = " " },
			want:   runtimeconfig.ErrDefaultLanguageRequired,
		},
		{
			name:   "default language listed",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Languages = []string{"es"} },
			want:   runtimeconfig.ErrDefaultLanguageNotListed,
		},
		{
			name:   "freshness window",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Resolver.FreshFor = 0 },
			want:   runtimeconfig.ErrFreshnessWindowInvalid,
		},
		{
			name:   "fetch timeout",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Resolver.FetchTimeout = -time.Second },
			want:   runtimeconfig.ErrFetchTimeoutInvalid,
		},
		{
			name:   "markdown extension",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Rendering.Markdown.Extensions = []string{"emoji"} },
			want:   runtimeconfig.ErrMarkdownExtensionUnknown,
		},
		{
			name:   "storage provider",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Storage.Provider = "mongo" },
			want:   runtimeconfig.ErrStorageProviderUnknown,
		},
		{
			name:   "storage dsn",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Storage.Provider = "postgres" },
			want:   runtimeconfig.ErrStorageDSNRequired,
		},
		{
			name:   "cache ttl",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Cache.TTL = 0 },
			want:   runtimeconfig.ErrCacheTTLInvalid,
		},
		{
			name:   "importer feature",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Importer.Watch = true },
			want:   runtimeconfig.ErrImporterFeatureRequired,
		},
		{
			name: "importer content dir",
			mutate: func(cfg *runtimeconfig.Config) {
				cfg.Features.Importer = true
				cfg.Importer.ContentDir = ""
			},
			want: runtimeconfig.ErrImporterContentDirRequired,
		},
		{
			name: "logging provider required",
			mutate: func(cfg *runtimeconfig.Config) {
				cfg.Features.Logger = true
				cfg.Logging.Provider = ""
			},
			want: runtimeconfig.ErrLoggingProviderRequired,
		},
		{
			name: "logging provider unknown",
			mutate: func(cfg *runtimeconfig.Config) {
				cfg.Features.Logger = true
				cfg.Logging.Provider = "syslog"
			},
			want: runtimeconfig.ErrLoggingProviderUnknown,
		},
		{
			name: "logging level",
			mutate: func(cfg *runtimeconfig.Config) {
				cfg.Features.Logger = true
				cfg.Logging.Level = "loud"
			},
			want: runtimeconfig.ErrLoggingLevelInvalid,
		},
		{
			name: "logging format",
			mutate: func(cfg *runtimeconfig.Config) {
				cfg.Features.Logger = true
				cfg.Logging.Provider = "gologger"
				cfg.Logging.Format = "xml"
			},
			want: runtimeconfig.ErrLoggingFormatInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestConfigValidateAcceptsSQLStorage(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Provider = " SQLite "
	cfg.Storage.DSN = "file:site.db"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestMarkdownOptions(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Rendering.Markdown.HardWraps = true
	opts := cfg.MarkdownOptions()
	if !opts.HardWraps || !opts.SafeMode || len(opts.Extensions) != 1 {
		t.Fatalf("unexpected markdown options: %+v", opts)
	}
	opts.Extensions[0] = "changed"
	if cfg.Rendering.Markdown.Extensions[0] != "gfm" {
		t.Fatalf("expected extensions to be copied")
	}
}
