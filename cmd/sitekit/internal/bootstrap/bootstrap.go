package bootstrap

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-sitekit"
	"github.com/goliatone/go-sitekit/internal/di"
	"github.com/goliatone/go-sitekit/internal/logging"
	"github.com/goliatone/go-sitekit/pkg/interfaces"
)

// Options captures configuration for sitekit CLI bootstraps.
type Options struct {
	ContentDir      string
	Pattern         string
	DefaultLanguage string
	Languages       []string
	StorageProvider string
	DSN             string
	LogProvider     string
	LogLevel        string
	Watch           bool
	APIKey          string
	LoggerProvider  interfaces.LoggerProvider
}

// Module wraps the sitekit module and the CLI logger.
type Module struct {
	Module *sitekit.Module
	Logger interfaces.Logger
}

// BuildModule constructs a sitekit module with the importer enabled.
func BuildModule(opts Options) (*Module, error) {
	cfg := sitekit.DefaultConfig()
	cfg.Features.Importer = true
	cfg.Features.Commands = true
	cfg.Importer.ContentDir = strings.TrimSpace(opts.ContentDir)
	if cfg.Importer.ContentDir == "" {
		cfg.Importer.ContentDir = "content"
	}
	if trimmed := strings.TrimSpace(opts.Pattern); trimmed != "" {
		cfg.Importer.Pattern = trimmed
	}
	cfg.Importer.Watch = opts.Watch

	if language := strings.TrimSpace(opts.DefaultLanguage); language != "" {
		cfg.DefaultLanguage = language
	}
	if len(opts.Languages) > 0 {
		cfg.Languages = cloneStrings(opts.Languages)
	} else {
		cfg.Languages = []string{cfg.DefaultLanguage}
	}

	if provider := strings.TrimSpace(opts.StorageProvider); provider != "" {
		cfg.Storage.Provider = provider
		cfg.Storage.DSN = strings.TrimSpace(opts.DSN)
	}

	if provider := strings.TrimSpace(opts.LogProvider); provider != "" {
		cfg.Features.Logger = true
		cfg.Logging.Provider = provider
		if level := strings.TrimSpace(opts.LogLevel); level != "" {
			cfg.Logging.Level = level
		}
	}

	diOpts := []di.Option{di.WithAPIKey(opts.APIKey)}
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, di.WithLoggerProvider(opts.LoggerProvider))
	}

	module, err := sitekit.New(cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise sitekit module: %w", err)
	}

	logger := logging.ModuleLogger(module.Container().LoggerProvider(), "sitekit.cli")

	return &Module{
		Module: module,
		Logger: logger,
	}, nil
}

// SplitLanguages parses a comma separated language list into a trimmed slice.
func SplitLanguages(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	languages := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			languages = append(languages, trimmed)
		}
	}
	return languages
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
