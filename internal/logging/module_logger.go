package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-sitekit/pkg/interfaces"
)

const (
	rootModule       = "sitekit"
	navigationModule = "sitekit.navigation"
	resolverModule   = "sitekit.resolver"
	renderModule     = "sitekit.render"
	routesModule     = "sitekit.routes"
	importerModule   = "sitekit.importer"
	httpModule       = "sitekit.http"
	commandsModule   = "sitekit.commands"
)

const (
	fieldKeyword  = "keyword"
	fieldLanguage = "language"
	fieldPageID   = "page_id"
)

// ModuleLogger returns the logger for module, tagged with a "module" field.
// Without a provider, or when the provider has nothing for the name, a no-op
// logger is returned.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	var logger interfaces.Logger = NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}
	return WithFields(logger, map[string]any{"module": module})
}

// NavigationLogger is the logger for navigation snapshots and page sources.
func NavigationLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, navigationModule)
}

// ResolverLogger is the logger for page content resolution.
func ResolverLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, resolverModule)
}

// RenderLogger is the logger for content tree rendering.
func RenderLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, renderModule)
}

// RoutesLogger is the logger for route table construction.
func RoutesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, routesModule)
}

// ImporterLogger is the logger for the markdown importer and watcher.
func ImporterLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, importerModule)
}

// HTTPLogger is the logger for the site API.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// CommandsLogger is the logger for command handlers.
func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, commandsModule)
}

// WithPageContext adds keyword, language and page id fields. Empty values
// are skipped.
func WithPageContext(logger interfaces.Logger, keyword, language string, pageID int64) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(keyword); trimmed != "" {
		fields[fieldKeyword] = trimmed
	}
	if trimmed := strings.TrimSpace(language); trimmed != "" {
		fields[fieldLanguage] = trimmed
	}
	if pageID != 0 {
		fields[fieldPageID] = pageID
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
