package logging

import (
	"context"
	"testing"

	"github.com/goliatone/go-sitekit/pkg/interfaces"
)

type recordingLogger struct {
	fields   []map[string]any
	contexts []context.Context
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	r.fields = append(r.fields, fields)
	return r
}

func (r *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, "sitekit.test")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	logger.WithContext(context.Background()).Debug("noop")
}

func TestModuleLoggerTagsModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	NavigationLogger(provider)

	if len(provider.requested) != 1 || provider.requested[0] != navigationModule {
		t.Fatalf("expected module %s, got %v", navigationModule, provider.requested)
	}
	if len(rec.fields) != 1 || rec.fields[0]["module"] != navigationModule {
		t.Fatalf("expected module field, got %v", rec.fields)
	}
}

func TestModuleLoggerDefaultsToRootModule(t *testing.T) {
	provider := &stubProvider{logger: &recordingLogger{}}
	ModuleLogger(provider, "")
	if provider.requested[0] != rootModule {
		t.Fatalf("expected root module, got %v", provider.requested)
	}
}

func TestModuleHelpersRequestTheirNamespace(t *testing.T) {
	cases := map[string]func(interfaces.LoggerProvider) interfaces.Logger{
		resolverModule: ResolverLogger,
		renderModule:   RenderLogger,
		routesModule:   RoutesLogger,
		importerModule: ImporterLogger,
		httpModule:     HTTPLogger,
		commandsModule: CommandsLogger,
	}
	for module, helper := range cases {
		provider := &stubProvider{logger: &recordingLogger{}}
		helper(provider)
		if len(provider.requested) != 1 || provider.requested[0] != module {
			t.Fatalf("expected %s, got %v", module, provider.requested)
		}
	}
}

func TestWithPageContextSkipsEmptyValues(t *testing.T) {
	rec := &recordingLogger{}
	WithPageContext(rec, " home ", "", 0)
	if len(rec.fields) != 1 {
		t.Fatalf("expected one WithFields call, got %d", len(rec.fields))
	}
	fields := rec.fields[0]
	if fields[fieldKeyword] != "home" {
		t.Fatalf("expected trimmed keyword, got %v", fields[fieldKeyword])
	}
	if _, ok := fields[fieldLanguage]; ok {
		t.Fatalf("expected empty language to be skipped")
	}
	if _, ok := fields[fieldPageID]; ok {
		t.Fatalf("expected zero page id to be skipped")
	}
}

func TestContextFieldsMerge(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"request_id": "a"})
	ctx = ContextWithFields(ctx, map[string]any{"keyword": "home"})

	fields := ContextFields(ctx)
	if fields["request_id"] != "a" || fields["keyword"] != "home" {
		t.Fatalf("expected merged fields, got %v", fields)
	}
	fields["request_id"] = "mutated"
	if ContextFields(ctx)["request_id"] != "a" {
		t.Fatalf("expected ContextFields to return a copy")
	}
}
