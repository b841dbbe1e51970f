package sitecmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-sitekit/internal/commands"
	"github.com/goliatone/go-sitekit/internal/importer"
	"github.com/goliatone/go-sitekit/internal/logging"
	"github.com/goliatone/go-sitekit/internal/navigation"
	"github.com/goliatone/go-sitekit/internal/styles"
	"github.com/goliatone/go-sitekit/pkg/interfaces"
)

const (
	refreshOperation    = "navigation.refresh"
	invalidateOperation = "content.invalidate"
	importOperation     = "content.import"
	setPreviewOperation = "preview.set"
	clearPreviewOp      = "preview.clear"
)

// ErrImporterDisabled is returned when an import runs without an importer.
var ErrImporterDisabled = errors.New("site command: importer feature disabled")

// NavigationRefresher rebuilds navigation snapshots.
type NavigationRefresher interface {
	Refresh(ctx context.Context, language string) (*navigation.Snapshot, error)
	Languages() []string
}

// ContentInvalidator drops cached page content.
type ContentInvalidator interface {
	Invalidate(pageID int64, language string)
	InvalidateLanguage(language string)
}

// SourceCache is a read cache in front of a page or content source, such as
// the cached bun repositories.
type SourceCache interface {
	InvalidateCache(ctx context.Context) error
}

// PreviewStore holds per-keyword content overrides.
type PreviewStore interface {
	SetOverride(keyword string, nodes []*styles.Node)
	ClearOverride(keyword string) bool
}

// ContentImporter imports a directory of markdown pages.
type ContentImporter interface {
	ImportDirectory(ctx context.Context, dir string, opts importer.Options) (importer.Result, error)
}

var (
	_ command.Commander[RefreshNavigationCommand] = (*RefreshNavigationHandler)(nil)
	_ command.Commander[InvalidateContentCommand] = (*InvalidateContentHandler)(nil)
	_ command.Commander[ImportContentCommand]     = (*ImportContentHandler)(nil)
	_ command.Commander[SetPreviewCommand]        = (*SetPreviewHandler)(nil)
	_ command.Commander[ClearPreviewCommand]      = (*ClearPreviewHandler)(nil)
)

// RefreshNavigationHandler rebuilds navigation snapshots on demand.
type RefreshNavigationHandler struct {
	inner *commands.Handler[RefreshNavigationCommand]
}

// Source caches are flushed first so the rebuilt snapshots read through to
// storage.
func NewRefreshNavigationHandler(nav NavigationRefresher, content ContentInvalidator, sources []SourceCache, logger interfaces.Logger, opts ...commands.HandlerOption[RefreshNavigationCommand]) *RefreshNavigationHandler {
	logger = ensureLogger(logger)
	exec := func(ctx context.Context, msg RefreshNavigationCommand) error {
		if err := flushSources(ctx, sources); err != nil {
			return err
		}
		languages, err := refreshLanguages(ctx, nav, msg.Language)
		if err != nil {
			return err
		}
		if msg.InvalidateContent && content != nil {
			for _, language := range languages {
				content.InvalidateLanguage(language)
			}
		}
		return nil
	}
	return &RefreshNavigationHandler{
		inner: commands.NewHandler(exec, handlerOptions(logger, refreshOperation, opts)...),
	}
}

func (h *RefreshNavigationHandler) Execute(ctx context.Context, msg RefreshNavigationCommand) error {
	return h.inner.Execute(ctx, msg)
}

// refreshLanguages refreshes language, or every known language when it is
// empty, and returns the languages it refreshed.
func refreshLanguages(ctx context.Context, nav NavigationRefresher, language string) ([]string, error) {
	languages := []string{strings.TrimSpace(language)}
	if languages[0] == "" {
		if known := nav.Languages(); len(known) > 0 {
			languages = known
		}
	}
	var errs []error
	refreshed := make([]string, 0, len(languages))
	for _, lang := range languages {
		snap, err := nav.Refresh(ctx, lang)
		if err != nil {
			errs = append(errs, fmt.Errorf("refresh %q: %w", lang, err))
			continue
		}
		refreshed = append(refreshed, snap.Language)
	}
	return refreshed, errors.Join(errs...)
}

// InvalidateContentHandler drops cached content, both in the resolver and in
// the source caches beneath it.
type InvalidateContentHandler struct {
	inner *commands.Handler[InvalidateContentCommand]
}

func NewInvalidateContentHandler(content ContentInvalidator, sources []SourceCache, logger interfaces.Logger, opts ...commands.HandlerOption[InvalidateContentCommand]) *InvalidateContentHandler {
	logger = ensureLogger(logger)
	exec := func(ctx context.Context, msg InvalidateContentCommand) error {
		if err := flushSources(ctx, sources); err != nil {
			return err
		}
		if msg.PageID > 0 {
			content.Invalidate(msg.PageID, msg.Language)
			return nil
		}
		content.InvalidateLanguage(msg.Language)
		return nil
	}
	return &InvalidateContentHandler{
		inner: commands.NewHandler(exec, handlerOptions(logger, invalidateOperation, opts)...),
	}
}

func (h *InvalidateContentHandler) Execute(ctx context.Context, msg InvalidateContentCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ImportContentHandler imports markdown pages, then refreshes navigation and
// drops cached content for every imported language.
type ImportContentHandler struct {
	inner *commands.Handler[ImportContentCommand]
}

func NewImportContentHandler(imp ContentImporter, nav NavigationRefresher, content ContentInvalidator, sources []SourceCache, logger interfaces.Logger, opts ...commands.HandlerOption[ImportContentCommand]) *ImportContentHandler {
	logger = ensureLogger(logger)
	exec := func(ctx context.Context, msg ImportContentCommand) error {
		if imp == nil {
			return ErrImporterDisabled
		}
		result, err := imp.ImportDirectory(ctx, msg.Directory, importer.Options{DryRun: msg.DryRun, Prune: msg.Prune})
		if err != nil {
			return err
		}
		logging.WithFields(logger, map[string]any{
			"imported": len(result.Pages),
			"pruned":   len(result.Pruned),
			"errors":   len(result.Errors),
			"dry_run":  msg.DryRun,
		}).Info("site.command.import.completed")
		if msg.DryRun {
			return nil
		}
		return ApplyImport(ctx, result, nav, content, sources...)
	}
	return &ImportContentHandler{
		inner: commands.NewHandler(exec, handlerOptions(logger, importOperation, opts)...),
	}
}

func (h *ImportContentHandler) Execute(ctx context.Context, msg ImportContentCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ApplyImport flushes the source caches, then refreshes navigation and drops
// cached content for the languages touched by an import.
func ApplyImport(ctx context.Context, result importer.Result, nav NavigationRefresher, content ContentInvalidator, sources ...SourceCache) error {
	if len(result.Languages) == 0 {
		return nil
	}
	if err := flushSources(ctx, sources); err != nil {
		return err
	}
	var errs []error
	for _, language := range result.Languages {
		if content != nil {
			content.InvalidateLanguage(language)
		}
		if nav == nil {
			continue
		}
		if _, err := nav.Refresh(ctx, language); err != nil {
			errs = append(errs, fmt.Errorf("refresh %q: %w", language, err))
		}
	}
	return errors.Join(errs...)
}

// SetPreviewHandler installs preview content.
type SetPreviewHandler struct {
	inner *commands.Handler[SetPreviewCommand]
}

func NewSetPreviewHandler(store PreviewStore, logger interfaces.Logger, opts ...commands.HandlerOption[SetPreviewCommand]) *SetPreviewHandler {
	logger = ensureLogger(logger)
	exec := func(_ context.Context, msg SetPreviewCommand) error {
		store.SetOverride(msg.Keyword, msg.Nodes)
		return nil
	}
	return &SetPreviewHandler{
		inner: commands.NewHandler(exec, handlerOptions(logger, setPreviewOperation, opts)...),
	}
}

func (h *SetPreviewHandler) Execute(ctx context.Context, msg SetPreviewCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ClearPreviewHandler removes preview content. Clearing a keyword without a
// preview is not an error.
type ClearPreviewHandler struct {
	inner *commands.Handler[ClearPreviewCommand]
}

func NewClearPreviewHandler(store PreviewStore, logger interfaces.Logger, opts ...commands.HandlerOption[ClearPreviewCommand]) *ClearPreviewHandler {
	logger = ensureLogger(logger)
	exec := func(_ context.Context, msg ClearPreviewCommand) error {
		if !store.ClearOverride(msg.Keyword) {
			logger.Debug("site.command.preview.absent", "keyword", msg.Keyword)
		}
		return nil
	}
	return &ClearPreviewHandler{
		inner: commands.NewHandler(exec, handlerOptions(logger, clearPreviewOp, opts)...),
	}
}

func (h *ClearPreviewHandler) Execute(ctx context.Context, msg ClearPreviewCommand) error {
	return h.inner.Execute(ctx, msg)
}

func flushSources(ctx context.Context, sources []SourceCache) error {
	var errs []error
	for _, source := range sources {
		if source == nil {
			continue
		}
		if err := source.InvalidateCache(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush source cache: %w", err))
		}
	}
	return errors.Join(errs...)
}

func handlerOptions[T command.Message](logger interfaces.Logger, operation string, extra []commands.HandlerOption[T]) []commands.HandlerOption[T] {
	opts := []commands.HandlerOption[T]{
		commands.WithLogger[T](logger),
		commands.WithOperation[T](operation),
	}
	return append(opts, extra...)
}

func ensureLogger(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}
