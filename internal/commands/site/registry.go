package sitecmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-sitekit/internal/commands"
	"github.com/goliatone/go-sitekit/pkg/interfaces"
)

// CommandRegistry is the registration contract used when wiring handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CronRegistrar matches the function signature used by go-command registries.
type CronRegistrar func(command.HandlerConfig, any) error

// Dependencies are the collaborators the site handlers act on. Importer may
// be nil when the importer feature is off. Sources lists the read caches in
// front of the page and content stores; refresh, invalidate and import
// flush them.
type Dependencies struct {
	Navigation NavigationRefresher
	Content    ContentInvalidator
	Previews   PreviewStore
	Importer   ContentImporter
	Sources    []SourceCache
}

// HandlerSet groups the handlers built by RegisterSiteCommands.
type HandlerSet struct {
	RefreshNavigation *RefreshNavigationHandler
	InvalidateContent *InvalidateContentHandler
	ImportContent     *ImportContentHandler
	SetPreview        *SetPreviewHandler
	ClearPreview      *ClearPreviewHandler
}

// RegisterSiteCommands builds the site handlers and registers them with reg
// when it is not nil.
func RegisterSiteCommands(reg CommandRegistry, deps Dependencies, provider interfaces.LoggerProvider) (*HandlerSet, error) {
	if deps.Navigation == nil {
		return nil, errors.New("site command registration: navigation is nil")
	}
	if deps.Content == nil {
		return nil, errors.New("site command registration: content invalidator is nil")
	}
	if deps.Previews == nil {
		return nil, errors.New("site command registration: preview store is nil")
	}

	logger := commands.CommandLogger(provider, "site")
	set := &HandlerSet{
		RefreshNavigation: NewRefreshNavigationHandler(deps.Navigation, deps.Content, deps.Sources, logger),
		InvalidateContent: NewInvalidateContentHandler(deps.Content, deps.Sources, logger),
		ImportContent:     NewImportContentHandler(deps.Importer, deps.Navigation, deps.Content, deps.Sources, logger),
		SetPreview:        NewSetPreviewHandler(deps.Previews, logger),
		ClearPreview:      NewClearPreviewHandler(deps.Previews, logger),
	}

	if reg != nil {
		for _, handler := range []any{
			set.RefreshNavigation,
			set.InvalidateContent,
			set.ImportContent,
			set.SetPreview,
			set.ClearPreview,
		} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// RegisterRefreshCron schedules a navigation refresh with reg.
func RegisterRefreshCron(reg CronRegistrar, handler *RefreshNavigationHandler, cfg command.HandlerConfig, msg RefreshNavigationCommand) error {
	if reg == nil || handler == nil {
		return nil
	}
	return reg(cfg, func() error {
		return handler.Execute(context.Background(), msg)
	})
}
