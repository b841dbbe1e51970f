package sitecmd

import (
	"context"
	"errors"
	"testing"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-sitekit/internal/commands/fixtures"
)

func TestRegisterSiteCommands(t *testing.T) {
	f := newSiteFixture(t)
	registry := fixtures.NewRecordingRegistry()

	set, err := RegisterSiteCommands(registry, Dependencies{
		Navigation: f.nav,
		Content:    f.resolver,
		Previews:   f.resolver,
	}, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(registry.Handlers) != 5 {
		t.Fatalf("expected 5 registered handlers, got %d", len(registry.Handlers))
	}
	if set.SetPreview == nil || set.RefreshNavigation == nil {
		t.Fatalf("expected handler set to be populated")
	}
}

func TestRegisterSiteCommandsRequiresDependencies(t *testing.T) {
	if _, err := RegisterSiteCommands(nil, Dependencies{}, nil); err == nil {
		t.Fatalf("expected missing dependencies to fail")
	}

	f := newSiteFixture(t)
	registry := fixtures.NewRecordingRegistry()
	registry.Err = errors.New("registry closed")
	_, err := RegisterSiteCommands(registry, Dependencies{Navigation: f.nav, Content: f.resolver, Previews: f.resolver}, nil)
	if err == nil {
		t.Fatalf("expected registry failure to propagate")
	}
}

func TestRegisterRefreshCron(t *testing.T) {
	f := newSiteFixture(t)
	if _, err := f.nav.Snapshot(context.Background(), "en"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	handler := NewRefreshNavigationHandler(f.nav, f.resolver, nil, nil)
	recorder := fixtures.NewCronRecorder()

	cfg := command.HandlerConfig{Expression: "@every 5m"}
	if err := RegisterRefreshCron(recorder.Registrar(), handler, cfg, RefreshNavigationCommand{Language: "en"}); err != nil {
		t.Fatalf("register cron: %v", err)
	}
	if len(recorder.Registrations) != 1 || recorder.Registrations[0].Config.Expression != "@every 5m" {
		t.Fatalf("unexpected registrations %+v", recorder.Registrations)
	}
	if err := recorder.Run(0); err != nil {
		t.Fatalf("run cron job: %v", err)
	}

	if err := RegisterRefreshCron(nil, handler, cfg, RefreshNavigationCommand{}); err != nil {
		t.Fatalf("nil registrar should be ignored: %v", err)
	}
}
