package bootstrap

import (
	"errors"
	"reflect"
	"testing"

	"github.com/goliatone/go-sitekit"
)

func TestBuildModuleEnablesImporter(t *testing.T) {
	module, err := BuildModule(Options{ContentDir: t.TempDir(), DefaultLanguage: "es", Languages: []string{"es", "en"}})
	if err != nil {
		t.Fatalf("BuildModule returned error: %v", err)
	}
	t.Cleanup(func() { _ = module.Module.Close() })

	if module.Module.Importer() == nil {
		t.Fatal("expected importer to be enabled")
	}
	if module.Logger == nil {
		t.Fatal("expected CLI logger")
	}
	if got := module.Module.Container().Config.DefaultLanguage; got != "es" {
		t.Fatalf("expected default language es, got %s", got)
	}
}

func TestBuildModuleRejectsInvalidStorage(t *testing.T) {
	_, err := BuildModule(Options{StorageProvider: "postgres"})
	if !errors.Is(err, sitekit.ErrStorageDSNRequired) {
		t.Fatalf("expected ErrStorageDSNRequired, got %v", err)
	}
}

func TestSplitLanguages(t *testing.T) {
	if got := SplitLanguages(" en, es ,,fr "); !reflect.DeepEqual(got, []string{"en", "es", "fr"}) {
		t.Fatalf("unexpected languages %v", got)
	}
	if got := SplitLanguages("  "); got != nil {
		t.Fatalf("expected nil for blank input, got %v", got)
	}
}
