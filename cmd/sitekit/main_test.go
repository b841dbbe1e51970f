package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-sitekit/cmd/sitekit/internal/bootstrap"
	"github.com/goliatone/go-sitekit/pkg/testsupport"
)

func writeSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"home.md":  "---\nid: 1\nkeyword: home\ntitle: Home\nurl: /\nnav_position: 0\n---\nWelcome.\n",
		"about.md": "---\nid: 2\nkeyword: about\ntitle: About\nurl: /about\nnav_position: 1\n---\nWe *build* sites.\n",
		"team.md":  "---\nid: 3\nkeyword: team\ntitle: Team\nurl: /about/team\nparent: about\n---\nPeople.\n",
	}
	for name, body := range files {
		testsupport.WriteFile(t, dir, name, body)
	}
	return dir
}

func TestRunRequiresCommand(t *testing.T) {
	if err := run(nil, &bytes.Buffer{}); err == nil || !strings.Contains(err.Error(), "usage") {
		t.Fatalf("expected usage error, got %v", err)
	}
	if err := run([]string{"publish"}, &bytes.Buffer{}); err == nil || !strings.Contains(err.Error(), `unknown command "publish"`) {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestRunImportPrintsSummary(t *testing.T) {
	dir := writeSite(t)
	var out bytes.Buffer
	if err := run([]string{"import", "-content-dir", dir, "-dry-run"}, &out); err != nil {
		t.Fatalf("import: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "page 2 about [en] /about") {
		t.Fatalf("expected about page line, got %s", text)
	}
	if !strings.Contains(text, "imported 3 pages in en (dry run: true)") {
		t.Fatalf("expected summary line, got %s", text)
	}
}

func TestRunTreePrintsNestedPages(t *testing.T) {
	dir := writeSite(t)
	var out bytes.Buffer
	if err := run([]string{"tree", "-content-dir", dir}, &out); err != nil {
		t.Fatalf("tree: %v", err)
	}
	want := "home /\nabout /about\n  team /about/team\n"
	if out.String() != want {
		t.Fatalf("unexpected tree:\n%s\nwant:\n%s", out.String(), want)
	}
}

func TestRunResolveRendersContent(t *testing.T) {
	dir := writeSite(t)

	var html bytes.Buffer
	if err := run([]string{"resolve", "-content-dir", dir, "-path", "/about"}, &html); err != nil {
		t.Fatalf("resolve html: %v", err)
	}
	if !strings.Contains(html.String(), "<em>build</em>") {
		t.Fatalf("expected rendered markdown, got %s", html.String())
	}

	var data bytes.Buffer
	if err := run([]string{"resolve", "-content-dir", dir, "-path", "/about/team", "-format", "json"}, &data); err != nil {
		t.Fatalf("resolve json: %v", err)
	}
	if !strings.Contains(data.String(), `"keyword": "team"`) {
		t.Fatalf("expected team keyword, got %s", data.String())
	}

	if err := run([]string{"resolve", "-content-dir", dir, "-path", "/missing"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unmatched path")
	}
}

func TestRunSurfacesBootstrapErrors(t *testing.T) {
	original := moduleBuilder
	defer func() { moduleBuilder = original }()

	moduleBuilder = func(bootstrap.Options) (*bootstrap.Module, error) {
		return nil, errors.New("boom")
	}
	err := run([]string{"import", "-content-dir", t.TempDir()}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "bootstrap module: boom") {
		t.Fatalf("expected bootstrap error, got %v", err)
	}
}
