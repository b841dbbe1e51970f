package httpsource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-sitekit/internal/navigation"
	"github.com/goliatone/go-sitekit/internal/resolver"
	"github.com/goliatone/go-sitekit/internal/styles"
)

func intPtr(v int) *int { return &v }

func idPtr(v int64) *int64 { return &v }

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/pages", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Site") != "demo" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		pages := []PageDTO{
			{ID: 1, Keyword: "home", URL: "/", NavPosition: intPtr(0), Title: "Home"},
			{ID: 2, Keyword: "about", URL: "/about-us", NavPosition: intPtr(1)},
			{ID: 3, Keyword: "team", Parent: idPtr(2), Language: r.URL.Query().Get("language")},
		}
		_ = json.NewEncoder(w).Encode(pages)
	})
	mux.HandleFunc("GET /api/pages/{id}/content", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "1":
			_, _ = w.Write([]byte(`[null, {"id": {"content": 7}, "style_name": "heading", "text": {"content": "Hi ` + r.URL.Query().Get("language") + `"}}]`))
		case "2":
			_, _ = w.Write([]byte(`{"broken"`))
		default:
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClientListPages(t *testing.T) {
	server := newBackend(t)
	client, err := New(server.URL+"/api/", WithHeader("X-Site", "demo"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	pages, err := client.ListPages(context.Background(), "es")
	if err != nil {
		t.Fatalf("list pages: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if pages[0].Language != "es" || pages[0].NavPosition == nil || *pages[0].NavPosition != 0 {
		t.Fatalf("unexpected first page %+v", pages[0])
	}
	if pages[2].Parent == nil || *pages[2].Parent != 2 {
		t.Fatalf("expected team parent to be 2, got %v", pages[2].Parent)
	}
}

func TestClientFetchContentKeepsNullSlots(t *testing.T) {
	server := newBackend(t)
	client, err := New(server.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	nodes, err := client.FetchContent(context.Background(), 1, "en")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(nodes) != 2 || nodes[0] != nil {
		t.Fatalf("expected a null slot followed by a node, got %+v", nodes)
	}
	if nodes[1].Kind != styles.KindHeading || nodes[1].Text("text", "") != "Hi en" {
		t.Fatalf("unexpected node %+v", nodes[1])
	}
}

func TestClientErrors(t *testing.T) {
	server := newBackend(t)
	client, err := New(server.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.ListPages(context.Background(), "en")
	var status *StatusError
	if !errors.As(err, &status) || status.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 status error, got %v", err)
	}

	_, err = client.FetchContent(context.Background(), 2, "en")
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category for bad JSON, got %v", err)
	}

	_, err = client.FetchContent(context.Background(), 9, "en")
	if !errors.As(err, &status) || status.Code != http.StatusNotFound {
		t.Fatalf("expected 404 status error, got %v", err)
	}

	if _, err := New(" "); !errors.Is(err, ErrBaseURLRequired) {
		t.Fatalf("expected ErrBaseURLRequired, got %v", err)
	}
}

func TestClientBacksNavigationAndResolver(t *testing.T) {
	server := newBackend(t)
	client, err := New(server.URL+"/api", WithHeader("X-Site", "demo"), WithHTTPClient(&http.Client{Timeout: time.Second}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	nav, err := navigation.NewService(client)
	if err != nil {
		t.Fatalf("navigation: %v", err)
	}
	res, err := resolver.NewResolver(nav, client)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}

	result := res.ResolvePath(context.Background(), "/", "en")
	if !result.Ready() || result.Keyword != "home" || len(result.Nodes) != 2 {
		t.Fatalf("expected home to resolve through the client, got %+v", result)
	}
}

func TestPageDTORoundTrip(t *testing.T) {
	record := navigation.PageRecord{ID: 4, Keyword: "faq", Parent: idPtr(1), FooterPosition: intPtr(2), IsHeadless: true, Language: "en"}
	dto := PageToDTO(record)
	back := dto.Record()
	if back.ID != 4 || !back.IsHeadless || back.Parent == nil || *back.Parent != 1 || *back.FooterPosition != 2 {
		t.Fatalf("unexpected record %+v", back)
	}
	*dto.Parent = 9
	if *record.Parent != 1 {
		t.Fatalf("expected DTO to own its pointers")
	}
}
