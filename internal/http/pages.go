package http

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-sitekit/internal/navigation"
	"github.com/goliatone/go-sitekit/internal/resolver"
	"github.com/goliatone/go-sitekit/internal/styles"
)

const staleHeader = "X-Content-Stale"

var pageLayout = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="{{ .Language }}">
<head><meta charset="utf-8"><title>{{ .Title }}</title></head>
<body>
<nav class="site-menu">{{ range .Menu }}<a href="{{ .Href }}"{{ if .Active }} aria-current="page"{{ end }}>{{ .Label }}</a>{{ end }}</nav>
<main data-page="{{ .Keyword }}">{{ .Body }}</main>
</body>
</html>
`))

type menuLink struct {
	Href   string
	Label  string
	Active bool
}

type pageView struct {
	Language string
	Title    string
	Keyword  string
	Menu     []menuLink
	Body     template.HTML
}

type contentResponse struct {
	Keyword  string            `json:"keyword"`
	Language string            `json:"language"`
	PageID   int64             `json:"page_id"`
	Params   map[string]string `json:"params,omitempty"`
	Origin   string            `json:"origin"`
	Stale    bool              `json:"stale,omitempty"`
	Nodes    []*styles.Node    `json:"nodes"`
}

func (api *SiteAPI) handlePage(w http.ResponseWriter, r *http.Request) {
	language := api.language(r)
	path := "/" + strings.TrimPrefix(chi.URLParam(r, "*"), "/")

	result := api.resolver.ResolvePath(r.Context(), path, language)
	switch result.State {
	case resolver.StateReady:
	case resolver.StateLoading:
		// The caller went away; the fetch continues in the background.
		writeJSON(w, http.StatusAccepted, errorResponse{Error: "loading"})
		return
	default:
		writeError(w, result.Err)
		return
	}
	if result.Stale {
		w.Header().Set(staleHeader, "true")
		api.logger.Warn("http.page.stale", "path", path, "language", language, "error", result.Err)
	}

	if r.URL.Query().Get("format") == "json" {
		nodes := result.Nodes
		if nodes == nil {
			nodes = []*styles.Node{}
		}
		writeJSON(w, http.StatusOK, contentResponse{
			Keyword:  result.Keyword,
			Language: result.Language,
			PageID:   result.PageID,
			Params:   result.Params,
			Origin:   string(result.Origin),
			Stale:    result.Stale,
			Nodes:    nodes,
		})
		return
	}

	out, err := api.renderer.Render(r.Context(), result.Nodes)
	if err != nil {
		writeError(w, err)
		return
	}
	if fallbacks := out.FallbackCount(); fallbacks > 0 {
		api.logger.Debug("http.page.fallbacks", "keyword", result.Keyword, "count", fallbacks)
	}

	view := pageView{
		Language: result.Language,
		Title:    result.Keyword,
		Keyword:  result.Keyword,
		Body:     out.HTML,
	}
	if snap := api.nav.Current(result.Language); snap != nil {
		if record, ok := snap.Lookup(result.Keyword); ok && record.Title != "" {
			view.Title = record.Title
		}
		view.Menu = menuLinks(snap, result.Keyword)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := pageLayout.Execute(w, view); err != nil {
		api.logger.Error("http.page.render_failed", "keyword", result.Keyword, "error", err)
	}
}

func menuLinks(snap *navigation.Snapshot, active string) []menuLink {
	links := make([]menuLink, 0, len(snap.Menu))
	for _, record := range snap.Menu {
		href, err := snap.Path(record.Keyword, nil)
		if err != nil {
			continue
		}
		label := record.Title
		if label == "" {
			label = record.Keyword
		}
		links = append(links, menuLink{Href: href, Label: label, Active: record.Keyword == active})
	}
	return links
}
