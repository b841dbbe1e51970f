package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-sitekit/internal/navigation"
)

type pageResponse struct {
	ID             int64  `json:"id"`
	Keyword        string `json:"keyword"`
	Title          string `json:"title,omitempty"`
	URL            string `json:"url"`
	Path           string `json:"path,omitempty"`
	Link           string `json:"link,omitempty"`
	NavPosition    *int   `json:"nav_position,omitempty"`
	FooterPosition *int   `json:"footer_position,omitempty"`
	Headless       bool   `json:"headless,omitempty"`
}

type treeNodeResponse struct {
	pageResponse
	Children []treeNodeResponse `json:"children,omitempty"`
}

type issueResponse struct {
	Kind     string `json:"kind"`
	PageID   int64  `json:"page_id"`
	Keyword  string `json:"keyword,omitempty"`
	ParentID int64  `json:"parent_id,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

type navigationResponse struct {
	Language string             `json:"language"`
	BuiltAt  time.Time          `json:"built_at"`
	Size     int                `json:"size"`
	Tree     []treeNodeResponse `json:"tree"`
	Issues   []issueResponse    `json:"issues,omitempty"`
}

type listResponse struct {
	Language string         `json:"language"`
	Pages    []pageResponse `json:"pages"`
}

// toPage renders a record with its built path and link. Routes that need
// parameters have neither.
func toPage(snap *navigation.Snapshot, record navigation.PageRecord) pageResponse {
	out := pageResponse{
		ID:             record.ID,
		Keyword:        record.Keyword,
		Title:          record.Title,
		URL:            record.Route(),
		NavPosition:    record.NavPosition,
		FooterPosition: record.FooterPosition,
		Headless:       record.IsHeadless,
	}
	if path, err := snap.Path(record.Keyword, nil); err == nil {
		out.Path = path
	}
	if link, err := snap.Link(record.Keyword, nil); err == nil {
		out.Link = link
	}
	return out
}

func toTree(snap *navigation.Snapshot, nodes []*navigation.NavigationNode) []treeNodeResponse {
	out := make([]treeNodeResponse, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, treeNodeResponse{
			pageResponse: toPage(snap, node.Record),
			Children:     toTree(snap, node.Children),
		})
	}
	return out
}

func toList(snap *navigation.Snapshot, records []navigation.PageRecord) listResponse {
	pages := make([]pageResponse, 0, len(records))
	for _, record := range records {
		pages = append(pages, toPage(snap, record))
	}
	return listResponse{Language: snap.Language, Pages: pages}
}

func (api *SiteAPI) snapshot(w http.ResponseWriter, r *http.Request) (*navigation.Snapshot, bool) {
	snap, err := api.nav.Snapshot(r.Context(), api.language(r))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return snap, true
}

func (api *SiteAPI) handleNavigation(w http.ResponseWriter, r *http.Request) {
	snap, ok := api.snapshot(w, r)
	if !ok {
		return
	}
	resp := navigationResponse{
		Language: snap.Language,
		BuiltAt:  snap.BuiltAt,
		Size:     snap.Size(),
		Tree:     toTree(snap, snap.Roots),
	}
	if parseBoolQuery(r.URL.Query().Get("issues"), false) {
		for _, issue := range snap.Issues {
			resp.Issues = append(resp.Issues, issueResponse{
				Kind:     string(issue.Kind),
				PageID:   issue.PageID,
				Keyword:  issue.Keyword,
				ParentID: issue.ParentID,
				Detail:   issue.Detail,
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (api *SiteAPI) handleMenu(w http.ResponseWriter, r *http.Request) {
	snap, ok := api.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toList(snap, snap.Menu))
}

func (api *SiteAPI) handleFooter(w http.ResponseWriter, r *http.Request) {
	snap, ok := api.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toList(snap, snap.Footer))
}

func (api *SiteAPI) handleBreadcrumbs(w http.ResponseWriter, r *http.Request) {
	snap, ok := api.snapshot(w, r)
	if !ok {
		return
	}
	keyword := chi.URLParam(r, "keyword")
	chain := snap.Breadcrumbs(keyword)
	if chain == nil {
		writeError(w, &navigation.NotFoundError{Resource: "page", Key: keyword})
		return
	}
	writeJSON(w, http.StatusOK, toList(snap, chain))
}
