package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-sitekit/internal/adapters/httpsource"
	"github.com/goliatone/go-sitekit/internal/navigation"
	"github.com/goliatone/go-sitekit/internal/styles"
)

// handleSourcePages lists the pages of the current snapshot in the wire
// format read by httpsource.Client.
func (api *SiteAPI) handleSourcePages(w http.ResponseWriter, r *http.Request) {
	snap, ok := api.snapshot(w, r)
	if !ok {
		return
	}
	records := navigation.Flatten(snap.Roots)
	pages := make([]httpsource.PageDTO, 0, len(records))
	for _, record := range records {
		pages = append(pages, httpsource.PageToDTO(record))
	}
	writeJSON(w, http.StatusOK, pages)
}

func (api *SiteAPI) handleSourceContent(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	nodes, err := api.content.FetchContent(r.Context(), id, api.language(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if nodes == nil {
		nodes = []*styles.Node{}
	}
	writeJSON(w, http.StatusOK, nodes)
}
