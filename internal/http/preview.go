package http

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	sitecmd "github.com/goliatone/go-sitekit/internal/commands/site"
	"github.com/goliatone/go-sitekit/internal/styles"
)

type previewPayload struct {
	Nodes []*styles.Node `json:"nodes"`
}

type invalidatePayload struct {
	PageID   int64  `json:"page_id,omitempty"`
	Language string `json:"language,omitempty"`
}

type refreshPayload struct {
	Language          string `json:"language,omitempty"`
	InvalidateContent bool   `json:"invalidate_content,omitempty"`
}

var errImportDirectoryOutside = errors.New("directory must be a relative path inside the content directory")

type importPayload struct {
	Directory string `json:"directory,omitempty"`
	DryRun    bool   `json:"dry_run,omitempty"`
	Prune     bool   `json:"prune,omitempty"`
}

func (api *SiteAPI) handlePreviewList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"keywords": api.resolver.Overrides()})
}

func (api *SiteAPI) handlePreviewSet(w http.ResponseWriter, r *http.Request) {
	var payload previewPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	cmd := sitecmd.SetPreviewCommand{Keyword: chi.URLParam(r, "keyword"), Nodes: payload.Nodes}
	if err := api.commands.SetPreview.Execute(r.Context(), cmd); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *SiteAPI) handlePreviewClear(w http.ResponseWriter, r *http.Request) {
	cmd := sitecmd.ClearPreviewCommand{Keyword: chi.URLParam(r, "keyword")}
	if err := api.commands.ClearPreview.Execute(r.Context(), cmd); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *SiteAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var payload refreshPayload
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &payload); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
			return
		}
	}
	cmd := sitecmd.RefreshNavigationCommand{Language: payload.Language, InvalidateContent: payload.InvalidateContent}
	if err := api.commands.RefreshNavigation.Execute(r.Context(), cmd); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"languages": api.nav.Languages()})
}

func (api *SiteAPI) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	var payload invalidatePayload
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &payload); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
			return
		}
	}
	cmd := sitecmd.InvalidateContentCommand{PageID: payload.PageID, Language: payload.Language}
	if err := api.commands.InvalidateContent.Execute(r.Context(), cmd); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *SiteAPI) handleImport(w http.ResponseWriter, r *http.Request) {
	if api.importDir == "" {
		writeError(w, sitecmd.ErrImporterDisabled)
		return
	}
	var payload importPayload
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &payload); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
			return
		}
	}
	dir, err := api.importDirectory(payload.Directory)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	cmd := sitecmd.ImportContentCommand{Directory: dir, DryRun: payload.DryRun, Prune: payload.Prune}
	if err := api.commands.ImportContent.Execute(r.Context(), cmd); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// importDirectory confines a requested directory to the configured content
// directory. An empty request imports the content directory itself.
func (api *SiteAPI) importDirectory(requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" || requested == "." {
		return api.importDir, nil
	}
	requested = filepath.FromSlash(requested)
	if !filepath.IsLocal(requested) {
		return "", errImportDirectoryOutside
	}
	return filepath.Join(api.importDir, requested), nil
}
