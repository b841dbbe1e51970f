package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	sitecmd "github.com/goliatone/go-sitekit/internal/commands/site"
	"github.com/goliatone/go-sitekit/internal/navigation"
	"github.com/goliatone/go-sitekit/internal/pagecontent"
	"github.com/goliatone/go-sitekit/internal/resolver"
)

// Request bodies are small command payloads; anything past this is rejected
// by the decoder as truncated JSON.
const maxRequestBytes = 4 << 20

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// errorClass maps a family of errors onto a status and a stable code.
type errorClass struct {
	status int
	code   string
	match  func(error) bool
}

var errorClasses = []errorClass{
	{http.StatusNotFound, "not_found", func(err error) bool {
		return navigation.IsNotFound(err) || pagecontent.IsNotFound(err) ||
			errors.Is(err, resolver.ErrPageNotFound) || errors.Is(err, resolver.ErrNoRouteMatch) ||
			goerrors.IsCategory(err, goerrors.CategoryNotFound)
	}},
	{http.StatusNotImplemented, "not_implemented", func(err error) bool {
		return errors.Is(err, sitecmd.ErrImporterDisabled)
	}},
	{http.StatusUnprocessableEntity, "validation_failed", func(err error) bool {
		return goerrors.IsCategory(err, goerrors.CategoryValidation)
	}},
	{http.StatusBadGateway, "content_unavailable", func(err error) bool {
		return errors.Is(err, resolver.ErrFetchFailed)
	}},
	{http.StatusServiceUnavailable, "service_unavailable", func(err error) bool {
		return goerrors.IsCategory(err, goerrors.CategoryExternal)
	}},
}

func classify(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}
	for _, class := range errorClasses {
		if class.match(err) {
			return class.status, errorResponse{Error: class.code, Message: err.Error()}
		}
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: err.Error()}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func decodeJSON(r *http.Request, into any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return io.EOF
	}
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(into)
}

// parseBoolQuery reads a boolean query flag, falling back on anything
// strconv does not accept.
func parseBoolQuery(raw string, fallback bool) bool {
	if parsed, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
		return parsed
	}
	return fallback
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}
