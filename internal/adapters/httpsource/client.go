package httpsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-sitekit/internal/logging"
	"github.com/goliatone/go-sitekit/internal/navigation"
	"github.com/goliatone/go-sitekit/internal/styles"
	"github.com/goliatone/go-sitekit/pkg/interfaces"
)

const (
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

var ErrBaseURLRequired = errors.New("httpsource: base URL is required")

// StatusError reports a non-2xx response from the backend.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpsource: %s returned %d", e.URL, e.Code)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger overrides the client logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// Client reads pages and content from a remote site API. It serves as both
// a navigation.PageSource and a resolver.ContentSource.
//
//	GET {base}/pages?language=xx              -> [page, ...]
//	GET {base}/pages/{id}/content?language=xx -> [node, ...]
type Client struct {
	base    *url.URL
	http    *http.Client
	headers http.Header
	logger  interfaces.Logger
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("httpsource: parse base URL: %w", err)
	}
	c := &Client{
		base:    base,
		http:    &http.Client{Timeout: DefaultTimeout},
		headers: http.Header{},
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// PageDTO is the wire form of a page record.
type PageDTO struct {
	ID             int64  `json:"id"`
	Keyword        string `json:"keyword"`
	URL            string `json:"url,omitempty"`
	Parent         *int64 `json:"parent,omitempty"`
	NavPosition    *int   `json:"nav_position,omitempty"`
	FooterPosition *int   `json:"footer_position,omitempty"`
	Headless       bool   `json:"headless,omitempty"`
	Language       string `json:"language,omitempty"`
	Title          string `json:"title,omitempty"`
}

// PageToDTO converts a record to its wire form.
func PageToDTO(record navigation.PageRecord) PageDTO {
	clone := record.Clone()
	return PageDTO{
		ID:             clone.ID,
		Keyword:        clone.Keyword,
		URL:            clone.URL,
		Parent:         clone.Parent,
		NavPosition:    clone.NavPosition,
		FooterPosition: clone.FooterPosition,
		Headless:       clone.IsHeadless,
		Language:       clone.Language,
		Title:          clone.Title,
	}
}

// Record converts the wire form to a page record.
func (p PageDTO) Record() navigation.PageRecord {
	return navigation.PageRecord{
		ID:             p.ID,
		Keyword:        p.Keyword,
		URL:            p.URL,
		Parent:         p.Parent,
		NavPosition:    p.NavPosition,
		FooterPosition: p.FooterPosition,
		IsHeadless:     p.Headless,
		Language:       p.Language,
		Title:          p.Title,
	}
}

// ListPages fetches the flat page list of language.
func (c *Client) ListPages(ctx context.Context, language string) ([]navigation.PageRecord, error) {
	body, err := c.get(ctx, "pages", language)
	if err != nil {
		return nil, err
	}
	var pages []PageDTO
	if err := json.Unmarshal(body, &pages); err != nil {
		return nil, decodeError(err)
	}
	out := make([]navigation.PageRecord, 0, len(pages))
	for _, page := range pages {
		record := page.Record()
		if record.Language == "" {
			record.Language = language
		}
		out = append(out, record)
	}
	return out, nil
}

// FetchContent fetches the content tree of one page. Null slots and
// malformed nodes are kept as the decoder produces them.
func (c *Client) FetchContent(ctx context.Context, pageID int64, language string) ([]*styles.Node, error) {
	body, err := c.get(ctx, "pages/"+strconv.FormatInt(pageID, 10)+"/content", language)
	if err != nil {
		return nil, err
	}
	nodes, err := styles.DecodeNodes(body)
	if err != nil {
		return nil, decodeError(err)
	}
	return nodes, nil
}

func (c *Client) get(ctx context.Context, path, language string) ([]byte, error) {
	target := c.base.JoinPath(path)
	if language = strings.TrimSpace(language); language != "" {
		query := target.Query()
		query.Set("language", language)
		target.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range c.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("httpsource.request.failed", "url", target.String(), "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	c.logger.Debug("httpsource.request.completed",
		"url", target.String(),
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(started),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: target.String()}
	}
	return body, nil
}

func decodeError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "httpsource: response body is not valid JSON").
		WithTextCode("REMOTE_PAYLOAD_INVALID")
}
