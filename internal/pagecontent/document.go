package pagecontent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-sitekit/internal/styles"
)

var (
	ErrInvalidPayload = errors.New("pagecontent: payload must be a JSON array of content nodes")
	ErrInvalidPageID  = errors.New("pagecontent: page id must be positive")
)

const payloadInvalidCode = "CONTENT_PAYLOAD_INVALID"

// Document is the stored content tree of one page in one language. Payload
// keeps the exact bytes that were saved so null slots and malformed nodes
// reach the renderer unchanged.
type Document struct {
	PageID    int64
	Language  string
	Payload   json.RawMessage
	UpdatedAt time.Time
}

// NewDocument encodes nodes into a document payload.
func NewDocument(pageID int64, language string, nodes []*styles.Node) (Document, error) {
	payload, err := styles.EncodeNodes(nodes)
	if err != nil {
		return Document{}, fmt.Errorf("pagecontent: encode nodes: %w", err)
	}
	return Document{PageID: pageID, Language: language, Payload: payload}, nil
}

// Nodes decodes the payload into a fresh node tree.
func (d Document) Nodes() ([]*styles.Node, error) {
	return styles.DecodeNodes(d.Payload)
}

// Validate checks that the document can be stored.
func (d Document) Validate() error {
	if d.PageID <= 0 {
		return goerrors.Wrap(ErrInvalidPageID, goerrors.CategoryValidation, "content document failed validation").
			WithTextCode(payloadInvalidCode)
	}
	if _, err := styles.DecodeNodes(d.Payload); err != nil {
		return goerrors.Wrap(fmt.Errorf("%w: %v", ErrInvalidPayload, err), goerrors.CategoryValidation, "content document failed validation").
			WithTextCode(payloadInvalidCode)
	}
	return nil
}

func (d Document) clone() Document {
	out := d
	out.Language = strings.TrimSpace(d.Language)
	out.Payload = bytes.Clone(d.Payload)
	if len(out.Payload) == 0 {
		out.Payload = json.RawMessage("[]")
	}
	return out
}

// NotFoundError is returned when no document exists for a page.
type NotFoundError struct {
	PageID   int64
	Language string
}

func (e *NotFoundError) Error() string {
	key := strconv.FormatInt(e.PageID, 10)
	if e.Language != "" {
		key = e.Language + ":" + key
	}
	return fmt.Sprintf("content for page %q not found", key)
}

// IsNotFound reports whether err carries a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
