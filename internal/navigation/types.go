package navigation

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-sitekit/internal/routes"
)

// PageRecord is one entry of the flat page list. URL holds the raw route
// template and may contain bracket parameters.
type PageRecord struct {
	ID             int64
	Keyword        string
	URL            string
	Parent         *int64
	NavPosition    *int
	FooterPosition *int
	IsHeadless     bool
	Language       string
	Title          string
}

// NavigationNode is a page placed in the navigation tree. Nodes hold value
// copies of their records.
type NavigationNode struct {
	Record   PageRecord
	Children []*NavigationNode
}

var keywordPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Validate checks the record fields that persistence and import rely on.
func (r PageRecord) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.Keyword,
			validation.Required,
			validation.Length(1, 128),
			validation.Match(keywordPattern).Error("must start with a letter or digit and contain only letters, digits, '.', '_' or '-'"),
		),
		validation.Field(&r.URL, validation.Length(0, 512), validation.By(validateTemplate)),
		validation.Field(&r.Parent, validation.By(func(value any) error {
			if r.Parent != nil && *r.Parent == r.ID {
				return errors.New("must not reference the page itself")
			}
			return nil
		})),
		validation.Field(&r.Language, validation.Length(0, 16)),
	)
}

func validateTemplate(value any) error {
	raw, _ := value.(string)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	_, err := routes.Compile(raw)
	return err
}

// Route returns the template used for matching. Pages without a URL are
// served at /<keyword>.
func (r PageRecord) Route() string {
	if trimmed := strings.TrimSpace(r.URL); trimmed != "" {
		return trimmed
	}
	return "/" + r.Keyword
}

// Clone returns a copy that shares no pointers with r.
func (r PageRecord) Clone() PageRecord {
	out := r
	if r.Parent != nil {
		parent := *r.Parent
		out.Parent = &parent
	}
	if r.NavPosition != nil {
		pos := *r.NavPosition
		out.NavPosition = &pos
	}
	if r.FooterPosition != nil {
		pos := *r.FooterPosition
		out.FooterPosition = &pos
	}
	return out
}

// InMenu reports whether the page is listed in the main menu.
func (r PageRecord) InMenu() bool {
	return r.NavPosition != nil && !r.IsHeadless
}

// InFooter reports whether the page is listed in the footer.
func (r PageRecord) InFooter() bool {
	return r.FooterPosition != nil && !r.IsHeadless
}

// IssueKind classifies a data-integrity problem found while building.
type IssueKind string

const (
	IssueOrphanParent     IssueKind = "orphan_parent"
	IssueParentCycle      IssueKind = "parent_cycle"
	IssueDuplicateID      IssueKind = "duplicate_id"
	IssueDuplicateKeyword IssueKind = "duplicate_keyword"
)

// Issue is a recovered data-integrity problem.
type Issue struct {
	Kind     IssueKind
	PageID   int64
	Keyword  string
	ParentID int64
	Detail   string
}

// Int returns a pointer to v. It is a convenience for building records.
func Int(v int) *int {
	return &v
}

// ID returns a pointer to v. It is a convenience for building records.
func ID(v int64) *int64 {
	return &v
}
