package sitecmd

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-sitekit/internal/styles"
)

const (
	refreshNavigationMessageType = "sitekit.navigation.refresh"
	invalidateContentMessageType = "sitekit.content.invalidate"
	importContentMessageType     = "sitekit.content.import"
	setPreviewMessageType        = "sitekit.preview.set"
	clearPreviewMessageType      = "sitekit.preview.clear"
)

var keywordPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

var languageRule = validation.Length(0, 16)

func keywordRules(field *string) *validation.FieldRules {
	return validation.Field(field,
		validation.Required,
		validation.Length(1, 128),
		validation.Match(keywordPattern).Error("must start with a letter or digit and contain only letters, digits, '.', '_' or '-'"),
	)
}

// RefreshNavigationCommand rebuilds navigation snapshots. An empty Language
// refreshes every language that has a snapshot.
type RefreshNavigationCommand struct {
	Language string `json:"language,omitempty"`
	// InvalidateContent also drops the cached content of the refreshed
	// languages.
	InvalidateContent bool `json:"invalidate_content,omitempty"`
}

func (RefreshNavigationCommand) Type() string { return refreshNavigationMessageType }

func (cmd RefreshNavigationCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Language, languageRule),
	)
}

// InvalidateContentCommand drops cached content. A zero PageID invalidates
// the whole language; an empty Language with a zero PageID clears everything.
type InvalidateContentCommand struct {
	PageID   int64  `json:"page_id,omitempty"`
	Language string `json:"language,omitempty"`
}

func (InvalidateContentCommand) Type() string { return invalidateContentMessageType }

func (cmd InvalidateContentCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.PageID, validation.Min(int64(0))),
		validation.Field(&cmd.Language, languageRule),
	)
}

// ImportContentCommand imports a directory of markdown pages.
type ImportContentCommand struct {
	Directory string `json:"directory"`
	DryRun    bool   `json:"dry_run,omitempty"`
	Prune     bool   `json:"prune,omitempty"`
}

func (ImportContentCommand) Type() string { return importContentMessageType }

func (cmd ImportContentCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("sitekit.content.import.directory_required", "directory is required")
			}
			return nil
		})),
	)
}

// SetPreviewCommand installs nodes as the content of Keyword until cleared.
type SetPreviewCommand struct {
	Keyword string         `json:"keyword"`
	Nodes   []*styles.Node `json:"nodes"`
}

func (SetPreviewCommand) Type() string { return setPreviewMessageType }

func (cmd SetPreviewCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		keywordRules(&cmd.Keyword),
		validation.Field(&cmd.Nodes, validation.By(func(any) error {
			if cmd.Nodes == nil {
				return errors.New("is required; send an empty list to preview an empty page")
			}
			return nil
		})),
	)
}

// ClearPreviewCommand removes the preview of Keyword.
type ClearPreviewCommand struct {
	Keyword string `json:"keyword"`
}

func (ClearPreviewCommand) Type() string { return clearPreviewMessageType }

func (cmd ClearPreviewCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		keywordRules(&cmd.Keyword),
	)
}
