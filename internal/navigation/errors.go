package navigation

import (
	"errors"
	"fmt"
	"strconv"

	goerrors "github.com/goliatone/go-errors"
)

var (
	ErrPageSourceRequired = errors.New("navigation: page source is required")
	ErrInvalidRecord      = errors.New("navigation: invalid page record")
)

const pageInvalidCode = "PAGE_RECORD_INVALID"

// NotFoundError is returned when a page cannot be located.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// IsNotFound reports whether err carries a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func invalidRecord(err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(fmt.Errorf("%w: %v", ErrInvalidRecord, err), goerrors.CategoryValidation, "page record failed validation").
		WithTextCode(pageInvalidCode)
}

func pageKeyString(language string, id int64) string {
	key := strconv.FormatInt(id, 10)
	if language == "" {
		return key
	}
	return language + ":" + key
}
