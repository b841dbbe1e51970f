package routes

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

var (
	ErrUnknownParamType   = errors.New("routes: unknown parameter type")
	ErrUnbalancedBrackets = errors.New("routes: unbalanced brackets")
	ErrInvalidParamName   = errors.New("routes: invalid parameter name")
	ErrDuplicateParam     = errors.New("routes: duplicate parameter name")
	ErrMisplacedOptional  = errors.New("routes: optional parameter must be a trailing /[t:name]? segment")
	ErrMisplacedCatchAll  = errors.New("routes: catch-all parameter must be the last segment")
	ErrMissingParam       = errors.New("routes: missing parameter value")
	ErrInvalidParamValue  = errors.New("routes: parameter value does not match its type")
)

// CompileError describes why a template could not be compiled.
type CompileError struct {
	Template string
	Offset   int
	Err      error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%v at offset %d in %q", e.Err, e.Offset, e.Template)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// WrapCompileError tags a compile failure with the validation category so
// callers at the service boundary can classify it.
func WrapCompileError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "route template failed to compile").
		WithTextCode("ROUTE_COMPILE_FAILED")
}
