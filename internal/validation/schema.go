package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrSchemaInvalid    = errors.New("validation: schema invalid")
	ErrSchemaValidation = errors.New("validation: document does not match schema")
)

// Issue is one leaf failure reported by the schema validator.
type Issue struct {
	Location string
	Message  string
}

func (i Issue) String() string {
	location := strings.TrimSpace(i.Location)
	if !strings.HasPrefix(location, "#") {
		location = "#" + location
	}
	if i.Message == "" {
		return location
	}
	return location + ": " + i.Message
}

// Error lists the issues found while validating a document against a named
// schema. It matches ErrSchemaValidation with errors.Is.
type Error struct {
	Schema string
	Issues []Issue
}

func (e *Error) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("%s (%s)", ErrSchemaValidation, e.Schema)
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return e.Schema + ": " + strings.Join(parts, "; ")
}

func (e *Error) Unwrap() error {
	return ErrSchemaValidation
}

// Schema is a compiled JSON schema, safe for concurrent use.
type Schema struct {
	name     string
	compiled *jsonschema.Schema
}

// Compile turns a schema document into a validator labelled name.
func Compile(name string, document map[string]any) (*Schema, error) {
	if len(document) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrSchemaInvalid, name)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "schema"
	}

	encoded, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaInvalid, name, err)
	}
	resource := name + ".json"
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(resource, bytes.NewReader(encoded)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaInvalid, name, err)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaInvalid, name, err)
	}
	return &Schema{name: name, compiled: compiled}, nil
}

// MustCompile is Compile for schemas declared in code.
func MustCompile(name string, document map[string]any) *Schema {
	schema, err := Compile(name, document)
	if err != nil {
		panic(err)
	}
	return schema
}

// Name returns the schema label.
func (s *Schema) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Validate checks a decoded JSON value. A nil schema accepts everything.
func (s *Schema) Validate(document any) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	err := s.compiled.Validate(document)
	if err == nil {
		return nil
	}
	var failure *jsonschema.ValidationError
	if !errors.As(err, &failure) {
		return &Error{Schema: s.name, Issues: []Issue{{Message: err.Error()}}}
	}
	return &Error{Schema: s.name, Issues: leafIssues(failure, nil)}
}

func leafIssues(node *jsonschema.ValidationError, into []Issue) []Issue {
	if len(node.Causes) == 0 {
		return append(into, Issue{
			Location: strings.TrimSpace(node.InstanceLocation),
			Message:  strings.TrimSpace(node.Message),
		})
	}
	for _, cause := range node.Causes {
		into = leafIssues(cause, into)
	}
	return into
}
