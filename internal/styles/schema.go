package styles

import (
	"fmt"
	"sync"

	"github.com/goliatone/go-sitekit/internal/validation"
)

// requiredFields lists, per kind, the fields a node must carry and the JSON
// types accepted for their content.
var requiredFields = map[Kind]map[string][]string{
	KindCard:          {"title": {"string"}},
	KindHeading:       {"text": {"string"}},
	KindImage:         {"src": {"string"}},
	KindMarkdown:      {"body": {"string"}},
	KindTextarea:      {"text": {"string"}},
	KindFormLogViewer: {"form_id": {"number", "string"}},
}

// SchemaSet holds compiled per-kind schemas.
type SchemaSet struct {
	schemas map[Kind]*validation.Schema
}

var (
	builtinSchemasOnce sync.Once
	builtinSchemas     *SchemaSet
)

// BuiltinSchemas returns the schema set for the registered kinds. Kinds with
// no required fields have no schema.
func BuiltinSchemas() *SchemaSet {
	builtinSchemasOnce.Do(func() {
		set := &SchemaSet{schemas: make(map[Kind]*validation.Schema, len(requiredFields))}
		for kind, fields := range requiredFields {
			set.schemas[kind] = validation.MustCompile("styles."+string(kind), kindSchema(fields))
		}
		builtinSchemas = set
	})
	return builtinSchemas
}

// NewSchemaSet compiles caller supplied schemas keyed by kind. Entries
// override the builtin schema for the same kind.
func NewSchemaSet(documents map[Kind]map[string]any) (*SchemaSet, error) {
	base := BuiltinSchemas()
	set := &SchemaSet{schemas: make(map[Kind]*validation.Schema, len(base.schemas)+len(documents))}
	for kind, schema := range base.schemas {
		set.schemas[kind] = schema
	}
	for kind, document := range documents {
		compiled, err := validation.Compile("styles."+string(kind), document)
		if err != nil {
			return nil, fmt.Errorf("styles: schema for %s: %w", kind, err)
		}
		set.schemas[kind] = compiled
	}
	return set, nil
}

// Validate checks the node fields against the schema for its kind.
func (s *SchemaSet) Validate(node *Node) error {
	if s == nil || node == nil {
		return nil
	}
	schema, ok := s.schemas[node.Kind]
	if !ok {
		return nil
	}
	return schema.Validate(node.document())
}

func kindSchema(fields map[string][]string) map[string]any {
	required := make([]any, 0, len(fields))
	properties := make(map[string]any, len(fields))
	for name, types := range fields {
		required = append(required, name)
		accepted := make([]any, len(types))
		for i, typ := range types {
			accepted[i] = typ
		}
		properties[name] = map[string]any{
			"type":     "object",
			"required": []any{"content"},
			"properties": map[string]any{
				"content": map[string]any{"type": accepted},
				"meta":    map[string]any{"type": "string"},
				"type":    map[string]any{"type": "string"},
			},
		}
	}
	return map[string]any{
		"type":       "object",
		"required":   required,
		"properties": properties,
	}
}
