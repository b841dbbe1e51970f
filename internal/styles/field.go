package styles

import (
	"strconv"
	"strings"
)

// Field is a named, typed value bound to a style node. A field that is not
// set on a node is represented by the key being absent from Node.Fields, never
// by a Field with a nil Content.
type Field[T any] struct {
	Content T      `json:"content"`
	Meta    string `json:"meta,omitempty"`
	Type    string `json:"type,omitempty"`
}

// NewField wraps content in a Field with no metadata.
func NewField[T any](content T) Field[T] {
	return Field[T]{Content: content}
}

// FieldValue reads the named field and converts its content to T. Missing
// fields and content that cannot be represented as T return fallback.
func FieldValue[T any](node *Node, name string, fallback T) T {
	if node == nil {
		return fallback
	}
	field, ok := node.Fields[name]
	if !ok {
		return fallback
	}
	if typed, ok := field.Content.(T); ok {
		return typed
	}
	return fallback
}

// Field returns the raw field stored under name.
func (n *Node) Field(name string) (Field[any], bool) {
	if n == nil || n.Fields == nil {
		return Field[any]{}, false
	}
	field, ok := n.Fields[name]
	return field, ok
}

// Has reports whether the node carries the named field.
func (n *Node) Has(name string) bool {
	_, ok := n.Field(name)
	return ok
}

// Text returns the field content as a string.
func (n *Node) Text(name, fallback string) string {
	field, ok := n.Field(name)
	if !ok {
		return fallback
	}
	switch value := field.Content.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(value, 10)
	case int:
		return strconv.Itoa(value)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fallback
	}
}

// Flag returns the field content as a boolean. Flags are persisted as "0"/"1"
// strings; JSON booleans, numbers and "true"/"false" are accepted as well.
func (n *Node) Flag(name string, fallback bool) bool {
	field, ok := n.Field(name)
	if !ok {
		return fallback
	}
	switch value := field.Content.(type) {
	case bool:
		return value
	case float64:
		return value != 0
	case int64:
		return value != 0
	case int:
		return value != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true":
			return true
		case "0", "false", "":
			return false
		}
	}
	return fallback
}

// Int returns the field content as an integer.
func (n *Node) Int(name string, fallback int64) int64 {
	field, ok := n.Field(name)
	if !ok {
		return fallback
	}
	switch value := field.Content.(type) {
	case float64:
		if value != float64(int64(value)) {
			return fallback
		}
		return int64(value)
	case int64:
		return value
	case int:
		return int64(value)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return fallback
		}
		return parsed
	default:
		return fallback
	}
}

// NodeID returns the node identifier, or zero when the node has none.
func (n *Node) NodeID() int64 {
	if n == nil {
		return 0
	}
	return n.ID.Content
}
