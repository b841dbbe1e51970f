package styles

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidDocument indicates the payload is not a JSON array of nodes.
	ErrInvalidDocument = errors.New("styles: content document must be a JSON array")
)

const (
	keyID        = "id"
	keyStyleName = "style_name"
	keyKind      = "kind"
	keyCSS       = "css"
	keyChildren  = "children"
)

func reservedKey(key string) bool {
	switch key {
	case keyID, keyStyleName, keyKind, keyCSS, keyChildren:
		return true
	default:
		return false
	}
}

// DecodeNodes parses a root-level content array. Null entries stay in place
// as nil slots. Structurally broken nodes are kept and flagged so the renderer
// can degrade them individually; only a payload that is not an array fails.
func DecodeNodes(data []byte) ([]*Node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []*Node{}, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return decodeList(raw), nil
}

func decodeList(raw []json.RawMessage) []*Node {
	nodes := make([]*Node, len(raw))
	for i, entry := range raw {
		nodes[i] = decodeNode(entry)
	}
	return nodes
}

func decodeNode(raw json.RawMessage) *Node {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &object); err != nil {
		return &Node{invalid: "node is not an object"}
	}

	node := &Node{}
	node.Kind = decodeKind(object)

	var problems []string

	if rawID, ok := object[keyID]; ok {
		id, err := decodeID(rawID)
		if err != nil {
			problems = append(problems, err.Error())
		} else {
			node.ID = id
		}
	} else {
		problems = append(problems, "missing id")
	}

	if rawCSS, ok := object[keyCSS]; ok && !isNull(rawCSS) {
		var css string
		if err := json.Unmarshal(rawCSS, &css); err != nil {
			problems = append(problems, "css must be a string")
		} else {
			node.CSS = css
		}
	}

	if rawChildren, ok := object[keyChildren]; ok && node.Kind.Composite() && !isNull(rawChildren) {
		var children []json.RawMessage
		if err := json.Unmarshal(rawChildren, &children); err != nil {
			problems = append(problems, "children must be an array")
		} else {
			node.Children = decodeList(children)
		}
	}

	for key, value := range object {
		if reservedKey(key) {
			continue
		}
		field, err := decodeField(value)
		if err != nil {
			problems = append(problems, fmt.Sprintf("field %q: %v", key, err))
			continue
		}
		if node.Fields == nil {
			node.Fields = make(map[string]Field[any])
		}
		node.Fields[key] = field
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		node.invalid = strings.Join(problems, "; ")
	}
	return node
}

func decodeKind(object map[string]json.RawMessage) Kind {
	for _, key := range []string{keyStyleName, keyKind} {
		raw, ok := object[key]
		if !ok || isNull(raw) {
			continue
		}
		var name string
		if err := json.Unmarshal(raw, &name); err == nil {
			return ParseKind(name)
		}
	}
	return ""
}

func decodeID(raw json.RawMessage) (Field[int64], error) {
	var wire struct {
		Content json.Number `json:"content"`
		Meta    string      `json:"meta"`
		Type    string      `json:"type"`
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&wire); err != nil {
		return Field[int64]{}, errors.New("id must be a field with numeric content")
	}
	if wire.Content == "" {
		return Field[int64]{}, errors.New("id content is null")
	}
	value, err := wire.Content.Int64()
	if err != nil {
		return Field[int64]{}, errors.New("id content must be an integer")
	}
	return Field[int64]{Content: value, Meta: wire.Meta, Type: wire.Type}, nil
}

func decodeField(raw json.RawMessage) (Field[any], error) {
	var wire struct {
		Content *json.RawMessage `json:"content"`
		Meta    string           `json:"meta"`
		Type    string           `json:"type"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Field[any]{}, errors.New("expected an object with content")
	}
	if wire.Content == nil || isNull(*wire.Content) {
		return Field[any]{}, errors.New("content is null")
	}
	var content any
	if err := json.Unmarshal(*wire.Content, &content); err != nil {
		return Field[any]{}, err
	}
	return Field[any]{Content: content, Meta: wire.Meta, Type: wire.Type}, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// MarshalJSON writes the node in the same shape DecodeNodes accepts.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	return json.Marshal(n.document())
}

// UnmarshalJSON decodes a single node. Malformed input is flagged on the node
// rather than returned as an error.
func (n *Node) UnmarshalJSON(data []byte) error {
	decoded := decodeNode(data)
	if decoded == nil {
		*n = Node{invalid: "node is null"}
		return nil
	}
	*n = *decoded
	return nil
}

// EncodeNodes serialises a root list, writing nil slots as null.
func EncodeNodes(nodes []*Node) ([]byte, error) {
	if nodes == nil {
		nodes = []*Node{}
	}
	return json.Marshal(nodes)
}

// document converts the node into the generic JSON form used by the wire
// format and by schema validation.
func (n *Node) document() map[string]any {
	doc := make(map[string]any, len(n.Fields)+4)
	doc[keyID] = fieldDocument(Field[any]{Content: n.ID.Content, Meta: n.ID.Meta, Type: n.ID.Type})
	doc[keyStyleName] = string(n.Kind)
	if n.CSS != "" {
		doc[keyCSS] = n.CSS
	}
	if n.Kind.Composite() && n.Children != nil {
		children := make([]any, len(n.Children))
		for i, child := range n.Children {
			if child == nil {
				children[i] = nil
				continue
			}
			children[i] = child.document()
		}
		doc[keyChildren] = children
	}
	for key, field := range n.Fields {
		doc[key] = fieldDocument(field)
	}
	return doc
}

func fieldDocument(field Field[any]) map[string]any {
	doc := map[string]any{"content": normalizeContent(field.Content)}
	if field.Meta != "" {
		doc["meta"] = field.Meta
	}
	if field.Type != "" {
		doc["type"] = field.Type
	}
	return doc
}

// normalizeContent maps Go numeric types onto float64 so values built in code
// validate the same way as decoded JSON.
func normalizeContent(value any) any {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeContent(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalizeContent(item)
		}
		return out
	default:
		return v
	}
}
