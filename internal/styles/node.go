package styles

import "strings"

// Kind discriminates the renderer used for a node.
type Kind string

const (
	KindContainer     Kind = "container"
	KindCard          Kind = "card"
	KindDiv           Kind = "div"
	KindHeading       Kind = "heading"
	KindImage         Kind = "image"
	KindMarkdown      Kind = "markdown"
	KindTextarea      Kind = "textarea"
	KindFormLogViewer Kind = "form-log-viewer"
)

var knownKinds = []Kind{
	KindContainer,
	KindCard,
	KindDiv,
	KindHeading,
	KindImage,
	KindMarkdown,
	KindTextarea,
	KindFormLogViewer,
}

// Kinds lists the registered kinds in a stable order.
func Kinds() []Kind {
	out := make([]Kind, len(knownKinds))
	copy(out, knownKinds)
	return out
}

// ParseKind normalises a raw style name. Unregistered names are returned as-is
// so the fallback renderer can surface them.
func ParseKind(raw string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(raw)))
}

// Known reports whether the kind belongs to the registered set.
func (k Kind) Known() bool {
	for _, known := range knownKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Composite reports whether nodes of this kind own child nodes.
func (k Kind) Composite() bool {
	switch k {
	case KindContainer, KindCard, KindDiv:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	return string(k)
}

// Node is one section of a page content tree. Children are only meaningful
// when Kind is composite; leaf renderers never look at them.
type Node struct {
	ID       Field[int64]
	Kind     Kind
	CSS      string
	Children []*Node
	Fields   map[string]Field[any]

	// invalid records why the decoder rejected this node. Rendering sends
	// invalid nodes to the fallback renderer.
	invalid string
}

// Malformed reports whether decoding flagged the node and why.
func (n *Node) Malformed() (string, bool) {
	if n == nil {
		return "", false
	}
	return n.invalid, n.invalid != ""
}

// Clone returns a deep copy of the node and its subtree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	cloned := &Node{
		ID:      n.ID,
		Kind:    n.Kind,
		CSS:     n.CSS,
		invalid: n.invalid,
	}
	if n.Fields != nil {
		cloned.Fields = make(map[string]Field[any], len(n.Fields))
		for key, field := range n.Fields {
			cloned.Fields[key] = field
		}
	}
	if n.Children != nil {
		cloned.Children = CloneNodes(n.Children)
	}
	return cloned
}

// CloneNodes deep-copies a root list, keeping nil slots in place.
func CloneNodes(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, node := range nodes {
		out[i] = node.Clone()
	}
	return out
}

// CountNodes returns the number of non-nil nodes reachable from the list,
// following children of composite kinds only.
func CountNodes(nodes []*Node) int {
	total := 0
	for _, node := range nodes {
		if node == nil {
			continue
		}
		total++
		if node.Kind.Composite() {
			total += CountNodes(node.Children)
		}
	}
	return total
}
