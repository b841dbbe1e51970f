package styles

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/goliatone/go-sitekit/internal/logging"
	"github.com/goliatone/go-sitekit/internal/markdown"
	"github.com/goliatone/go-sitekit/pkg/interfaces"
)

const defaultMaxDepth = 64

// RenderFunc renders a single node. Composite kinds receive the already
// rendered children; leaf kinds receive an empty string.
type RenderFunc func(ctx context.Context, node *Node, children template.HTML) (template.HTML, error)

// MarkdownConverter turns markdown source into HTML.
type MarkdownConverter interface {
	Convert(source []byte) ([]byte, error)
}

// Fragment is the rendered output of one root node.
type Fragment struct {
	NodeID   int64
	Kind     Kind
	HTML     template.HTML
	Fallback bool
	Reason   string
}

// Output is the ordered result of rendering a root list.
type Output struct {
	Fragments []Fragment
	HTML      template.HTML
}

// FallbackCount returns how many root fragments were produced by the
// fallback renderer.
func (o Output) FallbackCount() int {
	total := 0
	for _, fragment := range o.Fragments {
		if fragment.Fallback {
			total++
		}
	}
	return total
}

// Renderer dispatches content nodes to kind specific renderers.
type Renderer struct {
	templates map[Kind]*template.Template
	fallback  *template.Template
	overrides map[Kind]RenderFunc
	schemas   *SchemaSet
	markdown  MarkdownConverter
	logger    interfaces.Logger
	maxDepth  int
}

// RendererOption configures the renderer instance.
type RendererOption func(*Renderer)

// WithRendererLogger overrides the logger used for fallback diagnostics.
func WithRendererLogger(logger interfaces.Logger) RendererOption {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithKindRenderer replaces the builtin renderer of a registered kind.
// Unregistered kinds always use the fallback renderer, so overrides for them
// are ignored.
func WithKindRenderer(kind Kind, fn RenderFunc) RendererOption {
	return func(r *Renderer) {
		if fn == nil || !kind.Known() {
			return
		}
		r.overrides[kind] = fn
	}
}

// WithSchemas sets the per-kind schemas used to detect malformed nodes. A nil
// set disables schema checks.
func WithSchemas(schemas *SchemaSet) RendererOption {
	return func(r *Renderer) {
		r.schemas = schemas
	}
}

// WithMarkdownConverter sets the converter used by the markdown kind.
func WithMarkdownConverter(converter MarkdownConverter) RendererOption {
	return func(r *Renderer) {
		if converter != nil {
			r.markdown = converter
		}
	}
}

// WithMaxDepth bounds how deep composite nodes are followed.
func WithMaxDepth(depth int) RendererOption {
	return func(r *Renderer) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// NewRenderer constructs a renderer with the builtin kind templates and
// schemas.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{
		templates: parseBuiltinTemplates(),
		fallback:  template.Must(template.New("fallback").Parse(fallbackTemplate)),
		overrides: map[Kind]RenderFunc{},
		schemas:   BuiltinSchemas(),
		markdown:  markdown.NewConverter(markdown.DefaultOptions()),
		logger:    logging.NoOp(),
		maxDepth:  defaultMaxDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render renders the root list in order. Nil entries are skipped without a
// placeholder. A node that cannot be rendered degrades to the fallback for
// that node only. The only error returned is the context error when ctx is
// done before rendering completes.
func (r *Renderer) Render(ctx context.Context, nodes []*Node) (Output, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	out := Output{Fragments: make([]Fragment, 0, len(nodes))}
	var buf strings.Builder
	for _, node := range nodes {
		if node == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Output{}, err
		}
		html, reason := r.renderNode(ctx, node, 1)
		fragment := Fragment{
			NodeID:   node.ID.Content,
			Kind:     node.Kind,
			HTML:     html,
			Fallback: reason != "",
			Reason:   reason,
		}
		out.Fragments = append(out.Fragments, fragment)
		buf.WriteString(string(html))
	}
	out.HTML = template.HTML(buf.String())
	return out, nil
}

// renderNode returns the node HTML and, when the fallback was used, the
// reason for it.
func (r *Renderer) renderNode(ctx context.Context, node *Node, depth int) (template.HTML, string) {
	if reason, malformed := node.Malformed(); malformed {
		return r.renderFallback(node, reason)
	}
	if depth > r.maxDepth {
		return r.renderFallback(node, fmt.Sprintf("nesting deeper than %d levels", r.maxDepth))
	}
	if !node.Kind.Known() {
		return r.renderFallback(node, "")
	}
	if err := r.schemas.Validate(node); err != nil {
		return r.renderFallback(node, err.Error())
	}

	var children template.HTML
	if node.Kind.Composite() {
		var buf strings.Builder
		for _, child := range node.Children {
			if child == nil {
				continue
			}
			html, _ := r.renderNode(ctx, child, depth+1)
			buf.WriteString(string(html))
		}
		children = template.HTML(buf.String())
	}

	var (
		html template.HTML
		err  error
	)
	if override, ok := r.overrides[node.Kind]; ok {
		html, err = override(ctx, node, children)
	} else {
		html, err = r.renderBuiltin(node, children)
	}
	if err != nil {
		return r.renderFallback(node, err.Error())
	}
	return html, ""
}

func (r *Renderer) renderBuiltin(node *Node, children template.HTML) (template.HTML, error) {
	var values map[string]any
	switch node.Kind {
	case KindContainer, KindDiv:
	case KindCard, KindHeading, KindImage, KindTextarea, KindFormLogViewer:
		values = builtinDefinitions[node.Kind].values(node)
	case KindMarkdown:
		body, err := r.convertMarkdown(node.Text("body", ""))
		if err != nil {
			return "", err
		}
		values = map[string]any{"body": body}
	default:
		return "", fmt.Errorf("no renderer for kind %q", node.Kind)
	}
	return r.execute(r.templates[node.Kind], view{
		ID:       node.ID.Content,
		Kind:     string(node.Kind),
		CSS:      node.CSS,
		Children: children,
		Values:   values,
	})
}

func (r *Renderer) convertMarkdown(source string) (template.HTML, error) {
	html, err := r.markdown.Convert([]byte(source))
	if err != nil {
		return "", err
	}
	return template.HTML(html), nil
}

func (r *Renderer) renderFallback(node *Node, reason string) (template.HTML, string) {
	label := fmt.Sprintf("Unknown style %q", string(node.Kind))
	switch {
	case node.Kind == "":
		label = "Style without a kind"
	case node.Kind.Known():
		label = fmt.Sprintf("Invalid %s style", node.Kind)
	}
	if reason == "" {
		reason = "unregistered kind"
	}

	r.logger.Warn("render.node.fallback",
		"node_id", node.ID.Content,
		"kind", string(node.Kind),
		"reason", reason,
	)

	html, err := r.execute(r.fallback, view{
		ID:     node.ID.Content,
		Kind:   string(node.Kind),
		Values: map[string]any{"label": label, "reason": reason},
	})
	if err != nil {
		html = template.HTML(template.HTMLEscapeString(label))
	}
	return html, reason
}

func (r *Renderer) execute(tmpl *template.Template, data view) (template.HTML, error) {
	if tmpl == nil {
		return "", fmt.Errorf("missing template for kind %q", data.Kind)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
