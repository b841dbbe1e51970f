package styles

import (
	"context"
	"errors"
	"html/template"
	"strings"
	"testing"
)

func mustDecode(t *testing.T, payload string) []*Node {
	t.Helper()
	nodes, err := DecodeNodes([]byte(payload))
	if err != nil {
		t.Fatalf("DecodeNodes: %v", err)
	}
	return nodes
}

func TestDecodeNodesPreservesNullSlots(t *testing.T) {
	nodes := mustDecode(t, `[null, {"id":{"content":1},"style_name":"heading","text":{"content":"A"}}, null]`)
	if len(nodes) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(nodes))
	}
	if nodes[0] != nil || nodes[2] != nil {
		t.Fatalf("expected null slots to stay nil")
	}
	if nodes[1].Kind != KindHeading || nodes[1].NodeID() != 1 {
		t.Fatalf("unexpected node: %+v", nodes[1])
	}
}

func TestDecodeNodesRejectsNonArray(t *testing.T) {
	if _, err := DecodeNodes([]byte(`{"id":1}`)); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestDecodeFlagsNullFieldContent(t *testing.T) {
	nodes := mustDecode(t, `[{"id":{"content":4},"style_name":"heading","text":{"content":null}}]`)
	reason, malformed := nodes[0].Malformed()
	if !malformed {
		t.Fatalf("expected node with null content to be malformed")
	}
	if !strings.Contains(reason, "content is null") {
		t.Fatalf("unexpected reason %q", reason)
	}
	if nodes[0].Has("text") {
		t.Fatalf("expected null field to be treated as absent")
	}
}

func TestDecodeIgnoresChildrenOnLeafKinds(t *testing.T) {
	nodes := mustDecode(t, `[{"id":{"content":1},"style_name":"image","src":{"content":"/a.png"},"children":[{"id":{"content":2},"style_name":"heading","text":{"content":"x"}}]}]`)
	if nodes[0].Children != nil {
		t.Fatalf("expected leaf kind children to be ignored, got %d", len(nodes[0].Children))
	}
}

func TestEncodeNodesRoundTrip(t *testing.T) {
	source := `[{"id":{"content":1},"style_name":"container","css":"wide","children":[null,{"id":{"content":2},"style_name":"heading","text":{"content":"Hi"},"level":{"content":"3"}}]},null]`
	nodes := mustDecode(t, source)
	encoded, err := EncodeNodes(nodes)
	if err != nil {
		t.Fatalf("EncodeNodes: %v", err)
	}
	again := mustDecode(t, string(encoded))
	if len(again) != 2 || again[1] != nil {
		t.Fatalf("expected root null slot to survive, got %d entries", len(again))
	}
	root := again[0]
	if root.CSS != "wide" || len(root.Children) != 2 || root.Children[0] != nil {
		t.Fatalf("unexpected container after round trip: %+v", root)
	}
	if root.Children[1].Text("text", "") != "Hi" || root.Children[1].Int("level", 0) != 3 {
		t.Fatalf("unexpected child after round trip: %+v", root.Children[1])
	}
}

func TestFieldAccessorsUseDefaults(t *testing.T) {
	node := &Node{
		Kind: KindImage,
		Fields: map[string]Field[any]{
			"lazy":    NewField[any]("0"),
			"rounded": NewField[any]("1"),
			"width":   NewField[any](float64(640)),
			"ratio":   NewField[any](1.5),
		},
	}
	if node.Flag("lazy", true) {
		t.Fatalf("expected \"0\" to read as false")
	}
	if !node.Flag("rounded", false) {
		t.Fatalf("expected \"1\" to read as true")
	}
	if !node.Flag("missing", true) {
		t.Fatalf("expected default for missing flag")
	}
	if node.Int("width", 0) != 640 {
		t.Fatalf("expected width 640")
	}
	if node.Int("ratio", 7) != 7 {
		t.Fatalf("expected non-integer number to fall back")
	}
	if node.Text("missing", "dflt") != "dflt" {
		t.Fatalf("expected text default")
	}
	if FieldValue(node, "width", 0.0) != 640 {
		t.Fatalf("expected typed field value")
	}
	if FieldValue(node, "lazy", 12) != 12 {
		t.Fatalf("expected mismatched type to fall back")
	}
	var nilNode *Node
	if nilNode.Text("anything", "x") != "x" {
		t.Fatalf("expected nil node to return default")
	}
}

func TestRenderSkipsNullEntriesAndKeepsOrder(t *testing.T) {
	nodes := mustDecode(t, `[
		null,
		{"id":{"content":10},"style_name":"heading","text":{"content":"A"},"level":{"content":1}},
		null,
		{"id":{"content":20},"style_name":"textarea","text":{"content":"B"}}
	]`)

	out, err := NewRenderer().Render(context.Background(), nodes)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(out.Fragments) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(out.Fragments))
	}
	if out.Fragments[0].NodeID != 10 || out.Fragments[1].NodeID != 20 {
		t.Fatalf("expected order A then B, got %d then %d", out.Fragments[0].NodeID, out.Fragments[1].NodeID)
	}
	html := string(out.HTML)
	if strings.Index(html, ">A</h1>") > strings.Index(html, "<p>B</p>") {
		t.Fatalf("expected A before B in %q", html)
	}
	if out.FallbackCount() != 0 {
		t.Fatalf("expected no fallbacks, got %d", out.FallbackCount())
	}
}

func TestRenderUnknownKindUsesFallback(t *testing.T) {
	nodes := mustDecode(t, `[{"id":{"content":5},"style_name":"carousel"},{"id":{"content":6},"style_name":"div"}]`)
	out, err := NewRenderer().Render(context.Background(), nodes)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !out.Fragments[0].Fallback {
		t.Fatalf("expected unknown kind to use fallback")
	}
	if !strings.Contains(string(out.Fragments[0].HTML), `data-kind="carousel"`) {
		t.Fatalf("expected fallback to surface kind, got %q", out.Fragments[0].HTML)
	}
	if out.Fragments[1].Fallback {
		t.Fatalf("expected sibling to render normally")
	}
}

func TestRenderMissingRequiredFieldDegradesOnlyThatNode(t *testing.T) {
	nodes := mustDecode(t, `[
		{"id":{"content":1},"style_name":"card","children":[]},
		{"id":{"content":2},"style_name":"card","title":{"content":"Ok"}}
	]`)
	out, err := NewRenderer().Render(context.Background(), nodes)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !out.Fragments[0].Fallback || !strings.Contains(out.Fragments[0].Reason, "title") {
		t.Fatalf("expected missing title to trigger fallback, got %+v", out.Fragments[0])
	}
	if out.Fragments[1].Fallback {
		t.Fatalf("expected valid card to render, got %+v", out.Fragments[1])
	}
	if !strings.Contains(string(out.Fragments[1].HTML), `<header class="style__title">Ok</header>`) {
		t.Fatalf("unexpected card html %q", out.Fragments[1].HTML)
	}
}

func TestRenderCompositeWithoutChildrenIsEmptyContainer(t *testing.T) {
	nodes := []*Node{{ID: NewField[int64](3), Kind: KindContainer}}
	out, err := NewRenderer().Render(context.Background(), nodes)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := `<div class="style style--container" data-node-id="3"></div>`
	if string(out.HTML) != want {
		t.Fatalf("expected %q, got %q", want, out.HTML)
	}
}

func TestRenderNestedFallbackKeepsParent(t *testing.T) {
	nodes := mustDecode(t, `[{"id":{"content":1},"style_name":"container","children":[
		{"id":{"content":2},"style_name":"mystery"},
		{"id":{"content":3},"style_name":"image","src":{"content":"/a.png"},"alt":{"content":"A"},"lazy":{"content":"0"}}
	]}]`)
	out, err := NewRenderer().Render(context.Background(), nodes)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Fragments[0].Fallback {
		t.Fatalf("expected container itself to render")
	}
	html := string(out.HTML)
	if !strings.Contains(html, `data-kind="mystery"`) {
		t.Fatalf("expected nested fallback, got %q", html)
	}
	if !strings.Contains(html, `<img src="/a.png" alt="A">`) {
		t.Fatalf("expected image without lazy loading, got %q", html)
	}
}

func TestRenderMarkdownKind(t *testing.T) {
	nodes := mustDecode(t, `[{"id":{"content":9},"style_name":"markdown","body":{"content":"**bold**"}}]`)
	out, err := NewRenderer().Render(context.Background(), nodes)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(out.HTML), "<strong>bold</strong>") {
		t.Fatalf("expected markdown to be converted, got %q", out.HTML)
	}
}

func TestKindRendererOverride(t *testing.T) {
	renderer := NewRenderer(WithKindRenderer(KindHeading, func(_ context.Context, node *Node, _ template.HTML) (template.HTML, error) {
		return template.HTML("<h9>" + template.HTMLEscapeString(node.Text("text", "")) + "</h9>"), nil
	}))
	nodes := []*Node{{ID: NewField[int64](1), Kind: KindHeading, Fields: map[string]Field[any]{"text": NewField[any]("Hi")}}}
	out, err := renderer.Render(context.Background(), nodes)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(out.HTML) != "<h9>Hi</h9>" {
		t.Fatalf("expected override output, got %q", out.HTML)
	}
}

func TestKindRendererErrorFallsBack(t *testing.T) {
	renderer := NewRenderer(WithKindRenderer(KindDiv, func(context.Context, *Node, template.HTML) (template.HTML, error) {
		return "", errors.New("boom")
	}))
	out, err := renderer.Render(context.Background(), []*Node{{ID: NewField[int64](1), Kind: KindDiv}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !out.Fragments[0].Fallback || out.Fragments[0].Reason != "boom" {
		t.Fatalf("expected renderer error to degrade, got %+v", out.Fragments[0])
	}
}

func TestRenderHonoursMaxDepth(t *testing.T) {
	leaf := &Node{ID: NewField[int64](3), Kind: KindDiv}
	mid := &Node{ID: NewField[int64](2), Kind: KindDiv, Children: []*Node{leaf}}
	root := &Node{ID: NewField[int64](1), Kind: KindDiv, Children: []*Node{mid}}

	out, err := NewRenderer(WithMaxDepth(2)).Render(context.Background(), []*Node{root})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(out.HTML), "nesting deeper than 2 levels") {
		t.Fatalf("expected depth guard fallback, got %q", out.HTML)
	}
}

func TestRenderReturnsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRenderer().Render(ctx, []*Node{{ID: NewField[int64](1), Kind: KindDiv}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewSchemaSetOverridesKind(t *testing.T) {
	schemas, err := NewSchemaSet(map[Kind]map[string]any{
		KindDiv: {"type": "object", "required": []any{"anchor"}},
	})
	if err != nil {
		t.Fatalf("NewSchemaSet: %v", err)
	}
	out, err := NewRenderer(WithSchemas(schemas)).Render(context.Background(), []*Node{{ID: NewField[int64](1), Kind: KindDiv}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !out.Fragments[0].Fallback {
		t.Fatalf("expected custom schema to reject div without anchor")
	}
}

func TestCloneNodesIsDeep(t *testing.T) {
	original := []*Node{nil, {ID: NewField[int64](1), Kind: KindContainer, Children: []*Node{{ID: NewField[int64](2), Kind: KindDiv}}}}
	cloned := CloneNodes(original)
	cloned[1].Children[0].CSS = "changed"
	if original[1].Children[0].CSS != "" {
		t.Fatalf("expected clone to be independent")
	}
	if cloned[0] != nil {
		t.Fatalf("expected nil slot to be preserved")
	}
	if CountNodes(original) != 2 {
		t.Fatalf("expected 2 nodes, got %d", CountNodes(original))
	}
}
