package styles

import (
	"html/template"
	"strings"
)

// view is the data handed to builtin templates.
type view struct {
	ID       int64
	Kind     string
	CSS      string
	Children template.HTML
	Values   map[string]any
}

type builtinDefinition struct {
	template string
	values   func(node *Node) map[string]any
}

var builtinDefinitions = map[Kind]builtinDefinition{
	KindContainer: {
		template: `<div class="style style--container{{ with .CSS }} {{ . }}{{ end }}" data-node-id="{{ .ID }}">{{ .Children }}</div>`,
	},
	KindDiv: {
		template: `<div class="style style--div{{ with .CSS }} {{ . }}{{ end }}" data-node-id="{{ .ID }}">{{ .Children }}</div>`,
	},
	KindCard: {
		template: `<article class="style style--card{{ with .CSS }} {{ . }}{{ end }}" data-node-id="{{ .ID }}">` +
			`<header class="style__title">{{ .Values.title }}</header>` +
			`{{ with .Values.subtitle }}<p class="style__subtitle">{{ . }}</p>{{ end }}` +
			`<div class="style__body">{{ .Children }}</div></article>`,
		values: func(node *Node) map[string]any {
			return map[string]any{
				"title":    node.Text("title", ""),
				"subtitle": node.Text("subtitle", ""),
			}
		},
	},
	KindHeading: {
		template: `{{ $l := .Values.level }}` +
			`{{ if eq $l 1 }}<h1{{ template "attrs" . }}>{{ .Values.text }}</h1>` +
			`{{ else if eq $l 2 }}<h2{{ template "attrs" . }}>{{ .Values.text }}</h2>` +
			`{{ else if eq $l 3 }}<h3{{ template "attrs" . }}>{{ .Values.text }}</h3>` +
			`{{ else if eq $l 4 }}<h4{{ template "attrs" . }}>{{ .Values.text }}</h4>` +
			`{{ else if eq $l 5 }}<h5{{ template "attrs" . }}>{{ .Values.text }}</h5>` +
			`{{ else }}<h6{{ template "attrs" . }}>{{ .Values.text }}</h6>{{ end }}` +
			`{{ define "attrs" }} class="style style--heading{{ with .CSS }} {{ . }}{{ end }}" data-node-id="{{ .ID }}"{{ end }}`,
		values: func(node *Node) map[string]any {
			level := node.Int("level", 2)
			if level < 1 {
				level = 1
			}
			if level > 6 {
				level = 6
			}
			return map[string]any{
				"text":  node.Text("text", ""),
				"level": int(level),
			}
		},
	},
	KindImage: {
		template: `<figure class="style style--image{{ with .CSS }} {{ . }}{{ end }}" data-node-id="{{ .ID }}">` +
			`<img src="{{ .Values.src }}" alt="{{ .Values.alt }}"{{ if .Values.lazy }} loading="lazy"{{ end }}>` +
			`{{ with .Values.caption }}<figcaption>{{ . }}</figcaption>{{ end }}</figure>`,
		values: func(node *Node) map[string]any {
			return map[string]any{
				"src":     node.Text("src", ""),
				"alt":     node.Text("alt", ""),
				"caption": node.Text("caption", ""),
				"lazy":    node.Flag("lazy", true),
			}
		},
	},
	KindTextarea: {
		template: `<div class="style style--textarea{{ with .CSS }} {{ . }}{{ end }}" data-node-id="{{ .ID }}">` +
			`{{ range .Values.paragraphs }}<p>{{ . }}</p>{{ end }}</div>`,
		values: func(node *Node) map[string]any {
			return map[string]any{
				"paragraphs": paragraphs(node.Text("text", "")),
			}
		},
	},
	KindMarkdown: {
		template: `<div class="style style--markdown{{ with .CSS }} {{ . }}{{ end }}" data-node-id="{{ .ID }}">{{ .Values.body }}</div>`,
	},
	KindFormLogViewer: {
		template: `<section class="style style--form-log-viewer{{ with .CSS }} {{ . }}{{ end }}" data-node-id="{{ .ID }}" data-form-id="{{ .Values.form_id }}" data-limit="{{ .Values.limit }}">` +
			`{{ with .Values.title }}<h3>{{ . }}</h3>{{ end }}` +
			`{{ if .Values.show_empty }}<p class="style__empty">No submissions yet.</p>{{ end }}</section>`,
		values: func(node *Node) map[string]any {
			limit := node.Int("limit", 20)
			if limit <= 0 {
				limit = 20
			}
			return map[string]any{
				"form_id":    node.Text("form_id", ""),
				"title":      node.Text("title", ""),
				"limit":      limit,
				"show_empty": node.Flag("show_empty", false),
			}
		},
	},
}

const fallbackTemplate = `<div class="style style--fallback" data-node-id="{{ .ID }}" data-kind="{{ .Kind }}">` +
	`<strong>{{ .Values.label }}</strong>{{ with .Values.reason }} <small>{{ . }}</small>{{ end }}</div>`

func parseBuiltinTemplates() map[Kind]*template.Template {
	parsed := make(map[Kind]*template.Template, len(builtinDefinitions))
	for kind, def := range builtinDefinitions {
		parsed[kind] = template.Must(template.New(string(kind)).Parse(def.template))
	}
	return parsed
}

func paragraphs(text string) []string {
	var out []string
	for _, block := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		out = append(out, block)
	}
	return out
}
