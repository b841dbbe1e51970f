package routes

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParamType is the single letter that declares a parameter's value shape.
type ParamType byte

const (
	ParamInteger  ParamType = 'i'
	ParamAlpha    ParamType = 'a'
	ParamSlug     ParamType = 's'
	ParamHex      ParamType = 'h'
	ParamCatchAll ParamType = '*'
)

var paramPatterns = map[ParamType]string{
	ParamInteger:  `-?[0-9]+`,
	ParamAlpha:    `[A-Za-z]+`,
	ParamSlug:     `[a-z0-9]+(?:-[a-z0-9]+)*`,
	ParamHex:      `[0-9A-Fa-f]+`,
	ParamCatchAll: `.+`,
}

var paramValidators = func() map[ParamType]*regexp.Regexp {
	out := make(map[ParamType]*regexp.Regexp, len(paramPatterns))
	for typ, pattern := range paramPatterns {
		out[typ] = regexp.MustCompile(`^(?:` + pattern + `)$`)
	}
	return out
}()

var paramNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (t ParamType) String() string {
	switch t {
	case ParamInteger:
		return "integer"
	case ParamAlpha:
		return "alpha"
	case ParamSlug:
		return "slug"
	case ParamHex:
		return "hex"
	case ParamCatchAll:
		return "catch-all"
	default:
		return fmt.Sprintf("unknown(%q)", rune(t))
	}
}

// Valid reports whether the value has the shape declared by the type.
// Integers must also fit in an int64.
func (t ParamType) Valid(value string) bool {
	validator, ok := paramValidators[t]
	if !ok || !validator.MatchString(value) {
		return false
	}
	if t == ParamInteger {
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return false
		}
	}
	return true
}

// Param is a declared template parameter.
type Param struct {
	Name     string
	Type     ParamType
	Optional bool
}

type segment struct {
	literal string
	param   *Param
}

// MatchResult is produced per match attempt. Params is empty when Matched is
// false.
type MatchResult struct {
	Matched bool
	Params  map[string]string
}

// Template is a compiled route template.
type Template struct {
	raw        string
	normalized string
	segments   []segment
	params     []Param
	pattern    *regexp.Regexp
	spec       Specificity
}

// Compile parses a template such as /records/[i:record_id]. A parameter
// group may be made optional by writing it as a trailing /[t:name]? segment.
func Compile(template string) (*Template, error) {
	normalized := normalizeTemplate(template)
	segments, err := parseSegments(normalized)
	if err != nil {
		return nil, err
	}

	tmpl := &Template{
		raw:        template,
		normalized: normalized,
		segments:   segments,
	}

	var pattern strings.Builder
	pattern.WriteString("^")
	prefixOpen := true
	for _, seg := range segments {
		if seg.param == nil {
			pattern.WriteString(regexp.QuoteMeta(seg.literal))
			tmpl.spec.LiteralLength += len(seg.literal)
			if prefixOpen {
				tmpl.spec.LiteralPrefix += len(seg.literal)
			}
			continue
		}
		prefixOpen = false
		tmpl.params = append(tmpl.params, *seg.param)
		tmpl.spec.Params++
		if seg.param.Type == ParamCatchAll {
			tmpl.spec.CatchAll = true
		}
		capture := "(" + paramPatterns[seg.param.Type] + ")"
		if seg.param.Optional {
			pattern.WriteString("(?:/" + capture + ")?")
			continue
		}
		pattern.WriteString(capture)
	}
	pattern.WriteString("$")

	tmpl.pattern, err = regexp.Compile(pattern.String())
	if err != nil {
		return nil, &CompileError{Template: template, Err: err}
	}
	return tmpl, nil
}

// MustCompile is Compile for templates declared in code. It panics on error.
func MustCompile(template string) *Template {
	tmpl, err := Compile(template)
	if err != nil {
		panic(err)
	}
	return tmpl
}

func parseSegments(template string) ([]segment, error) {
	fail := func(offset int, err error) error {
		return &CompileError{Template: template, Offset: offset, Err: err}
	}

	var (
		segments []segment
		literal  strings.Builder
		seen     = map[string]struct{}{}
	)
	flushLiteral := func() {
		if literal.Len() > 0 {
			segments = append(segments, segment{literal: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(template); i++ {
		ch := template[i]
		switch ch {
		case ']':
			return nil, fail(i, ErrUnbalancedBrackets)
		case '[':
		default:
			literal.WriteByte(ch)
			continue
		}

		end := -1
		for j := i + 1; j < len(template); j++ {
			if template[j] == '[' {
				return nil, fail(j, ErrUnbalancedBrackets)
			}
			if template[j] == ']' {
				end = j
				break
			}
		}
		if end < 0 {
			return nil, fail(i, ErrUnbalancedBrackets)
		}

		param, err := parseParam(template[i+1 : end])
		if err != nil {
			return nil, fail(i, err)
		}
		if _, dup := seen[param.Name]; dup {
			return nil, fail(i, ErrDuplicateParam)
		}
		seen[param.Name] = struct{}{}

		next := end + 1
		if next < len(template) && template[next] == '?' {
			current := literal.String()
			if !strings.HasSuffix(current, "/") || next != len(template)-1 {
				return nil, fail(i, ErrMisplacedOptional)
			}
			literal.Reset()
			literal.WriteString(strings.TrimSuffix(current, "/"))
			param.Optional = true
			next++
		}
		if param.Type == ParamCatchAll && next != len(template) {
			return nil, fail(i, ErrMisplacedCatchAll)
		}

		flushLiteral()
		segments = append(segments, segment{param: param})
		i = next - 1
	}
	flushLiteral()
	return segments, nil
}

func parseParam(body string) (*Param, error) {
	typ, name, ok := strings.Cut(body, ":")
	if !ok || len(typ) != 1 {
		return nil, ErrUnknownParamType
	}
	paramType := ParamType(typ[0])
	if _, known := paramPatterns[paramType]; !known {
		return nil, ErrUnknownParamType
	}
	if !paramNamePattern.MatchString(name) {
		return nil, ErrInvalidParamName
	}
	return &Param{Name: name, Type: paramType}, nil
}

// String returns the normalised template.
func (t *Template) String() string {
	return t.normalized
}

// Raw returns the template as it was supplied to Compile.
func (t *Template) Raw() string {
	return t.raw
}

// Params returns the declared parameters in template order.
func (t *Template) Params() []Param {
	out := make([]Param, len(t.params))
	copy(out, t.params)
	return out
}

// ParamTypes maps each parameter name to its declared type.
func (t *Template) ParamTypes() map[string]ParamType {
	out := make(map[string]ParamType, len(t.params))
	for _, param := range t.params {
		out[param.Name] = param.Type
	}
	return out
}

// Static reports whether the template has no parameters.
func (t *Template) Static() bool {
	return len(t.params) == 0
}

// Specificity returns the ranking data used by Table.
func (t *Template) Specificity() Specificity {
	return t.spec
}

// Match tests a concrete request path. Query strings and fragments are
// ignored, and a trailing slash is not significant.
func (t *Template) Match(path string) MatchResult {
	if t == nil || t.pattern == nil {
		return MatchResult{Params: map[string]string{}}
	}
	normalized := NormalizePath(path)
	groups := t.pattern.FindStringSubmatchIndex(normalized)
	if groups == nil && normalized == "/" {
		// a template that is only an optional segment matches the root
		normalized = ""
		groups = t.pattern.FindStringSubmatchIndex(normalized)
	}
	if groups == nil {
		return MatchResult{Params: map[string]string{}}
	}
	params := make(map[string]string, len(t.params))
	for i, param := range t.params {
		start, end := groups[2*(i+1)], groups[2*(i+1)+1]
		if start < 0 {
			continue
		}
		value := normalized[start:end]
		if !param.Type.Valid(value) {
			return MatchResult{Params: map[string]string{}}
		}
		params[param.Name] = value
	}
	return MatchResult{Matched: true, Params: params}
}

// Build substitutes params into the template. Optional parameters without a
// value are dropped together with their leading slash.
func (t *Template) Build(params map[string]string) (string, error) {
	var out strings.Builder
	for _, seg := range t.segments {
		if seg.param == nil {
			out.WriteString(seg.literal)
			continue
		}
		value, ok := params[seg.param.Name]
		if !ok || value == "" {
			if seg.param.Optional {
				continue
			}
			return "", fmt.Errorf("%w: %s in %s", ErrMissingParam, seg.param.Name, t.normalized)
		}
		if !seg.param.Type.Valid(value) {
			return "", fmt.Errorf("%w: %s=%q is not %s", ErrInvalidParamValue, seg.param.Name, value, seg.param.Type)
		}
		if seg.param.Optional {
			out.WriteByte('/')
		}
		out.WriteString(value)
	}
	if out.Len() == 0 {
		return "/", nil
	}
	return out.String(), nil
}

// URLKitPath rewrites the template into :name placeholders. Optional
// segments are omitted so the path addresses the page without them.
func (t *Template) URLKitPath() string {
	var out strings.Builder
	for _, seg := range t.segments {
		switch {
		case seg.param == nil:
			out.WriteString(seg.literal)
		case seg.param.Optional:
		default:
			out.WriteString(":" + seg.param.Name)
		}
	}
	if out.Len() == 0 {
		return "/"
	}
	return out.String()
}

// NormalizePath trims whitespace, drops query and fragment, ensures a
// leading slash and removes a trailing slash.
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	return normalizeSlashes(path)
}

func normalizeTemplate(template string) string {
	return normalizeSlashes(strings.TrimSpace(template))
}

func normalizeSlashes(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}
