package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
)

// FrontMatter is the page envelope carried at the top of an imported
// markdown file.
type FrontMatter struct {
	ID             int64  `yaml:"id"`
	Keyword        string `yaml:"keyword"`
	Title          string `yaml:"title"`
	URL            string `yaml:"url"`
	Parent         string `yaml:"parent"`
	NavPosition    *int   `yaml:"nav_position"`
	FooterPosition *int   `yaml:"footer_position"`
	Headless       bool   `yaml:"headless"`
	Language       string `yaml:"language"`
	CSS            string `yaml:"css"`
}

// Document is a parsed markdown source file.
type Document struct {
	Path        string
	FrontMatter FrontMatter
	Body        []byte
}

// ParseFrontMatter extracts the envelope and the markdown body without
// delimiters.
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var meta FrontMatter

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	meta.Keyword = strings.TrimSpace(meta.Keyword)
	meta.Parent = strings.TrimSpace(meta.Parent)
	meta.Language = strings.TrimSpace(meta.Language)
	return meta, body, nil
}

// ParseDocument parses source read from path.
func ParseDocument(path string, source []byte) (*Document, error) {
	meta, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Document{
		Path:        path,
		FrontMatter: meta,
		Body:        body,
	}, nil
}
