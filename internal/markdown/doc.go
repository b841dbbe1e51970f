// Package markdown wraps goldmark for the markdown content kind and parses
// the frontmatter envelope used by the page importer.
package markdown
