package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-sitekit/internal/logging"
	"github.com/goliatone/go-sitekit/internal/markdown"
	"github.com/goliatone/go-sitekit/internal/navigation"
	"github.com/goliatone/go-sitekit/internal/pagecontent"
	"github.com/goliatone/go-sitekit/internal/styles"
	"github.com/goliatone/go-sitekit/pkg/interfaces"
)

const DefaultPattern = "*.md"

var (
	ErrPagesRequired    = errors.New("importer: page repository is required")
	ErrContentsRequired = errors.New("importer: content repository is required")
	ErrDirectoryMissing = errors.New("importer: directory is required")
	ErrPageIDMissing    = errors.New("importer: frontmatter id is required")
	ErrKeywordInvalid   = errors.New("importer: keyword cannot be normalised")
)

// Options adjust a single import run.
type Options struct {
	DryRun bool
	// Prune deletes pages of the imported languages that no file produced.
	Prune bool
}

// FileError ties an import failure to the file that caused it.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Result summarises an import run.
type Result struct {
	Pages     []navigation.PageRecord
	Pruned    []navigation.PageRecord
	Languages []string
	Errors    []FileError
	DryRun    bool
	// PruneSkipped is set when pruning was requested but a file failed, so
	// its existing page could not be told apart from a stale one.
	PruneSkipped bool
}

// Option configures the importer.
type Option func(*Importer)

// WithLogger overrides the importer logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithPattern sets the glob matched against file base names.
func WithPattern(pattern string) Option {
	return func(i *Importer) {
		if trimmed := strings.TrimSpace(pattern); trimmed != "" {
			i.pattern = trimmed
		}
	}
}

// WithDefaultLanguage sets the language of files whose frontmatter has none.
func WithDefaultLanguage(language string) Option {
	return func(i *Importer) {
		if trimmed := strings.TrimSpace(language); trimmed != "" {
			i.defaultLanguage = trimmed
		}
	}
}

// Importer turns a directory of markdown files into page records and
// content documents.
type Importer struct {
	pages           navigation.PageRepository
	contents        pagecontent.Repository
	logger          interfaces.Logger
	pattern         string
	defaultLanguage string
}

func New(pages navigation.PageRepository, contents pagecontent.Repository, opts ...Option) (*Importer, error) {
	if pages == nil {
		return nil, ErrPagesRequired
	}
	if contents == nil {
		return nil, ErrContentsRequired
	}
	i := &Importer{
		pages:           pages,
		contents:        contents,
		logger:          logging.NoOp(),
		pattern:         DefaultPattern,
		defaultLanguage: "en",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	return i, nil
}

type parsedFile struct {
	doc     *markdown.Document
	record  navigation.PageRecord
	parent  string
	content []*styles.Node
}

// ImportDirectory parses every matching file below dir and saves the
// resulting pages and content. Files that fail are reported on the result
// and do not stop the run.
func (i *Importer) ImportDirectory(ctx context.Context, dir string, opts Options) (Result, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return Result{}, ErrDirectoryMissing
	}
	result := Result{DryRun: opts.DryRun}

	files, err := i.collect(dir)
	if err != nil {
		return result, goerrors.Wrap(err, goerrors.CategoryValidation, "importer: cannot read content directory").
			WithTextCode("IMPORT_DIRECTORY_INVALID")
	}

	parsed := make([]parsedFile, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		file, err := i.parse(path)
		if err != nil {
			result.Errors = append(result.Errors, FileError{Path: path, Err: err})
			continue
		}
		parsed = append(parsed, file)
	}

	// A file that does not parse has no known id or language, so any of
	// the existing pages may be its own.
	prune := opts.Prune
	if prune && len(result.Errors) > 0 {
		prune = false
		result.PruneSkipped = true
		i.logger.Warn("importer.prune.skipped", "directory", dir, "errors", len(result.Errors))
	}

	byLanguage := map[string][]*parsedFile{}
	for idx := range parsed {
		file := &parsed[idx]
		byLanguage[file.record.Language] = append(byLanguage[file.record.Language], file)
	}

	for language, group := range byLanguage {
		result.Languages = append(result.Languages, language)
		existing, err := i.pages.ListPages(ctx, language)
		if err != nil {
			return result, fmt.Errorf("importer: list %s pages: %w", language, err)
		}
		i.resolveParents(group, existing)

		seen := map[int64]bool{}
		for _, file := range group {
			seen[file.record.ID] = true
			if opts.DryRun {
				result.Pages = append(result.Pages, file.record)
				continue
			}
			saved, err := i.store(ctx, file)
			if err != nil {
				result.Errors = append(result.Errors, FileError{Path: file.doc.Path, Err: err})
				continue
			}
			result.Pages = append(result.Pages, saved)
		}

		if prune {
			for _, record := range existing {
				if seen[record.ID] {
					continue
				}
				result.Pruned = append(result.Pruned, record)
				if opts.DryRun {
					continue
				}
				if err := i.prune(ctx, record); err != nil {
					return result, err
				}
			}
		}
	}
	slices.Sort(result.Languages)

	i.logger.Info("importer.directory.completed",
		"directory", dir,
		"pages", len(result.Pages),
		"pruned", len(result.Pruned),
		"errors", len(result.Errors),
		"dry_run", opts.DryRun,
	)
	return result, nil
}

func (i *Importer) collect(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path != dir && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		matched, err := filepath.Match(i.pattern, entry.Name())
		if err != nil {
			return err
		}
		if matched {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

func (i *Importer) parse(path string) (parsedFile, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return parsedFile{}, err
	}
	doc, err := markdown.ParseDocument(path, source)
	if err != nil {
		return parsedFile{}, err
	}
	meta := doc.FrontMatter
	if meta.ID <= 0 {
		return parsedFile{}, ErrPageIDMissing
	}

	rawKeyword := meta.Keyword
	if rawKeyword == "" {
		rawKeyword = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	keyword, err := slug.Normalize(rawKeyword)
	if err != nil || keyword == "" {
		return parsedFile{}, fmt.Errorf("%w: %q", ErrKeywordInvalid, rawKeyword)
	}

	language := meta.Language
	if language == "" {
		language = i.defaultLanguage
	}
	title := meta.Title
	if title == "" {
		title = keyword
	}

	record := navigation.PageRecord{
		ID:             meta.ID,
		Keyword:        keyword,
		URL:            meta.URL,
		NavPosition:    meta.NavPosition,
		FooterPosition: meta.FooterPosition,
		IsHeadless:     meta.Headless,
		Language:       language,
		Title:          title,
	}
	if err := record.Validate(); err != nil {
		return parsedFile{}, err
	}

	return parsedFile{
		doc:     doc,
		record:  record,
		parent:  meta.Parent,
		content: bodyNodes(meta, doc.Body),
	}, nil
}

// bodyNodes wraps the markdown body in a single markdown node. Empty bodies
// produce an empty tree.
func bodyNodes(meta markdown.FrontMatter, body []byte) []*styles.Node {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return []*styles.Node{}
	}
	return []*styles.Node{{
		ID:   styles.NewField(meta.ID),
		Kind: styles.KindMarkdown,
		CSS:  meta.CSS,
		Fields: map[string]styles.Field[any]{
			"body": styles.NewField[any](text),
		},
	}}
}

// resolveParents maps the parent reference of each file to a page id. A
// reference is a numeric id or a keyword of the same language, looked up
// among the imported files first and stored pages second. Unknown
// references leave the page at the root.
func (i *Importer) resolveParents(group []*parsedFile, existing []navigation.PageRecord) {
	keywords := map[string]int64{}
	for _, record := range existing {
		keywords[record.Keyword] = record.ID
	}
	for _, file := range group {
		keywords[file.record.Keyword] = file.record.ID
	}

	for _, file := range group {
		ref := file.parent
		if ref == "" {
			continue
		}
		if id, err := strconv.ParseInt(ref, 10, 64); err == nil && id > 0 && id != file.record.ID {
			file.record.Parent = &id
			continue
		}
		normalized, err := slug.Normalize(ref)
		if err == nil {
			if id, ok := keywords[normalized]; ok && id != file.record.ID {
				file.record.Parent = &id
				continue
			}
		}
		i.logger.Warn("importer.parent.unresolved",
			"path", file.doc.Path,
			"keyword", file.record.Keyword,
			"parent", ref,
		)
	}
}

func (i *Importer) store(ctx context.Context, file *parsedFile) (navigation.PageRecord, error) {
	saved, err := i.pages.Save(ctx, file.record)
	if err != nil {
		return navigation.PageRecord{}, err
	}
	doc, err := pagecontent.NewDocument(saved.ID, saved.Language, file.content)
	if err != nil {
		return navigation.PageRecord{}, err
	}
	if _, err := i.contents.Save(ctx, doc); err != nil {
		return navigation.PageRecord{}, err
	}
	i.logger.Debug("importer.page.saved",
		"path", file.doc.Path,
		"keyword", saved.Keyword,
		"language", saved.Language,
		"page_id", saved.ID,
	)
	return saved, nil
}

func (i *Importer) prune(ctx context.Context, record navigation.PageRecord) error {
	if err := i.pages.Delete(ctx, record.Language, record.ID); err != nil && !navigation.IsNotFound(err) {
		return fmt.Errorf("importer: prune page %d: %w", record.ID, err)
	}
	if err := i.contents.Delete(ctx, record.ID, record.Language); err != nil && !pagecontent.IsNotFound(err) {
		return fmt.Errorf("importer: prune content %d: %w", record.ID, err)
	}
	i.logger.Info("importer.page.pruned", "keyword", record.Keyword, "language", record.Language, "page_id", record.ID)
	return nil
}
