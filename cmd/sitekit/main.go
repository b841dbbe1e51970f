package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goliatone/go-sitekit"
	"github.com/goliatone/go-sitekit/cmd/sitekit/internal/bootstrap"
	"github.com/goliatone/go-sitekit/internal/navigation"
)

var moduleBuilder = bootstrap.BuildModule

const usage = `usage: sitekit <command> [flags]

commands:
  import   load markdown pages into storage
  tree     print the navigation tree of a language
  resolve  resolve a request path and print its content
  serve    serve the site and its API over HTTP`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("sitekit: %v", err)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	switch args[0] {
	case "import":
		return runImport(args[1:], out)
	case "tree":
		return runTree(args[1:], out)
	case "resolve":
		return runResolve(args[1:], out)
	case "serve":
		return runServe(args[1:], out)
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

type commonFlags struct {
	contentDir string
	pattern    string
	language   string
	languages  string
	storage    string
	dsn        string
	logger     string
	logLevel   string
}

func registerCommon(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.contentDir, "content-dir", "content", "Path to the markdown content root")
	fs.StringVar(&c.pattern, "pattern", "*.md", "Glob pattern applied to markdown file names")
	fs.StringVar(&c.language, "language", "en", "Default language")
	fs.StringVar(&c.languages, "languages", "", "Comma separated list of languages (defaults to the default language)")
	fs.StringVar(&c.storage, "storage", "", "Storage provider: memory, sqlite or postgres")
	fs.StringVar(&c.dsn, "dsn", "", "Database DSN for SQL storage")
	fs.StringVar(&c.logger, "logger", "", "Logging provider: console or gologger (empty disables logging)")
	fs.StringVar(&c.logLevel, "log-level", "info", "Logging level")
	return c
}

func (c *commonFlags) options() bootstrap.Options {
	opts := bootstrap.Options{
		ContentDir:      c.contentDir,
		Pattern:         c.pattern,
		DefaultLanguage: c.language,
		Languages:       bootstrap.SplitLanguages(c.languages),
		StorageProvider: c.storage,
		DSN:             c.dsn,
		LogProvider:     c.logger,
		LogLevel:        c.logLevel,
	}
	if len(opts.Languages) == 0 {
		opts.Languages = []string{strings.TrimSpace(c.language)}
	}
	return opts
}

// memoryStorage reports whether the pages only live for the process, in which
// case read commands import the content directory first.
func (c *commonFlags) memoryStorage() bool {
	provider := strings.ToLower(strings.TrimSpace(c.storage))
	return provider == "" || provider == sitekit.StorageMemory
}

func runImport(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sitekit-import", flag.ContinueOnError)
	common := registerCommon(fs)
	dryRun := fs.Bool("dry-run", false, "Preview changes without persisting pages")
	prune := fs.Bool("prune", false, "Delete stored pages that no file produced")
	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(common.options())
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Module.Close()

	ctx := context.Background()
	result, err := module.Module.Import(ctx, common.contentDir, sitekit.ImportOptions{DryRun: *dryRun, Prune: *prune})
	if err != nil {
		return fmt.Errorf("import %s: %w", common.contentDir, err)
	}

	for _, page := range result.Pages {
		fmt.Fprintf(out, "page %d %s [%s] %s\n", page.ID, page.Keyword, page.Language, page.URL)
	}
	for _, page := range result.Pruned {
		fmt.Fprintf(out, "pruned %d %s [%s]\n", page.ID, page.Keyword, page.Language)
	}
	for _, fileErr := range result.Errors {
		fmt.Fprintf(out, "error %s\n", fileErr.Error())
	}
	fmt.Fprintf(out, "imported %d pages in %s (dry run: %t)\n", len(result.Pages), strings.Join(result.Languages, ","), result.DryRun)
	return nil
}

func runTree(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sitekit-tree", flag.ContinueOnError)
	common := registerCommon(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := openModule(common)
	if err != nil {
		return err
	}
	defer module.Module.Close()

	snap, err := module.Module.Snapshot(context.Background(), common.language)
	if err != nil {
		return fmt.Errorf("navigation snapshot: %w", err)
	}
	navigation.Walk(snap.Roots, func(node *navigation.NavigationNode, depth int) bool {
		record := node.Record
		marker := ""
		if record.IsHeadless {
			marker = " (headless)"
		}
		fmt.Fprintf(out, "%s%s %s%s\n", strings.Repeat("  ", depth), record.Keyword, record.URL, marker)
		return true
	})
	for _, issue := range snap.Issues {
		fmt.Fprintf(out, "issue: %s page=%d %s\n", issue.Kind, issue.PageID, issue.Detail)
	}
	return nil
}

func runResolve(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sitekit-resolve", flag.ContinueOnError)
	common := registerCommon(fs)
	path := fs.String("path", "/", "Request path to resolve")
	format := fs.String("format", "html", "Output format: html or json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := openModule(common)
	if err != nil {
		return err
	}
	defer module.Module.Close()

	ctx := context.Background()
	result := module.Module.ResolvePath(ctx, *path, common.language)
	if !result.Ready() {
		if result.Err != nil {
			return fmt.Errorf("resolve %s: %w", *path, result.Err)
		}
		return fmt.Errorf("resolve %s: %s", *path, result.State)
	}

	switch strings.ToLower(strings.TrimSpace(*format)) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"keyword": result.Keyword,
			"page_id": result.PageID,
			"params":  result.Params,
			"origin":  result.Origin,
			"nodes":   result.Nodes,
		})
	case "html":
		rendered, err := module.Module.Render(ctx, result.Nodes)
		if err != nil {
			return fmt.Errorf("render %s: %w", *path, err)
		}
		_, err = fmt.Fprintln(out, rendered.HTML)
		return err
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
}

func runServe(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sitekit-serve", flag.ContinueOnError)
	common := registerCommon(fs)
	addr := fs.String("addr", ":8080", "Listen address")
	watch := fs.Bool("watch", false, "Re-import the content directory when it changes")
	apiKey := fs.String("api-key", os.Getenv("SITEKIT_API_KEY"), "Bearer key guarding preview and command routes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := common.options()
	opts.Watch = *watch
	opts.APIKey = *apiKey
	module, err := moduleBuilder(opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Module.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if common.memoryStorage() {
		if _, err := module.Module.Import(ctx, common.contentDir, sitekit.ImportOptions{}); err != nil {
			return fmt.Errorf("initial import: %w", err)
		}
	}
	go func() {
		if err := module.Module.Watch(ctx); err != nil {
			module.Logger.Error("sitekit.cli.watch_failed", "error", err)
		}
	}()

	serverCfg := module.Module.Container().Config.Server
	server := &http.Server{
		Addr:         *addr,
		Handler:      module.Module.Handler(),
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(out, "sitekit serving %s on %s\n", common.contentDir, *addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(serverCfg.ShutdownTimeout))
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openModule(common *commonFlags) (*bootstrap.Module, error) {
	module, err := moduleBuilder(common.options())
	if err != nil {
		return nil, fmt.Errorf("bootstrap module: %w", err)
	}
	if !common.memoryStorage() {
		return module, nil
	}
	if _, err := module.Module.Import(context.Background(), common.contentDir, sitekit.ImportOptions{}); err != nil {
		_ = module.Module.Close()
		return nil, fmt.Errorf("import %s: %w", common.contentDir, err)
	}
	return module, nil
}

func shutdownTimeout(configured time.Duration) time.Duration {
	if configured > 0 {
		return configured
	}
	return 5 * time.Second
}
