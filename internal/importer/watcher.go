package importer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-sitekit/internal/logging"
	"github.com/goliatone/go-sitekit/pkg/interfaces"
)

const DefaultDebounce = 250 * time.Millisecond

var ErrImporterRequired = errors.New("importer: watcher needs an importer")

// ChangeFunc receives the result of each import triggered by the watcher.
type ChangeFunc func(ctx context.Context, result Result)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long the watcher waits for file events to settle.
func WithDebounce(delay time.Duration) WatcherOption {
	return func(w *Watcher) {
		if delay > 0 {
			w.debounce = delay
		}
	}
}

// WithWatcherLogger overrides the watcher logger.
func WithWatcherLogger(logger interfaces.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithImportOptions sets the options used for every triggered import.
func WithImportOptions(opts Options) WatcherOption {
	return func(w *Watcher) {
		w.options = opts
	}
}

// Watcher re-imports a directory whenever files below it change. Bursts of
// events are collapsed into one import.
type Watcher struct {
	importer *Importer
	dir      string
	onChange ChangeFunc
	debounce time.Duration
	options  Options
	logger   interfaces.Logger
}

func NewWatcher(importer *Importer, dir string, onChange ChangeFunc, opts ...WatcherOption) (*Watcher, error) {
	if importer == nil {
		return nil, ErrImporterRequired
	}
	if strings.TrimSpace(dir) == "" {
		return nil, ErrDirectoryMissing
	}
	w := &Watcher{
		importer: importer,
		dir:      dir,
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Run watches until ctx is done. It blocks and returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := addRecursive(fsw, w.dir); err != nil {
		return err
	}
	w.logger.Info("importer.watch.started", "directory", w.dir, "debounce", w.debounce)

	var (
		mu    sync.Mutex
		timer *time.Timer
		wg    sync.WaitGroup
	)
	defer func() {
		mu.Lock()
		if timer != nil && timer.Stop() {
			wg.Done()
		}
		mu.Unlock()
		wg.Wait()
	}()

	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil && timer.Stop() {
			wg.Done()
		}
		wg.Add(1)
		timer = time.AfterFunc(w.debounce, func() {
			defer wg.Done()
			w.trigger(ctx)
		})
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("importer.watch.stopped", "directory", w.dir)
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(fsw, event.Name); err != nil {
						w.logger.Warn("importer.watch.add_failed", "path", event.Name, "error", err)
					}
				}
			}
			w.logger.Debug("importer.watch.event", "path", event.Name, "op", event.Op.String())
			schedule()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("importer.watch.error", "error", err)
		}
	}
}

func (w *Watcher) trigger(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	result, err := w.importer.ImportDirectory(ctx, w.dir, w.options)
	if err != nil {
		w.logger.Error("importer.watch.import_failed", "directory", w.dir, "error", err)
		return
	}
	if w.onChange != nil {
		w.onChange(ctx, result)
	}
}

func addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(entry.Name(), ".") {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
