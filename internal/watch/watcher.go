// Package watch re-runs a callback when JavaScript or TypeScript sources
// under a directory change.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/panbanda/jsflow/pkg/config"
	"github.com/panbanda/jsflow/pkg/parser"
)

// DefaultDebounce is how long a file must be quiet before it is reported.
const DefaultDebounce = 300 * time.Millisecond

// Callback receives the files that settled since the last call, sorted.
type Callback func(ctx context.Context, paths []string)

// Watcher monitors a directory tree for source changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	logger    zerolog.Logger
	debounce  time.Duration
	path      string
	callback  Callback

	mu      sync.Mutex
	pending map[string]time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger for watch errors and notices.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// New creates a watcher for the tree at path. A nil config uses the defaults.
func New(path string, cfg *config.Config, cb Callback, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		logger:    zerolog.Nop(),
		debounce:  DefaultDebounce,
		path:      path,
		callback:  cb,
		pending:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// addTree watches root and every directory below it that is not excluded.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && slices.Contains(w.config.Exclude.Dirs, d.Name()) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// Start watches until ctx is done. It returns nil when the watcher is
// stopped and ctx.Err() on cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.path); err != nil {
		return err
	}
	w.logger.Info().Str("path", w.path).Msg("watching for changes")

	ticker := time.NewTicker(max(w.debounce/3, 10*time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watch error")

		case now := <-ticker.C:
			if ready := w.takeReady(now); len(ready) > 0 && w.callback != nil {
				w.callback(ctx, ready)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	path := event.Name

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !slices.Contains(w.config.Exclude.Dirs, info.Name()) {
				if err := w.addTree(path); err != nil {
					w.logger.Warn().Err(err).Str("path", path).Msg("cannot watch directory")
				}
			}
			return
		}
	}

	rel, err := filepath.Rel(w.path, path)
	if err != nil {
		rel = path
	}
	if w.config.ShouldExclude(rel) {
		return
	}
	if parser.DetectLanguage(path) == parser.LangUnknown {
		return
	}

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// takeReady removes and returns the files quiet for the debounce period.
func (w *Watcher) takeReady(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	slices.Sort(ready)
	return ready
}

// Stop closes the underlying watcher, which ends Start.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the directories being watched.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}
