// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the quiet period before a rerun. Editors often write
// a temp file and rename it; both events fall into one window.
const defaultDebounce = 500 * time.Millisecond

// ErrAlreadyRunning is returned when Run is called a second time.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Root is the directory to watch, usually the root build. Empty means
		// the working directory.
		Root string

		// Patterns select the files that trigger the callback (doublestar
		// globs relative to Root). Empty means DefaultPatterns().
		Patterns []string

		// Ignore are added to DefaultIgnores().
		Ignore []string

		// Debounce is the quiet period after the last event. Zero or negative
		// values fall back to 500ms.
		Debounce time.Duration

		// OnChange receives the sorted, deduplicated changed paths relative
		// to Root. A nil callback is a no-op.
		OnChange func(ctx context.Context, changed []string) error

		Logger *log.Logger
	}

	// Watcher reruns its callback when matching files change. Run must be
	// called exactly once.
	Watcher struct {
		cfg     Config
		fsw     *fsnotify.Watcher
		match   *matcher
		root    string
		logger  *log.Logger
		started atomic.Bool
		deb     *debouncer
	}

	// debouncer coalesces changed paths and runs the callback at most once
	// at a time. A fire that finds the callback busy re-arms the timer so
	// pending paths are not lost.
	debouncer struct {
		mu      sync.Mutex
		pending map[string]struct{}
		timer   *time.Timer
		delay   time.Duration
		running atomic.Bool
		run     func(changed []string)
		logger  *log.Logger
	}
)

// New creates a Watcher and registers every non-ignored directory below
// the root.
func New(cfg Config) (*Watcher, error) {
	root := cfg.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		root = wd
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}

	match, err := newMatcher(cfg.Patterns, cfg.Ignore)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	delay := cfg.Debounce
	if delay <= 0 {
		delay = defaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:    cfg,
		fsw:    fsw,
		match:  match,
		root:   absRoot,
		logger: logger,
		deb: &debouncer{
			pending: make(map[string]struct{}),
			delay:   delay,
			logger:  logger,
		},
	}
	if err := w.addTree(absRoot); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("close watcher after init failure", "err", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// Root returns the absolute watched directory.
func (w *Watcher) Root() string { return w.root }

// Run processes events until ctx is cancelled. It returns nil on
// cancellation and an error when the underlying watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	w.deb.run = func(changed []string) {
		if ctx.Err() != nil || w.cfg.OnChange == nil {
			return
		}
		w.logger.Info("inputs changed, rerunning", "files", len(changed))
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.logger.Error("rerun failed", "err", err)
		}
	}
	defer func() {
		w.deb.stop()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close watcher", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed unexpectedly")
			}
			w.handle(evt)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed unexpectedly")
			}
			if isFatalWatchError(err) {
				return fmt.Errorf("watch: fatal watcher error: %w", err)
			}
			w.logger.Warn("watcher error", "err", err)
		}
	}
}

func (w *Watcher) handle(evt fsnotify.Event) {
	rel, err := filepath.Rel(w.root, evt.Name)
	if err != nil {
		rel = evt.Name
	}
	if evt.Has(fsnotify.Create) {
		if info, statErr := os.Stat(evt.Name); statErr == nil && info.IsDir() && !w.match.ignored(rel) {
			// New directories may hold matching files created right after.
			if err := w.addTree(evt.Name); err != nil {
				w.logger.Warn("watch new directory", "dir", rel, "err", err)
			}
		}
	}
	if !w.match.selected(rel) {
		return
	}
	w.logger.Debug("change", "path", rel, "op", evt.Op.String())
	w.deb.add(filepath.ToSlash(rel))
}

// addTree registers dir and every non-ignored directory below it.
func (w *Watcher) addTree(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.logger.Warn("skipping inaccessible path", "path", path, "err", walkErr)
			return nil //nolint:nilerr // inaccessible directories are not watched
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return nil //nolint:nilerr // outside the root
		}
		if rel != "." && w.match.ignored(rel) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk %s: %w", dir, err)
	}
	return nil
}

func (d *debouncer) add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[path] = struct{}{}
	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.fire)
		return
	}
	d.timer.Reset(d.delay)
}

func (d *debouncer) fire() {
	if !d.running.CompareAndSwap(false, true) {
		d.logger.Debug("previous run still in progress, deferring")
		d.mu.Lock()
		if d.timer != nil {
			d.timer.Reset(d.delay)
		}
		d.mu.Unlock()
		return
	}
	defer d.running.Store(false)

	d.mu.Lock()
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	changed := slices.Sorted(maps.Keys(d.pending))
	clear(d.pending)
	d.mu.Unlock()

	if d.run != nil {
		d.run(changed)
	}
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
