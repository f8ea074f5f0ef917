// Package watcher re-runs an audit whenever a project file that the audit
// scans changes, or any non-ignored file is created, removed or renamed.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/brightai/refcheck/internal/paths"
	"github.com/brightai/refcheck/internal/project"
)

// DefaultDebounce is the quiet period before a batch of changes is handled.
const DefaultDebounce = 300 * time.Millisecond

// Watcher monitors a project directory and batches relevant changes.
type Watcher struct {
	root       string
	include    []string
	ignore     []string
	reportsDir string

	// Configuration
	debounceDelay time.Duration
	debug         bool

	// Internal state
	fsWatcher *fsnotify.Watcher
	pending   map[string]time.Time
	mu        sync.Mutex

	// Callbacks
	onChange func(ctx context.Context, changed []string) error
	onError  func(err error)
}

// Config holds configuration options for the Watcher.
type Config struct {
	Root          string
	Include       []string // Project-relative globs of files that trigger a run
	Ignore        []string
	ReportsDir    string // Never watched; audits write here
	DebounceDelay time.Duration
	Debug         bool

	// OnChange receives the sorted project-relative paths of one batch.
	OnChange func(ctx context.Context, changed []string) error

	// OnError receives errors returned by OnChange; optional.
	OnError func(err error)
}

// New creates a new Watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("project root is required")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("change handler is required")
	}

	debounce := cfg.DebounceDelay
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		root:          cfg.Root,
		include:       cfg.Include,
		ignore:        cfg.Ignore,
		reportsDir:    cfg.ReportsDir,
		debounceDelay: debounce,
		debug:         cfg.Debug,
		pending:       make(map[string]time.Time),
		onChange:      cfg.OnChange,
		onError:       cfg.OnError,
	}, nil
}

// Start begins watching the project for file changes.
// It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	if err := w.addWatchRecursive(w.root); err != nil {
		return fmt.Errorf("failed to watch project: %w", err)
	}

	w.logDebug("Watching project: %s", w.root)

	go w.processDebounced(ctx)

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
			w.logDebug("Watcher error: %v", err)
		}
	}
}

// anyFile matches every project file. Creating or removing an asset changes
// the file index even though the audit never scans the asset itself.
var anyFile = []string{"**"}

// Relevant reports whether the operation on the absolute path should trigger
// a run. Writes count only for scanned files; creates, removes and renames
// count for any file that is not ignored.
func (w *Watcher) Relevant(path string, op fsnotify.Op) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = paths.ToSlash(rel)
	if rel == "." || strings.HasPrefix(rel, "../") {
		return false
	}
	if w.insideReports(path) {
		return false
	}
	if op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
		return project.Matches(rel, anyFile, w.ignore)
	}
	if op&fsnotify.Write != 0 {
		return project.Matches(rel, w.include, w.ignore)
	}
	return false
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.addWatchRecursive(path)
			return
		}
	}

	if !w.Relevant(path, event.Op) {
		return
	}

	w.logDebug("Event: %s %s", event.Op, path)
	w.schedule(path)
}

// schedule adds a path to the pending batch with debouncing.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = time.Now()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

// processPending hands the batch to OnChange once no path in it has changed
// for the debounce delay.
func (w *Watcher) processPending(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	now := time.Now()
	for _, scheduledAt := range w.pending {
		if now.Sub(scheduledAt) < w.debounceDelay {
			w.mu.Unlock()
			return
		}
	}
	batch := make([]string, 0, len(w.pending))
	for path := range w.pending {
		rel, _ := filepath.Rel(w.root, path)
		batch = append(batch, paths.ToSlash(rel))
	}
	w.pending = make(map[string]time.Time)
	w.mu.Unlock()

	sort.Strings(batch)
	w.logDebug("Running after %d change(s)", len(batch))
	if err := w.onChange(ctx, batch); err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		w.logDebug("Run failed: %v", err)
	}
}

// addWatchRecursive adds a directory and all subdirectories to the watcher.
func (w *Watcher) addWatchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			if path != w.root && w.shouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			if err := w.fsWatcher.Add(path); err != nil {
				w.logDebug("Failed to watch %s: %v", path, err)
			}
		}
		return nil
	})
}

// shouldIgnoreDir returns true if the directory should not be watched.
func (w *Watcher) shouldIgnoreDir(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || base == "node_modules" {
		return true
	}
	return w.insideReports(path)
}

func (w *Watcher) insideReports(path string) bool {
	if w.reportsDir == "" {
		return false
	}
	rel, err := filepath.Rel(w.reportsDir, path)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(paths.ToSlash(rel), "..")
}

// logDebug logs a debug message if debug mode is enabled.
func (w *Watcher) logDebug(format string, args ...interface{}) {
	if w.debug {
		fmt.Fprintf(os.Stderr, "[refcheck-watcher] "+format+"\n", args...)
	}
}
