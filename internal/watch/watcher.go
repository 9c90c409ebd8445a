// Package watch rebuilds when project sources change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

// TriggerFunc runs one rebuild. It is never called concurrently with itself.
type TriggerFunc func(ctx context.Context) error

// Watcher monitors directory trees and calls a trigger after changes settle.
type Watcher struct {
	roots    []string
	ignore   []string
	debounce time.Duration
	trigger  TriggerFunc
	logger   *slog.Logger

	watcher *fsnotify.Watcher
	pending chan struct{}
	runMu   sync.Mutex
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithIgnore skips events whose path contains any of the given directory
// names, e.g. "_site".
func WithIgnore(names ...string) Option {
	return func(w *Watcher) { w.ignore = append(w.ignore, names...) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New creates a watcher over roots. Missing roots are skipped with a warning.
func New(roots []string, debounce time.Duration, trigger TriggerFunc, opts ...Option) (*Watcher, error) {
	if trigger == nil {
		return nil, fmt.Errorf("watch: trigger is required")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{
		debounce: debounce,
		trigger:  trigger,
		logger:   slog.Default(),
		watcher:  fw,
		pending:  make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(w)
	}
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to resolve watch path %s: %w", r, err)
		}
		w.roots = append(w.roots, abs)
	}
	return w, nil
}

// Run adds the watch roots and blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	watched := 0
	for _, r := range w.roots {
		n, err := w.addTree(r)
		if err != nil {
			return err
		}
		watched += n
	}
	if watched == 0 {
		return fmt.Errorf("watch: none of the configured paths exist")
	}
	w.logger.Info("Watching for changes", logfields.Count(watched), slog.Duration("debounce", w.debounce))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.rebuildLoop(ctx)
	}()
	w.eventLoop(ctx)
	wg.Wait()
	return nil
}

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(root string) (int, error) {
	if _, err := os.Stat(root); err != nil {
		w.logger.Warn("Watch path does not exist", logfields.Path(root))
		return 0, nil
	}
	n := 0
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(p) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		n++
		return nil
	})
	return n, err
}

func (w *Watcher) ignored(p string) bool {
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		for _, ig := range w.ignore {
			if part == ig {
				return true
			}
		}
	}
	return false
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.ignored(ev.Name) {
				continue
			}
			if ev.Op&fsnotify.Create == fsnotify.Create {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if _, err := w.addTree(ev.Name); err != nil {
						w.logger.Warn("Failed to watch new directory", logfields.Path(ev.Name), logfields.Error(err))
					}
				}
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("Change detected", logfields.File(ev.Name), slog.String("op", ev.Op.String()))
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", logfields.Error(err))
		}
	}
}

// schedule marks a rebuild as pending; repeated calls collapse into one.
func (w *Watcher) schedule() {
	select {
	case w.pending <- struct{}{}:
	default:
	}
}

func (w *Watcher) rebuildLoop(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.pending:
			timer.Reset(w.debounce)
		case <-timer.C:
			w.fire(ctx)
		}
	}
}

func (w *Watcher) fire(ctx context.Context) {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := w.trigger(ctx); err != nil {
		w.logger.Error("Rebuild failed", logfields.Error(err))
		return
	}
	w.logger.Info("Rebuild complete", logfields.DurationMS(float64(time.Since(start).Milliseconds())))
}
