// Package watchrun implements `--watch`: recursive filesystem watching that
// re-runs the whole scan pipeline after the tree goes quiet for a moment.
// Adapted from the teacher's watcher/watcher.go: the same recursive
// fsnotify.Watcher-plus-debouncer shape, but driving a full pipeline rerun
// instead of an incremental index resync (SPEC_FULL.md §13 non-goal: no
// diffing or merging of result sets between runs).
package watchrun

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ravelsoft/ucg/filetype"
)

// Watcher recursively watches a set of root directories and invokes a
// caller-supplied rerun function once the tree has been quiet for
// quietPeriod.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *debouncer
	types     *filetype.Registry
	log       *slog.Logger

	quietPeriod time.Duration
}

// New creates a Watcher rooted at each of roots, registering every
// non-excluded subdirectory (per types.IsDirExcluded) with fsnotify. log
// receives per-directory watch failures; if nil, slog.Default() is used.
func New(roots []string, types *filetype.Registry, log *slog.Logger, quietPeriod time.Duration) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher:   fsWatcher,
		debouncer:   newDebouncer(quietPeriod),
		types:       types,
		log:         log,
		quietPeriod: quietPeriod,
	}

	for _, root := range roots {
		if err := w.watchTree(root); err != nil {
			fsWatcher.Close()
			return nil, err
		}
	}

	return w, nil
}

func (w *Watcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree: skip it, mirroring traverse's own tolerance
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.types.IsDirExcluded(d.Name()) {
			return filepath.SkipDir
		}
		if watchErr := w.fsWatcher.Add(path); watchErr != nil {
			w.log.Warn("failed to watch directory", "path", path, "error", watchErr)
		}
		return nil
	})
}

// Changes returns the channel that receives a changed-path count each time
// the watched tree goes quiet after a burst of events.
func (w *Watcher) Changes() <-chan int {
	return w.debouncer.output
}

// Run drains fsnotify events until the watcher is closed. Call it in its
// own goroutine; it returns when Close is called.
func (w *Watcher) Run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.types.IsDirExcluded(filepath.Base(path)) {
				if err := w.fsWatcher.Add(path); err != nil {
					w.log.Warn("failed to watch new directory", "path", path, "error", err)
				}
			}
			return
		}
	}

	w.debouncer.signal(path)
}

// Close stops the watcher and releases its OS resources.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

// RunLoop watches until ctx-like cancellation via the done channel, calling
// rerun each time the tree quiets down. rerun has no error result: it
// reports its own failures, and the loop keeps waiting for the next change
// after every call until done is closed.
func RunLoop(w *Watcher, done <-chan struct{}, rerun func()) {
	go w.Run()
	for {
		select {
		case n, ok := <-w.Changes():
			if !ok {
				return
			}
			w.log.Info("tree changed, re-running scan", "changed_paths", n)
			rerun()
		case <-done:
			w.Close()
			return
		}
	}
}
