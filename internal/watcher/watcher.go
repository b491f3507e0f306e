package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dgallion1/plcdoc/internal/parser"
)

// DefaultDebounce is how long the input must stay quiet before a rebuild.
const DefaultDebounce = 500 * time.Millisecond

// RebuildFunc is called with the changed paths, relative to the root and
// sorted, once a burst of changes has settled.
type RebuildFunc func(ctx context.Context, changed []string)

// Watcher watches an input tree for changes to supported source files.
type Watcher struct {
	rootDir  string
	ignored  func(rel string) bool
	fsw      *fsnotify.Watcher
	debounce time.Duration
	log      *slog.Logger
}

// New watches rootDir and every directory below it that ignored does not
// reject. ignored receives slash separated paths relative to rootDir and
// may be nil.
func New(rootDir string, ignored func(rel string) bool, log *slog.Logger) (*Watcher, error) {
	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, fmt.Errorf("stat watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", rootDir)
	}
	if ignored == nil {
		ignored = func(string) bool { return false }
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}

	w := &Watcher{
		rootDir:  rootDir,
		ignored:  ignored,
		fsw:      fsw,
		debounce: DefaultDebounce,
		log:      log,
	}
	// The trailing separator lets the walk descend into a symlinked root.
	if err := w.addRecursive(filepath.Clean(rootDir) + string(os.PathSeparator)); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// SetDebounce changes the quiet period. Call it before Run.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Run delivers debounced changes to rebuild until ctx is done. Rebuilds
// run on the calling goroutine, so they never overlap; changes arriving
// during a rebuild start the next quiet period.
func (w *Watcher) Run(ctx context.Context, rebuild RebuildFunc) error {
	defer w.fsw.Close()

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	changed := make(map[string]bool)

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				stopTimer()
				return nil
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if w.ignored(w.rel(event.Name)) {
						continue
					}
					if err := w.addRecursive(event.Name); err != nil {
						w.log.Warn("watch new directory", "path", event.Name, "error", err)
					}
					// Files copied in with the directory produce no events of
					// their own.
					changed[w.rel(event.Name)+"/"] = true
					timer = w.reset(timer, fire)
					continue
				}
			}

			if !w.relevant(event) {
				continue
			}
			changed[w.rel(event.Name)] = true
			timer = w.reset(timer, fire)

		case <-fire:
			if len(changed) == 0 {
				continue
			}
			paths := make([]string, 0, len(changed))
			for p := range changed {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			changed = make(map[string]bool)

			w.log.Info("input changed", "files", len(paths))
			rebuild(ctx, paths)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				stopTimer()
				return nil
			}
			w.log.Warn("file watcher error", "error", err)
		}
	}
}

// reset restarts the quiet period.
func (w *Watcher) reset(timer *time.Timer, fire chan struct{}) *time.Timer {
	if timer != nil {
		timer.Stop()
	}
	return time.AfterFunc(w.debounce, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

// relevant reports whether an event touches a supported, non-ignored file.
// Renames count: editors often save by renaming a temp file into place.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if !parser.IsSupportedExtension(filepath.Base(event.Name)) {
		return false
	}
	return !w.ignored(w.rel(event.Name))
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.rootDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// addRecursive adds dir and its non-ignored subdirectories. Unreadable
// directories are logged and skipped.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			w.log.Warn("watch walk", "path", p, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel := w.rel(p); rel != "." && w.ignored(rel) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(filepath.Clean(p)); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}
