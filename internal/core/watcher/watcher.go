// Package watcher reports changes to the class path roots of a session:
// class files below directory roots and the archive files themselves.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"classfinder/internal/shared/observability"
)

type Watcher struct {
	fsWatcher   *fsnotify.Watcher
	debounce    time.Duration
	excludeDirs []glob.Glob
	onChange    func([]string)
	callbackMu  sync.Mutex

	mu sync.Mutex
	// trees are recursively watched directory roots and their subdirectories.
	trees map[string]bool
	// archives are watched through their parent directory.
	archives map[string]bool

	pending   map[string]struct{}
	pendingMu sync.Mutex
	timer     *time.Timer
}

// NewWatcher creates a watcher that calls onChange with the sorted set of
// changed paths once no further events arrive for debounce.
func NewWatcher(debounce time.Duration, excludeDirs []string, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}

	compiled := make([]glob.Glob, 0, len(excludeDirs))
	for _, pattern := range excludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, g)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher:   fsw,
		debounce:    debounce,
		excludeDirs: compiled,
		onChange:    onChange,
		trees:       make(map[string]bool),
		archives:    make(map[string]bool),
		pending:     make(map[string]struct{}),
	}, nil
}

func (w *Watcher) SetDebounce(debounce time.Duration) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.debounce = debounce
}

// Watch registers roots and starts delivering events. Directory roots are
// watched recursively; archive roots through their parent directory. Roots
// that do not exist are skipped.
func (w *Watcher) Watch(roots []string) error {
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			slog.Debug("not watching missing root", "root", root, "error", err)
			continue
		}
		root = filepath.Clean(root)
		if info.IsDir() {
			if err := w.watchRecursive(root); err != nil {
				return err
			}
			continue
		}
		if err := w.fsWatcher.Add(filepath.Dir(root)); err != nil {
			return err
		}
		w.mu.Lock()
		w.archives[root] = true
		w.mu.Unlock()
	}

	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.shouldExcludeDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return err
		}
		w.mu.Lock()
		w.trees[path] = true
		w.mu.Unlock()
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			name := filepath.Clean(event.Name)
			if event.Op&fsnotify.Create == fsnotify.Create && w.inTree(name) {
				info, err := os.Stat(name)
				if err == nil && info.IsDir() {
					if !w.shouldExcludeDir(name) {
						if err := w.watchRecursive(name); err != nil {
							slog.Warn("failed to watch new directory", "path", name, "error", err)
						} else {
							w.enqueueExistingFiles(name)
						}
					}
					continue
				}
			}

			if !w.relevant(name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.scheduleChange(name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

// inTree reports whether path lives directly in a recursively watched
// directory.
func (w *Watcher) inTree(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.trees[filepath.Dir(path)]
}

// relevant reports whether a change to path can alter query results: a
// watched archive, or a class file or nested archive inside a directory root.
func (w *Watcher) relevant(path string) bool {
	w.mu.Lock()
	isArchive := w.archives[path]
	w.mu.Unlock()
	if isArchive {
		return true
	}
	if !w.inTree(path) {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".class", ".jar", ".zip":
		return true
	}
	return false
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = struct{}{}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) shouldExcludeDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range w.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if w.relevant(path) {
			w.scheduleChange(path)
		}
		return nil
	})
}
