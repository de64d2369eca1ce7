// Package watch attaches recursive filesystem change notifications to every
// registered root and turns debounced bursts of events into scan jobs, per
// spec.md §4.6. fsnotify is non-recursive, so the watcher walks each root
// once at registration to Add every subdirectory, and incrementally Adds
// new directories as Create events for directories arrive — reusing
// internal/walker's exclusion policy so .git/node_modules subtrees are
// never watched. Grounded on original_source/src-tauri/src/scanner/
// watcher/mod.rs for event-to-root mapping and debounce semantics, and on
// github.com/fsnotify/fsnotify for the OS primitive.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/calebandcode/diskhygiene/internal/logging"
	"github.com/calebandcode/diskhygiene/internal/scan"
	"github.com/calebandcode/diskhygiene/internal/walker"
)

// debounceWindow suppresses repeated triggers per root, per spec.md §4.6.
const debounceWindow = 5 * time.Second

// Watcher maps OS change events to their containing registered root and
// enqueues a debounced scan job for that root.
type Watcher struct {
	fsw   *fsnotify.Watcher
	coord *scan.Coordinator
	log   *logging.Logger

	mu       sync.Mutex
	roots    []string
	timers   map[string]*time.Timer
	dirRoots map[string]string // watched directory -> owning registered root
}

// New creates a Watcher backed by a fresh fsnotify watcher.
func New(coord *scan.Coordinator, log *logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw: fsw, coord: coord, log: log,
		timers:   make(map[string]*time.Timer),
		dirRoots: make(map[string]string),
	}
	go w.loop()
	return w, nil
}

// AddRoot registers a root for recursive watching: walks it once to Add
// every subdirectory (applying the walker's exclusion policy), then relies
// on Create events to extend coverage as new directories appear.
func (w *Watcher) AddRoot(root string) error {
	w.mu.Lock()
	w.roots = append(w.roots, root)
	w.mu.Unlock()

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && walker.IsSkippedDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			if w.log != nil {
				w.log.Warnf("watch %s: %v", path, err)
			}
			return nil
		}
		w.mu.Lock()
		w.dirRoots[path] = root
		w.mu.Unlock()
		return nil
	})
}

// Close stops the watcher and releases its OS resources.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.log != nil {
				w.log.Errorf("watch error: %v", err)
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if walker.IsSkippedDir(filepath.Base(ev.Name)) {
		return
	}

	kind := classify(ev.Op)
	if kind == "" {
		return
	}

	root := w.ownerRoot(ev.Name)
	if root == "" {
		return
	}

	if kind == "create" {
		if isDirEvent(ev) {
			_ = w.fsw.Add(ev.Name)
			w.mu.Lock()
			w.dirRoots[ev.Name] = root
			w.mu.Unlock()
		}
	}

	w.debounce(root)
}

// classify maps an fsnotify op to spec.md's event-kind vocabulary; rename
// collapses to "generic" since fsnotify reports it as neither create nor
// remove on its own.
func classify(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "modify"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "generic"
	default:
		return ""
	}
}

func isDirEvent(ev fsnotify.Event) bool {
	info, err := os.Stat(ev.Name)
	return err == nil && info.IsDir()
}

func (w *Watcher) ownerRoot(path string) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	best := ""
	for _, r := range w.roots {
		if (path == r || filepath.Dir(path) == r || hasPrefixDir(path, r)) && len(r) > len(best) {
			best = r
		}
	}
	return best
}

func hasPrefixDir(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !filepathHasDotDotPrefix(rel)
}

func filepathHasDotDotPrefix(rel string) bool {
	return len(rel) >= 2 && rel[0] == '.' && rel[1] == '.'
}

func (w *Watcher) debounce(root string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[root]; ok {
		t.Reset(debounceWindow)
		return
	}

	w.timers[root] = time.AfterFunc(debounceWindow, func() {
		w.coord.Enqueue(scan.Job{Roots: []string{root}, Trigger: scan.TriggerWatcher})
		w.mu.Lock()
		delete(w.timers, root)
		w.mu.Unlock()
	})
}
