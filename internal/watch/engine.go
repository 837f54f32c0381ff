package watch

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// EventKind classifies an attributed change event.
type EventKind int

const (
	// ManifestChange signals a change to a manifest or ignore file. The
	// graph's topology may have shifted; the caller must re-discover.
	ManifestChange EventKind = iota
	// ComponentChange signals a change to a file inside a component's
	// declared inputs.
	ComponentChange
)

// String returns a human-readable representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case ManifestChange:
		return "manifest"
	case ComponentChange:
		return "component"
	default:
		return "unknown"
	}
}

// Event is one attributed filesystem change. Component is set only for
// ComponentChange events.
type Event struct {
	Kind      EventKind
	Path      string
	Component string
}

// skipDirs are never registered with the underlying watcher.
var skipDirs = map[string]bool{
	".git": true,
	".hg":  true,
	".svn": true,
}

// Engine is a long-lived subscription attributing raw filesystem events
// against one application graph's scope tables. Events are consumed
// single-threaded: each delivered event is fully attributed and emitted
// before the next is processed. Attribution never fails the subscription;
// unresolvable paths are silently dropped.
type Engine struct {
	scopes       *Scopes
	manifestName string
	ignoreNames  map[string]bool

	watcher *fsnotify.Watcher
	events  chan Event
	done    chan struct{}
	stopped chan struct{}

	closeOnce sync.Once

	// dirEntries caches each directory's immediate entry count, filled
	// lazily on first observation, to coalesce directory touches that did
	// not change the directory's contents.
	dirEntries map[string]int
}

// NewEngine starts watching the scope root. manifestName and ignoreNames are
// the base filenames whose changes always signal a manifest topology change,
// regardless of any pattern scope.
func NewEngine(scopes *Scopes, manifestName string, ignoreNames []string) (*Engine, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		scopes:       scopes,
		manifestName: manifestName,
		ignoreNames:  make(map[string]bool, len(ignoreNames)),
		watcher:      watcher,
		events:       make(chan Event, 100),
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
		dirEntries:   make(map[string]int),
	}
	for _, name := range ignoreNames {
		e.ignoreNames[name] = true
	}

	if err := e.addRecursive(scopes.Root); err != nil {
		watcher.Close()
		return nil, err
	}

	go e.processEvents()
	return e, nil
}

// Events returns the attributed event channel. It is closed when the engine
// is closed.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Close stops the subscription and blocks until the processing loop has
// exited and the event channel is closed. Idempotent.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.done)
		err = e.watcher.Close()
		<-e.stopped
		close(e.events)
	})
	return err
}

// addRecursive registers dir and all its subdirectories with the watcher.
func (e *Engine) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if skipDirs[info.Name()] {
			return filepath.SkipDir
		}
		if err := e.watcher.Add(path); err != nil {
			if os.IsPermission(err) {
				return nil
			}
			return err
		}
		return nil
	})
}

func (e *Engine) processEvents() {
	defer close(e.stopped)
	for {
		select {
		case <-e.done:
			return
		case event, ok := <-e.watcher.Events:
			if !ok {
				return
			}
			e.handleEvent(event)
		case _, ok := <-e.watcher.Errors:
			if !ok {
				return
			}
			// Watcher errors never fail attribution; the subscription
			// keeps running on whatever events still arrive.
		}
	}
}

// handleEvent attributes a single raw event.
func (e *Engine) handleEvent(event fsnotify.Event) {
	path := event.Name

	isDir := false
	if info, err := os.Stat(path); err == nil {
		isDir = info.IsDir()
	}

	// Newly created directories join the watch set immediately so events
	// under them are not lost.
	if event.Has(fsnotify.Create) && isDir && !skipDirs[filepath.Base(path)] {
		_ = e.addRecursive(path)
	}

	// Manifest topology changes trump every pattern scope.
	base := filepath.Base(path)
	if base == e.manifestName || e.ignoreNames[base] {
		e.emit(Event{Kind: ManifestChange, Path: path})
		return
	}

	if isDir && e.coalesceDir(path) {
		return
	}

	// Exclusion before inclusion: an ignore scope covering the path wins
	// over any watch scope, blanket ones included.
	if e.scopes.Excluded(path, isDir) {
		return
	}

	for _, component := range e.scopes.Attribute(path, isDir) {
		e.emit(Event{Kind: ComponentChange, Path: path, Component: component})
	}
}

// coalesceDir reports whether a directory touch should be suppressed: the
// directory's immediate entry count is unchanged since last observed. Counts
// are cached lazily, so the first observation of a directory always passes.
func (e *Engine) coalesceDir(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return true
	}
	count := len(entries)
	if prev, ok := e.dirEntries[dir]; ok && prev == count {
		return true
	}
	e.dirEntries[dir] = count
	return false
}

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	case <-e.done:
	}
}
