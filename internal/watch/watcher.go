// Package watch implements the filesystem observer and coalescing
// scheduler (spec §4.4), generalizing cmd/watch.go's fsnotify setup and
// debounce timer from a single-mode CLI watcher into the daemon's
// always-on event source.
package watch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/codegraphd/codegraphd/internal/ignore"
)

// defaultExtensions is the spec §6 watched-extension set.
var defaultExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".jsx": true, ".tsx": true,
	".c": true, ".cpp": true, ".cc": true, ".cxx": true, ".h": true, ".hpp": true,
}

// Watcher wraps fsnotify.Watcher with recursive directory registration and
// ignore-pattern filtering, emitting repository-relative Events on Events().
type Watcher struct {
	root   string
	fsw    *fsnotify.Watcher
	ignore *ignore.Matcher
	log    *logrus.Entry
	events chan Event
	lost   chan struct{}
}

// New creates a Watcher rooted at root (an absolute, cleaned directory).
func New(root string, matcher *ignore.Matcher, log *logrus.Entry) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:   root,
		fsw:    fsw,
		ignore: matcher,
		log:    log,
		events: make(chan Event, 256),
		lost:   make(chan struct{}, 1),
	}
	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Events yields raw, unbatched filesystem events as they're observed.
func (w *Watcher) Events() <-chan Event { return w.events }

// Lost signals when the underlying fsnotify subsystem has disconnected
// (spec §7 WatcherLost).
func (w *Watcher) Lost() <-chan struct{} { return w.lost }

// Close releases the underlying fsnotify watch.
func (w *Watcher) Close() error { return w.fsw.Close() }

// Run drains fsnotify's raw event and error channels until Close is
// called, translating them into repository-relative Events.
func (w *Watcher) Run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				select {
				case w.lost <- struct{}{}:
				default:
				}
				close(w.events)
				return
			}
			w.handleRaw(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				continue
			}
			w.log.WithError(err).Warn("watcher error")
		}
	}
}

func (w *Watcher) handleRaw(ev fsnotify.Event) {
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				w.log.WithError(err).Warn("failed to watch new directory")
			}
			return
		}
	}
	rel, ok := w.relWatched(ev.Name)
	if !ok {
		return
	}
	var kind Kind
	switch {
	case ev.Op&fsnotify.Remove == fsnotify.Remove, ev.Op&fsnotify.Rename == fsnotify.Rename:
		kind = Deleted
	case ev.Op&fsnotify.Create == fsnotify.Create:
		kind = Created
	default:
		kind = Modified
	}
	w.events <- Event{Path: rel, Kind: kind}
}

// relWatched reports the repository-relative path for abs, and whether it
// passes the extension filter and ignore set.
func (w *Watcher) relWatched(abs string) (string, bool) {
	if !filepath.IsAbs(abs) {
		if a, err := filepath.Abs(abs); err == nil {
			abs = a
		}
	}
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(filepath.Clean(rel))
	if w.ignore.Match(rel) {
		return "", false
	}
	ext := strings.ToLower(filepath.Ext(rel))
	if !defaultExtensions[ext] {
		return "", false
	}
	return rel, true
}

// addRecursive walks dir adding every non-ignored subdirectory to the
// fsnotify watch set, generalized from cmd/watch.go's addRecursive which
// hardcoded a fixed set of directory names instead of consulting an
// ignore.Matcher.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && w.ignore.Match(rel+"/") {
			return filepath.SkipDir
		}
		_ = w.fsw.Add(path)
		return nil
	})
}
