// Package watcher watches LM Studio install locations and the settings file
// so the status refreshes without waiting for the next poll.
package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// EventType represents the type of file system event.
type EventType int

// Event types for file system changes.
const (
	EventInstallChanged EventType = iota
	EventSettingsChanged
)

func (t EventType) String() string {
	if t == EventSettingsChanged {
		return "settings"
	}
	return "install"
}

// Event represents a debounced file system change.
type Event struct {
	Type EventType
	Path string
}

const defaultDebounce = 500 * time.Millisecond

// Watcher watches directories and reports debounced changes.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	eventsChan   chan Event
	done         chan struct{}
	stopOnce     sync.Once
	log          zerolog.Logger
	settingsFile string
	delay        time.Duration

	mu      sync.RWMutex
	watched map[string]bool

	debounce   map[EventType]*time.Timer
	debounceMu sync.Mutex
}

// New creates a new file system watcher. settingsFile may be empty.
func New(settingsFile string, log zerolog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher:    fsWatcher,
		eventsChan:   make(chan Event, 16),
		done:         make(chan struct{}),
		log:          log,
		settingsFile: settingsFile,
		delay:        defaultDebounce,
		watched:      make(map[string]bool),
		debounce:     make(map[EventType]*time.Timer),
	}, nil
}

// Events returns the channel for receiving events.
func (w *Watcher) Events() <-chan Event {
	return w.eventsChan
}

// Start watches the given install directories plus the settings directory.
// Missing directories are skipped.
func (w *Watcher) Start(dirs []string) error {
	if w.settingsFile != "" {
		if err := w.Watch(filepath.Dir(w.settingsFile)); err != nil {
			w.log.Warn().Err(err).Msg("failed to watch settings dir")
		}
	}
	for _, d := range dirs {
		if err := w.Watch(d); err != nil {
			w.log.Debug().Err(err).Str("dir", d).Msg("not watching")
		}
	}

	go w.processEvents()
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsWatcher.Close()

		w.debounceMu.Lock()
		for _, t := range w.debounce {
			t.Stop()
		}
		w.debounceMu.Unlock()
	})
}

// Watch adds a directory. Adding the same directory twice is a no-op.
func (w *Watcher) Watch(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir = filepath.Clean(dir)
	if w.watched[dir] {
		return nil
	}
	if fi, err := os.Stat(dir); err != nil {
		return err
	} else if !fi.IsDir() {
		dir = filepath.Dir(dir)
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		return err
	}
	w.watched[dir] = true
	w.log.Debug().Str("dir", dir).Msg("watching")
	return nil
}

// Watched lists the watched directories.
func (w *Watcher) Watched() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.watched))
	for d := range w.watched {
		out = append(out, d)
	}
	return out
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	typ := w.classify(event.Name)
	w.log.Debug().Str("op", event.Op.String()).Str("path", event.Name).Stringer("type", typ).Msg("fsnotify")
	w.debounceEvent(Event{Type: typ, Path: event.Name})
}

func (w *Watcher) classify(path string) EventType {
	if w.settingsFile != "" && filepath.Clean(path) == filepath.Clean(w.settingsFile) {
		return EventSettingsChanged
	}
	return EventInstallChanged
}

// debounceEvent collapses bursts of the same event type into one.
func (w *Watcher) debounceEvent(ev Event) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounce[ev.Type]; ok {
		timer.Stop()
	}
	w.debounce[ev.Type] = time.AfterFunc(w.delay, func() {
		w.debounceMu.Lock()
		delete(w.debounce, ev.Type)
		w.debounceMu.Unlock()

		select {
		case w.eventsChan <- ev:
		case <-w.done:
		}
	})
}
