package enum

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeKind describes the type of file change detected.
type ChangeKind int

const (
	ChangeModified ChangeKind = iota // file written or replaced
	ChangeRemoved                    // file deleted
)

func (k ChangeKind) String() string {
	if k == ChangeRemoved {
		return "removed"
	}
	return "modified"
}

// Change is a settled change to one enumeration file.
type Change struct {
	Kind ChangeKind
	File string // absolute path
	At   time.Time
}

// watchDebounce is how long a file must be quiet before its change is
// emitted. A SafeDump shows up as remove + create and collapses into one
// change.
const watchDebounce = 100 * time.Millisecond

// Watcher monitors an enumeration directory for changes to its data files.
type Watcher struct {
	Dir     string
	Changes <-chan Change

	changes  chan Change
	stop     chan struct{}
	done     chan struct{}
	watcher  *fsnotify.Watcher
	started  bool
	stopOnce sync.Once
}

// NewWatcher creates a watcher for the directory of d.
func NewWatcher(d *Data) (*Watcher, error) {
	return newDirWatcher(d.Dir())
}

func newDirWatcher(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	ch := make(chan Change, 16)
	return &Watcher{
		Dir:     dir,
		Changes: ch,
		changes: ch,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		watcher: fw,
	}, nil
}

// Start begins watching. The directory must exist.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.Dir); err != nil {
		w.watcher.Close()
		close(w.done)
		return fmt.Errorf("watching %s: %w", w.Dir, err)
	}
	w.started = true
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel. It does not wait for
// Changes to be drained, and it is safe to call without Start or more than
// once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.watcher.Close()
		if w.started {
			<-w.done
		}
		close(w.changes)
	})
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(watchDebounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				for file := range pending {
					if !w.emit(file) {
						return
					}
				}
				return
			}
			if !isDataFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[event.Name] = time.Now()
			}

		case <-ticker.C:
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) >= watchDebounce {
					if !w.emit(file) {
						return
					}
					delete(pending, file)
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal.
		}
	}
}

func isDataFile(name string) bool {
	switch filepath.Base(name) {
	case MetaFile, ScelSetFile, ScelListFile, ConfigSetFile, ConfigListFile:
		return true
	}
	return false
}

// emit sends a change for file and reports false once Stop has been called.
func (w *Watcher) emit(file string) bool {
	kind := ChangeModified
	if _, err := os.Stat(file); os.IsNotExist(err) {
		kind = ChangeRemoved
	}
	select {
	case w.changes <- Change{Kind: kind, File: file, At: time.Now()}:
		return true
	case <-w.stop:
		return false
	}
}
