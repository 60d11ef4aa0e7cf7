package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"execauth/pkg/logging"
)

// DefaultDebounceInterval is the time to wait after the last file change
// before the change callback fires. Editors often write config files in
// several operations; debouncing avoids reloading a half-written file.
const DefaultDebounceInterval = 500 * time.Millisecond

// Watcher monitors a configuration file for changes and invokes a callback
// when it is modified. Long-lived consumers use it to rebuild their
// credential provider when the plugin definition changes underneath them.
type Watcher struct {
	mu sync.Mutex

	// path is the watched config file.
	path string

	// onChange is called (debounced) after the file changes.
	onChange func()

	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	running   bool

	debounceMu    sync.Mutex
	debounceTimer *time.Timer
	debounce      time.Duration
}

// NewWatcher creates a watcher for the given config file. The callback runs
// on the watcher's goroutine; it must not block for long.
func NewWatcher(path string, onChange func()) *Watcher {
	return &Watcher{
		path:     path,
		onChange: onChange,
		debounce: DefaultDebounceInterval,
	}
}

// Start begins watching. The parent directory is watched rather than the
// file itself so atomic replace-by-rename (the common editor save strategy)
// is observed.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		_ = fsWatcher.Close()
		return err
	}

	w.fsWatcher = fsWatcher
	w.stopCh = make(chan struct{})
	w.running = true

	go w.watchLoop()
	logging.Debug("Watcher", "Watching %s for configuration changes", w.path)
	return nil
}

// Stop stops watching. Safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	close(w.stopCh)
	_ = w.fsWatcher.Close()
	w.running = false

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logging.Debug("Watcher", "Config file %s changed (%s)", w.path, event.Op)
			w.scheduleChange()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logging.Warn("Watcher", "Config watch error: %v", err)
		}
	}
}

// scheduleChange (re)arms the debounce timer.
func (w *Watcher) scheduleChange() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounce, w.onChange)
}
