package rules

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"comet/internal/engine"
	"comet/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches rule files for changes and reloads them into the engine.
// Re-registration overwrites by id, so reloading a file is idempotent.
// Deleted files are not unregistered; the registry has no delete operation.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	loader      *Loader
	eng         *engine.Engine
	paths       []string // Files or directories from config
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats WatcherStats
}

// WatcherStats tracks watcher activity for debugging.
type WatcherStats struct {
	FilesCreated       int
	FilesModified      int
	FilesDeleted       int
	ReloadsTriggered   int
	ShortcutsReloaded  int
	Errors             int
	LastEventTime      time.Time
	LastEventPath      string
	LastEventType      string
}

// NewWatcher creates a watcher over the given rule files/directories.
func NewWatcher(paths []string, loader *Loader, eng *engine.Engine, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		watcher:     fsw,
		loader:      loader,
		eng:         eng,
		paths:       paths,
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching the configured paths. Non-blocking; the event
// loop runs in a goroutine until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil // Already running
	}
	w.running = true
	w.mu.Unlock()

	for _, path := range w.paths {
		dir := path
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			// fsnotify watches directories; for a file, watch its parent.
			dir = filepath.Dir(path)
		}
		if err := w.watcher.Add(dir); err != nil {
			logging.Get(logging.CategoryWatch).Warn("watch failed for %s: %v", dir, err)
		} else {
			logging.Watch("watching: %s", dir)
			logging.Audit().WatchEvent(logging.AuditWatchStart, dir)
		}
	}

	go w.run(ctx)

	return nil
}

// Stop stops the watcher and waits for cleanup.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.WatchError("error closing watcher: %v", err)
	}
	logging.Watch("watcher stopped")
	logging.Audit().WatchEvent(logging.AuditWatchStop, "")
}

// run is the main event loop for the watcher.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Watch("context cancelled")
			return

		case <-w.stopCh:
			logging.Watch("stop signal received")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				logging.Watch("event channel closed")
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				logging.Watch("error channel closed")
				return
			}
			logging.WatchError("watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			w.processDebouncedEvents()
		}
	}
}

// handleEvent records a filesystem event for debounced processing.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !isRuleFile(event.Name) {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Remove != 0:
		eventType = "delete"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	default:
		return // Ignore chmod, etc.
	}

	logging.WatchDebug("%s event for %s", eventType, event.Name)

	w.mu.Lock()
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.stats.LastEventType = eventType

	switch eventType {
	case "create":
		w.stats.FilesCreated++
	case "modify":
		w.stats.FilesModified++
	case "delete", "rename":
		w.stats.FilesDeleted++
	}

	if eventType == "create" || eventType == "modify" {
		// Debounce: record the event for later processing.
		w.debounceMap[event.Name] = time.Now()
	}
	w.mu.Unlock()
}

// processDebouncedEvents reloads files whose events settled past the window.
func (w *Watcher) processDebouncedEvents() {
	w.mu.Lock()
	now := time.Now()
	toReload := make([]string, 0)
	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.debounceDur {
			toReload = append(toReload, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range toReload {
		w.reload(path)
	}
}

// reload loads one settled rule file into the engine.
func (w *Watcher) reload(path string) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			logging.WatchDebug("file gone, skipping reload: %s", path)
			return
		}
	}

	registered, err := w.loader.LoadFile(path, w.eng)
	if err != nil {
		logging.WatchError("reload failed for %s: %v", path, err)
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}

	logging.Watch("reloaded %s (%d shortcuts)", path, registered)
	logging.Audit().RulesReloaded(path, registered)

	w.mu.Lock()
	w.stats.ReloadsTriggered++
	w.stats.ShortcutsReloaded += registered
	w.mu.Unlock()
}

// TriggerReload manually reloads all configured paths.
// Useful for startup and tests.
func (w *Watcher) TriggerReload() error {
	logging.Watch("manual reload triggered")

	for _, path := range w.paths {
		if _, err := w.loader.LoadPath(path, w.eng); err != nil {
			return err
		}
		w.mu.Lock()
		w.stats.ReloadsTriggered++
		w.mu.Unlock()
	}
	return nil
}

// GetStats returns the current watcher statistics.
func (w *Watcher) GetStats() WatcherStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching returns true if the watcher is currently running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
