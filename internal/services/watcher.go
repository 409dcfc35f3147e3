package services

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rejot-dev/thalo/internal/logging"
	"github.com/rejot-dev/thalo/internal/workspace"
)

// Watcher keeps a workspace in sync with out-of-band edits to thalo
// files on disk, so the language-service layer does not have to poll.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	ws       *workspace.Workspace
	debounce map[string]time.Time
	window   time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool

	// OnChange, when set, runs after each applied update with the
	// affected filename (e.g. to re-check the document).
	OnChange func(filename string)
}

// NewWatcher builds a Watcher over ws, watching dirs recursively is the
// caller's concern: Add each directory holding workspace files.
func NewWatcher(ws *workspace.Workspace) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fsw,
		ws:       ws,
		debounce: map[string]time.Time{},
		window:   500 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Add registers a directory to watch.
func (w *Watcher) Add(dir string) error {
	return w.watcher.Add(dir)
}

// Start begins applying file events to the workspace. Non-blocking.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.loop()
}

func (w *Watcher) loop() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Services("watcher error: %v", err)
		}
	}
}

func isThaloFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".thalo" || ext == ".md" || ext == ".markdown"
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !isThaloFile(event.Name) {
		return
	}
	w.mu.Lock()
	last, seen := w.debounce[event.Name]
	now := time.Now()
	w.debounce[event.Name] = now
	w.mu.Unlock()
	if seen && now.Sub(last) < w.window && event.Op&fsnotify.Remove == 0 {
		return
	}

	switch {
	case event.Op&fsnotify.Remove != 0 || event.Op&fsnotify.Rename != 0:
		w.ws.RemoveDocument(event.Name)
		logging.Services("watcher: removed %s", event.Name)
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		source, err := os.ReadFile(event.Name)
		if err != nil {
			logging.Services("watcher: read %s failed: %v", event.Name, err)
			return
		}
		if _, err := w.ws.UpdateDocument(event.Name, source, workspace.AddOptions{}); err != nil {
			logging.Services("watcher: update %s failed: %v", event.Name, err)
			return
		}
		logging.Services("watcher: updated %s", event.Name)
	default:
		return
	}
	if w.OnChange != nil {
		w.OnChange(event.Name)
	}
}

// Stop shuts the watcher down and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	w.watcher.Close()
	<-w.doneCh
}
