package cli

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/ifcwatch/pkg/errors"
)

// defaultDebounce collapses the bursts of events editors produce on save.
const defaultDebounce = 80 * time.Millisecond

// fileEvent reports that a watched file settled after changing.
type fileEvent struct {
	path    string
	removed bool
}

// fileWatcher watches individual files. fsnotify watches their parent
// directories so atomic saves (write temp, rename over) are seen; events for
// other files in those directories are dropped.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *log.Logger
	debounce time.Duration
	files    map[string]bool
	events   chan fileEvent

	mu      sync.Mutex
	pending map[string]time.Time
}

// newFileWatcher watches paths. Empty paths are skipped.
func newFileWatcher(logger *log.Logger, debounce time.Duration, paths ...string) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create file watcher")
	}
	fw := &fileWatcher{
		watcher:  w,
		logger:   logger,
		debounce: debounce,
		files:    make(map[string]bool),
		events:   make(chan fileEvent, 16),
		pending:  make(map[string]time.Time),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			w.Close()
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %s", p)
		}
		fw.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "watch %s", dir)
		}
	}
	return fw, nil
}

// Events delivers settled changes. It is closed when Run returns.
func (fw *fileWatcher) Events() <-chan fileEvent {
	return fw.events
}

// Run processes events until ctx is cancelled.
func (fw *fileWatcher) Run(ctx context.Context) {
	defer close(fw.events)
	ticker := time.NewTicker(fw.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Clean(ev.Name)
			if !fw.files[name] {
				continue
			}
			fw.mu.Lock()
			fw.pending[name] = time.Now()
			fw.mu.Unlock()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("file watcher error", "err", err)

		case <-ticker.C:
			for _, ev := range fw.settled() {
				select {
				case fw.events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// settled returns the pending files that have been quiet for the debounce
// period. Whether a file was removed is decided by looking at it now, so a
// remove followed by a create reads as a change.
func (fw *fileWatcher) settled() []fileEvent {
	now := time.Now()
	fw.mu.Lock()
	defer fw.mu.Unlock()

	var out []fileEvent
	for path, at := range fw.pending {
		if now.Sub(at) < fw.debounce {
			continue
		}
		delete(fw.pending, path)
		_, err := os.Stat(path)
		out = append(out, fileEvent{path: path, removed: os.IsNotExist(err)})
	}
	return out
}

// Close stops watching.
func (fw *fileWatcher) Close() error {
	return fw.watcher.Close()
}
