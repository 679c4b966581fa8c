package catalog

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher monitors the content document for edits and delivers a freshly
// parsed catalog to the callback. Running sessions keep the instance they
// were started with; only sessions created after the swap see new content.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	onReload func(*Catalog)
	log      *zap.Logger

	debounce time.Duration
	lastSeen time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewWatcher creates a watcher for the given content document path. The
// callback runs on the watcher goroutine and must not block for long.
func NewWatcher(path string, onReload func(*Catalog), log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fsw,
		path:     path,
		onReload: onReload,
		log:      log,
		debounce: 500 * time.Millisecond, // editors fire several events per save
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the watch loop runs in a goroutine
// until Stop is called or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	// Watch the directory, not the file: most editors replace the file on
	// save, which drops a direct file watch. The running flag flips only
	// once the watch is established, so a failed Start leaves the watcher
	// stopped and a later Stop returns immediately instead of waiting on a
	// loop that never ran.
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.watcher.Close()
		return err
	}

	w.running = true
	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			now := time.Now()
			if now.Sub(w.lastSeen) < w.debounce {
				continue
			}
			w.lastSeen = now
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("content watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	cat, err := Load(w.path)
	if err != nil {
		// Keep serving the previous catalog; a half-written save is the
		// common cause here.
		w.log.Warn("content reload failed, keeping previous catalog",
			zap.String("path", w.path), zap.Error(err))
		return
	}
	w.log.Info("content document reloaded",
		zap.String("path", w.path), zap.Int("concepts", cat.Len()))
	w.onReload(cat)
}

// Stop terminates the watch loop and releases the fsnotify watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	w.running = false
	close(w.stopCh)
	err := w.watcher.Close()
	<-w.doneCh
	return err
}
