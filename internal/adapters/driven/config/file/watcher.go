package file

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zmg-ops/zmg-management/internal/logger"
)

// Watcher reloads a ConfigStore when its file changes and notifies a callback.
// The parent directory is watched because editors often replace files by rename.
type Watcher struct {
	store    *ConfigStore
	onChange func()
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a watcher for the store's file.
func NewWatcher(store *ConfigStore, onChange func()) *Watcher {
	return &Watcher{
		store:    store,
		onChange: onChange,
		debounce: 250 * time.Millisecond,
	}
}

// Start begins watching. It is non-blocking; the watch loop stops when ctx
// is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.store.Path())); err != nil {
		fw.Close()
		return err
	}

	w.watcher = fw
	w.done = make(chan struct{})
	go w.run(ctx, fw, w.done)

	logger.Debug("watching config file %s", w.store.Path())
	return nil
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	fw, done := w.watcher, w.done
	w.watcher = nil
	w.mu.Unlock()

	if fw == nil {
		return
	}
	fw.Close()
	<-done
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	target := filepath.Clean(w.store.Path())
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher: %v", err)

		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	if err := w.store.Load(); err != nil {
		logger.Warn("config reload failed, keeping previous values: %v", err)
		return
	}
	logger.Info("config reloaded from %s", w.store.Path())
	if w.onChange != nil {
		w.onChange()
	}
}
