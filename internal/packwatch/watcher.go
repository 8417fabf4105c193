// Package packwatch reloads a pack when its file is rewritten.
package packwatch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// ReloadFunc is called once per burst of changes to the pack file.
type ReloadFunc func(ctx context.Context) error

// Watcher watches the directory holding a pack and calls reload after the pack
// file settles. The directory is watched rather than the file so replacements
// by rename are seen.
type Watcher struct {
	path     string
	reload   ReloadFunc
	debounce time.Duration
	logger   *zap.Logger

	guard reloadGuard

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	timer    *time.Timer
	ctx      context.Context
	started  bool
	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for watcher events.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets the quiet period before reload runs.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher for the pack at path.
func New(path string, reload ReloadFunc, opts ...Option) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		reload:   reload,
		debounce: defaultDebounce,
		logger:   zap.NewNop(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return err
	}

	w.watcher = watcher
	w.ctx = ctx
	w.started = true
	w.logger.Debug("pack watcher starting", zap.String("pack", w.path), zap.String("dir", dir))

	go w.run(ctx, watcher)
	return nil
}

func (w *Watcher) run(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("pack watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	w.logger.Debug("pack watcher event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
		w.schedule()
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	w.timer = nil
	ctx := w.ctx
	started := w.started
	w.mu.Unlock()
	if !started {
		return
	}
	if !w.guard.TryAcquire() {
		// A reload is still running; retry once the pack settles again.
		w.schedule()
		return
	}
	defer w.guard.Release()

	w.logger.Debug("reloading pack (debounced)", zap.String("pack", w.path))
	if err := w.reload(ctx); err != nil {
		w.logger.Warn("pack reload failed", zap.String("pack", w.path), zap.Error(err))
	}
}

// Stop stops the watcher and cancels a pending reload.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
