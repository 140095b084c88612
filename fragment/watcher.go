/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package fragment

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher submits fragments as they are created or rewritten below a root
// directory. Rapid successive writes to one file are collapsed: a file is
// parsed once it has been quiet for the debounce period.
type Watcher struct {
	root     string
	sink     Sink
	logger   *zap.Logger
	onError  func(path string, err error)
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	pending map[string]time.Time
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithErrorHandler is called for every fragment that fails to read, parse or
// submit. The watcher keeps running.
func WithErrorHandler(fn func(path string, err error)) WatcherOption {
	return func(w *Watcher) { w.onError = fn }
}

// WithDebounce sets how long a file must be quiet before it is parsed.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a Watcher for the tree at root.
func NewWatcher(root string, sink Sink, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		root:     root,
		sink:     sink,
		logger:   zap.NewNop(),
		debounce: 200 * time.Millisecond,
		pending:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(zap.String("root", root))
	return w
}

// Start adds every directory below root to the watch list and begins the
// event loop. It returns once watching is set up.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := addTree(fw, w.root); err != nil {
		fw.Close()
		return err
	}

	w.watcher = fw
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true

	go w.run(ctx, fw, w.stopCh, w.doneCh)
	w.logger.Info("watching fragments")
	return nil
}

// Stop ends the event loop and waits for it to exit. It is safe to call after
// ctx passed to Start has been cancelled.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopCh, doneCh, fw := w.stopCh, w.doneCh, w.watcher
	w.mu.Unlock()

	close(stopCh)
	<-doneCh
	if err := fw.Close(); err != nil {
		w.logger.Warn("closing watcher", zap.Error(err))
	}
	w.logger.Info("stopped watching fragments")
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	tick := w.debounce / 2
	if tick <= 0 {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(fw, event)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addTree(fw, event.Name); err != nil {
				w.logger.Warn("watching new directory", zap.String("dir", event.Name), zap.Error(err))
			}
			// files written before the directory was watched
			w.queueTree(event.Name)
			return
		}
	}

	if IsFragmentFile(event.Name) {
		w.mu.Lock()
		w.pending[event.Name] = time.Now()
		w.mu.Unlock()
	}
}

func (w *Watcher) queueTree(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() && IsFragmentFile(path) {
			w.mu.Lock()
			w.pending[path] = time.Now()
			w.mu.Unlock()
		}
		return nil
	})
}

func (w *Watcher) flush() {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		w.process(path)
	}
}

func (w *Watcher) process(path string) {
	frag, err := ReadFile(w.root, path)
	if err == nil {
		err = w.sink.Submit(frag.Capability, frag.Table)
	}
	if err != nil {
		w.logger.Warn("fragment rejected", zap.String("path", path), zap.Error(err))
		if w.onError != nil {
			w.onError(path, err)
		}
		return
	}
	w.logger.Debug("fragment submitted",
		zap.String("path", path),
		zap.String("capability", frag.Capability),
		zap.Int("descriptors", frag.Table.Len()))
}

func addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}
