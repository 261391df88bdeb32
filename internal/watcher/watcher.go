// Package watcher watches the help documentation directory with fsnotify and
// applies debounced batches of file changes.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/helpsearch/pkg/utils"
)

const defaultDebounce = 400 * time.Millisecond

type op int

const (
	opIndex op = iota
	opRemove
)

// Handler receives the changes of one debounced batch: Index and Remove per
// file, then Settled once the batch has been applied.
type Handler interface {
	Index(path string)
	Remove(path string)
	Settled()
}

// Watcher watches a directory tree and reports changes to files accepted by
// its match function.
type Watcher struct {
	root     string
	match    func(path string) bool
	handler  Handler
	debounce time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	pending map[string]op
	timer   *time.Timer
	done    chan struct{}
	started bool

	applyMu sync.Mutex
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for watcher events.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = utils.OrNop(l) }
}

// WithDebounce sets how long the watcher waits for quiet before applying a batch.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a watcher for root. match filters file paths; nil accepts all.
func NewWatcher(root string, match func(path string) bool, handler Handler, opts ...WatcherOption) *Watcher {
	if match == nil {
		match = func(string) bool { return true }
	}
	w := &Watcher{
		root:     filepath.Clean(root),
		match:    match,
		handler:  handler,
		debounce: defaultDebounce,
		logger:   zap.NewNop(),
		pending:  make(map[string]op),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
// A missing root is created.
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
	if err := os.MkdirAll(w.root, 0755); err != nil {
		_ = watcher.Close()
		return err
	}
	err = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = watcher.Close()
		return err
	}
	w.watcher = watcher
	w.done = make(chan struct{})
	w.started = true
	w.logger.Info("Watching documentation directory", zap.String("root", w.root))
	go w.run(ctx, watcher, w.done)
	return nil
}

func (w *Watcher) run(ctx context.Context, watcher *fsnotify.Watcher, done <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-done:
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
				w.logger.Warn("Watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if !inDir(w.root, path) {
		return
	}
	w.logger.Debug("Watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			w.handleNewDirectory(path)
			return
		}
		if w.match(path) {
			w.enqueue(path, opIndex)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		// A removed directory yields events for its files only on some
		// platforms; Remove on an unknown path is a no-op downstream.
		if w.match(path) {
			w.enqueue(path, opRemove)
		}
	}
}

// handleNewDirectory watches a directory created or moved under root and
// queues the files already inside it.
func (w *Watcher) handleNewDirectory(dir string) {
	w.mu.Lock()
	watcher := w.watcher
	w.mu.Unlock()
	if watcher == nil {
		return
	}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := watcher.Add(path); err != nil {
				w.logger.Warn("Failed to watch directory", zap.String("path", path), zap.Error(err))
			}
			return nil
		}
		if w.match(path) {
			w.enqueue(path, opIndex)
		}
		return nil
	})
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// enqueue records the latest operation for path and restarts the quiet timer.
func (w *Watcher) enqueue(path string, o op) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.pending[path] = o
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

// flush applies the pending batch. Batches never run concurrently.
func (w *Watcher) flush() {
	w.applyMu.Lock()
	defer w.applyMu.Unlock()

	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[string]op)
	w.timer = nil
	w.mu.Unlock()
	if len(batch) == 0 || w.handler == nil {
		return
	}

	paths := make([]string, 0, len(batch))
	for p := range batch {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if batch[p] == opRemove {
			w.handler.Remove(p)
		} else {
			w.handler.Index(p)
		}
	}
	w.logger.Debug("Watcher batch applied", zap.Int("files", len(paths)))
	w.handler.Settled()
}

// Stop stops the watcher and drops pending changes.
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
	w.pending = make(map[string]op)
	_ = w.watcher.Close()
	w.watcher = nil
	close(w.done)
	w.started = false
	w.mu.Unlock()
}
