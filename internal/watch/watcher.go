// Package watch reloads datasets when their JSONL files change on disk.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/romdo/go-debounce"

	"github.com/user/rowview/internal/logger"
	"github.com/user/rowview/internal/model"
)

const (
	// DefaultDebounceInterval is the default interval to wait after the last
	// change before triggering a reload.
	DefaultDebounceInterval = 100 * time.Millisecond

	// maxWaitFactor bounds how long a steady stream of writes can postpone
	// a reload, as a multiple of the debounce interval.
	maxWaitFactor = 10
)

// ReloadFunc is called when a dataset file changed.
type ReloadFunc func(d model.Dataset) error

// Watcher monitors the data directory and triggers a debounced reload per
// dataset.
type Watcher struct {
	dataDir          string
	datasets         map[string]model.Dataset
	reloadFn         ReloadFunc
	log              logger.Logger
	debounceInterval time.Duration

	watcher   *fsnotify.Watcher
	stopChan  chan struct{}
	doneChan  chan struct{}
	closeOnce sync.Once

	// debounce state per dataset
	mu      sync.Mutex
	closed  bool
	pending map[model.Dataset]debounced
}

type debounced struct {
	trigger func()
	cancel  func()
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet interval before a reload. Non-positive values
// keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounceInterval = d
		}
	}
}

// WithLogger sets the watcher logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Watcher) { w.log = l }
}

// WithDatasets restricts the watcher to the given datasets. By default
// every known dataset is watched.
func WithDatasets(ds ...model.Dataset) Option {
	return func(w *Watcher) {
		w.datasets = make(map[string]model.Dataset, len(ds))
		for _, d := range ds {
			w.datasets[d.FileName()] = d
		}
	}
}

// NewWatcher creates a new file watcher for dataDir.
func NewWatcher(dataDir string, reloadFn ReloadFunc, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		dataDir:          filepath.Clean(dataDir),
		reloadFn:         reloadFn,
		log:              logger.Nop(),
		debounceInterval: DefaultDebounceInterval,
		watcher:          fsWatcher,
		stopChan:         make(chan struct{}),
		doneChan:         make(chan struct{}),
		pending:          make(map[model.Dataset]debounced),
	}
	WithDatasets(model.Datasets()...)(w)
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching for file changes. The directory is watched rather
// than the files so atomic renames are seen.
func (w *Watcher) Start() error {
	if err := os.MkdirAll(w.dataDir, 0755); err != nil {
		w.watcher.Close()
		close(w.doneChan)
		return err
	}
	if err := w.watcher.Add(w.dataDir); err != nil {
		w.watcher.Close()
		close(w.doneChan)
		return err
	}
	w.log.Debug("watching data directory", "dir", w.dataDir, "debounce", w.debounceInterval)

	go w.processEvents()
	return nil
}

// Close stops the watcher and cancels pending reloads.
func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		close(w.stopChan)
		w.watcher.Close()

		w.mu.Lock()
		w.closed = true
		for _, d := range w.pending {
			d.cancel()
		}
		w.pending = nil
		w.mu.Unlock()

		<-w.doneChan
	})
}

func (w *Watcher) processEvents() {
	defer close(w.doneChan)

	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Dir(filepath.Clean(event.Name)) != w.dataDir {
		return
	}
	d, ok := w.datasets[filepath.Base(event.Name)]
	if !ok {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.log.Debug("file change detected", "dataset", d, "op", event.Op.String())
	w.scheduleReload(d)
}

func (w *Watcher) scheduleReload(d model.Dataset) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	entry, ok := w.pending[d]
	if !ok {
		trigger, cancel := debounce.NewWithMaxWait(
			w.debounceInterval,
			w.debounceInterval*maxWaitFactor,
			func() { w.doReload(d) },
		)
		entry = debounced{trigger: trigger, cancel: cancel}
		w.pending[d] = entry
	}
	entry.trigger()
}

func (w *Watcher) doReload(d model.Dataset) {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	w.log.Debug("reloading dataset", "dataset", d)
	if err := w.reloadFn(d); err != nil {
		w.log.Error("reload failed", "dataset", d, "error", err)
		return
	}
	w.log.Info("dataset reloaded", "dataset", d)
}
