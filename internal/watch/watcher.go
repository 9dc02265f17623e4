// Package watch re-runs work when manifest files change on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDelay is how long changes are collected before the callback runs.
const DefaultDelay = 100 * time.Millisecond

// ManifestWatcher calls back with the changed manifests after a quiet
// period. Editors often replace a file instead of writing it, so the
// containing directories are watched and events are filtered by name.
type ManifestWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	files     map[string]string // cleaned absolute path -> path as given
	logger    *zap.Logger
}

// NewManifestWatcher watches paths. onChange receives the changed paths as
// they were given, sorted.
func NewManifestWatcher(paths []string, delay time.Duration, logger *zap.Logger, onChange func([]string)) (*ManifestWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}

	files := make(map[string]string, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		files[abs] = p
		dirs[filepath.Dir(abs)] = true
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		logger.Debug("watching directory", zap.String("dir", dir))
	}

	mw := &ManifestWatcher{
		watcher:   watcher,
		debouncer: NewDebouncer(delay),
		files:     files,
		logger:    logger,
	}
	mw.debouncer.SetCallback(func(changed []string) {
		given := make([]string, len(changed))
		for i, c := range changed {
			given[i] = files[c]
		}
		sort.Strings(given)
		onChange(given)
	})
	return mw, nil
}

// Run delivers changes until ctx is cancelled, then releases the watcher.
func (mw *ManifestWatcher) Run(ctx context.Context) error {
	defer mw.debouncer.Stop()
	defer mw.watcher.Close()

	for {
		select {
		case event, ok := <-mw.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := mw.files[abs]; ok {
				mw.logger.Debug("manifest changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
				mw.debouncer.Add(abs)
			}

		case err, ok := <-mw.watcher.Errors:
			if !ok {
				return nil
			}
			mw.logger.Warn("watch error", zap.Error(err))

		case <-ctx.Done():
			return nil
		}
	}
}

// Debouncer collects keys and hands them to a callback once no new key has
// arrived for the configured duration.
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	pending  map[string]struct{}
	mutex    sync.Mutex
	callback func([]string)
	stopped  bool
}

// NewDebouncer creates a new debouncer instance
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
		pending:  make(map[string]struct{}),
	}
}

// Add records key and restarts the quiet period. Keys added after Stop are
// dropped.
func (d *Debouncer) Add(key string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stopped {
		return
	}
	d.pending[key] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.flush)
}

// flush hands the pending keys to the callback outside the lock.
func (d *Debouncer) flush() {
	d.mutex.Lock()
	if d.stopped || len(d.pending) == 0 {
		d.mutex.Unlock()
		return
	}
	keys := make([]string, 0, len(d.pending))
	for k := range d.pending {
		keys = append(keys, k)
	}
	d.pending = make(map[string]struct{})
	callback := d.callback
	d.mutex.Unlock()

	sort.Strings(keys)
	if callback != nil {
		callback(keys)
	}
}

// SetCallback sets the callback function
func (d *Debouncer) SetCallback(callback func([]string)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = callback
}

// Stop cancels any pending callback. It is safe to call more than once.
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.stopped = true
}
