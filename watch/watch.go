// Package watch reruns generation when description files or Go sources change.
package watch

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

	"github.com/teranos/pystub/errors"
	"github.com/teranos/pystub/logger"
)

// DefaultDebounce collapses bursts of editor writes into one run.
const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc is called with the sorted set of paths changed since the last call.
type ChangeFunc func(ctx context.Context, changed []string) error

// Watcher watches directory trees and reports matching file changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	match    func(path string) bool
	debounce time.Duration
	logger   *zap.SugaredLogger

	mu      sync.Mutex
	pending map[string]bool
}

// New watches every directory below each of dirs. match selects the files
// whose changes are reported.
func New(dirs []string, match func(path string) bool, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		watcher:  fw,
		match:    match,
		debounce: debounce,
		logger:   logger.ComponentLogger("watch"),
		pending:  make(map[string]bool),
	}
	for _, dir := range dirs {
		if err := w.addTree(dir); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// addTree watches dir and its subdirectories, skipping hidden ones.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "failed to watch %s", path)
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return errors.Wrapf(err, "failed to watch %s", path)
		}
		return nil
	})
}

// Run blocks until ctx is done, calling onChange once per debounced burst of
// changes. Calls never overlap. Errors from onChange are logged and watching
// continues.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	defer w.watcher.Close()

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.record(event) {
				continue
			}
			// Restart the debounce window
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			changed := w.drain()
			if len(changed) == 0 {
				continue
			}
			w.logger.Infow("change detected", logger.FieldCount, len(changed), logger.FieldFile, changed[0])
			if err := onChange(ctx, changed); err != nil {
				w.logger.Errorw("regeneration failed", logger.FieldError, err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("watcher error", logger.FieldError, err)
		}
	}
}

// record notes a relevant event. New directories are watched as they appear.
func (w *Watcher) record(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warnw("failed to watch new directory", logger.FieldPath, event.Name, logger.FieldError, err)
			}
			return false
		}
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if !w.match(event.Name) {
		return false
	}

	w.logger.Debugw("file event", logger.FieldFile, event.Name, "op", event.Op.String())
	w.mu.Lock()
	w.pending[event.Name] = true
	w.mu.Unlock()
	return true
}

func (w *Watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	changed := make([]string, 0, len(w.pending))
	for path := range w.pending {
		changed = append(changed, path)
	}
	w.pending = make(map[string]bool)
	sort.Strings(changed)
	return changed
}

// MatchExt returns a matcher accepting files with any of the given extensions.
func MatchExt(exts ...string) func(string) bool {
	return func(path string) bool {
		ext := filepath.Ext(path)
		for _, e := range exts {
			if ext == e {
				return true
			}
		}
		return false
	}
}
