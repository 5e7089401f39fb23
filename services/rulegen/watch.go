// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rulegen

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SourceChange records one observed change to a watched keyword input.
type SourceChange struct {
	// Path is the changed file or directory.
	Path string

	// Time is when the change was detected.
	Time time.Time
}

// ChangeHandler is called with a debounced batch of source changes.
type ChangeHandler func(changes []SourceChange)

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	// Debounce is how long to wait for further changes before the
	// handler fires. Default: 250ms.
	Debounce time.Duration

	// IgnoreDir is a directory whose events are discarded. Pointing it
	// at the output directory keeps the watcher from reacting to its
	// own writes.
	IgnoreDir string

	// BufferSize is the change channel capacity. Default: 256.
	BufferSize int
}

// DefaultWatcherOptions returns the defaults Start assumes when given
// nil options.
func DefaultWatcherOptions() WatcherOptions {
	return WatcherOptions{
		Debounce:   250 * time.Millisecond,
		BufferSize: 256,
	}
}

// ignoredNames are base-name patterns for editor droppings that should
// never trigger a rebuild.
var ignoredNames = []string{".*", "*.swp", "*.tmp", "*~"}

// Watcher triggers a handler when watched keyword sources change.
//
// # Description
//
// Directory inputs are watched recursively; file inputs are watched
// through their parent directory so editors that replace files on save
// are still seen. Changes are batched over a debounce window, so one
// save producing several filesystem events costs one handler call.
//
// # Thread Safety
//
// Safe for concurrent use. The handler runs on a single goroutine.
type Watcher struct {
	files     map[string]bool
	dirs      []string
	handler   ChangeHandler
	debounce  time.Duration
	ignoreDir string

	watcher  *fsnotify.Watcher
	changes  chan SourceChange
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	watching bool
}

// NewWatcher creates a watcher over the given input paths. Paths are
// split into files and directories at Start time; a nil opts uses
// DefaultWatcherOptions.
func NewWatcher(paths []string, handler ChangeHandler, opts *WatcherOptions) (*Watcher, error) {
	if opts == nil {
		defaults := DefaultWatcherOptions()
		opts = &defaults
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		files:     make(map[string]bool),
		handler:   handler,
		debounce:  opts.Debounce,
		ignoreDir: filepath.Clean(opts.IgnoreDir),
		watcher:   fsw,
		changes:   make(chan SourceChange, opts.BufferSize),
		done:      make(chan struct{}),
	}
	for _, p := range paths {
		w.addInput(filepath.Clean(p))
	}
	return w, nil
}

// addInput records one input path as a file or directory target.
func (w *Watcher) addInput(path string) {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		w.dirs = append(w.dirs, path)
		return
	}
	w.files[path] = true
}

// Start begins watching. The handler fires until ctx is canceled or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	for _, dir := range w.dirs {
		if err := w.addRecursive(dir); err != nil {
			return err
		}
	}
	for f := range w.files {
		parent := filepath.Dir(f)
		if err := w.watcher.Add(parent); err != nil {
			return err
		}
	}

	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching reports whether the watcher is active.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

// addRecursive adds a directory tree to the watch list.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// shouldIgnore filters the output directory and editor droppings.
func (w *Watcher) shouldIgnore(path string) bool {
	clean := filepath.Clean(path)
	if w.ignoreDir != "" && w.ignoreDir != "." {
		if clean == w.ignoreDir || strings.HasPrefix(clean, w.ignoreDir+string(filepath.Separator)) {
			return true
		}
	}

	base := filepath.Base(clean)
	for _, pattern := range ignoredNames {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// relevant reports whether an event path belongs to one of the watched
// inputs. Parent-directory watches for file inputs see sibling events
// too; those are dropped here.
func (w *Watcher) relevant(path string) bool {
	clean := filepath.Clean(path)
	if w.files[clean] {
		return true
	}
	for _, dir := range w.dirs {
		if clean == dir || strings.HasPrefix(clean, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// processEvents converts fsnotify events into SourceChanges.
func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.shouldIgnore(event.Name) || !w.relevant(event.Name) {
				continue
			}

			change := SourceChange{Path: event.Name, Time: time.Now()}
			select {
			case w.changes <- change:
			default:
				// Buffer full; the debouncer will still fire on what
				// it has.
			}

			// New directories under a watched tree start being
			// watched themselves.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watcher.Add(event.Name); err != nil {
						slog.Warn("failed to watch new directory",
							slog.String("path", event.Name),
							slog.String("error", err.Error()),
						)
					}
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

// debounceLoop batches changes and calls the handler once the window
// closes.
func (w *Watcher) debounceLoop(ctx context.Context) {
	var batch []SourceChange
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(batch) > 0 {
			deduped := dedupeChanges(batch)
			if len(deduped) > 0 && w.handler != nil {
				w.handler(deduped)
			}
			batch = batch[:0]
		}
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-w.done:
			flush()
			return
		case change := <-w.changes:
			batch = append(batch, change)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			flush()
		}
	}
}

// dedupeChanges keeps the most recent change per path, preserving
// first-seen order.
func dedupeChanges(changes []SourceChange) []SourceChange {
	seen := make(map[string]int)
	result := make([]SourceChange, 0, len(changes))
	for _, change := range changes {
		if idx, ok := seen[change.Path]; ok {
			result[idx] = change
			continue
		}
		seen[change.Path] = len(result)
		result = append(result, change)
	}
	return result
}
