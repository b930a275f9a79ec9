/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package filewatch reloads configuration-like files when they change on disk
package filewatch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"kiosk-assistant/internal/logging"
)

// DefaultDebounce coalesces bursts of events from a single save
const DefaultDebounce = 100 * time.Millisecond

var logger = logging.For("filewatch")

// Watcher watches a file for changes and triggers a reload callback
type Watcher struct {
	watcher  *fsnotify.Watcher
	filePath string
	reloadFn func() error
	debounce time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a watcher for filePath. reloadFn runs on its own goroutine
// after each debounced write or create.
func New(filePath string, reloadFn func() error) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	fw := &Watcher{
		watcher:  watcher,
		filePath: filepath.Clean(filePath),
		reloadFn: reloadFn,
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}

	// Editors often delete and recreate files on save, so the directory is
	// watched rather than the file
	dir := filepath.Dir(fw.filePath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	return fw, nil
}

// Path returns the watched file
func (fw *Watcher) Path() string {
	return fw.filePath
}

// Start begins watching for file changes
func (fw *Watcher) Start() {
	go fw.watch()
}

// Stop stops watching. It is safe to call more than once.
func (fw *Watcher) Stop() {
	fw.stopOnce.Do(func() {
		close(fw.done)
		fw.watcher.Close()
	})
}

func (fw *Watcher) watch() {
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.filePath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(fw.debounce, fw.reload)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", "file", fw.filePath, "error", err)

		case <-fw.done:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		}
	}
}

func (fw *Watcher) reload() {
	select {
	case <-fw.done:
		return
	default:
	}

	if err := fw.reloadFn(); err != nil {
		logger.Error("reload failed", "file", fw.filePath, "error", err)
		return
	}
	logger.Info("reloaded", "file", fw.filePath)
}
