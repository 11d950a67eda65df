// Package watch reloads data files when they change on disk.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"resumescore/internal/errors"
)

// DefaultDebounce is used when no debounce delay is configured.
const DefaultDebounce = time.Second

// FileWatcher watches a set of files and calls onChange with the ones that
// changed, after events have been quiet for the debounce delay.
type FileWatcher struct {
	mu sync.RWMutex

	files       []string
	lastModTime map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}
	done       chan struct{}

	onChange func(changed []string)
	logger   *errors.Logger

	running bool
}

// New creates a watcher for the non-empty paths in files.
func New(files []string, debounceDelay time.Duration, onChange func(changed []string), logger *errors.Logger) *FileWatcher {
	if debounceDelay <= 0 {
		debounceDelay = DefaultDebounce
	}
	if logger == nil {
		logger = errors.Discard()
	}

	watched := make([]string, 0, len(files))
	for _, f := range files {
		if f != "" {
			watched = append(watched, filepath.Clean(f))
		}
	}

	return &FileWatcher{
		files:         watched,
		lastModTime:   make(map[string]time.Time),
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		done:          make(chan struct{}),
		onChange:      onChange,
		logger:        logger,
	}
}

// Start begins watching. Files that do not exist yet are picked up through
// their directory.
func (w *FileWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("file watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsWatcher = watcher

	if err := w.updateModTimes(); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			w.logger.LogError(closeErr, "Failed to close file watcher during cleanup")
		}
		return fmt.Errorf("failed to get initial file modification times: %w", err)
	}

	for _, file := range w.files {
		if err := w.addFile(file); err != nil {
			w.logger.Warn("Failed to watch file", "file", file, "error", err)
		}
	}

	w.running = true
	go w.watchLoop()

	w.logger.Info("File watcher started",
		"files", w.files,
		"debounce_delay", w.debounceDelay)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *FileWatcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.running = false
	w.mu.Unlock()

	<-w.done

	if err := w.fsWatcher.Close(); err != nil {
		w.logger.LogError(err, "Failed to close file system watcher")
		return err
	}
	w.logger.Info("File watcher stopped")
	return nil
}

// IsRunning reports whether the watcher is active.
func (w *FileWatcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Files returns the watched paths.
func (w *FileWatcher) Files() []string {
	return append([]string(nil), w.files...)
}

// addFile watches the file and its directory so atomic renames are seen.
func (w *FileWatcher) addFile(file string) error {
	dir := filepath.Dir(file)
	if err := w.fsWatcher.Add(file); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to watch file %s: %w", file, err)
		}
		w.logger.Info("Watching directory for file", "file", file, "directory", dir)
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	return nil
}

func (w *FileWatcher) updateModTimes() error {
	for _, file := range w.files {
		if stat, err := os.Stat(file); err == nil {
			w.lastModTime[file] = stat.ModTime()
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat file %s: %w", file, err)
		}
	}
	return nil
}

// hasFileChanged is only called from the event loop.
func (w *FileWatcher) hasFileChanged(file string) bool {
	stat, err := os.Stat(file)
	if err != nil {
		if os.IsNotExist(err) {
			if _, exists := w.lastModTime[file]; exists {
				delete(w.lastModTime, file)
			}
		}
		return false
	}

	lastMod, exists := w.lastModTime[file]
	if !exists || !stat.ModTime().Equal(lastMod) {
		w.lastModTime[file] = stat.ModTime()
		return true
	}
	return false
}

func (w *FileWatcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.shouldProcessEvent(event) {
				w.scheduleReload()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.LogError(err, "File watcher error")

		case <-w.reloadChan:
			var changed []string
			for _, file := range w.files {
				if w.hasFileChanged(file) {
					changed = append(changed, file)
				}
			}
			if len(changed) > 0 {
				w.logger.Info("Watched files changed, triggering reload", "files", changed)
				w.onChange(changed)
			}

		case <-w.stopChan:
			return
		}
	}
}

func (w *FileWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	name := filepath.Clean(event.Name)
	for _, file := range w.files {
		if name == file {
			return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
		}
	}
	return false
}

func (w *FileWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.reloadChan <- struct{}{}:
		default:
		}
	})
}
