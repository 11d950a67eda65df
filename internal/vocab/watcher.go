package vocab

import (
	"time"

	"resumescore/internal/errors"
	"resumescore/internal/watch"
)

// NewWatcher returns a stopped watcher that reloads path into h whenever the
// file changes. A file that fails to load leaves the current snapshot in place.
func NewWatcher(path string, h *Holder, debounce time.Duration, logger *errors.Logger) *watch.FileWatcher {
	if logger == nil {
		logger = errors.Discard()
	}
	return watch.New([]string{path}, debounce, func([]string) {
		if err := h.Reload(path); err != nil {
			logger.LogError(errors.NewValidationError(errors.ErrCodeInvalidVocabulary,
				"Failed to reload vocabulary, keeping previous tables", err),
				"Vocabulary reload failed", "path", path)
			return
		}
		logger.Info("Vocabulary reloaded", "path", path, "version", h.Get().Version)
	}, logger)
}
