package jobs

import (
	"context"
	"sync"

	"resumescore/internal/types"
)

// Source supplies the postings a request is matched against.
type Source interface {
	Jobs(ctx context.Context) ([]types.JobPosting, error)
}

// Holder is a Source whose catalog can be swapped while requests run.
type Holder struct {
	mu   sync.RWMutex
	jobs []types.JobPosting
}

// NewHolder creates a holder seeded with postings, or the bundled listings
// when postings is nil.
func NewHolder(postings []types.JobPosting) *Holder {
	if postings == nil {
		postings = Builtin()
	}
	return &Holder{jobs: postings}
}

// Jobs returns the current catalog. Callers must not modify it.
func (h *Holder) Jobs(context.Context) ([]types.JobPosting, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.jobs, nil
}

// Set publishes a new catalog.
func (h *Holder) Set(postings []types.JobPosting) {
	if postings == nil {
		return
	}
	h.mu.Lock()
	h.jobs = postings
	h.mu.Unlock()
}

// Reload reads path and publishes it. The current catalog stays on error.
func (h *Holder) Reload(path string) error {
	postings, err := LoadFile(path)
	if err != nil {
		return err
	}
	h.Set(postings)
	return nil
}

// Len reports the catalog size.
func (h *Holder) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.jobs)
}
