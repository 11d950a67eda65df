package vocab

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

// Load reads a vocabulary file (YAML, JSON or TOML, picked by extension).
// Fields missing from the file keep their built-in values.
func Load(path string) (*Tables, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read vocabulary file %s: %w", path, err)
	}

	var t Tables
	if err := v.Unmarshal(&t); err != nil {
		return nil, fmt.Errorf("decode vocabulary file %s: %w", path, err)
	}

	t.fillFrom(Default())
	if err := t.Compile(); err != nil {
		return nil, fmt.Errorf("vocabulary file %s: %w", path, err)
	}
	return &t, nil
}

// LoadOrDefault returns Load(path), or the built-in tables when path is empty.
func LoadOrDefault(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Holder publishes the current tables snapshot to concurrent readers.
type Holder struct {
	mu     sync.RWMutex
	tables *Tables
}

// NewHolder creates a holder seeded with t, or the defaults when t is nil.
func NewHolder(t *Tables) *Holder {
	if t == nil {
		t = Default()
	}
	return &Holder{tables: t}
}

// Get returns the current snapshot.
func (h *Holder) Get() *Tables {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.tables
}

// Set replaces the snapshot. Readers holding the old one keep using it.
func (h *Holder) Set(t *Tables) {
	if t == nil {
		return
	}
	h.mu.Lock()
	h.tables = t
	h.mu.Unlock()
}

// Reload loads path and publishes it. On error the current snapshot stays.
func (h *Holder) Reload(path string) error {
	t, err := Load(path)
	if err != nil {
		return err
	}
	h.Set(t)
	return nil
}
