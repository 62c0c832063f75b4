// Package prefs persists small user preferences across restarts.
// Preferences are stored as a flat TOML table, by default in
// ~/.config/gameshelf/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/GameShelf/internal/shared/paths"
)

const defaultPrefsPath = "~/.config/gameshelf/prefs.toml"

// Store is a best-effort string preference store.
type Store interface {
	GetString(key string) string
	SetString(key, value string)
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// File is a Store backed by a TOML file. Every SetString rewrites the file.
type File struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
	log    *zap.Logger
}

// Open reads preferences from path, falling back to an empty set if the file
// is missing or unreadable.
func Open(path string, log *zap.Logger) (*File, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if path == "" {
		path = defaultPrefsPath
	}
	resolved, err := paths.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("resolve prefs path: %w", err)
	}

	f := &File{path: resolved, values: make(map[string]string), log: log}

	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return f, nil
	case err != nil:
		log.Warn("Preferences unreadable, using defaults", zap.String("path", resolved), zap.Error(err))
		return f, nil
	}

	if err := toml.Unmarshal(data, &f.values); err != nil {
		log.Warn("Preferences malformed, using defaults", zap.String("path", resolved), zap.Error(err))
		f.values = make(map[string]string)
	}
	return f, nil
}

// Path returns the resolved file path.
func (f *File) Path() string {
	return f.path
}

// GetString returns the stored value or "".
func (f *File) GetString(key string) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values[key]
}

// SetString stores value and writes the file. Write failures are logged.
func (f *File) SetString(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if old, ok := f.values[key]; ok && old == value {
		return
	}
	f.values[key] = value
	if err := f.save(); err != nil {
		f.log.Warn("Failed to save preferences", zap.String("path", f.path), zap.Error(err))
	}
}

// Keys returns the stored keys in sorted order.
func (f *File) Keys() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	keys := make([]string, 0, len(f.values))
	for k := range f.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f *File) save() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	data, err := toml.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

// Memory is an in-process Store.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// GetString returns the stored value or "".
func (m *Memory) GetString(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key]
}

// SetString stores value.
func (m *Memory) SetString(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}
