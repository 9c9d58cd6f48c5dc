// Package config provides the persistent configuration store for the host.
//
// The store is organized into named sections, each a flat table of
// string keys to string values. Boolean values are persisted as the
// strings "True" and "False". Components receive a Store at
// construction; nothing in this package is a process-wide global.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Store errors.
var (
	// ErrSectionNotFound is returned when a section does not exist.
	ErrSectionNotFound = errors.New("config: section not found")

	// ErrKeyNotFound is returned when a key does not exist in a section.
	ErrKeyNotFound = errors.New("config: key not found")

	// ErrSectionExists is returned when adding a section that already exists.
	ErrSectionExists = errors.New("config: section already exists")
)

// Item is a single key/value entry within a section.
type Item struct {
	Key   string
	Value string
}

// Store is the persistent section/key configuration contract.
// Implementations must be safe for use from a single goroutine; the
// host mutates the store only during startup discovery.
type Store interface {
	// HasSection reports whether the named section exists.
	HasSection(section string) bool

	// AddSection creates an empty section.
	// Returns ErrSectionExists if the section is already present.
	AddSection(section string) error

	// Items returns all key/value pairs in a section, sorted by key.
	// Returns ErrSectionNotFound if the section does not exist.
	Items(section string) ([]Item, error)

	// GetBool parses the value of a key as a boolean.
	// Accepts the persisted forms "True"/"False" (case-insensitive).
	GetBool(section, key string) (bool, error)

	// Set writes a key/value pair, creating the section if needed.
	// The write is durable before Set returns.
	Set(section, key, value string) error
}

// FileStore is a Store backed by a TOML file. The whole file is read
// at open time; every Set rewrites it.
type FileStore struct {
	mu       sync.Mutex
	path     string
	sections map[string]map[string]string
}

// OpenFileStore loads (or creates) a TOML-backed store at path.
func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{
		path:     path,
		sections: make(map[string]map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := toml.Unmarshal(data, &fs.sections); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return fs, nil
}

// Path returns the backing file path.
func (fs *FileStore) Path() string {
	return fs.path
}

// HasSection reports whether the named section exists.
func (fs *FileStore) HasSection(section string) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	_, ok := fs.sections[section]
	return ok
}

// AddSection creates an empty section and persists it.
func (fs *FileStore) AddSection(section string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.sections[section]; ok {
		return fmt.Errorf("%w: %s", ErrSectionExists, section)
	}
	fs.sections[section] = make(map[string]string)
	return fs.flush()
}

// Items returns all key/value pairs in a section, sorted by key.
func (fs *FileStore) Items(section string) ([]Item, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	sec, ok := fs.sections[section]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, section)
	}
	return sortedItems(sec), nil
}

// GetBool parses the value of a key as a boolean.
func (fs *FileStore) GetBool(section, key string) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	sec, ok := fs.sections[section]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrSectionNotFound, section)
	}
	val, ok := sec[key]
	if !ok {
		return false, fmt.Errorf("%w: %s.%s", ErrKeyNotFound, section, key)
	}
	return parseBool(section, key, val)
}

// Set writes a key/value pair and persists the store.
func (fs *FileStore) Set(section, key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	sec, ok := fs.sections[section]
	if !ok {
		sec = make(map[string]string)
		fs.sections[section] = sec
	}
	sec[key] = value
	return fs.flush()
}

// flush rewrites the backing file. Must be called with mu held.
func (fs *FileStore) flush() error {
	data, err := toml.Marshal(fs.sections)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(fs.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}
	if err := os.WriteFile(fs.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// MemStore is an in-memory Store for tests and ephemeral hosts.
type MemStore struct {
	mu       sync.Mutex
	sections map[string]map[string]string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{sections: make(map[string]map[string]string)}
}

// HasSection reports whether the named section exists.
func (ms *MemStore) HasSection(section string) bool {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	_, ok := ms.sections[section]
	return ok
}

// AddSection creates an empty section.
func (ms *MemStore) AddSection(section string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.sections[section]; ok {
		return fmt.Errorf("%w: %s", ErrSectionExists, section)
	}
	ms.sections[section] = make(map[string]string)
	return nil
}

// Items returns all key/value pairs in a section, sorted by key.
func (ms *MemStore) Items(section string) ([]Item, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	sec, ok := ms.sections[section]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, section)
	}
	return sortedItems(sec), nil
}

// GetBool parses the value of a key as a boolean.
func (ms *MemStore) GetBool(section, key string) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	sec, ok := ms.sections[section]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrSectionNotFound, section)
	}
	val, ok := sec[key]
	if !ok {
		return false, fmt.Errorf("%w: %s.%s", ErrKeyNotFound, section, key)
	}
	return parseBool(section, key, val)
}

// Set writes a key/value pair, creating the section if needed.
func (ms *MemStore) Set(section, key, value string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	sec, ok := ms.sections[section]
	if !ok {
		sec = make(map[string]string)
		ms.sections[section] = sec
	}
	sec[key] = value
	return nil
}

// FormatBool returns the persisted string form of a boolean.
func FormatBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

func parseBool(section, key, val string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("config: %s.%s is not a boolean: %q", section, key, val)
	}
}

func sortedItems(sec map[string]string) []Item {
	items := make([]Item, 0, len(sec))
	for k, v := range sec {
		items = append(items, Item{Key: k, Value: v})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items
}
