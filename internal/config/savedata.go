package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// SaveStore persists per-plugin save data between host runs as a single
// JSON document keyed by plugin name. Data returned by a plugin's
// SaveData at shutdown becomes its initial settings on the next run.
type SaveStore struct {
	mu   sync.Mutex
	path string
	doc  []byte
}

// OpenSaveStore loads (or creates) the save-data document at path.
func OpenSaveStore(path string) (*SaveStore, error) {
	ss := &SaveStore{path: path, doc: []byte("{}")}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ss, nil
		}
		return nil, fmt.Errorf("failed to read save data: %w", err)
	}
	if len(data) > 0 {
		if !gjson.ValidBytes(data) {
			return nil, fmt.Errorf("save data %s is not valid JSON", path)
		}
		ss.doc = data
	}
	return ss, nil
}

// Get returns the saved data for a plugin, or an empty map if none.
func (ss *SaveStore) Get(name string) map[string]any {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	res := gjson.GetBytes(ss.doc, escapePath(name))
	if !res.Exists() || !res.IsObject() {
		return map[string]any{}
	}

	data, ok := res.Value().(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return data
}

// Set records the save data for a plugin. A nil map clears the entry.
func (ss *SaveStore) Set(name string, data map[string]any) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if data == nil {
		doc, err := sjson.DeleteBytes(ss.doc, escapePath(name))
		if err != nil {
			return fmt.Errorf("failed to clear save data for %s: %w", name, err)
		}
		ss.doc = doc
		return nil
	}

	// sjson marshals values itself, but going through encoding/json
	// first rejects unserializable values with a useful error.
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("save data for %s is not serializable: %w", name, err)
	}
	doc, err := sjson.SetRawBytes(ss.doc, escapePath(name), raw)
	if err != nil {
		return fmt.Errorf("failed to set save data for %s: %w", name, err)
	}
	ss.doc = doc
	return nil
}

// Names returns the plugin names present in the document.
func (ss *SaveStore) Names() []string {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	var names []string
	gjson.ParseBytes(ss.doc).ForEach(func(key, _ gjson.Result) bool {
		names = append(names, key.String())
		return true
	})
	return names
}

// Flush writes the document to disk.
func (ss *SaveStore) Flush() error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if dir := filepath.Dir(ss.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create save data dir: %w", err)
		}
	}
	if err := os.WriteFile(ss.path, ss.doc, 0o644); err != nil {
		return fmt.Errorf("failed to write save data: %w", err)
	}
	return nil
}

// escapePath escapes gjson path syntax in a plugin name so the name is
// always treated as a single literal key.
func escapePath(name string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)
	return r.Replace(name)
}
