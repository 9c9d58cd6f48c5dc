package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Loader discovers candidate plugin modules in the plugins directory.
// Each immediate subdirectory is one candidate; the directory name is
// the module name unless a manifest overrides it.
type Loader struct {
	dir string
}

// Candidate is a discovered plugin directory. Err is set when the
// directory cannot be loaded as a module (no entry point, bad
// manifest); such candidates still participate in enable/disable
// bookkeeping but are skipped at load time.
type Candidate struct {
	Name     string
	Path     string
	Manifest *Manifest
	Err      error
}

// NewLoader creates a loader for the given plugins directory.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Dir returns the plugins directory.
func (l *Loader) Dir() string {
	return l.dir
}

// Discover returns the candidates in the plugins directory, sorted
// lexicographically by name so ties at equal callback priority resolve
// the same way on every run. A missing directory yields no candidates
// and no error; entries whose names start with "." or "_" (editor
// droppings, build caches) are skipped.
func (l *Loader) Discover() ([]*Candidate, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read plugins directory %s: %w", l.dir, err)
	}

	candidates := make([]*Candidate, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}
		candidates = append(candidates, l.inspect(name, filepath.Join(l.dir, name)))
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Name < candidates[j].Name
	})
	return candidates, nil
}

// inspect examines a plugin directory and returns its candidate info.
func (l *Loader) inspect(name, path string) *Candidate {
	c := &Candidate{Name: name, Path: path}

	manifestPath := filepath.Join(path, "plugin.json")
	if _, err := os.Stat(manifestPath); err == nil {
		manifest, err := LoadManifest(manifestPath)
		if err != nil {
			c.Err = fmt.Errorf("invalid manifest: %w", err)
			return c
		}
		c.Manifest = manifest
		c.Name = manifest.Name
		return c
	}

	initPath := filepath.Join(path, "init.lua")
	if _, err := os.Stat(initPath); err == nil {
		c.Manifest = NewManifestMinimal(name, path)
		return c
	}

	c.Err = ErrNoEntryPoint
	return c
}
