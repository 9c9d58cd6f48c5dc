package plugin

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/dshills/benchhost/internal/config"
)

// ConfigSection is the config-store section holding the enable table:
// one key per discovered module name, valued "True" or "False".
const ConfigSection = "benchhost/plugins"

// defaultEnabled are the modules enabled on first discovery. Every
// other module is written back disabled and stays so until the user
// flips it.
var defaultEnabled = map[string]bool{
	"connection_table": true,
	"general":          true,
	"theme":            true,
}

// DefaultEnabled returns the names of the modules enabled by default,
// sorted.
func DefaultEnabled() []string {
	names := make([]string, 0, len(defaultEnabled))
	for name := range defaultEnabled {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Factory creates a plugin instance from the save data restored from
// the previous run. Built-in modules register a Factory by name.
type Factory func(initial map[string]any) (Plugin, error)

// Module is a loaded, not-yet-instantiated plugin module. The host
// instantiates the plugin and wires settings, menus, and notifications.
type Module interface {
	// Name returns the unique module name.
	Name() string

	// NewPlugin creates the module's plugin instance with the save
	// data restored from the previous run.
	NewPlugin(initial map[string]any) (Plugin, error)
}

// DirModuleFunc resolves a discovered plugin directory into a Module.
// The host installs the Lua runtime's resolver here; keeping the
// registry behind this narrow seam means it never depends on how
// directory plugins execute.
type DirModuleFunc func(c *Candidate) (Module, error)

// builtinModule adapts a registered Factory to the Module contract.
type builtinModule struct {
	name    string
	factory Factory
}

func (m *builtinModule) Name() string { return m.name }

func (m *builtinModule) NewPlugin(initial map[string]any) (Plugin, error) {
	return m.factory(initial)
}

// Registry discovers candidate plugin modules, keeps the persistent
// enable/disable table, and loads enabled modules. Failures local to
// one module are logged and never abort loading of the others.
type Registry struct {
	store      config.Store
	loader     *Loader
	logger     *zap.Logger
	dirModules DirModuleFunc

	builtins map[string]Factory

	modules map[string]Module
	order   []string
	loaded  bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLoader sets the filesystem loader for directory plugins.
func WithLoader(l *Loader) RegistryOption {
	return func(r *Registry) {
		r.loader = l
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithDirModules installs the resolver for directory candidates.
func WithDirModules(fn DirModuleFunc) RegistryOption {
	return func(r *Registry) {
		r.dirModules = fn
	}
}

// NewRegistry creates a registry over the injected config store.
func NewRegistry(store config.Store, opts ...RegistryOption) *Registry {
	r := &Registry{
		store:    store,
		logger:   zap.NewNop(),
		builtins: make(map[string]Factory),
		modules:  make(map[string]Module),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterBuiltin registers a built-in module factory by name. Must be
// called before LoadEnabled. A built-in shadows a directory candidate
// of the same name.
func (r *Registry) RegisterBuiltin(name string, factory Factory) {
	r.builtins[name] = factory
}

// LoadEnabled runs the discovery/activation pass: enumerate candidates,
// record newly-seen names in the enable table with their default value,
// and load every enabled module. It runs at most once per process.
func (r *Registry) LoadEnabled() error {
	if r.loaded {
		return ErrAlreadyLoaded
	}
	r.loaded = true

	dirCandidates := make(map[string]*Candidate)
	if r.loader != nil {
		found, err := r.loader.Discover()
		if err != nil {
			return err
		}
		for _, c := range found {
			dirCandidates[c.Name] = c
		}
	}

	names := r.candidateNames(dirCandidates)

	if !r.store.HasSection(ConfigSection) {
		if err := r.store.AddSection(ConfigSection); err != nil {
			return fmt.Errorf("failed to create plugin enable table: %w", err)
		}
	}

	known, err := r.knownNames()
	if err != nil {
		return err
	}

	for _, name := range names {
		// Newly discovered modules get their default written back
		// immediately so the table is complete after one startup.
		if !known[name] {
			value := config.FormatBool(defaultEnabled[name])
			if err := r.store.Set(ConfigSection, name, value); err != nil {
				return fmt.Errorf("failed to record module %s: %w", name, err)
			}
		}

		enabled, err := r.store.GetBool(ConfigSection, name)
		if err != nil {
			r.logger.Warn("unreadable enable flag, leaving module disabled",
				zap.String("module", name), zap.Error(err))
			continue
		}
		if !enabled {
			continue
		}

		module, err := r.resolve(name, dirCandidates[name])
		if err != nil {
			r.logger.Error("could not load plugin module, skipping",
				zap.String("module", name), zap.Error(err))
			continue
		}
		r.modules[name] = module
		r.order = append(r.order, name)
	}

	return nil
}

// candidateNames returns the sorted union of builtin and directory
// candidate names.
func (r *Registry) candidateNames(dirCandidates map[string]*Candidate) []string {
	seen := make(map[string]bool, len(r.builtins)+len(dirCandidates))
	names := make([]string, 0, len(r.builtins)+len(dirCandidates))
	for name := range r.builtins {
		seen[name] = true
		names = append(names, name)
	}
	for name := range dirCandidates {
		if !seen[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// knownNames returns the module names already present in the enable
// table.
func (r *Registry) knownNames() (map[string]bool, error) {
	items, err := r.store.Items(ConfigSection)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin enable table: %w", err)
	}
	known := make(map[string]bool, len(items))
	for _, item := range items {
		known[item.Key] = true
	}
	return known, nil
}

// resolve produces the Module for an enabled candidate name.
func (r *Registry) resolve(name string, candidate *Candidate) (Module, error) {
	if factory, ok := r.builtins[name]; ok {
		return &builtinModule{name: name, factory: factory}, nil
	}
	if candidate == nil {
		return nil, ErrModuleNotFound
	}
	if candidate.Err != nil {
		return nil, candidate.Err
	}
	if r.dirModules == nil {
		return nil, ErrNoDirResolver
	}
	return r.dirModules(candidate)
}

// Modules returns the loaded modules keyed by name.
func (r *Registry) Modules() map[string]Module {
	out := make(map[string]Module, len(r.modules))
	for name, m := range r.modules {
		out[name] = m
	}
	return out
}

// Module returns a loaded module by name.
func (r *Registry) Module(name string) (Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// Names returns the loaded module names in discovery order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Count returns the number of loaded modules.
func (r *Registry) Count() int {
	return len(r.modules)
}
