// Package host wires the plugin subsystem into a running application:
// it instantiates one plugin per enabled module, hands each its menu,
// settings, and notification instances, and routes events to their
// callbacks.
package host

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/benchhost/internal/config"
	"github.com/dshills/benchhost/internal/plugin"
)

// App owns the live plugin instances for one process. It satisfies
// plugin.Host so plugins and the dispatcher can see each other.
type App struct {
	store    config.Store
	saves    *config.SaveStore
	registry *plugin.Registry
	watcher  *plugin.Watcher
	logger   *zap.Logger

	dispatcher *plugin.Dispatcher

	mu       sync.RWMutex
	plugins  map[string]plugin.Plugin
	order    []string
	menus    map[string]plugin.Menu
	settings map[string][]plugin.Settings

	started  bool
	shutdown sync.Once
	wg       sync.WaitGroup
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithWatcher attaches a plugins-directory watcher. Changes do not
// reload plugins; they are broadcast as a plugins_changed event so
// running plugins can tell the user a restart is needed.
func WithWatcher(w *plugin.Watcher) Option {
	return func(a *App) { a.watcher = w }
}

// NewApp creates an App over a config store, a save-data store, and a
// plugin registry.
func NewApp(store config.Store, saves *config.SaveStore, registry *plugin.Registry, opts ...Option) *App {
	a := &App{
		store:    store,
		saves:    saves,
		registry: registry,
		logger:   zap.NewNop(),
		plugins:  make(map[string]plugin.Plugin),
		menus:    make(map[string]plugin.Menu),
		settings: make(map[string][]plugin.Settings),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.dispatcher = plugin.NewDispatcher(a, a.logger)
	return a
}

// Startup loads the enabled modules and brings their plugins to life.
// A module whose instantiation fails is logged and skipped; the rest
// of the set still starts. SetupComplete runs only after every plugin
// has its menu, settings, and notification instances.
func (a *App) Startup() error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return fmt.Errorf("host already started")
	}
	a.started = true
	a.mu.Unlock()

	if err := a.registry.LoadEnabled(); err != nil {
		return fmt.Errorf("load plugins: %w", err)
	}

	for _, name := range a.registry.Names() {
		mod, ok := a.registry.Module(name)
		if !ok {
			continue
		}
		p, err := mod.NewPlugin(a.saves.Get(name))
		if err != nil {
			a.logger.Error("plugin failed to start",
				zap.String("plugin", name), zap.Error(err))
			continue
		}
		a.mu.Lock()
		a.plugins[name] = p
		a.order = append(a.order, name)
		a.mu.Unlock()
	}

	for _, name := range a.PluginNames() {
		p, _ := a.Plugin(name)
		a.wire(name, p)
	}

	for _, name := range a.PluginNames() {
		p, _ := a.Plugin(name)
		a.setupComplete(name, p)
	}

	if a.watcher != nil {
		a.wg.Add(1)
		go a.watchPlugins()
	}

	a.logger.Info("plugins started", zap.Int("count", len(a.PluginNames())))
	return nil
}

// wire instantiates the plugin's advertised classes and hands the
// instances back. A panic in plugin code is contained here.
func (a *App) wire(name string, p plugin.Plugin) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("plugin wiring panicked",
				zap.String("plugin", name), zap.Any("panic", r))
		}
	}()

	if mc := p.MenuClass(); mc != nil {
		m := mc.NewMenu(a)
		p.SetMenu(m)
		a.mu.Lock()
		a.menus[name] = m
		a.mu.Unlock()
	}

	notifications := make(map[plugin.NotificationClass]plugin.Notification)
	for _, nc := range p.NotificationClasses() {
		notifications[nc] = nc.NewNotification(a)
	}
	p.SetNotifications(notifications)

	initial := a.saves.Get(name)
	var settings []plugin.Settings
	for _, sc := range p.SettingsClasses() {
		settings = append(settings, sc.NewSettings(a, initial))
	}
	if len(settings) > 0 {
		a.mu.Lock()
		a.settings[name] = settings
		a.mu.Unlock()
	}
}

func (a *App) setupComplete(name string, p plugin.Plugin) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("SetupComplete panicked",
				zap.String("plugin", name), zap.Any("panic", r))
		}
	}()
	p.SetupComplete(a)
}

func (a *App) watchPlugins() {
	defer a.wg.Done()
	for name := range a.watcher.Events() {
		a.logger.Info("plugins directory changed", zap.String("plugin", name))
		a.Broadcast("plugins_changed", name)
	}
}

// PluginNames returns the live plugin names in discovery order.
func (a *App) PluginNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Plugin returns the live plugin instance for a module name.
func (a *App) Plugin(name string) (plugin.Plugin, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p, ok := a.plugins[name]
	return p, ok
}

// Menu returns the menu instance a plugin contributed, if any.
func (a *App) Menu(name string) (plugin.Menu, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.menus[name]
	return m, ok
}

// Settings returns the settings instances a plugin contributed. The
// host owns them for the plugin's lifetime.
func (a *App) Settings(name string) []plugin.Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings[name]
}

// Callbacks returns all callables registered for an event, bound and
// sorted by priority.
func (a *App) Callbacks(event string) []plugin.Func {
	return a.dispatcher.Callbacks(event)
}

// Broadcast invokes every callback registered for an event.
// Invocation errors are logged, never propagated; one plugin cannot
// veto an event for the others.
func (a *App) Broadcast(event string, args ...any) {
	for _, fn := range a.dispatcher.Callbacks(event) {
		if _, err := fn(args...); err != nil {
			a.logger.Error("event callback failed",
				zap.String("event", event), zap.Error(err))
		}
	}
}

// Shutdown stops the watcher, persists every plugin's save data, and
// closes the plugins in reverse startup order. Safe to call more than
// once; only the first call does the work.
func (a *App) Shutdown() {
	a.shutdown.Do(func() {
		// Stop the watcher first so no change event is broadcast into
		// plugins that are shutting down. Closing the watcher closes
		// its event channel, which ends the watchPlugins goroutine.
		if a.watcher != nil {
			if err := a.watcher.Close(); err != nil {
				a.logger.Warn("watcher close failed", zap.Error(err))
			}
		}
		a.wg.Wait()

		names := a.PluginNames()

		for _, name := range names {
			p, _ := a.Plugin(name)
			data := a.saveData(name, p)
			if err := a.saves.Set(name, data); err != nil {
				a.logger.Error("save data write failed",
					zap.String("plugin", name), zap.Error(err))
			}
		}
		if err := a.saves.Flush(); err != nil {
			a.logger.Error("save data flush failed", zap.Error(err))
		}

		for i := len(names) - 1; i >= 0; i-- {
			p, _ := a.Plugin(names[i])
			a.closePlugin(names[i], p)
		}

		a.logger.Info("plugins stopped", zap.Int("count", len(names)))
	})
}

// saveData collects a plugin's save data, containing panics.
func (a *App) saveData(name string, p plugin.Plugin) (data map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("SaveData panicked",
				zap.String("plugin", name), zap.Any("panic", r))
			data = map[string]any{}
		}
	}()
	return p.SaveData()
}

func (a *App) closePlugin(name string, p plugin.Plugin) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Close panicked",
				zap.String("plugin", name), zap.Any("panic", r))
		}
	}()
	p.Close()
}
