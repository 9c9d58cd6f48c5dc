// Package plugin provides the plugin system for the benchhost
// application.
//
// A plugin is an independently enableable extension module that can
// contribute menu items, notifications, settings panels, and named
// event callbacks to the host. The package covers three concerns:
//
//   - Capability contracts: the Plugin interface and the Menu,
//     Settings, and Notification contracts, with Base types supplying
//     default implementations.
//   - Registry: discovery of candidate modules (built-in factories and
//     plugin directories), enable/disable bookkeeping against the
//     persistent config store, and safe bulk loading where one broken
//     module never prevents the others from loading.
//   - Dispatcher: aggregation of named callbacks across all live
//     plugin instances, returned in ascending priority order with ties
//     broken by discovery order.
//
// # Module sources
//
// Built-in plugins register a Factory by name:
//
//	reg := plugin.NewRegistry(store,
//	    plugin.WithLoader(plugin.NewLoader(pluginsDir)),
//	    plugin.WithLogger(logger),
//	)
//	reg.RegisterBuiltin("general", general.New)
//
// Directory plugins live as immediate subdirectories of the plugins
// directory, each holding a plugin.json manifest or a bare init.lua,
// and load through the resolver installed with WithDirModules
// (the host wires the Lua runtime in internal/plugin/lua).
//
// # Enable table
//
// The registry owns the "benchhost/plugins" section of the config
// store. A newly discovered candidate is written back immediately as
// "True" when its name is in the default-enabled set and "False"
// otherwise; only candidates whose persisted value is true are loaded.
//
// # Callbacks
//
// A plugin's Callbacks() map may hold bare Func values (default
// priority) or *Callback wrappers carrying an explicit priority.
// Method callbacks bind to their owning plugin instance when the
// dispatcher retrieves them, so the bound callable receives the
// instance as its implicit first argument.
//
//	func (p *myPlugin) Callbacks() map[string]any {
//	    return map[string]any{
//	        "science_starting":   plugin.NewMethodCallback(onStart, plugin.WithPriority(5)),
//	        "shutdown_requested": plugin.Func(p.onShutdown),
//	    }
//	}
package plugin
