package plugin

import "errors"

// Plugin system errors.
var (
	// ErrModuleNotFound is returned when a module cannot be located.
	ErrModuleNotFound = errors.New("plugin module not found")

	// ErrNoEntryPoint is returned when a plugin directory has no valid
	// entry point.
	ErrNoEntryPoint = errors.New("plugin has no entry point (plugin.json or init.lua)")

	// ErrNilManifest is returned when a nil manifest is provided.
	ErrNilManifest = errors.New("manifest is nil")

	// ErrAlreadyLoaded is returned when the registry is asked to load
	// modules a second time in the same process.
	ErrAlreadyLoaded = errors.New("plugin modules are already loaded")

	// ErrNoDirResolver is returned when a directory module is enabled
	// but no resolver for directory modules is installed.
	ErrNoDirResolver = errors.New("no resolver installed for directory modules")

	// ErrUnboundCallback is returned when a method callback is invoked
	// without being bound to an owner.
	ErrUnboundCallback = errors.New("method callback invoked without an owner")
)
