package plugin

// Host is the view of the application that plugins and the dispatcher
// share: the ordered collection of live plugin instances.
type Host interface {
	// PluginNames returns the names of all live plugins in discovery
	// order.
	PluginNames() []string

	// Plugin returns the live plugin instance for a module name.
	Plugin(name string) (Plugin, bool)
}

// Settings marks a plugin-owned settings object. The host instantiates
// settings objects from the classes a plugin advertises and owns them;
// the concrete shape is a contract between the plugin and the host's
// settings machinery, which is outside this package.
type Settings any

// Notification marks a plugin-owned notification object. As with
// Settings, the host instantiates and owns notification objects and
// hands them back to the plugin.
type Notification any

// SettingsClass is a capability tag: a factory for a settings object.
type SettingsClass interface {
	NewSettings(host Host, initial map[string]any) Settings
}

// NotificationClass is a capability tag: a factory for a notification
// object. Class values key the instance map handed back to the plugin,
// so a class must be a comparable value (typically a pointer to a
// package-level struct).
type NotificationClass interface {
	NewNotification(host Host) Notification
}

// MenuClass is a capability tag: a factory for a plugin's menu.
type MenuClass interface {
	NewMenu(host Host) Menu
}

// Plugin is the contract every extension module's instance satisfies.
// The host instantiates exactly one Plugin per enabled module per
// process lifetime and owns it until Close.
type Plugin interface {
	// MenuClass returns the class for this plugin's menu, or nil if
	// the plugin contributes no menu.
	MenuClass() MenuClass

	// NotificationClasses returns the classes of notifications this
	// plugin may raise. May be empty.
	NotificationClasses() []NotificationClass

	// SettingsClasses returns the classes of settings objects this
	// plugin contributes. May be empty.
	SettingsClasses() []SettingsClass

	// Callbacks returns the plugin's named event handlers. Values are
	// *Callback wrappers or bare Func callables (default priority).
	// May be empty or nil.
	Callbacks() map[string]any

	// SetMenu hands the plugin the menu instance the host created from
	// its MenuClass.
	SetMenu(menu Menu)

	// SetNotifications hands the plugin its notification instances,
	// keyed by class.
	SetNotifications(notifications map[NotificationClass]Notification)

	// SetupComplete is invoked once, after the host has instantiated
	// settings, menus, and notifications for all plugins. Plugins
	// restore their initial settings into live state here and may
	// start background work of their own.
	SetupComplete(host Host)

	// SaveData is invoked at shutdown; its return value becomes the
	// plugin's initial settings on the next run.
	SaveData() map[string]any

	// Close releases the plugin's resources. Called once at host
	// shutdown.
	Close()
}

// Base supplies default implementations of the Plugin contract.
// Concrete plugins embed *Base and override what they contribute.
type Base struct {
	// InitialSettings is the save data restored from the previous run.
	InitialSettings map[string]any

	// Menu is the menu instance set by the host, or nil.
	Menu Menu

	// Notifications are the notification instances set by the host,
	// keyed by class.
	Notifications map[NotificationClass]Notification

	// Host is the back-reference to the application, set once
	// SetupComplete runs.
	Host Host
}

// NewBase creates a Base holding the restored settings.
func NewBase(initial map[string]any) *Base {
	if initial == nil {
		initial = map[string]any{}
	}
	return &Base{InitialSettings: initial}
}

// MenuClass returns nil: no menu contribution by default.
func (b *Base) MenuClass() MenuClass { return nil }

// NotificationClasses returns no notification classes by default.
func (b *Base) NotificationClasses() []NotificationClass { return nil }

// SettingsClasses returns no settings classes by default.
func (b *Base) SettingsClasses() []SettingsClass { return nil }

// Callbacks returns no callbacks by default.
func (b *Base) Callbacks() map[string]any { return nil }

// SetMenu records the menu instance. Plugins should not need to
// override this.
func (b *Base) SetMenu(menu Menu) { b.Menu = menu }

// SetNotifications records the notification instances. Plugins should
// not need to override this.
func (b *Base) SetNotifications(notifications map[NotificationClass]Notification) {
	b.Notifications = notifications
}

// SetupComplete records the host back-reference. Plugins override this
// to restore InitialSettings into live state and start their own work,
// calling through to the embedded Base first.
func (b *Base) SetupComplete(host Host) { b.Host = host }

// SaveData returns nothing to persist by default.
func (b *Base) SaveData() map[string]any { return map[string]any{} }

// Close does nothing by default.
func (b *Base) Close() {}
