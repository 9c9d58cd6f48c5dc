package plugin

// MenuItem describes one entry in a plugin's menu. Icon is an opaque
// display hint for whatever renders the menu; this package attaches no
// semantics to it.
type MenuItem struct {
	Name   string
	Action func()
	Icon   string
}

// MenuDescriptor is the menu a plugin contributes: a display name and
// an ordered list of items. Produced on demand, never persisted.
type MenuDescriptor struct {
	Name  string
	Items []MenuItem
}

// Menu is the contract a plugin's menu instance satisfies. The host
// creates menu instances from MenuClass factories and owns them.
type Menu interface {
	// Items returns the menu's current descriptor.
	Items() MenuDescriptor

	// CloseNotificationFunc returns the callable the host invokes when
	// the user dismisses a notification tied to this menu, or nil when
	// the plugin raises no notifications.
	CloseNotificationFunc() func()
}

// BaseMenu supplies default Menu behavior. Concrete menus embed
// *BaseMenu and override Items.
type BaseMenu struct {
	// Host is the application back-reference.
	Host Host

	// CloseNotification is the optional dismissal callable. Plugins
	// usually assign it at runtime, often to a function that is not a
	// method of the menu itself.
	CloseNotification func()
}

// NewBaseMenu creates a BaseMenu bound to the host.
func NewBaseMenu(host Host) *BaseMenu {
	return &BaseMenu{Host: host}
}

// Items returns an empty descriptor by default.
func (m *BaseMenu) Items() MenuDescriptor { return MenuDescriptor{} }

// CloseNotificationFunc returns the dismissal callable, or nil.
func (m *BaseMenu) CloseNotificationFunc() func() { return m.CloseNotification }
