package lua

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/benchhost/internal/plugin"
)

// Resolver returns the registry's resolver for directory candidates.
func Resolver(logger *zap.Logger) plugin.DirModuleFunc {
	return func(c *plugin.Candidate) (plugin.Module, error) {
		return NewModule(c, logger)
	}
}

// Module is a loaded Lua plugin module: the manifest of a plugin
// directory, ready to instantiate.
type Module struct {
	name     string
	manifest *plugin.Manifest
	logger   *zap.Logger
}

// NewModule creates a Module from a discovered candidate.
func NewModule(c *plugin.Candidate, logger *zap.Logger) (*Module, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	if c.Manifest == nil {
		return nil, plugin.ErrNilManifest
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Module{
		name:     c.Name,
		manifest: c.Manifest,
		logger:   logger.With(zap.String("plugin", c.Name)),
	}, nil
}

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// NewPlugin runs the entry script in a fresh state and adapts it to
// the plugin contract. The initial settings are injected as the
// `settings` global before the script executes.
func (m *Module) NewPlugin(initial map[string]any) (plugin.Plugin, error) {
	state := NewState()
	bridge := NewBridge(state)

	if initial == nil {
		initial = map[string]any{}
	}
	state.SetGlobal("settings", bridge.ToLuaValue(initial))

	if err := state.DoFile(m.manifest.MainPath()); err != nil {
		state.Close()
		return nil, fmt.Errorf("failed to run %s: %w", m.manifest.MainPath(), err)
	}

	return &Plugin{
		Base:   plugin.NewBase(initial),
		name:   m.name,
		state:  state,
		bridge: bridge,
		logger: m.logger,
	}, nil
}

// Plugin adapts a running Lua script to the plugin contract. Settings
// and notification classes are Go-side contracts, so the Base defaults
// (none) stand; Lua plugins contribute menus and callbacks.
type Plugin struct {
	*plugin.Base
	name   string
	state  *State
	bridge *Bridge
	logger *zap.Logger
}

// Name returns the module name the plugin was loaded from.
func (p *Plugin) Name() string { return p.name }

// Callbacks retrieves the script's callbacks() table. Entries are
// either bare functions (default priority) or tables of the form
// {fn = function, priority = n}. Script errors are logged and yield
// no callbacks; they never propagate to the dispatcher.
func (p *Plugin) Callbacks() map[string]any {
	if !p.state.HasFunction("callbacks") {
		return nil
	}

	results, err := p.state.Call("callbacks")
	if err != nil {
		p.logger.Error("callbacks() failed", zap.Error(err))
		return nil
	}
	if len(results) == 0 {
		return nil
	}
	tbl, ok := results[0].(*lua.LTable)
	if !ok {
		p.logger.Error("callbacks() did not return a table")
		return nil
	}

	out := make(map[string]any)
	tbl.ForEach(func(k, v lua.LValue) {
		event := k.String()
		switch val := v.(type) {
		case *lua.LFunction:
			out[event] = plugin.NewCallback(p.wrap(val))
		case *lua.LTable:
			fn, ok := val.RawGetString("fn").(*lua.LFunction)
			if !ok {
				p.logger.Warn("callback entry has no fn", zap.String("event", event))
				return
			}
			opts := []plugin.CallbackOption{}
			if n, ok := val.RawGetString("priority").(lua.LNumber); ok {
				opts = append(opts, plugin.WithPriority(int(n)))
			}
			out[event] = plugin.NewCallback(p.wrap(fn), opts...)
		default:
			p.logger.Warn("callback entry is not callable", zap.String("event", event))
		}
	})
	return out
}

// MenuClass reports a menu contribution when the script defines menu().
func (p *Plugin) MenuClass() plugin.MenuClass {
	if !p.state.HasFunction("menu") {
		return nil
	}
	return &menuClass{p: p}
}

// SetupComplete records the host and runs the optional setup_complete().
func (p *Plugin) SetupComplete(host plugin.Host) {
	p.Base.SetupComplete(host)
	if !p.state.HasFunction("setup_complete") {
		return
	}
	if _, err := p.state.Call("setup_complete"); err != nil {
		p.logger.Error("setup_complete() failed", zap.Error(err))
	}
}

// SaveData runs the optional save_data() and returns its table.
func (p *Plugin) SaveData() map[string]any {
	if !p.state.HasFunction("save_data") {
		return p.Base.SaveData()
	}

	results, err := p.state.Call("save_data")
	if err != nil {
		p.logger.Error("save_data() failed", zap.Error(err))
		return map[string]any{}
	}
	if len(results) == 0 {
		return map[string]any{}
	}
	data, ok := p.bridge.ToGoValue(results[0]).(map[string]any)
	if !ok {
		p.logger.Warn("save_data() did not return a table")
		return map[string]any{}
	}
	return data
}

// Close runs the optional close() and releases the Lua state.
func (p *Plugin) Close() {
	if p.state.HasFunction("close") {
		if _, err := p.state.Call("close"); err != nil {
			p.logger.Error("close() failed", zap.Error(err))
		}
	}
	p.state.Close()
}

// wrap adapts a Lua function value to a plugin.Func, forwarding
// arguments and the first return value.
func (p *Plugin) wrap(fn *lua.LFunction) plugin.Func {
	return func(args ...any) (any, error) {
		results, err := p.bridge.CallFunc(fn, args...)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, nil
		}
		return results[0], nil
	}
}

// menuClass instantiates the script-backed menu.
type menuClass struct {
	p *Plugin
}

func (mc *menuClass) NewMenu(host plugin.Host) plugin.Menu {
	return &menu{BaseMenu: plugin.NewBaseMenu(host), p: mc.p}
}

// menu produces its descriptor on demand by calling the script's
// menu() function.
type menu struct {
	*plugin.BaseMenu
	p *Plugin
}

func (m *menu) Items() plugin.MenuDescriptor {
	results, err := m.p.state.Call("menu")
	if err != nil {
		m.p.logger.Error("menu() failed", zap.Error(err))
		return plugin.MenuDescriptor{}
	}
	if len(results) == 0 {
		return plugin.MenuDescriptor{}
	}
	tbl, ok := results[0].(*lua.LTable)
	if !ok {
		m.p.logger.Error("menu() did not return a table")
		return plugin.MenuDescriptor{}
	}

	desc := plugin.MenuDescriptor{}
	if name, ok := tbl.RawGetString("name").(lua.LString); ok {
		desc.Name = string(name)
	}
	items, ok := tbl.RawGetString("items").(*lua.LTable)
	if !ok {
		return desc
	}

	items.ForEach(func(_, v lua.LValue) {
		entry, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		item := plugin.MenuItem{}
		if name, ok := entry.RawGetString("name").(lua.LString); ok {
			item.Name = string(name)
		}
		if icon, ok := entry.RawGetString("icon").(lua.LString); ok {
			item.Icon = string(icon)
		}
		if fn, ok := entry.RawGetString("action").(*lua.LFunction); ok {
			action := m.p.wrap(fn)
			item.Action = func() {
				if _, err := action(); err != nil {
					m.p.logger.Error("menu action failed",
						zap.String("item", item.Name), zap.Error(err))
				}
			}
		}
		desc.Items = append(desc.Items, item)
	})
	return desc
}
