// Package theme provides the built-in theme plugin: it tracks the
// active display theme and lets other plugins react when it changes.
package theme

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dshills/benchhost/internal/plugin"
)

// ModuleName is the name the plugin registers under.
const ModuleName = "theme"

// DefaultTheme is used when no theme was saved.
const DefaultTheme = "default"

// SettingsClass is the theme settings page contribution.
var SettingsClass = &settingsClass{}

type settingsClass struct{}

func (*settingsClass) NewSettings(host plugin.Host, initial map[string]any) plugin.Settings {
	s := &Settings{host: host, Theme: DefaultTheme}
	if v, ok := initial["theme"].(string); ok && v != "" {
		s.Theme = v
	}
	return s
}

// Settings holds the theme preference.
type Settings struct {
	host  plugin.Host
	Theme string
}

// Factory returns the plugin factory the registry instantiates the
// theme plugin from.
func Factory(logger *zap.Logger) plugin.Factory {
	return func(initial map[string]any) (plugin.Plugin, error) {
		return New(initial, logger), nil
	}
}

// Plugin is the theme plugin instance.
type Plugin struct {
	*plugin.Base
	logger *zap.Logger
	active string
}

// New creates the plugin, restoring the active theme from the previous
// run's save data.
func New(initial map[string]any, logger *zap.Logger) *Plugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Plugin{
		Base:   plugin.NewBase(initial),
		logger: logger.Named(ModuleName),
		active: DefaultTheme,
	}
	if v, ok := p.InitialSettings["theme"].(string); ok && v != "" {
		p.active = v
	}
	return p
}

// Active returns the active theme name.
func (p *Plugin) Active() string { return p.active }

// MenuClass contributes the Theme menu.
func (p *Plugin) MenuClass() plugin.MenuClass { return &menuClass{p: p} }

// SettingsClasses advertises the theme settings page.
func (p *Plugin) SettingsClasses() []plugin.SettingsClass {
	return []plugin.SettingsClass{SettingsClass}
}

// Callbacks registers theme_changed as a method callback; the
// dispatcher binds it to this instance before handing it out.
func (p *Plugin) Callbacks() map[string]any {
	return map[string]any{
		"theme_changed": plugin.NewMethodCallback(themeChanged),
	}
}

// themeChanged is bound to the owning Plugin at dispatch time.
func themeChanged(owner any, args ...any) (any, error) {
	p, ok := owner.(*Plugin)
	if !ok {
		return nil, fmt.Errorf("theme_changed: owner is %T, want *Plugin", owner)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("theme_changed: missing theme name")
	}
	name, ok := args[0].(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("theme_changed: bad theme name %v", args[0])
	}

	p.logger.Info("theme changed", zap.String("was", p.active), zap.String("now", name))
	p.active = name
	return name, nil
}

// SaveData persists the active theme for the next run.
func (p *Plugin) SaveData() map[string]any {
	return map[string]any{"theme": p.active}
}

type menuClass struct {
	p *Plugin
}

func (mc *menuClass) NewMenu(host plugin.Host) plugin.Menu {
	return &menu{BaseMenu: plugin.NewBaseMenu(host), p: mc.p}
}

type menu struct {
	*plugin.BaseMenu
	p *Plugin
}

func (m *menu) Items() plugin.MenuDescriptor {
	items := make([]plugin.MenuItem, 0, 2)
	for _, name := range []string{"default", "dark"} {
		name := name
		items = append(items, plugin.MenuItem{
			Name: name,
			Icon: "palette",
			Action: func() {
				if _, err := themeChanged(m.p, name); err != nil {
					m.p.logger.Error("theme switch failed", zap.Error(err))
				}
			},
		})
	}
	return plugin.MenuDescriptor{Name: "Theme", Items: items}
}
