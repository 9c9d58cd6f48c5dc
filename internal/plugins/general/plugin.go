// Package general provides the built-in general plugin: host-wide
// odds and ends that belong to no instrument in particular.
package general

import (
	"go.uber.org/zap"

	"github.com/dshills/benchhost/internal/plugin"
)

// ModuleName is the name the plugin registers under.
const ModuleName = "general"

// SettingsClass is the general settings page contribution.
var SettingsClass = &settingsClass{}

type settingsClass struct{}

func (*settingsClass) NewSettings(host plugin.Host, initial map[string]any) plugin.Settings {
	s := &Settings{host: host, ConfirmShutdown: true}
	if v, ok := initial["confirm_shutdown"].(bool); ok {
		s.ConfirmShutdown = v
	}
	return s
}

// Settings holds the host-wide preferences the general plugin owns.
type Settings struct {
	host            plugin.Host
	ConfirmShutdown bool
}

// Factory returns the plugin factory the registry instantiates the
// general plugin from.
func Factory(pluginsDir string, logger *zap.Logger) plugin.Factory {
	return func(initial map[string]any) (plugin.Plugin, error) {
		return New(initial, pluginsDir, logger), nil
	}
}

// Plugin is the general plugin instance.
type Plugin struct {
	*plugin.Base
	logger     *zap.Logger
	pluginsDir string
	shutdowns  int
}

// New creates the plugin.
func New(initial map[string]any, pluginsDir string, logger *zap.Logger) *Plugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Plugin{
		Base:       plugin.NewBase(initial),
		logger:     logger.Named(ModuleName),
		pluginsDir: pluginsDir,
	}
}

// MenuClass contributes the General menu.
func (p *Plugin) MenuClass() plugin.MenuClass { return &menuClass{p: p} }

// SettingsClasses advertises the general settings page.
func (p *Plugin) SettingsClasses() []plugin.SettingsClass {
	return []plugin.SettingsClass{SettingsClass}
}

// Callbacks registers the shutdown hook at default priority.
func (p *Plugin) Callbacks() map[string]any {
	return map[string]any{
		"shutdown_requested": plugin.Func(p.shutdownRequested),
	}
}

// ShutdownRequests returns how many shutdown requests this instance
// has observed.
func (p *Plugin) ShutdownRequests() int { return p.shutdowns }

func (p *Plugin) shutdownRequested(args ...any) (any, error) {
	p.shutdowns++
	p.logger.Info("shutdown requested")
	return nil, nil
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
	return plugin.MenuDescriptor{
		Name: "General",
		Items: []plugin.MenuItem{
			{
				Name: "Plugins Directory",
				Icon: "folder",
				Action: func() {
					m.p.logger.Info("plugins directory",
						zap.String("path", m.p.pluginsDir))
				},
			},
		},
	}
}
