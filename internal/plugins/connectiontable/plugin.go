// Package connectiontable provides the built-in connection_table
// plugin: it tracks the hardware connection table a run is validated
// against and raises a notification when the running table disagrees
// with the compiled one.
package connectiontable

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dshills/benchhost/internal/plugin"
)

// ModuleName is the name the plugin registers under.
const ModuleName = "connection_table"

// MismatchClass is the notification class for connection mismatches.
// The class value keys the host's notification instance map.
var MismatchClass = &mismatchClass{}

type mismatchClass struct{}

func (*mismatchClass) NewNotification(host plugin.Host) plugin.Notification {
	return &MismatchNotification{host: host}
}

// MismatchNotification reports that the connection table a run was
// compiled against differs from the one currently loaded.
type MismatchNotification struct {
	host    plugin.Host
	Message string
}

// Show records the mismatch message. Rendering is the host's concern.
func (n *MismatchNotification) Show(compiled, loaded string) {
	n.Message = fmt.Sprintf("run compiled against %s but %s is loaded", compiled, loaded)
}

// Factory returns the plugin factory the registry instantiates
// connection_table from.
func Factory(logger *zap.Logger) plugin.Factory {
	return func(initial map[string]any) (plugin.Plugin, error) {
		return New(initial, logger), nil
	}
}

// Plugin is the connection_table plugin instance.
type Plugin struct {
	*plugin.Base
	logger    *zap.Logger
	tablePath string
	runs      int
}

// New creates the plugin, restoring the last-checked table path from
// the previous run's save data.
func New(initial map[string]any, logger *zap.Logger) *Plugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Plugin{
		Base:   plugin.NewBase(initial),
		logger: logger.Named(ModuleName),
	}
	if path, ok := p.InitialSettings["table_path"].(string); ok {
		p.tablePath = path
	}
	return p
}

// NotificationClasses advertises the mismatch notification.
func (p *Plugin) NotificationClasses() []plugin.NotificationClass {
	return []plugin.NotificationClass{MismatchClass}
}

// Callbacks registers the pre-run check. It runs at priority 5 so the
// table is validated before default-priority handlers see the run.
func (p *Plugin) Callbacks() map[string]any {
	return map[string]any{
		"science_starting": plugin.NewCallback(p.scienceStarting, plugin.WithPriority(5)),
	}
}

// TablePath returns the last-checked connection table path.
func (p *Plugin) TablePath() string { return p.tablePath }

// Runs returns how many runs this instance has checked.
func (p *Plugin) Runs() int { return p.runs }

func (p *Plugin) scienceStarting(args ...any) (any, error) {
	p.runs++
	if len(args) == 0 {
		return nil, fmt.Errorf("science_starting: missing run table path")
	}
	path, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("science_starting: table path is %T, want string", args[0])
	}

	if p.tablePath != "" && p.tablePath != path {
		p.logger.Warn("connection table changed",
			zap.String("was", p.tablePath), zap.String("now", path))
		if n, ok := p.Notifications[MismatchClass].(*MismatchNotification); ok {
			n.Show(path, p.tablePath)
		}
	}
	p.tablePath = path
	return path, nil
}

// SaveData persists the last-checked table path for the next run.
func (p *Plugin) SaveData() map[string]any {
	return map[string]any{"table_path": p.tablePath, "runs": p.runs}
}
