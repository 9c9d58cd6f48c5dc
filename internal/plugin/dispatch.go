package plugin

import (
	"sort"

	"go.uber.org/zap"
)

// Dispatcher aggregates named callbacks across all live plugin
// instances. It holds no state of its own beyond its sources; every
// call reflects the host's current plugin collection.
type Dispatcher struct {
	host   Host
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher over the host's plugin collection.
func NewDispatcher(host Host, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{host: host, logger: logger}
}

// Callbacks returns every callback registered under the event name,
// bound to its owning plugin and sorted by ascending priority. Ties
// keep the plugins' discovery order (stable sort). An event no plugin
// handles yields an empty slice. A plugin whose Callbacks panics
// contributes nothing and does not abort dispatch for the others;
// invoking the returned callables, and surviving their errors, is the
// caller's responsibility.
func (d *Dispatcher) Callbacks(event string) []Func {
	type entry struct {
		priority int
		fn       Func
	}

	var entries []entry
	for _, name := range d.host.PluginNames() {
		p, ok := d.host.Plugin(name)
		if !ok {
			continue
		}

		callbacks := d.pluginCallbacks(name, p)
		raw, ok := callbacks[event]
		if !ok {
			continue
		}

		switch cb := raw.(type) {
		case *Callback:
			entries = append(entries, entry{priority: cb.Priority(), fn: cb.Bind(p)})
		case Func:
			entries = append(entries, entry{priority: DefaultPriority, fn: cb})
		case func(args ...any) (any, error):
			entries = append(entries, entry{priority: DefaultPriority, fn: cb})
		default:
			d.logger.Warn("ignoring callback of unsupported type",
				zap.String("plugin", name), zap.String("event", event))
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})

	out := make([]Func, len(entries))
	for i, e := range entries {
		out[i] = e.fn
	}
	return out
}

// pluginCallbacks retrieves one plugin's callback map, containing any
// panic so a broken plugin cannot abort dispatch for the others.
func (d *Dispatcher) pluginCallbacks(name string, p Plugin) (callbacks map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("error getting callbacks from plugin",
				zap.String("plugin", name), zap.Any("panic", r))
			callbacks = nil
		}
	}()
	return p.Callbacks()
}
