package lua

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/dshills/benchhost/internal/plugin"
)

// writeModule materializes a plugin directory with the given init.lua
// and returns a discovery candidate for it.
func writeModule(t *testing.T, name, script string) *plugin.Candidate {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "init.lua"), []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}
	return &plugin.Candidate{
		Name:     name,
		Path:     dir,
		Manifest: plugin.NewManifestMinimal(name, dir),
	}
}

func newPlugin(t *testing.T, name, script string, initial map[string]any) plugin.Plugin {
	t.Helper()
	mod, err := NewModule(writeModule(t, name, script), zap.NewNop())
	if err != nil {
		t.Fatalf("NewModule: %v", err)
	}
	p, err := mod.NewPlugin(initial)
	if err != nil {
		t.Fatalf("NewPlugin: %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

func TestModuleName(t *testing.T) {
	mod, err := NewModule(writeModule(t, "general", ``), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if mod.Name() != "general" {
		t.Errorf("Name = %q", mod.Name())
	}
}

func TestNewModuleRejectsBrokenCandidate(t *testing.T) {
	c := &plugin.Candidate{Name: "broken", Err: plugin.ErrNoEntryPoint}
	if _, err := NewModule(c, zap.NewNop()); !errors.Is(err, plugin.ErrNoEntryPoint) {
		t.Errorf("err = %v, want ErrNoEntryPoint", err)
	}

	c = &plugin.Candidate{Name: "bare"}
	if _, err := NewModule(c, zap.NewNop()); !errors.Is(err, plugin.ErrNilManifest) {
		t.Errorf("err = %v, want ErrNilManifest", err)
	}
}

func TestNewPluginScriptError(t *testing.T) {
	mod, err := NewModule(writeModule(t, "bad", `error("refuse to start")`), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mod.NewPlugin(nil); err == nil {
		t.Error("expected error from failing script")
	}
}

func TestPluginSettingsGlobal(t *testing.T) {
	script := `
		function save_data()
			return { color = settings.color }
		end
	`
	p := newPlugin(t, "theme", script, map[string]any{"color": "dark"})

	got := p.SaveData()
	want := map[string]any{"color": "dark"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SaveData = %#v, want %#v", got, want)
	}
}

func TestPluginCallbacks(t *testing.T) {
	script := `
		seen = {}
		function callbacks()
			return {
				science_starting = function(run) seen[#seen + 1] = run; return "ok" end,
				shutdown = { priority = 3, fn = function() return "bye" end },
			}
		end
	`
	p := newPlugin(t, "general", script, nil)

	cbs := p.Callbacks()
	if len(cbs) != 2 {
		t.Fatalf("got %d callbacks, want 2", len(cbs))
	}

	cb, ok := cbs["science_starting"].(*plugin.Callback)
	if !ok {
		t.Fatalf("science_starting is %T", cbs["science_starting"])
	}
	if cb.Priority() != plugin.DefaultPriority {
		t.Errorf("priority = %d, want default", cb.Priority())
	}
	result, err := cb.Call("run-1")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %v", result)
	}

	cb, ok = cbs["shutdown"].(*plugin.Callback)
	if !ok {
		t.Fatalf("shutdown is %T", cbs["shutdown"])
	}
	if cb.Priority() != 3 {
		t.Errorf("priority = %d, want 3", cb.Priority())
	}
}

func TestPluginCallbacksAbsent(t *testing.T) {
	p := newPlugin(t, "quiet", ``, nil)
	if cbs := p.Callbacks(); cbs != nil {
		t.Errorf("Callbacks = %v, want nil", cbs)
	}
}

func TestPluginCallbacksBadEntries(t *testing.T) {
	script := `
		function callbacks()
			return {
				good = function() end,
				no_fn = { priority = 1 },
				not_callable = "text",
			}
		end
	`
	p := newPlugin(t, "mixed", script, nil)

	cbs := p.Callbacks()
	if len(cbs) != 1 {
		t.Errorf("got %d callbacks, want only the valid one", len(cbs))
	}
	if _, ok := cbs["good"]; !ok {
		t.Error("good callback missing")
	}
}

func TestPluginMenu(t *testing.T) {
	script := `
		clicked = 0
		function menu()
			return {
				name = "Theme",
				items = {
					{ name = "Reload", icon = "refresh", action = function() clicked = clicked + 1 end },
					{ name = "About" },
				},
			}
		end
	`
	p := newPlugin(t, "theme", script, nil)

	mc := p.MenuClass()
	if mc == nil {
		t.Fatal("MenuClass returned nil")
	}
	m := mc.NewMenu(nil)

	desc := m.Items()
	if desc.Name != "Theme" {
		t.Errorf("menu name = %q", desc.Name)
	}
	if len(desc.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(desc.Items))
	}
	if desc.Items[0].Name != "Reload" || desc.Items[0].Icon != "refresh" {
		t.Errorf("first item = %+v", desc.Items[0])
	}
	if desc.Items[0].Action == nil {
		t.Fatal("first item has no action")
	}
	desc.Items[0].Action()
	if desc.Items[1].Action != nil {
		t.Error("second item should have no action")
	}
}

func TestPluginMenuAbsent(t *testing.T) {
	p := newPlugin(t, "plain", ``, nil)
	if mc := p.MenuClass(); mc != nil {
		t.Errorf("MenuClass = %v, want nil", mc)
	}
}

func TestPluginSetupCompleteAndClose(t *testing.T) {
	script := `
		events = {}
		function setup_complete() events[#events + 1] = "setup" end
		function close() events[#events + 1] = "close" end
		function save_data() return { events = events } end
	`
	p := newPlugin(t, "lifecycle", script, nil)

	p.SetupComplete(nil)
	data := p.SaveData()
	want := map[string]any{"events": []any{"setup"}}
	if !reflect.DeepEqual(data, want) {
		t.Errorf("SaveData = %#v, want %#v", data, want)
	}

	p.Close()
	lp := p.(*Plugin)
	if !lp.state.IsClosed() {
		t.Error("state should be closed")
	}
}

func TestPluginSaveDataErrors(t *testing.T) {
	p := newPlugin(t, "faulty", `function save_data() error("no") end`, nil)
	if got := p.SaveData(); len(got) != 0 {
		t.Errorf("SaveData = %#v, want empty", got)
	}

	p = newPlugin(t, "scalar", `function save_data() return 5 end`, nil)
	if got := p.SaveData(); len(got) != 0 {
		t.Errorf("SaveData = %#v, want empty", got)
	}
}

func TestResolver(t *testing.T) {
	resolve := Resolver(zap.NewNop())
	mod, err := resolve(writeModule(t, "resolved", ``))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if mod.Name() != "resolved" {
		t.Errorf("Name = %q", mod.Name())
	}
}
