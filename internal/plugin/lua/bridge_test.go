package lua

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestBridgeToGoValue(t *testing.T) {
	s := NewState()
	defer s.Close()
	b := NewBridge(s)

	tests := []struct {
		name string
		in   lua.LValue
		want any
	}{
		{"nil", lua.LNil, nil},
		{"bool", lua.LTrue, true},
		{"integer", lua.LNumber(7), int64(7)},
		{"float", lua.LNumber(2.5), 2.5},
		{"string", lua.LString("hi"), "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.ToGoValue(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ToGoValue(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBridgeTableToMap(t *testing.T) {
	s := NewState()
	defer s.Close()
	b := NewBridge(s)

	if err := s.DoString(`t = { name = "theme", count = 3 }`); err != nil {
		t.Fatal(err)
	}
	got := b.ToGoValue(s.LuaState().GetGlobal("t"))
	want := map[string]any{"name": "theme", "count": int64(3)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestBridgeTableToArray(t *testing.T) {
	s := NewState()
	defer s.Close()
	b := NewBridge(s)

	if err := s.DoString(`t = { "a", "b", "c" }`); err != nil {
		t.Fatal(err)
	}
	got := b.ToGoValue(s.LuaState().GetGlobal("t"))
	want := []any{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestBridgeCircularTable(t *testing.T) {
	s := NewState()
	defer s.Close()
	b := NewBridge(s)

	if err := s.DoString(`t = { name = "loop" }; t.self = t`); err != nil {
		t.Fatal(err)
	}
	got, ok := b.ToGoValue(s.LuaState().GetGlobal("t")).(map[string]any)
	if !ok {
		t.Fatalf("got %T, want map", got)
	}
	if got["name"] != "loop" {
		t.Errorf("name = %v", got["name"])
	}
	if got["self"] != nil {
		t.Errorf("self = %v, want nil", got["self"])
	}
}

func TestBridgeToLuaValueRoundTrip(t *testing.T) {
	s := NewState()
	defer s.Close()
	b := NewBridge(s)

	in := map[string]any{
		"enabled": true,
		"label":   "main",
		"retries": 3,
		"items":   []any{"x", "y"},
	}
	got := b.ToGoValue(b.ToLuaValue(in))
	want := map[string]any{
		"enabled": true,
		"label":   "main",
		"retries": int64(3),
		"items":   []any{"x", "y"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestBridgeCallFunc(t *testing.T) {
	s := NewState()
	defer s.Close()
	b := NewBridge(s)

	if err := s.DoString(`function double(n) return n * 2 end`); err != nil {
		t.Fatal(err)
	}
	fn := s.LuaState().GetGlobal("double").(*lua.LFunction)

	results, err := b.CallFunc(fn, 21)
	if err != nil {
		t.Fatalf("CallFunc: %v", err)
	}
	if len(results) != 1 || results[0] != int64(42) {
		t.Errorf("results = %#v, want [42]", results)
	}
}

func TestBridgeCallFuncSerialized(t *testing.T) {
	s := NewState()
	defer s.Close()
	b := NewBridge(s)

	if err := s.DoString(`
		count = 0
		function bump() count = count + 1 return count end
	`); err != nil {
		t.Fatal(err)
	}
	fn := s.LuaState().GetGlobal("bump").(*lua.LFunction)

	// Exported callables may be invoked from any goroutine; the bridge
	// serializes access to the shared state.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				if _, err := b.CallFunc(fn); err != nil {
					t.Errorf("CallFunc: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	results, err := b.CallFunc(fn)
	if err != nil {
		t.Fatalf("CallFunc: %v", err)
	}
	if len(results) != 1 || results[0] != int64(201) {
		t.Errorf("count = %v, want 201", results)
	}
}

func TestBridgeCallFuncClosedState(t *testing.T) {
	s := NewState()
	b := NewBridge(s)

	if err := s.DoString(`function f() return 1 end`); err != nil {
		t.Fatal(err)
	}
	fn := s.LuaState().GetGlobal("f").(*lua.LFunction)
	s.Close()

	if _, err := b.CallFunc(fn); !errors.Is(err, ErrStateClosed) {
		t.Errorf("err = %v, want ErrStateClosed", err)
	}
	if got := b.ToLuaValue("x"); got != lua.LNil {
		t.Errorf("ToLuaValue after close = %v, want nil", got)
	}
}

func TestBridgeCallFuncError(t *testing.T) {
	s := NewState()
	defer s.Close()
	b := NewBridge(s)

	if err := s.DoString(`function bad() error("no") end`); err != nil {
		t.Fatal(err)
	}
	fn := s.LuaState().GetGlobal("bad").(*lua.LFunction)

	if _, err := b.CallFunc(fn); err == nil {
		t.Error("expected error")
	}
}
