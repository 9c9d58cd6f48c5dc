package lua

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Bridge converts values between Go and Lua for one state. Every
// operation that touches the underlying LState holds the State's
// mutex, so callables exported from a plugin stay safe when the host
// invokes them from another goroutine.
type Bridge struct {
	state *State
}

// NewBridge creates a Bridge for the given state.
func NewBridge(state *State) *Bridge {
	return &Bridge{state: state}
}

// ToGoValue converts a Lua value to a Go value. Tables become
// map[string]any, or []any when they are contiguous 1-based arrays.
// Functions convert to nil; callers needing callables use CallFunc.
func (b *Bridge) ToGoValue(lv lua.LValue) any {
	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	return b.toGoValue(lv, make(map[*lua.LTable]bool))
}

func (b *Bridge) toGoValue(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil // break circular references
		}
		visited[v] = true
		return b.tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

func (b *Bridge) tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	isArray := true
	maxN, count := 0, 0
	t.ForEach(func(k, _ lua.LValue) {
		count++
		kn, ok := k.(lua.LNumber)
		if !ok || float64(kn) != float64(int(kn)) || int(kn) < 1 {
			isArray = false
			return
		}
		if int(kn) > maxN {
			maxN = int(kn)
		}
	})

	if isArray && maxN > 0 && count == maxN {
		arr := make([]any, maxN)
		for i := 1; i <= maxN; i++ {
			arr[i-1] = b.toGoValue(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		m[k.String()] = b.toGoValue(v, visited)
	})
	return m
}

// ToLuaValue converts a Go value to a Lua value. Returns LNil once the
// state has been closed.
func (b *Bridge) ToLuaValue(v any) lua.LValue {
	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	if b.state.closed {
		return lua.LNil
	}
	return b.toLuaValue(v)
}

func (b *Bridge) toLuaValue(v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []byte:
		return lua.LString(val)
	case []any:
		t := b.state.L.NewTable()
		for i, item := range val {
			t.RawSetInt(i+1, b.toLuaValue(item))
		}
		return t
	case []string:
		t := b.state.L.NewTable()
		for i, item := range val {
			t.RawSetInt(i+1, lua.LString(item))
		}
		return t
	case map[string]any:
		t := b.state.L.NewTable()
		for k, item := range val {
			t.RawSetString(k, b.toLuaValue(item))
		}
		return t
	case lua.LValue:
		return val
	default:
		ud := b.state.L.NewUserData()
		ud.Value = v
		return ud
	}
}

// CallFunc calls a Lua function value with Go arguments and returns Go
// results. The call is serialized against every other use of the
// state; a closed state yields ErrStateClosed.
func (b *Bridge) CallFunc(fn *lua.LFunction, args ...any) ([]any, error) {
	b.state.mu.Lock()
	defer b.state.mu.Unlock()

	if b.state.closed {
		return nil, ErrStateClosed
	}
	L := b.state.L

	stackTop := L.GetTop()
	L.Push(fn)
	for _, arg := range args {
		L.Push(b.toLuaValue(arg))
	}

	var callErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				callErr = fmt.Errorf("lua panic: %v", r)
			}
		}()
		callErr = L.PCall(len(args), lua.MultRet, nil)
	}()
	if callErr != nil {
		return nil, callErr
	}

	nRet := L.GetTop() - stackTop
	if nRet <= 0 {
		return nil, nil
	}
	results := make([]any, nRet)
	for i := 0; i < nRet; i++ {
		results[i] = b.toGoValue(L.Get(stackTop+i+1), make(map[*lua.LTable]bool))
	}
	L.Pop(nRet)
	return results, nil
}
