package host

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// LuaStateSource adapts the global state table of an embedded Lua VM into the
// read-only StateSource surface. The simulation keeps its mutable state under
// a single global (Root); dotted paths are resolved against it.
//
// The underlying LState is not safe for concurrent use; all access happens on
// the tick thread, matching the bridge's concurrency model.
type LuaStateSource struct {
	ls   *lua.LState
	root string
}

func NewLuaStateSource(ls *lua.LState, root string) *LuaStateSource {
	return &LuaStateSource{ls: ls, root: root}
}

func (s *LuaStateSource) resolve(path string) lua.LValue {
	v := s.ls.GetGlobal(s.root)
	if path == "" {
		return v
	}
	for _, part := range strings.Split(path, ".") {
		tbl, ok := v.(*lua.LTable)
		if !ok {
			return lua.LNil
		}
		v = tbl.RawGetString(part)
	}
	return v
}

func (s *LuaStateSource) Value(path string) (any, bool) {
	v := s.resolve(path)
	if v == lua.LNil {
		return nil, false
	}
	return fromLua(v, 0), true
}

func (s *LuaStateSource) Table(path string) ([]map[string]any, error) {
	v := s.resolve(path)
	if v == lua.LNil {
		return nil, nil
	}
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("host state at %q is not a table", path)
	}
	out := make([]map[string]any, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		rec, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("host state at %q[%d] is not a record", path, i)
		}
		m := make(map[string]any)
		rec.ForEach(func(k, val lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				m[string(ks)] = fromLua(val, 0)
			}
		})
		out = append(out, m)
	}
	return out, nil
}

const maxLuaDepth = 8

func fromLua(v lua.LValue, depth int) any {
	switch v := v.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if depth >= maxLuaDepth {
			return nil
		}
		if n := v.Len(); n > 0 {
			arr := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				arr = append(arr, fromLua(v.RawGetInt(i), depth+1))
			}
			return arr
		}
		m := make(map[string]any)
		v.ForEach(func(k, val lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				m[string(ks)] = fromLua(val, depth+1)
			}
		})
		return m
	default:
		return nil
	}
}

func toLua(ls *lua.LState, v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case uint64:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case string:
		return lua.LString(v)
	case []any:
		tbl := ls.NewTable()
		for _, el := range v {
			tbl.Append(toLua(ls, el))
		}
		return tbl
	case map[string]any:
		tbl := ls.NewTable()
		for k, el := range v {
			tbl.RawSetString(k, toLua(ls, el))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprint(v))
	}
}

// LuaCommandSurface invokes a global Lua function to apply controller actions
// to host state. The function receives (action, params) and follows the usual
// Lua convention: return true on success, or false plus an error message.
type LuaCommandSurface struct {
	ls *lua.LState
	fn string
}

func NewLuaCommandSurface(ls *lua.LState, fn string) *LuaCommandSurface {
	return &LuaCommandSurface{ls: ls, fn: fn}
}

func (c *LuaCommandSurface) Apply(action string, params map[string]any) error {
	fn := c.ls.GetGlobal(c.fn)
	if fn == lua.LNil {
		return fmt.Errorf("host function %q not defined", c.fn)
	}
	tbl := c.ls.NewTable()
	for k, v := range params {
		tbl.RawSetString(k, toLua(c.ls, v))
	}
	if err := c.ls.CallByParam(lua.P{Fn: fn, NRet: 2, Protect: true}, lua.LString(action), tbl); err != nil {
		return fmt.Errorf("apply %s: %w", action, err)
	}
	ok := c.ls.Get(-2)
	msg := c.ls.Get(-1)
	c.ls.Pop(2)
	if lua.LVIsFalse(ok) {
		if s, isStr := msg.(lua.LString); isStr && string(s) != "" {
			return fmt.Errorf("apply %s: %s", action, string(s))
		}
		return fmt.Errorf("apply %s: host rejected action", action)
	}
	return nil
}
