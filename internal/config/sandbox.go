package config

import (
	"context"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// evalTimeout bounds the evaluation of a configuration file.
const evalTimeout = 5 * time.Second

// sandboxLuaVM strips every global that reaches outside the VM. A
// configuration file may compute values with the string, table and math
// libraries but cannot run commands, touch files or load other code.
func sandboxLuaVM(L *lua.LState) {
	for _, name := range []string{
		"os", "io", "debug", "package",
		"require", "dofile", "loadfile", "load", "loadstring",
		"module", "collectgarbage",
	} {
		L.SetGlobal(name, lua.LNil)
	}
}

// newSandboxedVM creates a Lua VM with sandboxing applied, cancelled when
// ctx ends or evalTimeout passes. The returned cancel function must be
// called after L.Close.
func newSandboxedVM(ctx context.Context) (*lua.LState, context.CancelFunc) {
	L := lua.NewState()
	sandboxLuaVM(L)

	ctx, cancel := context.WithTimeout(ctx, evalTimeout)
	L.SetContext(ctx)
	return L, cancel
}
