package platform

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// InjectPlatformTable exposes info to configuration code as the global,
// read-only table `platform`. It must run before the configuration is
// evaluated.
//
// Besides the plain fields the table offers two helpers:
//
//	platform.when(cond, value)  -- value when cond holds, nil otherwise
//	platform.has_arch(name)     -- whether name spells the architecture
func InjectPlatformTable(L *lua.LState, info *Info) error {
	fields := L.NewTable()

	for name, value := range map[string]lua.LValue{
		"os":         lua.LString(info.OS),
		"arch":       lua.LString(info.Arch),
		"machine":    lua.LString(info.Machine),
		"is_linux":   lua.LBool(info.IsLinux()),
		"is_macos":   lua.LBool(info.IsMacOS()),
		"is_windows": lua.LBool(info.IsWindows()),
	} {
		fields.RawSetString(name, value)
	}

	// a plain array so that ipairs, # and table.concat see its elements
	archNames := L.NewTable()
	for _, name := range info.ArchNames() {
		archNames.Append(lua.LString(name))
	}
	fields.RawSetString("arch_names", archNames)

	// distro stays nil off Linux and when the distribution is unknown
	if info.IsLinux() && info.Platform != "" {
		distro := L.NewTable()
		distro.RawSetString("id", lua.LString(info.Platform))
		distro.RawSetString("family", lua.LString(info.Family))
		distro.RawSetString("version", lua.LString(info.Version))
		fields.RawSetString("distro", readOnly(L, distro))
	}

	fields.RawSetString("when", L.NewFunction(func(L *lua.LState) int {
		if L.CheckBool(1) {
			L.Push(L.Get(2))
		} else {
			L.Push(lua.LNil)
		}
		return 1
	}))

	fields.RawSetString("has_arch", L.NewFunction(func(L *lua.LState) int {
		want := L.CheckString(1)
		for _, name := range info.ArchNames() {
			if strings.EqualFold(name, want) {
				L.Push(lua.LTrue)
				return 1
			}
		}
		L.Push(lua.LFalse)
		return 1
	}))

	L.SetGlobal("platform", readOnly(L, fields))
	return nil
}

// readOnly returns an empty proxy that reads through to table and
// rejects every write. The metatable itself is hidden.
func readOnly(L *lua.LState, table *lua.LTable) *lua.LTable {
	mt := L.NewTable()
	mt.RawSetString("__index", table)
	mt.RawSetString("__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("platform table is read-only and cannot be modified")
		return 0
	}))
	mt.RawSetString("__metatable", lua.LString("protected"))

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)
	return proxy
}
