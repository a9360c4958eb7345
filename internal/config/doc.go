// Package config builds the configuration value threaded through a
// clang-toolbox run.
//
// A run is configured in three layers, later layers overriding earlier
// ones:
//
//  1. Defaults, see Defaults
//  2. An optional configuration file, Lua or YAML
//  3. Command line flags
//
// # Configuration Files
//
// Lua files are evaluated in a sandboxed gopher-lua VM without the os, io
// and debug libraries and without any way to load further code. A
// read-only `platform` table describing the running machine is available,
// so settings can depend on it. Besides plain fields such as os, arch and
// is_linux it offers platform.when(cond, value) and platform.has_arch(name):
//
//	toolbox = {
//	  output_dir = platform.is_macos and "/usr/local/bin" or nil,
//	  mode = "ramfile",
//	  tools = {
//	    { names = { "clangd" }, paths = { "bin/clangd" } },
//	  },
//	}
//
// YAML files use the same keys:
//
//	output_dir: /opt/llvm/bin
//	mode: ramfile
//	tools:
//	  - names: [clangd]
//	    paths: [bin/clangd]
//
// Without --config the first of config.lua, config.yaml and config.yml in
// the configuration directory is loaded when present. The directory is
// $CLANG_TOOLBOX_CONFIG_DIR, or clang-toolbox below the user configuration
// directory.
package config
