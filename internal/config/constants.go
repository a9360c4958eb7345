package config

// Lua schema field names and globals
const (
	luaGlobalToolbox  = "toolbox"
	luaFieldOutputDir = "output_dir"
	luaFieldMode      = "mode"
	luaFieldUnsigned  = "unsigned"
	luaFieldVersion   = "version"
	luaFieldAPIURL    = "api_url"
	luaFieldKeyServer = "key_server"
	luaFieldKeyring   = "keyring"
	luaFieldMaxPages  = "max_pages"
	luaFieldBuild     = "build"
	luaFieldTools     = "tools"
	luaFieldNames     = "names"
	luaFieldPaths     = "paths"
)

// Configuration file names, in lookup order.
var defaultFileNames = []string{"config.lua", "config.yaml", "config.yml"}

const (
	// EnvConfigDir overrides the configuration directory.
	EnvConfigDir = "CLANG_TOOLBOX_CONFIG_DIR"
	// EnvGitHubToken authenticates release API requests.
	EnvGitHubToken = "GITHUB_TOKEN"
)
