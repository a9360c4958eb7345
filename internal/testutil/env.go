// Package testutil provides utilities for testing clang-toolbox in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Env holds the isolated directories of a test.
type Env struct {
	// ConfigDir is where the configuration file is looked up.
	ConfigDir string
	// OutputDir is an empty directory for extracted tools.
	OutputDir string
}

// SetupTestEnv creates isolated test directories for each test.
// This ensures tests never pick up the user's configuration file or
// GitHub token, and never write next to the working directory.
//
// The cleanup function is automatically handled by t.TempDir(),
// so callers don't need to manually clean up.
func SetupTestEnv(t *testing.T) Env {
	t.Helper()

	// Create temp directory (auto-cleaned by testing framework)
	tmpDir := t.TempDir()

	env := Env{
		ConfigDir: filepath.Join(tmpDir, "config"),
		OutputDir: filepath.Join(tmpDir, "out"),
	}

	t.Setenv("CLANG_TOOLBOX_CONFIG_DIR", env.ConfigDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("GITHUB_TOKEN", "")

	for _, dir := range []string{env.ConfigDir, env.OutputDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}
	return env
}

// WriteConfig writes a configuration file named name into the config
// directory and returns its path.
func (e Env) WriteConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(e.ConfigDir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config %s: %v", path, err)
	}
	return path
}
