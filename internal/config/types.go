package config

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/binary"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/fault"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/release"
)

// Default endpoints and repository of the LLVM release feed.
const (
	DefaultAPIURL   = "https://api.github.com"
	DefaultOwner    = "llvm"
	DefaultRepo     = "llvm-project"
	DefaultMaxPages = 1
)

// Config is the complete configuration of a run.
type Config struct {
	// OutputDir receives the extracted tools and must exist.
	OutputDir string
	Mode      binary.Mode

	// Unsigned disables signature and checksum verification.
	Unsigned bool

	// TargetVersion is the minimum release version, empty to resolve the
	// newest major automatically.
	TargetVersion string

	APIURL        string
	Owner         string
	Repo          string
	TagPrefix     string
	ProductPrefix string
	GitHubToken   string
	MaxPages      int

	KeyServerURL string
	// Keyring, when set, is a local keyring used instead of the key server.
	Keyring string

	// Build selects a candidate by archive name instead of asking.
	Build string
	// Auto selects the best platform match instead of asking.
	Auto bool
	// PrintURLs stops after resolving the archive and companion URLs.
	PrintURLs bool

	// VerificationAvailable reports whether this build can verify
	// signatures at all. Defaults sets it and no flag or file key clears it.
	VerificationAvailable bool

	Targets []binary.Target
}

// Defaults returns the configuration used when nothing is set.
// OutputDir defaults to the working directory.
func Defaults() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &Config{
		OutputDir:             cwd,
		Mode:                  binary.ModeTempFile,
		APIURL:                DefaultAPIURL,
		Owner:                 DefaultOwner,
		Repo:                  DefaultRepo,
		TagPrefix:             release.DefaultTagPrefix,
		ProductPrefix:         release.DefaultProductPrefix,
		GitHubToken:           os.Getenv(EnvGitHubToken),
		MaxPages:              DefaultMaxPages,
		KeyServerURL:          binary.DefaultKeyServer,
		VerificationAvailable: true,
		Targets:               append([]binary.Target(nil), binary.DefaultTargets...),
	}
}

// Verify reports whether archives must be verified.
func (c *Config) Verify() bool {
	return !c.Unsigned
}

// Target returns the parsed target version, nil when unset.
func (c *Config) Target() (*semver.Version, error) {
	if c.TargetVersion == "" {
		return nil, nil
	}
	return release.ParseVersion(c.TargetVersion)
}

// Validate checks the configuration before anything is fetched.
func (c *Config) Validate() error {
	if c.Verify() && !c.VerificationAvailable {
		return fault.Configuration.New("signature verification is unavailable in this build; use --unsigned to skip it")
	}
	if c.Verify() && !c.Mode.Buffered() {
		return fault.Configuration.New("%s mode cannot verify signatures; use --unsigned or another extraction mode", c.Mode)
	}
	if _, err := c.Target(); err != nil {
		return err
	}
	if c.MaxPages < 1 {
		return fault.Configuration.New("max pages must be at least 1, got %d", c.MaxPages)
	}
	if c.Build != "" && c.Auto {
		return fault.Configuration.New("--build and --auto are mutually exclusive")
	}

	info, err := os.Stat(c.OutputDir)
	if err != nil {
		return fault.Configuration.Wrap(fmt.Errorf("output directory: %w", err))
	}
	if !info.IsDir() {
		return fault.Configuration.New("output directory %s is not a directory", c.OutputDir)
	}
	return nil
}

// File is the schema of a configuration file. Unset fields keep the
// value of the layer below.
type File struct {
	OutputDir *string `yaml:"output_dir,omitempty"`
	Mode      *string `yaml:"mode,omitempty"`
	Unsigned  *bool   `yaml:"unsigned,omitempty"`
	Version   *string `yaml:"version,omitempty"`
	APIURL    *string `yaml:"api_url,omitempty"`
	KeyServer *string `yaml:"key_server,omitempty"`
	Keyring   *string `yaml:"keyring,omitempty"`
	MaxPages  *int    `yaml:"max_pages,omitempty"`
	Build     *string `yaml:"build,omitempty"`
	Tools     []Tool  `yaml:"tools,omitempty"`
}

// Tool declares an additional tool target.
type Tool struct {
	Names []string `yaml:"names"`
	Paths []string `yaml:"paths"`
}

// Validate checks the file for values that can never be valid.
func (f *File) Validate() error {
	if f.Mode != nil {
		if _, err := binary.ParseMode(*f.Mode); err != nil {
			return &ValidationError{
				Field:   luaFieldMode,
				Message: fmt.Sprintf("unknown extraction mode %q (want one of %s)", *f.Mode, strings.Join(binary.Modes, ", ")),
			}
		}
	}
	if f.MaxPages != nil && *f.MaxPages < 1 {
		return &ValidationError{Field: luaFieldMaxPages, Message: fmt.Sprintf("must be at least 1, got %d", *f.MaxPages)}
	}

	for i, tool := range f.Tools {
		field := fmt.Sprintf("%s[%d]", luaFieldTools, i+1)
		if len(tool.Names) == 0 {
			return &ValidationError{Field: field + "." + luaFieldNames, Message: "at least one name is required"}
		}
		if len(tool.Paths) == 0 {
			return &ValidationError{Field: field + "." + luaFieldPaths, Message: "at least one path is required"}
		}
		for _, p := range tool.Paths {
			if err := validateArchivePath(p); err != nil {
				return &ValidationError{Field: field + "." + luaFieldPaths, Message: err.Error()}
			}
		}
	}
	return nil
}

// Apply overlays the fields set in f onto c. Declared tools take
// precedence over the built-in targets.
func (c *Config) Apply(f *File) error {
	if f == nil {
		return nil
	}
	if err := f.Validate(); err != nil {
		return fault.Configuration.Wrap(err)
	}

	if f.OutputDir != nil {
		c.OutputDir = *f.OutputDir
	}
	if f.Mode != nil {
		mode, err := binary.ParseMode(*f.Mode)
		if err != nil {
			return err
		}
		c.Mode = mode
	}
	if f.Unsigned != nil {
		c.Unsigned = *f.Unsigned
	}
	if f.Version != nil {
		c.TargetVersion = *f.Version
	}
	if f.APIURL != nil {
		c.APIURL = *f.APIURL
	}
	if f.KeyServer != nil {
		c.KeyServerURL = *f.KeyServer
	}
	if f.Keyring != nil {
		c.Keyring = *f.Keyring
	}
	if f.MaxPages != nil {
		c.MaxPages = *f.MaxPages
	}
	if f.Build != nil {
		c.Build = *f.Build
	}

	if len(f.Tools) > 0 {
		targets := make([]binary.Target, 0, len(f.Tools)+len(c.Targets))
		for _, tool := range f.Tools {
			targets = append(targets, binary.Target{Names: tool.Names, Paths: tool.Paths})
		}
		c.Targets = append(targets, c.Targets...)
	}
	return nil
}

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "config validation failed for " + e.Field + ": " + e.Message
	}
	return "config validation failed: " + e.Message
}

// validateArchivePath rejects paths that cannot name an archive entry.
func validateArchivePath(p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if path.IsAbs(p) {
		return fmt.Errorf("archive paths are relative, got %s", p)
	}

	// Check for path traversal attempts
	cleaned := path.Clean(p)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("path traversal not allowed: %s", p)
	}
	return nil
}
