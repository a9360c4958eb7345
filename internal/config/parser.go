package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"gopkg.in/yaml.v3"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/fault"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/platform"
)

// Parser reads configuration files.
type Parser struct {
	detector platform.Detector
	logger   *slog.Logger
}

// NewParser creates a new config parser with the given platform detector.
// A nil detector leaves the Lua platform table undefined.
func NewParser(detector platform.Detector, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Parser{detector: detector, logger: logger}
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua or YAML error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// LoadFile reads a configuration file, choosing the format by extension.
func (p *Parser) LoadFile(ctx context.Context, path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Configuration.Wrap(fmt.Errorf("read config: %w", err))
	}

	for _, secret := range FindSecrets(string(data)) {
		p.logger.Warn("Configuration file contains a secret; use the environment instead",
			"file", path, "line", secret.Line, "kind", secret.Kind, "preview", secret.Preview)
	}

	var file *File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".lua":
		file, err = p.ParseLua(ctx, string(data))
	case ".yaml", ".yml":
		file, err = ParseYAML(data)
	default:
		return nil, fault.Configuration.New("config %s: unsupported format %q (want .lua, .yaml or .yml)", path, ext)
	}
	if err != nil {
		return nil, fault.Configuration.Wrap(fmt.Errorf("config %s: %w", path, err))
	}

	p.logger.Debug("Loaded configuration", "file", path)
	return file, nil
}

// ParseYAML parses a YAML configuration. Unknown keys are rejected.
func ParseYAML(data []byte) (*File, error) {
	file := &File{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(file); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ParseError{
			Message: "YAML syntax error",
			Detail:  err.Error(),
		}
	}

	if err := file.Validate(); err != nil {
		return nil, err
	}
	return file, nil
}

// ParseLua evaluates a Lua configuration in the sandbox and reads the
// global toolbox table.
func (p *Parser) ParseLua(ctx context.Context, luaCode string) (*File, error) {
	L, cancel := newSandboxedVM(ctx)
	defer cancel()
	defer L.Close()

	// Detect platform and inject platform table
	if p.detector != nil {
		platformInfo, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, platformInfo); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua error",
			Detail:  err.Error(),
		}
	}

	file, err := extractFile(L)
	if err != nil {
		return nil, err
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return file, nil
}

// extractFile reads the global toolbox table. A config without the table
// sets nothing.
func extractFile(L *lua.LState) (*File, error) {
	global := L.GetGlobal(luaGlobalToolbox)
	if global.Type() == lua.LTNil {
		return &File{}, nil
	}
	table, ok := global.(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: "invalid '" + luaGlobalToolbox + "' table",
			Detail:  fmt.Sprintf("expected table, got %s", global.Type()),
		}
	}

	r := tableReader{table: table}
	file := &File{
		OutputDir: r.str(luaFieldOutputDir),
		Mode:      r.str(luaFieldMode),
		Unsigned:  r.boolean(luaFieldUnsigned),
		Version:   r.str(luaFieldVersion),
		APIURL:    r.str(luaFieldAPIURL),
		KeyServer: r.str(luaFieldKeyServer),
		Keyring:   r.str(luaFieldKeyring),
		MaxPages:  r.integer(luaFieldMaxPages),
		Build:     r.str(luaFieldBuild),
		Tools:     r.tools(luaFieldTools),
	}
	if r.err != nil {
		return nil, r.err
	}
	return file, nil
}

// tableReader reads typed fields from a Lua table, remembering the first
// type error. Nil fields, such as those produced by platform.when, are
// treated as unset.
type tableReader struct {
	table  *lua.LTable
	prefix string
	err    error
}

func (r *tableReader) fail(field string, want string, got lua.LValue) {
	if r.err == nil {
		r.err = &ValidationError{
			Field:   r.prefix + field,
			Message: fmt.Sprintf("expected %s, got %s", want, got.Type()),
		}
	}
}

func (r *tableReader) str(field string) *string {
	v := r.table.RawGetString(field)
	switch v.Type() {
	case lua.LTNil:
		return nil
	case lua.LTString:
		s := v.String()
		return &s
	default:
		r.fail(field, "string", v)
		return nil
	}
}

func (r *tableReader) boolean(field string) *bool {
	v := r.table.RawGetString(field)
	switch v.Type() {
	case lua.LTNil:
		return nil
	case lua.LTBool:
		b := bool(v.(lua.LBool))
		return &b
	default:
		r.fail(field, "boolean", v)
		return nil
	}
}

func (r *tableReader) integer(field string) *int {
	v := r.table.RawGetString(field)
	switch v.Type() {
	case lua.LTNil:
		return nil
	case lua.LTNumber:
		n := float64(lua.LVAsNumber(v))
		if n != float64(int(n)) {
			r.fail(field, "integer", v)
			return nil
		}
		i := int(n)
		return &i
	default:
		r.fail(field, "number", v)
		return nil
	}
}

// list reads an array of strings, skipping nil holes.
func (r *tableReader) list(field string) []string {
	v := r.table.RawGetString(field)
	if v.Type() == lua.LTNil {
		return nil
	}
	list, ok := v.(*lua.LTable)
	if !ok {
		r.fail(field, "array of strings", v)
		return nil
	}

	var out []string
	list.ForEach(func(_, value lua.LValue) {
		switch value.Type() {
		case lua.LTNil:
		case lua.LTString:
			out = append(out, value.String())
		default:
			r.fail(field, "string element", value)
		}
	})
	return out
}

// tools reads the array of tool declarations.
func (r *tableReader) tools(field string) []Tool {
	v := r.table.RawGetString(field)
	if v.Type() == lua.LTNil {
		return nil
	}
	list, ok := v.(*lua.LTable)
	if !ok {
		r.fail(field, "array of tools", v)
		return nil
	}

	var tools []Tool
	for i := 1; i <= list.Len(); i++ {
		entry := list.RawGetInt(i)
		if entry.Type() == lua.LTNil {
			continue
		}
		table, ok := entry.(*lua.LTable)
		if !ok {
			r.fail(fmt.Sprintf("%s[%d]", field, i), "table", entry)
			return nil
		}

		sub := tableReader{table: table, prefix: fmt.Sprintf("%s%s[%d].", r.prefix, field, i)}
		tool := Tool{
			Names: sub.list(luaFieldNames),
			Paths: sub.list(luaFieldPaths),
		}
		if sub.err != nil && r.err == nil {
			r.err = sub.err
		}
		tools = append(tools, tool)
	}
	return tools
}

// DefaultDir returns the configuration directory.
func DefaultDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(base, "clang-toolbox"), nil
}

// FindDefault returns the first configuration file present in the
// configuration directory, or "" when there is none.
func FindDefault() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	for _, name := range defaultFileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", nil
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		// Extract the most relevant part of the error
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
