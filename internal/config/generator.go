package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Generator generates configuration files from a File.
type Generator struct {
	indent string // Indentation string (default: two spaces)
	now    func() time.Time
}

// NewGenerator creates a new config generator.
func NewGenerator() *Generator {
	return &Generator{
		indent: "  ", // Two spaces
		now:    time.Now,
	}
}

// Generate writes f in the format matching the file extension of name.
func (g *Generator) Generate(name string, f *File) ([]byte, error) {
	switch {
	case strings.HasSuffix(name, ".lua"):
		return []byte(g.GenerateLua(f)), nil
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
		return g.GenerateYAML(f)
	default:
		return nil, fmt.Errorf("unsupported config format: %s", name)
	}
}

// GenerateYAML generates a YAML configuration.
func (g *Generator) GenerateYAML(f *File) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# clang-toolbox configuration\n")
	buf.WriteString("# Generated: " + g.now().Format(time.RFC3339) + "\n\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateLua generates Lua code from a File.
// The output is formatted and human-readable.
func (g *Generator) GenerateLua(f *File) string {
	var buf bytes.Buffer

	buf.WriteString("-- clang-toolbox configuration\n")
	buf.WriteString("-- Generated: ")
	buf.WriteString(g.now().Format(time.RFC3339))
	buf.WriteString("\n\n")

	buf.WriteString(luaGlobalToolbox + " = {\n")

	g.writeString(&buf, luaFieldOutputDir, f.OutputDir)
	g.writeString(&buf, luaFieldMode, f.Mode)
	if f.Unsigned != nil {
		fmt.Fprintf(&buf, "%s%s = %t,\n", g.indent, luaFieldUnsigned, *f.Unsigned)
	}
	g.writeString(&buf, luaFieldVersion, f.Version)
	g.writeString(&buf, luaFieldAPIURL, f.APIURL)
	g.writeString(&buf, luaFieldKeyServer, f.KeyServer)
	g.writeString(&buf, luaFieldKeyring, f.Keyring)
	if f.MaxPages != nil {
		fmt.Fprintf(&buf, "%s%s = %d,\n", g.indent, luaFieldMaxPages, *f.MaxPages)
	}
	g.writeString(&buf, luaFieldBuild, f.Build)

	if len(f.Tools) > 0 {
		g.writeTools(&buf, f.Tools)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func (g *Generator) writeString(buf *bytes.Buffer, field string, value *string) {
	if value == nil {
		return
	}
	buf.WriteString(g.indent)
	buf.WriteString(field)
	buf.WriteString(" = ")
	buf.WriteString(g.quoteLuaString(*value))
	buf.WriteString(",\n")
}

// writeTools writes the tools section to the buffer.
func (g *Generator) writeTools(buf *bytes.Buffer, tools []Tool) {
	buf.WriteString("\n")
	buf.WriteString(g.indent)
	buf.WriteString(luaFieldTools + " = {\n")

	for _, tool := range tools {
		buf.WriteString(strings.Repeat(g.indent, 2))
		buf.WriteString("{\n")
		g.writeList(buf, luaFieldNames, tool.Names)
		g.writeList(buf, luaFieldPaths, tool.Paths)
		buf.WriteString(strings.Repeat(g.indent, 2))
		buf.WriteString("},\n")
	}

	buf.WriteString(g.indent)
	buf.WriteString("},\n")
}

func (g *Generator) writeList(buf *bytes.Buffer, field string, values []string) {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = g.quoteLuaString(v)
	}
	buf.WriteString(strings.Repeat(g.indent, 3))
	buf.WriteString(field)
	buf.WriteString(" = { ")
	buf.WriteString(strings.Join(quoted, ", "))
	buf.WriteString(" },\n")
}

// quoteLuaString quotes a string for Lua, handling special characters.
func (g *Generator) quoteLuaString(s string) string {
	// Use double quotes and escape special characters
	s = strings.ReplaceAll(s, "\\", "\\\\") // Escape backslashes first
	s = strings.ReplaceAll(s, "\"", "\\\"") // Escape double quotes
	s = strings.ReplaceAll(s, "\n", "\\n")  // Escape newlines
	s = strings.ReplaceAll(s, "\r", "\\r")  // Escape carriage returns
	s = strings.ReplaceAll(s, "\t", "\\t")  // Escape tabs
	return "\"" + s + "\""
}
