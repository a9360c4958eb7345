package config

import (
	"regexp"
	"strings"
)

// Secret is a line of a configuration file that looks like it carries a
// credential. Configuration files are meant to be shared, while the API
// token belongs in GITHUB_TOKEN.
type Secret struct {
	Kind    string
	Line    int
	Preview string // line with the value redacted
}

// The key patterns accept both `key = value` and `key: value`.
var secretPatterns = []struct {
	kind string
	re   *regexp.Regexp
}{
	{"token", regexp.MustCompile(`(?i)(token|auth[_-]?token|access[_-]?token|bearer)\s*[=:]\s*['"]?[a-zA-Z0-9_-]{15,}`)},
	{"github token", regexp.MustCompile(`(gh[pousr]_[a-zA-Z0-9]{36,}|github_pat_[a-zA-Z0-9_]{22,})`)},
	{"password", regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[=:]\s*['"].+['"]`)},
}

// FindSecrets reports every line of content matching a secret pattern.
// A line matching several patterns is reported once per pattern.
func FindSecrets(content string) []Secret {
	var found []Secret
	for i, line := range strings.Split(content, "\n") {
		for _, p := range secretPatterns {
			if p.re.MatchString(line) {
				found = append(found, Secret{Kind: p.kind, Line: i + 1, Preview: redact(line)})
			}
		}
	}
	return found
}

// redact keeps the key of an assignment or mapping and hides the rest.
func redact(line string) string {
	idx := strings.IndexAny(line, "=:")
	if idx < 0 {
		if len(line) > 30 {
			line = line[:30] + "..."
		}
		return line + " [REDACTED]"
	}
	return strings.TrimSpace(line[:idx]) + " " + line[idx:idx+1] + " [REDACTED]"
}
