package binary

import (
	"path"
	"strings"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/fault"
)

// Target is a tool that can be requested by any of its names and maps to
// one or more files inside the release archive.
type Target struct {
	Names []string
	Paths []string // relative to the archive's top level directory
}

// DefaultTargets are the tools shipped in every LLVM release archive.
var DefaultTargets = []Target{
	{
		Names: []string{"ClangFormat", "Clang Format", "clangformat", "clang-format"},
		Paths: []string{"bin/clang-format", "bin/git-clang-format"},
	},
	{
		Names: []string{"ClangTidy", "Clang Tidy", "clangtidy", "clang-tidy"},
		Paths: []string{"bin/clang-tidy"},
	},
	{
		Names: []string{"ClangCheck", "Clang Check", "clangcheck", "clang-check"},
		Paths: []string{"bin/clang-check"},
	},
}

// Matches reports whether name is one of the target's names, ignoring case.
func (t Target) Matches(name string) bool {
	name = strings.TrimSpace(name)
	for _, n := range t.Names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// ResolveTargets returns the deduplicated archive paths for the requested
// tool names. Every name must match a target.
func ResolveTargets(targets []Target, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, fault.Configuration.New("no tool requested")
	}

	seen := make(map[string]bool)
	var paths []string
	for _, name := range names {
		found := false
		for _, t := range targets {
			if !t.Matches(name) {
				continue
			}
			found = true
			for _, p := range t.Paths {
				p = path.Clean(p)
				if !seen[p] {
					seen[p] = true
					paths = append(paths, p)
				}
			}
		}
		if !found {
			return nil, fault.Configuration.New("unknown tool %q", name)
		}
	}
	return paths, nil
}
