package release

import (
	"strings"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/platform"
)

const (
	scoreArch    = 4
	scoreOS      = 2
	scoreDistro  = 1
	scoreVersion = 1
)

// variantTokens splits a variant signature into its dash separated parts,
// "-x86_64-linux-gnu-ubuntu-22.04.tar.xz" -> [x86_64 linux gnu ubuntu 22.04].
func variantTokens(variant string) []string {
	variant = strings.TrimSuffix(variant, TarballSuffix)
	var tokens []string
	for _, tok := range strings.Split(variant, "-") {
		if tok = strings.ToLower(tok); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Score rates how well a variant signature fits the platform. A variant
// must name both the architecture and the operating system to score at
// all; a matching distribution and its version add to the score.
func Score(variant string, info *platform.Info) int {
	if info == nil {
		return 0
	}

	var archOK, osOK, distroOK, versionOK bool
	for _, tok := range variantTokens(variant) {
		for _, name := range info.ArchNames() {
			if tok == strings.ToLower(name) {
				archOK = true
			}
		}
		for _, name := range info.OSNames() {
			if strings.HasPrefix(tok, name) {
				osOK = true
			}
		}
		if info.Platform != "" && (tok == info.Platform || tok == info.Family) {
			distroOK = true
		}
		if info.Version != "" && tok == info.Version {
			versionOK = true
		}
	}

	if !archOK || !osOK {
		return 0
	}

	score := scoreArch + scoreOS
	if distroOK {
		score += scoreDistro
		if versionOK {
			score += scoreVersion
		}
	}
	return score
}
