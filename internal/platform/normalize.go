package platform

import (
	"strings"
)

// familyMap maps distribution names to their canonical family names.
// This is used to normalize variations of family strings from gopsutil.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian, // gopsutil might return ubuntu as family
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
	"gentoo":   FamilyGentoo,
}

// archAliases lists how LLVM release archives spell each GOARCH.
var archAliases = map[string][]string{
	"amd64":   {"x86_64", "amd64", "x64"},
	"arm64":   {"aarch64", "arm64"},
	"386":     {"i686", "i386", "x86"},
	"arm":     {"armv7a", "armv7l", "armv7", "arm"},
	"ppc64le": {"powerpc64le", "ppc64le"},
	"ppc64":   {"powerpc64", "ppc64"},
	"s390x":   {"s390x"},
	"riscv64": {"riscv64"},
	"sparc64": {"sparcv9", "sparc64"},
}

// osAliases lists the prefixes LLVM release archives use for each GOOS.
var osAliases = map[string][]string{
	"linux":   {"linux"},
	"darwin":  {"darwin", "macos", "apple"},
	"windows": {"windows", "win64", "mingw"},
	"freebsd": {"freebsd"},
	"solaris": {"solaris", "sun"},
}

// normalizeArch converts machine names to GOARCH spellings. Unknown
// values pass through lowercased.
func normalizeArch(arch string) string {
	arch = normalizePlatform(arch)
	for goarch, aliases := range archAliases {
		if arch == goarch {
			return goarch
		}
		for _, alias := range aliases {
			if arch == alias {
				return goarch
			}
		}
	}
	return arch
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	normalized := strings.ToLower(strings.TrimSpace(family))
	if canonical, ok := familyMap[normalized]; ok {
		return canonical
	}

	return FamilyUnknown
}
