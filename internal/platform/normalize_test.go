package platform

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		fn   string
		in   string
		want string
	}{
		{"arch", "amd64", "amd64"},
		{"arch", "x86_64", "amd64"},
		{"arch", "X64", "amd64"},
		{"arch", "aarch64", "arm64"},
		{"arch", "i686", "386"},
		{"arch", "armv7l", "arm"},
		{"arch", "powerpc64le", "ppc64le"},
		{"arch", "sparcv9", "sparc64"},
		{"arch", " mips ", "mips"},
		{"arch", "", ""},

		{"platform", "Ubuntu", "ubuntu"},
		{"platform", "  fedora\n", "fedora"},
		{"platform", "", ""},

		{"family", "debian", FamilyDebian},
		{"family", "Ubuntu", FamilyDebian},
		{"family", "centos", FamilyRHEL},
		{"family", "ROCKY", FamilyRHEL},
		{"family", "opensuse", FamilySUSE},
		{"family", " manjaro ", FamilyArch},
		{"family", "alpine", FamilyAlpine},
		{"family", "gentoo", FamilyGentoo},
		{"family", "nixos", FamilyUnknown},
		{"family", "", FamilyUnknown},
	}

	normalizers := map[string]func(string) string{
		"arch":     normalizeArch,
		"platform": normalizePlatform,
		"family":   mapFamily,
	}

	for _, tt := range tests {
		t.Run(tt.fn+"/"+tt.in, func(t *testing.T) {
			if got := normalizers[tt.fn](tt.in); got != tt.want {
				t.Errorf("%s(%q) = %q, want %q", tt.fn, tt.in, got, tt.want)
			}
		})
	}
}

// Every alias maps back to its own GOARCH.
func TestArchAliases_RoundTrip(t *testing.T) {
	for goarch, aliases := range archAliases {
		for _, alias := range aliases {
			if got := normalizeArch(alias); got != goarch {
				t.Errorf("normalizeArch(%q) = %q, want %q", alias, got, goarch)
			}
		}
	}
}
