// Package platform detects the machine clang-toolbox runs on.
//
// The detected OS, architecture and Linux distribution are used to rank
// prebuilt release archives against the running system, and are exposed
// as a read-only table to Lua configuration files. Distribution details
// come from gopsutil and degrade gracefully when detection fails.
package platform

import "context"

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains platform detection information.
type Info struct {
	OS       string // "linux", "darwin", "windows"
	Arch     string // normalized GOARCH ("amd64", "arm64", ...)
	Machine  string // kernel machine name ("x86_64", "aarch64"), may be empty
	Platform string // distro ID (Linux only, e.g., "ubuntu", "arch")
	Family   string // canonical family (e.g., "debian", "rhel", "arch")
	Version  string // distro version (Linux only, e.g., "22.04")
}

// ArchNames returns every spelling release feeds use for the architecture,
// starting with the kernel machine name when it is known.
func (i *Info) ArchNames() []string {
	names := []string{}
	if i.Machine != "" {
		names = append(names, i.Machine)
	}
	for _, alias := range archAliases[i.Arch] {
		if alias != i.Machine {
			names = append(names, alias)
		}
	}
	return names
}

// OSNames returns the spellings release feeds use for the operating system.
func (i *Info) OSNames() []string {
	return osAliases[i.OS]
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// Static is a Detector that always reports the same Info.
type Static struct {
	Info *Info
}

// Detect returns the fixed Info.
func (s Static) Detect(ctx context.Context) (*Info, error) {
	return s.Info, nil
}
