// Package release resolves LLVM prebuilt archives from the GitHub release feed.
//
// A Fetcher retrieves the raw release list, a Selector narrows it to the
// deduplicated set of archives at or above a target version and pairs each
// archive with its signature or checksum companion.
package release

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Asset file suffixes recognised in the release feed.
const (
	TarballSuffix   = ".tar.xz"
	SignatureSuffix = ".sig"
	ChecksumSuffix  = ".sha256"
)

// AssetKind classifies a release asset by its file name.
type AssetKind int

const (
	KindOther AssetKind = iota
	KindTarball
	KindSignature
	KindChecksum
)

// String returns the string representation of the asset kind.
func (k AssetKind) String() string {
	switch k {
	case KindTarball:
		return "tarball"
	case KindSignature:
		return "signature"
	case KindChecksum:
		return "checksum"
	default:
		return "other"
	}
}

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name string
	URL  string
}

// Kind derives the asset kind from the name suffix.
func (a Asset) Kind() AssetKind {
	switch {
	case strings.HasSuffix(a.Name, TarballSuffix):
		return KindTarball
	case strings.HasSuffix(a.Name, SignatureSuffix):
		return KindSignature
	case strings.HasSuffix(a.Name, ChecksumSuffix):
		return KindChecksum
	default:
		return KindOther
	}
}

// Release is one entry of the release feed, as published.
type Release struct {
	Tag    string
	Assets []Asset
}

// Candidate is a prebuilt archive offered for selection.
type Candidate struct {
	// Variant is the asset name with product prefix and version removed,
	// e.g. "-x86_64-linux-gnu-ubuntu-22.04.tar.xz".
	Variant   string
	Version   *semver.Version
	Archive   Asset
	Companion *Asset // nil when neither a signature nor a checksum is published

	// Score ranks the candidate against the running platform, 0 means no match.
	Score int
}

// Name returns the archive file name.
func (c Candidate) Name() string {
	return c.Archive.Name
}

// Signed reports whether an OpenPGP signature accompanies the archive.
func (c Candidate) Signed() bool {
	return c.Companion != nil && c.Companion.Kind() == KindSignature
}

// Selection is the outcome of Selector.Select.
type Selection struct {
	// Target is the version releases were matched against, resolved
	// automatically when none was requested.
	Target     *semver.Version
	Candidates []Candidate
}

// Empty reports whether no build matched.
func (s *Selection) Empty() bool {
	return s == nil || len(s.Candidates) == 0
}

// Best returns the index of the highest scored candidate, or -1 when no
// candidate matches the platform. Ties resolve to the earliest candidate.
func (s *Selection) Best() int {
	best := -1
	for i, c := range s.Candidates {
		if c.Score > 0 && (best < 0 || c.Score > s.Candidates[best].Score) {
			best = i
		}
	}
	return best
}
