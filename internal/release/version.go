package release

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/fault"
)

// ParseTag strips prefix from a release tag and parses the remainder as
// a strict semantic version ("llvmorg-17.0.1" -> 17.0.1).
func ParseTag(tag, prefix string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(strings.TrimPrefix(tag, prefix))
	if err != nil {
		return nil, fault.Parse.New("release tag %q: %v", tag, err)
	}
	return v, nil
}

// ParseVersion parses a user supplied target version.
func ParseVersion(s string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(strings.TrimSpace(s))
	if err != nil {
		return nil, fault.Parse.New("version %q: %v", s, err)
	}
	return v, nil
}

// majorOf returns major.0.0 of v.
func majorOf(v *semver.Version) *semver.Version {
	return semver.New(v.Major(), 0, 0, "", "")
}
