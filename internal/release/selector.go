package release

import (
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/platform"
)

// Default naming conventions of the LLVM release feed.
const (
	DefaultTagPrefix     = "llvmorg-"
	DefaultProductPrefix = "clang+llvm-"
)

// Selector narrows a release list down to candidate archives.
type Selector struct {
	TagPrefix     string
	ProductPrefix string

	// Platform is used to score candidates, nil disables ranking.
	Platform *platform.Info
	Logger   *slog.Logger
}

// NewSelector creates a Selector using the LLVM naming conventions.
func NewSelector(info *platform.Info, logger *slog.Logger) *Selector {
	return &Selector{
		TagPrefix:     DefaultTagPrefix,
		ProductPrefix: DefaultProductPrefix,
		Platform:      info,
		Logger:        logger,
	}
}

type parsedRelease struct {
	release Release
	version *semver.Version
	at      int // position in the feed
}

type badTag struct {
	tag string
	at  int
	err error
}

// Select returns the archives of all non-prerelease releases at or above
// target, one per variant signature. The newest release providing a
// variant wins. Candidates are sorted by asset name and each carries its
// companion asset when the same release published one.
//
// A nil target resolves to the major version of the newest stable release.
// An empty selection is not an error.
//
// A tag that does not parse is a ParseError when the walk would have to
// read it, that is when it is published before the release that ends the
// walk. Tags past that point are logged and skipped. In a feed that is not
// sorted newest first every malformed tag is fatal.
func (s *Selector) Select(releases []Release, target *semver.Version) (*Selection, error) {
	logger := s.logger()

	parsed := make([]parsedRelease, 0, len(releases))
	var bad []badTag
	for i, r := range releases {
		v, err := ParseTag(r.Tag, s.TagPrefix)
		if err != nil {
			bad = append(bad, badTag{tag: r.Tag, at: i, err: err})
			continue
		}
		parsed = append(parsed, parsedRelease{release: r, version: v, at: i})
	}

	sorted := newestFirst(parsed)
	if !sorted {
		logger.Warn("Release feed is not sorted newest first, reordering")
		sort.SliceStable(parsed, func(i, j int) bool {
			return parsed[i].version.GreaterThan(parsed[j].version)
		})
	}

	if target == nil {
		target = newestMajor(parsed)
	}

	end := len(releases)
	if sorted && target != nil {
		for _, p := range parsed {
			if endsWalk(p.version, target) {
				end = p.at
				break
			}
		}
	}
	for _, b := range bad {
		if b.at < end {
			return nil, b.err
		}
		logger.Warn("Skipping malformed release tag", "tag", b.tag)
	}

	if target == nil {
		logger.Debug("No stable release found")
		return &Selection{}, nil
	}
	logger.Debug("Target version", "target", target.String())

	type entry struct {
		asset   Asset
		version *semver.Version
	}
	byVariant := make(map[string]entry)
	for _, p := range parsed {
		v := p.version
		if target.Major() > v.Major() {
			continue
		}
		if endsWalk(v, target) {
			break
		}
		if v.Prerelease() != "" {
			continue
		}

		stem := s.ProductPrefix + v.String()
		for _, a := range p.release.Assets {
			if !strings.HasPrefix(a.Name, s.ProductPrefix) {
				continue
			}
			variant := strings.TrimPrefix(a.Name, stem)
			if _, seen := byVariant[variant]; !seen {
				byVariant[variant] = entry{asset: a, version: v}
			}
		}
	}

	assets := make([]Asset, 0, len(byVariant))
	variants := make(map[string]string, len(byVariant))
	for variant, e := range byVariant {
		assets = append(assets, e.asset)
		variants[e.asset.Name] = variant
	}
	sort.Slice(assets, func(i, j int) bool {
		return assets[i].Name < assets[j].Name
	})

	sel := &Selection{Target: target}
	for _, a := range assets {
		if a.Kind() != KindTarball {
			continue
		}
		variant := variants[a.Name]
		c := Candidate{
			Variant:   variant,
			Version:   byVariant[variant].version,
			Archive:   a,
			Companion: Companion(assets, a.Name),
			Score:     Score(variant, s.Platform),
		}
		sel.Candidates = append(sel.Candidates, c)
	}

	logger.Debug("Selected candidates", "target", target.String(), "count", len(sel.Candidates))
	return sel, nil
}

// Companion finds the signature or checksum accompanying the asset called
// name: an asset whose name extends name. Signatures are preferred over
// checksums. Returns nil when neither exists.
func Companion(assets []Asset, name string) *Asset {
	var checksum *Asset
	for i := range assets {
		a := assets[i]
		if a.Name == name || !strings.HasPrefix(a.Name, name) {
			continue
		}
		switch a.Kind() {
		case KindSignature:
			return &a
		case KindChecksum:
			if checksum == nil {
				checksum = &a
			}
		}
	}
	return checksum
}

func (s *Selector) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// endsWalk reports whether v stops the newest-first walk towards target.
// Older majors are passed over rather than ending it.
func endsWalk(v, target *semver.Version) bool {
	return v.Major() >= target.Major() && v.LessThan(target)
}

func newestFirst(parsed []parsedRelease) bool {
	for i := 1; i < len(parsed); i++ {
		if parsed[i].version.GreaterThan(parsed[i-1].version) {
			return false
		}
	}
	return true
}

// newestMajor returns major.0.0 of the first stable release, nil if every
// release is a prerelease.
func newestMajor(parsed []parsedRelease) *semver.Version {
	for _, p := range parsed {
		if p.version.Prerelease() == "" {
			return majorOf(p.version)
		}
	}
	return nil
}
