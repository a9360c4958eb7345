package release

import (
	"testing"

	"github.com/Masterminds/semver/v3"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/fault"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/platform"
)

func asset(name string) Asset {
	return Asset{Name: name, URL: "https://example.invalid/" + name}
}

func rel(tag string, names ...string) Release {
	r := Release{Tag: tag}
	for _, n := range names {
		r.Assets = append(r.Assets, asset(n))
	}
	return r
}

func names(cands []Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Name())
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSelector_NewestPatchWins(t *testing.T) {
	releases := []Release{
		rel("llvmorg-17.0.1",
			"clang+llvm-17.0.1-x86_64-linux-gnu.tar.xz",
			"clang+llvm-17.0.1-x86_64-linux-gnu.tar.xz.sig",
		),
		rel("llvmorg-17.0.0",
			"clang+llvm-17.0.0-x86_64-linux-gnu.tar.xz",
		),
	}

	sel, err := NewSelector(nil, nil).Select(releases, nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	if sel.Target.String() != "17.0.0" {
		t.Errorf("Target = %v, want 17.0.0", sel.Target)
	}

	want := []string{"clang+llvm-17.0.1-x86_64-linux-gnu.tar.xz"}
	if got := names(sel.Candidates); !equalStrings(got, want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}

	c := sel.Candidates[0]
	if c.Variant != "-x86_64-linux-gnu.tar.xz" {
		t.Errorf("Variant = %q", c.Variant)
	}
	if c.Version.String() != "17.0.1" {
		t.Errorf("Version = %v, want 17.0.1", c.Version)
	}
	if c.Companion == nil || c.Companion.Name != "clang+llvm-17.0.1-x86_64-linux-gnu.tar.xz.sig" {
		t.Errorf("Companion = %+v, want the 17.0.1 signature", c.Companion)
	}
	if !c.Signed() {
		t.Error("Signed() = false, want true")
	}
}

func TestSelector_TargetAboveEveryRelease(t *testing.T) {
	releases := []Release{
		rel("llvmorg-17.0.1", "clang+llvm-17.0.1-x86_64-linux-gnu.tar.xz"),
		rel("llvmorg-16.0.6", "clang+llvm-16.0.6-x86_64-linux-gnu.tar.xz"),
	}

	sel, err := NewSelector(nil, nil).Select(releases, semver.MustParse("99.0.0"))
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if !sel.Empty() {
		t.Errorf("candidates = %v, want none", names(sel.Candidates))
	}
}

func TestSelector_NeverBelowTarget(t *testing.T) {
	releases := []Release{
		rel("llvmorg-18.1.0", "clang+llvm-18.1.0-arm64-apple-darwin22.0.tar.xz"),
		rel("llvmorg-17.0.6", "clang+llvm-17.0.6-x86_64-linux-gnu.tar.xz"),
		rel("llvmorg-17.0.2", "clang+llvm-17.0.2-powerpc64le-linux-rhel-8.8.tar.xz"),
		rel("llvmorg-17.0.1", "clang+llvm-17.0.1-aarch64-linux-gnu.tar.xz"),
		rel("llvmorg-16.0.6", "clang+llvm-16.0.6-riscv64-linux-gnu.tar.xz"),
	}

	target := semver.MustParse("17.0.2")
	sel, err := NewSelector(nil, nil).Select(releases, target)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	want := []string{
		"clang+llvm-17.0.2-powerpc64le-linux-rhel-8.8.tar.xz",
		"clang+llvm-17.0.6-x86_64-linux-gnu.tar.xz",
		"clang+llvm-18.1.0-arm64-apple-darwin22.0.tar.xz",
	}
	if got := names(sel.Candidates); !equalStrings(got, want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
	for _, c := range sel.Candidates {
		if c.Version.LessThan(target) {
			t.Errorf("candidate %s has version %v below target %v", c.Name(), c.Version, target)
		}
	}
}

func TestSelector_SkipsPrereleases(t *testing.T) {
	releases := []Release{
		rel("llvmorg-18.0.0-rc1", "clang+llvm-18.0.0-rc1-x86_64-linux-gnu.tar.xz"),
		rel("llvmorg-17.0.6", "clang+llvm-17.0.6-x86_64-linux-gnu.tar.xz"),
	}

	sel, err := NewSelector(nil, nil).Select(releases, nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if sel.Target.String() != "17.0.0" {
		t.Errorf("Target = %v, want 17.0.0", sel.Target)
	}
	want := []string{"clang+llvm-17.0.6-x86_64-linux-gnu.tar.xz"}
	if got := names(sel.Candidates); !equalStrings(got, want) {
		t.Errorf("candidates = %v, want %v", got, want)
	}
}

func TestSelector_OnlyPrereleases(t *testing.T) {
	releases := []Release{
		rel("llvmorg-18.0.0-rc2", "clang+llvm-18.0.0-rc2-x86_64-linux-gnu.tar.xz"),
		rel("llvmorg-18.0.0-rc1", "clang+llvm-18.0.0-rc1-x86_64-linux-gnu.tar.xz"),
	}

	sel, err := NewSelector(nil, nil).Select(releases, nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if !sel.Empty() {
		t.Errorf("candidates = %v, want none", names(sel.Candidates))
	}
}

func TestSelector_IgnoresOtherProducts(t *testing.T) {
	releases := []Release{
		rel("llvmorg-17.0.6",
			"LLVM-17.0.6-win64.exe",
			"llvm-project-17.0.6.src.tar.xz",
			"clang+llvm-17.0.6-x86_64-linux-gnu.tar.xz",
			"clang+llvm-17.0.6-x86_64-linux-gnu.tar.xz.sha256",
		),
	}

	sel, err := NewSelector(nil, nil).Select(releases, nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	want := []string{"clang+llvm-17.0.6-x86_64-linux-gnu.tar.xz"}
	if got := names(sel.Candidates); !equalStrings(got, want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
	c := sel.Candidates[0]
	if c.Companion == nil || c.Companion.Kind() != KindChecksum {
		t.Errorf("Companion = %+v, want checksum", c.Companion)
	}
	if c.Signed() {
		t.Error("Signed() = true for a checksum companion")
	}
}

func TestSelector_ReordersUnsortedFeed(t *testing.T) {
	// 17.0.6 appears after 16.0.6; walking as published would stop early.
	releases := []Release{
		rel("llvmorg-17.0.1", "clang+llvm-17.0.1-x86_64-linux-gnu.tar.xz"),
		rel("llvmorg-16.0.6", "clang+llvm-16.0.6-x86_64-linux-gnu.tar.xz"),
		rel("llvmorg-17.0.6", "clang+llvm-17.0.6-aarch64-linux-gnu.tar.xz"),
	}

	sel, err := NewSelector(nil, nil).Select(releases, semver.MustParse("17.0.0"))
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	want := []string{
		"clang+llvm-17.0.1-x86_64-linux-gnu.tar.xz",
		"clang+llvm-17.0.6-aarch64-linux-gnu.tar.xz",
	}
	if got := names(sel.Candidates); !equalStrings(got, want) {
		t.Errorf("candidates = %v, want %v", got, want)
	}
}

func TestSelector_CompanionFromSameRelease(t *testing.T) {
	// The older release's signature must not be paired with the newer archive.
	releases := []Release{
		rel("llvmorg-17.0.6", "clang+llvm-17.0.6-x86_64-linux-gnu.tar.xz"),
		rel("llvmorg-17.0.5",
			"clang+llvm-17.0.5-x86_64-linux-gnu.tar.xz",
			"clang+llvm-17.0.5-x86_64-linux-gnu.tar.xz.sig",
		),
	}

	sel, err := NewSelector(nil, nil).Select(releases, nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(sel.Candidates) != 1 {
		t.Fatalf("candidates = %v, want one", names(sel.Candidates))
	}
	if sel.Candidates[0].Companion != nil {
		t.Errorf("Companion = %+v, want nil", sel.Candidates[0].Companion)
	}
}

func TestSelector_BadTag(t *testing.T) {
	releases := []Release{rel("llvmorg-seventeen")}

	_, err := NewSelector(nil, nil).Select(releases, nil)
	if err == nil {
		t.Fatal("Select() error = nil, want parse error")
	}
	if !fault.Parse.Has(err) {
		t.Errorf("error %v is not a parse error", err)
	}
}

func TestSelector_MalformedTags(t *testing.T) {
	const archive = "-x86_64-linux-gnu.tar.xz"
	r := func(version string) Release {
		return rel("llvmorg-"+version, "clang+llvm-"+version+archive)
	}

	tests := []struct {
		name     string
		releases []Release
		target   string
		wantErr  bool
	}{
		{
			name:     "after the walk ends",
			releases: []Release{r("17.0.6"), r("17.0.5"), r("17.0.4"), rel("llvmorg-bogus")},
			target:   "17.0.5",
		},
		{
			name:     "after a resolved target's prerelease",
			releases: []Release{r("17.0.1"), r("17.0.0-rc1"), rel("llvmorg-bogus")},
		},
		{
			name:     "before the walk ends",
			releases: []Release{r("17.0.6"), rel("llvmorg-bogus"), r("17.0.4")},
			target:   "17.0.5",
			wantErr:  true,
		},
		{
			name:     "among older majors",
			releases: []Release{r("17.0.6"), r("16.0.6"), rel("llvmorg-bogus")},
			target:   "17.0.0",
			wantErr:  true,
		},
		{
			name:     "before the newest stable release",
			releases: []Release{rel("llvmorg-bogus"), r("17.0.6"), r("17.0.0-rc1")},
			wantErr:  true,
		},
		{
			name:     "unsorted feed",
			releases: []Release{r("17.0.4"), r("17.0.6"), r("17.0.3"), rel("llvmorg-bogus")},
			target:   "17.0.5",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var target *semver.Version
			if tt.target != "" {
				target = semver.MustParse(tt.target)
			}

			sel, err := NewSelector(nil, nil).Select(tt.releases, target)
			if tt.wantErr {
				if !fault.Parse.Has(err) {
					t.Fatalf("Select() error = %v, want parse error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if want := []string{"clang+llvm-17.0.6" + archive}; tt.target != "" && !equalStrings(names(sel.Candidates), want) {
				t.Errorf("candidates = %v, want %v", names(sel.Candidates), want)
			}
			if sel.Empty() {
				t.Error("selection is empty")
			}
		})
	}
}

func TestSelector_Scores(t *testing.T) {
	releases := []Release{
		rel("llvmorg-17.0.6",
			"clang+llvm-17.0.6-aarch64-linux-gnu.tar.xz",
			"clang+llvm-17.0.6-arm64-apple-darwin22.0.tar.xz",
			"clang+llvm-17.0.6-x86_64-linux-gnu-ubuntu-22.04.tar.xz",
		),
	}
	info := &platform.Info{OS: "linux", Arch: "arm64", Machine: "aarch64"}

	sel, err := NewSelector(info, nil).Select(releases, nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if best := sel.Best(); best != 0 {
		t.Fatalf("Best() = %d, want 0", best)
	}
	for _, c := range sel.Candidates[1:] {
		if c.Score != 0 {
			t.Errorf("%s scored %d, want 0", c.Name(), c.Score)
		}
	}
}

func TestCompanion(t *testing.T) {
	const name = "clang+llvm-17.0.6-x86_64-linux-gnu.tar.xz"

	tests := []struct {
		name   string
		assets []string
		want   string
	}{
		{"signature preferred", []string{name, name + ".sha256", name + ".sig"}, name + ".sig"},
		{"checksum fallback", []string{name, name + ".sha256"}, name + ".sha256"},
		{"none", []string{name, name + ".txt"}, ""},
		{"other archive ignored", []string{name, "clang+llvm-17.0.6-x86_64-linux-gnu-rhel.tar.xz.sig"}, ""},
		{"self excluded", []string{name}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var assets []Asset
			for _, n := range tt.assets {
				assets = append(assets, asset(n))
			}
			got := Companion(assets, name)
			if tt.want == "" {
				if got != nil {
					t.Errorf("Companion() = %v, want nil", got.Name)
				}
				return
			}
			if got == nil || got.Name != tt.want {
				t.Errorf("Companion() = %+v, want %s", got, tt.want)
			}
		})
	}
}
