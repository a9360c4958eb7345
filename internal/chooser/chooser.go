// Package chooser picks one candidate build out of a selection, either
// interactively in the terminal or by a fixed rule.
package chooser

import (
	"context"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/fault"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/release"
)

// Result is the outcome of a choice: either a selected candidate or a
// cancellation.
type Result struct {
	candidate *release.Candidate
}

// Selected returns a Result holding c.
func Selected(c release.Candidate) Result {
	return Result{candidate: &c}
}

// Cancelled returns a Result holding no candidate.
func Cancelled() Result {
	return Result{}
}

// Candidate returns the selected candidate and true, or false when the
// choice was cancelled.
func (r Result) Candidate() (release.Candidate, bool) {
	if r.candidate == nil {
		return release.Candidate{}, false
	}
	return *r.candidate, true
}

// IsCancelled reports whether no candidate was selected.
func (r Result) IsCancelled() bool {
	return r.candidate == nil
}

// Chooser selects a single candidate.
type Chooser interface {
	Choose(ctx context.Context, sel *release.Selection) (Result, error)
}

// ErrNoBuild is returned when a selection holds no candidates.
var ErrNoBuild = fault.Selection.New("no build found for this platform")

// ByName selects the candidate whose archive name equals Name.
type ByName struct {
	Name string
}

// Choose implements Chooser.
func (b ByName) Choose(ctx context.Context, sel *release.Selection) (Result, error) {
	if sel.Empty() {
		return Cancelled(), ErrNoBuild
	}
	for _, c := range sel.Candidates {
		if c.Name() == b.Name {
			return Selected(c), nil
		}
	}
	return Cancelled(), fault.Selection.New("no build named %q", b.Name)
}

// Best selects the candidate ranked highest for the running platform.
type Best struct{}

// Choose implements Chooser.
func (Best) Choose(ctx context.Context, sel *release.Selection) (Result, error) {
	if sel.Empty() {
		return Cancelled(), ErrNoBuild
	}
	i := sel.Best()
	if i < 0 {
		return Cancelled(), fault.Selection.New("no build matches this platform")
	}
	return Selected(sel.Candidates[i]), nil
}
