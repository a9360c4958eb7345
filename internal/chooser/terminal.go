package chooser

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/fault"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/release"
)

// Terminal asks the user to pick a candidate in a full screen menu.
// The terminal is restored when the menu exits, whichever way it exits.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

// Choose implements Chooser. It blocks until the user selects or quits.
func (t Terminal) Choose(ctx context.Context, sel *release.Selection) (Result, error) {
	if sel.Empty() {
		return Cancelled(), ErrNoBuild
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if t.In != nil {
		opts = append(opts, tea.WithInput(t.In))
	}
	if t.Out != nil {
		opts = append(opts, tea.WithOutput(t.Out))
	}

	final, err := tea.NewProgram(NewModel(sel), opts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || ctx.Err() != nil {
			return Cancelled(), fault.Selection.New("build selection interrupted")
		}
		return Cancelled(), fault.Selection.Wrap(err)
	}

	m, ok := final.(Model)
	if !ok {
		return Cancelled(), fault.Selection.New("unexpected chooser state")
	}
	return m.Result(), nil
}
