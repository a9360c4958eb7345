package chooser

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/release"
)

type state int

const (
	browsing state = iota
	selected
	cancelled
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("4"))
	matchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

const header = `Please select the build below that best matches your system.
To navigate use the arrow keys or WASD. Enter or space will select the build.
In the absence of a proper build, press 'q' to exit; you will have to build from source.`

// Model is the bubbletea model of the interactive chooser.
type Model struct {
	candidates []release.Candidate
	best       int
	cursor     int
	state      state
	keys       KeyMap
}

// NewModel creates a chooser model. The cursor starts on the best platform
// match, or on the first candidate when nothing matches.
func NewModel(sel *release.Selection) Model {
	m := Model{
		candidates: sel.Candidates,
		best:       sel.Best(),
		keys:       DefaultKeyMap,
	}
	if m.best >= 0 {
		m.cursor = m.best
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.state != browsing {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.candidates)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Select):
		if len(m.candidates) > 0 {
			m.state = selected
		} else {
			m.state = cancelled
		}
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Quit):
		m.state = cancelled
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.state != browsing {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n\n")
	for i, c := range m.candidates {
		name := c.Name()
		if i == m.cursor {
			name = highlightStyle.Render(name)
		}
		b.WriteString(name)
		if i == m.best {
			b.WriteString(matchStyle.Render("  (best match)"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Cursor returns the highlighted index.
func (m Model) Cursor() int {
	return m.cursor
}

// Result returns the outcome once the model has quit. A model still
// browsing reports a cancellation.
func (m Model) Result() Result {
	if m.state == selected {
		return Selected(m.candidates[m.cursor])
	}
	return Cancelled()
}
