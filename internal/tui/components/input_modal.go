package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/shelf/internal/tui/styles"
)

// InputModal is a one-line prompt used for live search.
// Every keystroke changes Value; enter accepts and esc cancels.
type InputModal struct {
	visible bool
	prompt  string
	input   textinput.Model
}

// NewInputModal creates a new input modal
func NewInputModal() InputModal {
	ti := textinput.New()
	ti.Placeholder = "type to search..."
	ti.CharLimit = 80
	ti.Width = 40
	ti.Prompt = ""

	return InputModal{
		input: ti,
	}
}

// Show displays the prompt seeded with value
func (m *InputModal) Show(prompt, value string) {
	m.visible = true
	m.prompt = prompt
	m.input.TextStyle = lipgloss.NewStyle().Foreground(styles.Text)
	m.input.PlaceholderStyle = styles.DimStyle
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

// Hide dismisses the modal
func (m *InputModal) Hide() {
	m.visible = false
	m.input.Blur()
}

// IsVisible returns whether the modal is shown
func (m InputModal) IsVisible() bool {
	return m.visible
}

// Value returns the current input value
func (m InputModal) Value() string {
	return m.input.Value()
}

// Update handles input events, returns (modal, cmd, done). done is true
// when the prompt closed, by enter or esc.
func (m InputModal) Update(msg tea.Msg) (InputModal, tea.Cmd, bool) {
	if !m.visible {
		return m, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			m.Hide()
			return m, nil, true
		case "esc":
			m.input.SetValue("")
			m.Hide()
			return m, nil, true
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, false
}

// View renders the prompt line
func (m InputModal) View() string {
	if !m.visible {
		return ""
	}
	return styles.AccentStyle.Bold(true).Render(m.prompt+" ") + m.input.View()
}
