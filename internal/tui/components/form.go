package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/shelf/internal/tui/styles"
)

// FormField describes one labeled input of a Form
type FormField struct {
	Label       string
	Placeholder string
	CharLimit   int
}

// Form is a modal with several labeled text inputs.
// Tab and shift+tab move between fields; enter on the last field submits.
type Form struct {
	visible bool
	title   string
	hint    string
	err     string
	fields  []FormField
	inputs  []textinput.Model
	focus   int
}

// NewForm creates a hidden form
func NewForm(title, hint string, fields ...FormField) Form {
	inputs := make([]textinput.Model, len(fields))
	for i, f := range fields {
		ti := textinput.New()
		ti.Placeholder = f.Placeholder
		ti.CharLimit = f.CharLimit
		if ti.CharLimit == 0 {
			ti.CharLimit = 120
		}
		ti.Width = 32
		ti.Prompt = ""
		inputs[i] = ti
	}
	return Form{title: title, hint: hint, fields: fields, inputs: inputs}
}

// Show clears and displays the form with the first field focused
func (f *Form) Show() {
	f.visible = true
	f.err = ""
	for i := range f.inputs {
		f.inputs[i].SetValue("")
		f.inputs[i].TextStyle = lipgloss.NewStyle().Foreground(styles.Text)
		f.inputs[i].PlaceholderStyle = styles.DimStyle
	}
	f.setFocus(0)
}

// Hide dismisses the form
func (f *Form) Hide() {
	f.visible = false
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

func (f Form) IsVisible() bool {
	return f.visible
}

// SetError shows a validation message under the inputs
func (f *Form) SetError(msg string) {
	f.err = msg
}

func (f Form) Error() string {
	return f.err
}

// Values returns the trimmed field values in declaration order
func (f Form) Values() []string {
	out := make([]string, len(f.inputs))
	for i, in := range f.inputs {
		out[i] = strings.TrimSpace(in.Value())
	}
	return out
}

// SetValue fills field i
func (f *Form) SetValue(i int, v string) {
	if i >= 0 && i < len(f.inputs) {
		f.inputs[i].SetValue(v)
	}
}

// Focused returns the index of the focused field
func (f Form) Focused() int {
	return f.focus
}

func (f *Form) setFocus(i int) {
	if len(f.inputs) == 0 {
		return
	}
	i = (i + len(f.inputs)) % len(f.inputs)
	for j := range f.inputs {
		if j == i {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	f.focus = i
}

// Update handles input events, returns (form, cmd, submitted)
func (f Form) Update(msg tea.Msg) (Form, tea.Cmd, bool) {
	if !f.visible {
		return f, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			f.Hide()
			return f, nil, false
		case "tab", "down":
			f.setFocus(f.focus + 1)
			return f, nil, false
		case "shift+tab", "up":
			f.setFocus(f.focus - 1)
			return f, nil, false
		case "enter":
			if f.focus < len(f.inputs)-1 {
				f.setFocus(f.focus + 1)
				return f, nil, false
			}
			return f, nil, true
		case "ctrl+s":
			return f, nil, true
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd, false
}

// View renders the form
func (f Form) View() string {
	if !f.visible {
		return ""
	}

	lines := []string{styles.ModalTitleStyle.Render(f.title)}
	for i, field := range f.fields {
		label := styles.LabelStyle
		if i == f.focus {
			label = styles.FocusedLabel
		}
		lines = append(lines, label.Render(field.Label)+" "+f.inputs[i].View())
	}
	lines = append(lines, "")
	if f.err != "" {
		lines = append(lines, styles.ErrorStyle.Render(f.err))
	}
	if f.hint != "" {
		lines = append(lines, styles.DimStyle.Render(f.hint))
	}

	return styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
