package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/shelf/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	header := m.renderHeader()
	body := m.List.View()

	switch m.State {
	case StateAdding:
		body = m.overlay(m.AddForm.View())
	case StateFiltering:
		body = m.overlay(m.RangeForm.View())
	case StateHelp:
		body = m.overlay(m.renderHelp())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		m.renderPromptLine(),
		m.renderStatusBar(),
	)
}

// overlay centers a modal in the list area
func (m Model) overlay(modal string) string {
	h := m.Height - HeaderHeight - FooterHeight
	if h < 3 {
		h = 3
	}
	return lipgloss.Place(m.Width, h, lipgloss.Center, lipgloss.Center, modal)
}

func (m Model) renderHeader() string {
	counts := m.Queries.Counts()
	left := styles.TitleStyle.Render("shelf")
	right := styles.DimStyle.Render(fmt.Sprintf("%d books · %d to read · %d reading · %d completed",
		counts.Total, counts.WantToRead, counts.Reading, counts.Completed))

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		return " " + left
	}
	return " " + left + strings.Repeat(" ", gap) + right
}

// renderPromptLine shows the search prompt, else the undo banner
func (m Model) renderPromptLine() string {
	if m.State == StateSearching {
		return " " + m.Search.View()
	}
	if m.Banner.IsVisible() {
		return m.Banner.View(m.now(), m.Width)
	}
	return " "
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.StatusMsg != "" && m.StatusIsErr:
		left = styles.ErrorStyle.Render("✗ " + m.StatusMsg)
	case m.StatusMsg != "":
		left = styles.StatusBarStyle.Render(m.StatusMsg)
	default:
		left = renderShortHelp(Keys.ShortHelp())
	}

	if m.Busy > 0 {
		left = m.Spinner.View() + " " + left
	}

	return " " + left
}

func renderShortHelp(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, styles.HelpKeyStyle.Render(h.Key)+" "+styles.HelpDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderHelp() string {
	var columns []string
	for _, group := range Keys.FullHelp() {
		var lines []string
		for _, b := range group {
			h := b.Help()
			lines = append(lines, styles.HelpKeyStyle.Width(8).Render(h.Key)+" "+styles.HelpDescStyle.Render(h.Desc))
		}
		columns = append(columns, lipgloss.NewStyle().MarginRight(3).Render(strings.Join(lines, "\n")))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render("Keys"),
		lipgloss.JoinHorizontal(lipgloss.Top, columns...),
		"",
		styles.DimStyle.Render("press any key to close"),
	)
	return styles.ModalStyle.Render(content)
}
