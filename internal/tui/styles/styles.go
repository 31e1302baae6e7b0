package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme names accepted by ApplyTheme
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Palette is a set of UI colors
type Palette struct {
	Accent    lipgloss.Color
	Surface   lipgloss.Color
	Selection lipgloss.Color
	Dim       lipgloss.Color
	Muted     lipgloss.Color
	Text      lipgloss.Color
	Good      lipgloss.Color
	Bad       lipgloss.Color
	Info      lipgloss.Color
}

var darkPalette = Palette{
	Accent:    lipgloss.Color("#E5A00D"),
	Surface:   lipgloss.Color("#1F2937"),
	Selection: lipgloss.Color("#374151"),
	Dim:       lipgloss.Color("#6B7280"),
	Muted:     lipgloss.Color("#9CA3AF"),
	Text:      lipgloss.Color("#F9FAFB"),
	Good:      lipgloss.Color("#10B981"),
	Bad:       lipgloss.Color("#EF4444"),
	Info:      lipgloss.Color("#3B82F6"),
}

var lightPalette = Palette{
	Accent:    lipgloss.Color("#B45309"),
	Surface:   lipgloss.Color("#F3F4F6"),
	Selection: lipgloss.Color("#E5E7EB"),
	Dim:       lipgloss.Color("#9CA3AF"),
	Muted:     lipgloss.Color("#4B5563"),
	Text:      lipgloss.Color("#111827"),
	Good:      lipgloss.Color("#047857"),
	Bad:       lipgloss.Color("#B91C1C"),
	Info:      lipgloss.Color("#1D4ED8"),
}

// Current palette
var (
	Accent    lipgloss.Color
	Surface   lipgloss.Color
	Selection lipgloss.Color
	Dim       lipgloss.Color
	Muted     lipgloss.Color
	Text      lipgloss.Color
	Good      lipgloss.Color
	Bad       lipgloss.Color
	Info      lipgloss.Color
)

// Borders
var (
	ActiveBorder   lipgloss.Style
	InactiveBorder lipgloss.Style
)

// Text styles
var (
	TitleStyle     lipgloss.Style
	SubtitleStyle  lipgloss.Style
	DimStyle       lipgloss.Style
	AccentStyle    lipgloss.Style
	ErrorStyle     lipgloss.Style
	SuccessStyle   lipgloss.Style
	HighlightStyle lipgloss.Style
)

// Modal styles
var (
	ModalStyle      lipgloss.Style
	ModalTitleStyle lipgloss.Style
	LabelStyle      lipgloss.Style
	FocusedLabel    lipgloss.Style
)

// Help styles
var (
	HelpKeyStyle  lipgloss.Style
	HelpDescStyle lipgloss.Style
)

// Banner and status bar
var (
	BannerStyle    lipgloss.Style
	StatusBarStyle lipgloss.Style
	BadgeStyle     lipgloss.Style
	DimBadgeStyle  lipgloss.Style
	SpinnerStyle   lipgloss.Style
)

// Match highlight styles for search results
var (
	MatchHighlightStyle         lipgloss.Style
	MatchHighlightSelectedStyle lipgloss.Style
)

// Raw reading progress characters (unstyled)
const (
	WantToReadChar = "○"
	ReadingChar    = "◐"
	CompletedChar  = "✓"
)

// Reading progress indicator styles
var (
	WantToReadStyle lipgloss.Style
	ReadingStyle    lipgloss.Style
	CompletedStyle  lipgloss.Style
)

// SpinnerFrames for the setup prompt
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func init() {
	apply(darkPalette)
}

// ApplyTheme switches the palette. Unknown names fall back to dark.
func ApplyTheme(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ThemeLight:
		apply(lightPalette)
	default:
		apply(darkPalette)
	}
}

func apply(p Palette) {
	Accent, Surface, Selection = p.Accent, p.Surface, p.Selection
	Dim, Muted, Text = p.Dim, p.Muted, p.Text
	Good, Bad, Info = p.Good, p.Bad, p.Info

	ActiveBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Accent)
	InactiveBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Dim)

	TitleStyle = lipgloss.NewStyle().Foreground(Text).Bold(true)
	SubtitleStyle = lipgloss.NewStyle().Foreground(Muted)
	DimStyle = lipgloss.NewStyle().Foreground(Dim)
	AccentStyle = lipgloss.NewStyle().Foreground(Accent)
	ErrorStyle = lipgloss.NewStyle().Foreground(Bad)
	SuccessStyle = lipgloss.NewStyle().Foreground(Good)
	HighlightStyle = lipgloss.NewStyle().
		Foreground(Text).
		Background(Accent).
		Padding(0, 1)

	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Accent).
		Padding(1, 2).
		Background(Surface)
	ModalTitleStyle = lipgloss.NewStyle().
		Foreground(Text).
		Bold(true).
		MarginBottom(1)
	LabelStyle = lipgloss.NewStyle().Foreground(Muted).Width(12)
	FocusedLabel = lipgloss.NewStyle().Foreground(Accent).Bold(true).Width(12)

	HelpKeyStyle = lipgloss.NewStyle().Foreground(Accent)
	HelpDescStyle = lipgloss.NewStyle().Foreground(Dim)

	BannerStyle = lipgloss.NewStyle().
		Foreground(Text).
		Background(Selection).
		Padding(0, 1)
	StatusBarStyle = lipgloss.NewStyle().Foreground(Muted)
	BadgeStyle = lipgloss.NewStyle().
		Foreground(Text).
		Background(Accent).
		Padding(0, 1)
	DimBadgeStyle = lipgloss.NewStyle().
		Foreground(Muted).
		Background(Selection).
		Padding(0, 1)
	SpinnerStyle = lipgloss.NewStyle().Foreground(Accent)

	MatchHighlightStyle = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
	MatchHighlightSelectedStyle = lipgloss.NewStyle().
		Foreground(Accent).
		Background(Selection).
		Bold(true)

	WantToReadStyle = lipgloss.NewStyle().Foreground(Dim)
	ReadingStyle = lipgloss.NewStyle().Foreground(Accent)
	CompletedStyle = lipgloss.NewStyle().Foreground(Good)
}

// Helper functions

// Truncate truncates a string to the given display width with ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

// Pad pads a string to the given width
func Pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return string(runes[:width])
	}
	return s + strings.Repeat(" ", width-len(runes))
}

// RowPart represents a part of a row with optional foreground color
type RowPart struct {
	Text       string
	Foreground *lipgloss.Color
}

// RenderListRow renders a complete list row with uniform background when selected.
// Each part is styled on its own so the selection background is not reset
// by embedded ANSI codes.
func RenderListRow(parts []RowPart, selected bool, width int) string {
	var b strings.Builder
	visibleLen := 0

	for _, part := range parts {
		style := lipgloss.NewStyle()
		switch {
		case part.Foreground != nil:
			style = style.Foreground(*part.Foreground)
		case selected:
			style = style.Foreground(Text)
		default:
			style = style.Foreground(Muted)
		}
		if selected {
			style = style.Background(Selection)
		}
		b.WriteString(style.Render(part.Text))
		visibleLen += lipgloss.Width(part.Text)
	}

	// Fill to width minus the two margin cells
	if pad := width - visibleLen - 2; pad > 0 {
		padStyle := lipgloss.NewStyle()
		if selected {
			padStyle = padStyle.Background(Selection)
		}
		b.WriteString(padStyle.Render(strings.Repeat(" ", pad)))
	}

	marginStyle := lipgloss.NewStyle()
	if selected {
		marginStyle = marginStyle.Background(Selection)
	}
	margin := marginStyle.Render(" ")

	return margin + b.String() + margin
}
