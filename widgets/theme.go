package widgets

import "github.com/charmbracelet/lipgloss"

// ---------------------------------------------------------------------------
// Catppuccin Mocha palette (subset), true-color hex values
// https://catppuccin.com/palette
// ---------------------------------------------------------------------------

const (
	ColorRed      lipgloss.Color = "#f38ba8"
	ColorMaroon   lipgloss.Color = "#eba0ac"
	ColorPeach    lipgloss.Color = "#fab387"
	ColorYellow   lipgloss.Color = "#f9e2af"
	ColorGreen    lipgloss.Color = "#a6e3a1"
	ColorBlue     lipgloss.Color = "#89b4fa"
	ColorLavender lipgloss.Color = "#b4befe"

	ColorText     lipgloss.Color = "#cdd6f4"
	ColorSubtext0 lipgloss.Color = "#a6adc8"
	ColorOverlay0 lipgloss.Color = "#6c7086"
	ColorSurface1 lipgloss.Color = "#45475a"
	ColorBase     lipgloss.Color = "#1e1e2e"
	ColorCrust    lipgloss.Color = "#11111b"
)

// ---------------------------------------------------------------------------
// Semantic color aliases
// ---------------------------------------------------------------------------

const (
	ColorBrand    = ColorRed
	ColorTrigger  = ColorGreen
	ColorDisabled = ColorOverlay0
	ColorLoading  = ColorPeach
	ColorHeading  = ColorBlue
	ColorFocus    = ColorLavender
	ColorError    = ColorMaroon
	ColorWarning  = ColorYellow
)

var (
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorBrand)
	SubtitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorText)
	MutedStyle    = lipgloss.NewStyle().Foreground(ColorSubtext0)
	ErrorStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorError)
	WarningStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
	LoadingStyle  = lipgloss.NewStyle().Foreground(ColorLoading)

	triggerStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorCrust).Background(ColorTrigger).Padding(0, 2)
	disabledStyle = lipgloss.NewStyle().Foreground(ColorText).Background(ColorSurface1).Padding(0, 2)
	fieldStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(ColorSubtext0).Padding(0, 1)
)

// Button renders a trigger, greyed out when disabled.
func Button(label string, enabled bool) string {
	if enabled {
		return triggerStyle.Render(label)
	}
	return disabledStyle.Render(label)
}

// Field renders a labelled read-only value like "Fecha: 18-10-2025".
func Field(label, value string) string {
	return fieldStyle.Render(MutedStyle.Render(label+": ") + value)
}
