package widgets

import "github.com/charmbracelet/lipgloss"

// Box draws content inside a rounded border with a bracketed title.
type Box struct {
	Title   string
	Content string
	Accent  lipgloss.Color
}

func (b Box) Render(width int) string {
	if width <= 0 {
		return ""
	}
	accent := b.Accent
	if accent == "" {
		accent = ColorBrand
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(max(1, width-2))
	body := b.Content
	if b.Title != "" {
		body = TitleStyle.Foreground(accent).Render("["+b.Title+"]") + "\n" + body
	}
	return style.Render(body)
}
