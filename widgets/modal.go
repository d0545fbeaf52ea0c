package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Popup is a centered card drawn over the screen (help, history, date entry).
type Popup struct {
	Title  string
	Body   string
	Footer string
}

func (p Popup) card() string {
	parts := []string{TitleStyle.Render(p.Title), "", p.Body}
	if p.Footer != "" {
		parts = append(parts, "", MutedStyle.Render(p.Footer))
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorFocus).
		Padding(1, 2).
		Render(strings.Join(parts, "\n"))
}

// Over composites the popup onto base. Lines of base outside the card's
// columns stay visible.
func (p Popup) Over(base string, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	under := fitCanvas(base, width, height)
	over := fitCanvas(lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, p.card()), width, height)

	baseLines := strings.Split(under, "\n")
	overLines := strings.Split(over, "\n")
	out := make([]string, height)
	for i := 0; i < height; i++ {
		start, end, ok := segmentBounds(overLines[i], width)
		if !ok {
			out[i] = baseLines[i]
			continue
		}
		left := ansi.Truncate(baseLines[i], start, "")
		mid := ansi.Truncate(dropColumns(overLines[i], start), end-start, "")
		right := dropColumns(baseLines[i], end)
		out[i] = padRightANSI(left+mid+right, width)
	}
	return strings.Join(out, "\n")
}

// segmentBounds finds the non-blank column span of a rendered overlay line.
func segmentBounds(line string, width int) (start, end int, ok bool) {
	plain := ansi.Strip(ansi.Truncate(line, width, ""))
	trimmed := strings.TrimRight(plain, " ")
	if trimmed == "" {
		return 0, 0, false
	}
	start = len(plain) - len(strings.TrimLeft(plain, " "))
	end = ansi.StringWidth(trimmed)
	return start, end, start < end
}

func fitCanvas(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i := range lines {
		lines[i] = padRightANSI(lines[i], width)
	}
	return strings.Join(lines, "\n")
}

func dropColumns(s string, cols int) string {
	if cols <= 0 {
		return s
	}
	return strings.TrimPrefix(s, ansi.Truncate(s, cols, ""))
}

func padRightANSI(s string, width int) string {
	return padRight(ansi.Truncate(s, width, ""), width)
}
