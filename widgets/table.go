package widgets

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/bitacora/internal/bitacora"
)

// column widths for Hora, Cj, Tn, Cheque; Movimiento takes the rest.
var fixedWidths = []int{6, 4, 3, 12}

const minDescWidth = 16

// MovementTable is the scrollable movement grid.
type MovementTable struct {
	table table.Model
	rows  []bitacora.MovementRecord
}

func NewMovementTable() *MovementTable {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithKeyMap(TableKeys()),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(ColorHeading).BorderForeground(ColorSubtext0)
	styles.Selected = styles.Selected.Bold(true).Foreground(ColorCrust).Background(ColorFocus)
	t.SetStyles(styles)
	return &MovementTable{table: t}
}

// TableKeys is the table's default keymap without the letters the screen
// binds itself: b (search) and d (date) would otherwise also page the table.
func TableKeys() table.KeyMap {
	km := table.DefaultKeyMap()
	km.PageUp = key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "página arriba"))
	km.PageDown = key.NewBinding(key.WithKeys("pgdown", "f"), key.WithHelp("pgdn/f", "página abajo"))
	km.HalfPageUp = key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "½ página arriba"))
	km.HalfPageDown = key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "½ página abajo"))
	return km
}

// SetRows replaces the rows and moves the cursor back to the top.
func (m *MovementTable) SetRows(rows []bitacora.MovementRecord) {
	m.rows = rows
	m.table.SetRows(tableRows(rows, m.descWidth()))
	m.table.GotoTop()
}

// Len is the number of rows shown.
func (m *MovementTable) Len() int { return len(m.rows) }

// Selected returns the row under the cursor.
func (m *MovementTable) Selected() (bitacora.MovementRecord, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return bitacora.MovementRecord{}, false
	}
	return m.rows[i], true
}

// Update forwards navigation keys to the table.
func (m *MovementTable) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

// Resize fits the table into width x height cells.
func (m *MovementTable) Resize(width, height int) {
	m.table.SetColumns(columns(width))
	m.table.SetWidth(max(width, 1))
	m.table.SetHeight(max(height, 3))
	m.table.SetRows(tableRows(m.rows, m.descWidth()))
}

func (m *MovementTable) View() string {
	if len(m.rows) == 0 {
		return m.table.View() + "\n" + MutedStyle.Render("  Sin movimientos")
	}
	return m.table.View()
}

func (m *MovementTable) descWidth() int {
	cols := m.table.Columns()
	if len(cols) == 0 {
		return minDescWidth
	}
	return cols[len(cols)-1].Width
}

func columns(width int) []table.Column {
	used := 0
	for _, w := range fixedWidths {
		used += w + 2 // cell padding
	}
	desc := max(width-used-2, minDescWidth)
	cols := make([]table.Column, 0, len(bitacora.Columns))
	for i, title := range bitacora.Columns {
		w := desc
		if i < len(fixedWidths) {
			w = fixedWidths[i]
		}
		cols = append(cols, table.Column{Title: title, Width: w})
	}
	return cols
}

func tableRows(rows []bitacora.MovementRecord, descWidth int) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		cells := r.Cells()
		for i := range cells {
			w := descWidth
			if i < len(fixedWidths) {
				w = fixedWidths[i]
			}
			cells[i] = Truncate(cells[i], w)
		}
		out = append(out, table.Row(cells))
	}
	return out
}

// Truncate flattens s to one line no wider than width, marking cuts with an ellipsis.
func Truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

// PlainTable renders rows as aligned text for non-interactive output.
type PlainTable struct {
	Headers []string
	Rows    [][]string
}

func (t PlainTable) Render() string {
	if len(t.Headers) == 0 {
		return "No data"
	}
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = ansi.StringWidth(h)
	}
	for _, row := range t.Rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], ansi.StringWidth(row[i]))
		}
	}
	lines := []string{joinPadded(t.Headers, widths)}
	for _, row := range t.Rows {
		lines = append(lines, joinPadded(row, widths))
	}
	return strings.Join(lines, "\n")
}

func joinPadded(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if i == len(widths)-1 {
			parts[i] = cell
			continue
		}
		parts[i] = padRight(cell, widths[i])
	}
	return strings.TrimRight(strings.Join(parts, " | "), " ")
}

func padRight(s string, width int) string {
	if width <= 0 {
		return ""
	}
	w := ansi.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
