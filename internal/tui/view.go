package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/bitacora/internal/service"
	"github.com/jask/bitacora/widgets"
)

func (a *App) View() string {
	snap := a.services.Fetcher.Snapshot()
	a.syncTable(snap)
	width := max(40, a.width)

	header := widgets.Box{
		Title:   a.cfg.UI.Title,
		Content: a.headerContent(snap),
		Accent:  headerAccent(snap.State),
	}.Render(width)

	var lines []string
	lines = append(lines, header)
	if snap.IndicatorVisible() {
		lines = append(lines, " "+a.spinner.View()+widgets.LoadingStyle.Render(" Cargando "+a.services.Dates.Current().DisplayForm()+"…"))
	} else {
		lines = append(lines, "")
	}
	lines = append(lines, a.filterLine(snap))

	footer := a.detailLine() + "\n" + a.footer()
	used := lipgloss.Height(strings.Join(lines, "\n")) + lipgloss.Height(footer)
	a.table.Resize(width, max(3, a.height-used))
	lines = append(lines, a.table.View(), footer)

	base := strings.Join(lines, "\n")
	if a.overlay == overlayNone {
		return base
	}
	return a.popup().Over(base, width, max(a.height, lipgloss.Height(base)))
}

func headerAccent(state service.FetchState) lipgloss.Color {
	switch state {
	case service.Loading:
		return widgets.ColorLoading
	case service.Failed:
		return widgets.ColorError
	default:
		return widgets.ColorBrand
	}
}

// detailLine shows the full description of the row under the cursor, which
// the table truncates.
func (a *App) detailLine() string {
	row, ok := a.table.Selected()
	if !ok {
		return ""
	}
	width := max(10, a.width-2)
	text := fmt.Sprintf("%s %s · %s", row.Time, row.CashierID, row.Description)
	return " " + widgets.MutedStyle.Render(widgets.Truncate(text, width))
}

func (a *App) headerContent(snap service.Snapshot) string {
	sub := widgets.SubtitleStyle.Render("Movimientos")
	controls := lipgloss.JoinHorizontal(lipgloss.Center,
		widgets.Field("Fecha", a.services.Dates.Current().DisplayForm()),
		" ",
		widgets.Button("Buscar", snap.TriggerEnabled()),
	)
	return sub + "\n" + controls
}

func (a *App) filterLine(snap service.Snapshot) string {
	total := len(snap.Rows)
	if a.filter == "" {
		return widgets.MutedStyle.Render(fmt.Sprintf(" %d movimientos", total))
	}
	return widgets.WarningStyle.Render(fmt.Sprintf(" filtro %q: %d de %d", a.filter, a.table.Len(), total))
}

func (a *App) footer() string {
	status := ""
	if a.status != "" {
		if a.statusErr {
			status = widgets.ErrorStyle.Render(a.status)
		} else {
			status = widgets.MutedStyle.Render(a.status)
		}
	}
	return status + "\n" + a.help.View(a.keys)
}

func (a *App) popup() widgets.Popup {
	switch a.overlay {
	case overlayDate:
		return widgets.Popup{
			Title:  "Fecha",
			Body:   "DD-MM-AAAA, AAAA-MM-DD o AAMMDD\n\n" + a.input.View(),
			Footer: "enter buscar · esc cancelar",
		}
	case overlayFilter:
		return widgets.Popup{
			Title:  "Filtrar",
			Body:   a.input.View(),
			Footer: "enter aplicar · esc limpiar",
		}
	case overlayHistory:
		return widgets.Popup{
			Title:  "Historial de búsquedas",
			Body:   a.historyBody(),
			Footer: "esc cerrar",
		}
	default:
		full := a.help
		full.ShowAll = true
		return widgets.Popup{
			Title:  "Ayuda",
			Body:   full.View(a.keys),
			Footer: "esc cerrar",
		}
	}
}

func (a *App) historyBody() string {
	if len(a.history) == 0 {
		return widgets.MutedStyle.Render("Sin búsquedas registradas")
	}
	loc := a.services.Dates.Location()
	t := widgets.PlainTable{Headers: []string{"Inicio", "Fecha", "Estado", "HTTP", "Filas", "ms"}}
	for _, h := range a.history {
		status := "-"
		if h.StatusCode > 0 {
			status = fmt.Sprintf("%d", h.StatusCode)
		}
		t.Rows = append(t.Rows, []string{
			h.StartedAt.In(loc).Format("02-01 15:04:05"),
			h.DateKey,
			h.Outcome,
			status,
			fmt.Sprintf("%d", h.RowCount),
			fmt.Sprintf("%d", h.Elapsed().Milliseconds()),
		})
	}
	return t.Render()
}
