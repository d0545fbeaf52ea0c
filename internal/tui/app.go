package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/jask/bitacora/internal/bitacora"
	"github.com/jask/bitacora/internal/config"
	"github.com/jask/bitacora/internal/database/repository"
	"github.com/jask/bitacora/internal/logging"
	"github.com/jask/bitacora/internal/service"
	"github.com/jask/bitacora/widgets"
)

// historyLimit is how many journal entries the history panel shows.
const historyLimit = 20

// App is the single bitacora screen.
type App struct {
	ctx      context.Context
	cfg      config.Config
	services Services
	log      logrus.FieldLogger

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	input   textinput.Model
	table   *widgets.MovementTable

	overlay    overlayState
	filter     string
	shownCycle string // cycle whose rows the table holds
	shownState service.FetchState
	history    []repository.FetchLog
	status     string
	statusErr  bool
	statusSeq  int
	width      int
	height     int
}

// Services are the core components the screen drives.
type Services struct {
	Dates   *service.DateSelector
	Fetcher *service.Fetcher
	History *service.HistoryService
}

type overlayState string

const (
	overlayNone    overlayState = ""
	overlayDate    overlayState = "date"
	overlayFilter  overlayState = "filter"
	overlayHistory overlayState = "history"
	overlayHelp    overlayState = "help"
)

// messages
type (
	fetchDoneMsg   service.Result
	historyMsg     []repository.FetchLog
	errMsg         struct{ err error }
	clearStatusMsg struct{ seq int }
)

func (e errMsg) Error() string { return e.err.Error() }

func New(ctx context.Context, cfg config.Config, services Services, log logrus.FieldLogger) *App {
	if log == nil {
		log = logging.Discard()
	}
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(widgets.LoadingStyle))
	in := textinput.New()
	in.CharLimit = 32
	return &App{
		ctx:      ctx,
		cfg:      cfg,
		services: services,
		log:      log,
		keys:     defaultKeys(),
		help:     help.New(),
		spinner:  sp,
		input:    in,
		table:    widgets.NewMovementTable(),
		width:    100,
		height:   30,
	}
}

// Init fetches today's log before any interaction.
func (a *App) Init() tea.Cmd {
	return a.startFetch()
}

// startFetch moves the fetcher to Loading synchronously, so the very next
// render already shows the indicator and the disabled trigger, and hands the
// network call to a command.
func (a *App) startFetch() tea.Cmd {
	cycle, err := a.services.Fetcher.Begin(a.services.Dates.Current().QueryKey())
	if err != nil {
		if errors.Is(err, service.ErrFetchInFlight) {
			return a.setStatus("Búsqueda en curso, espere…", false)
		}
		return a.setStatus("error: "+err.Error(), true)
	}
	run := func() tea.Msg {
		return fetchDoneMsg(a.services.Fetcher.Run(a.ctx, cycle))
	}
	return tea.Batch(a.spinner.Tick, run)
}

func (a *App) loadHistory() tea.Cmd {
	return func() tea.Msg {
		logs, err := a.services.History.Recent(a.ctx, historyLimit)
		if err != nil {
			return errMsg{err}
		}
		return historyMsg(logs)
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.help.Width = m.Width
	case tea.KeyMsg:
		if m.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.overlay != overlayNone {
			return a.handleOverlayKey(m)
		}
		return a.handleKey(m)
	case fetchDoneMsg:
		a.syncTable(a.services.Fetcher.Snapshot())
		if m.Err != nil {
			return a, a.setStatus("error: "+m.Err.Error(), true)
		}
		return a, a.setStatus(fmt.Sprintf("%d movimientos · %s", m.Rows, a.services.Dates.Current().DisplayForm()), false)
	case spinner.TickMsg:
		if a.services.Fetcher.State() != service.Loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(m)
		return a, cmd
	case historyMsg:
		a.history = []repository.FetchLog(m)
		a.overlay = overlayHistory
	case clearStatusMsg:
		if m.seq == a.statusSeq {
			a.status, a.statusErr = "", false
		}
	case errMsg:
		a.log.WithError(m.err).Warn("tui action failed")
		return a, a.setStatus("error: "+m.Error(), true)
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(m, a.keys.Search):
		return a, a.startFetch()
	case key.Matches(m, a.keys.PrevDay):
		return a, a.changeDate(func() (service.SelectedDate, error) { return a.services.Dates.Step(-1), nil })
	case key.Matches(m, a.keys.NextDay):
		return a, a.changeDate(func() (service.SelectedDate, error) { return a.services.Dates.Step(1), nil })
	case key.Matches(m, a.keys.Today):
		return a, a.changeDate(func() (service.SelectedDate, error) { return a.services.Dates.Today(), nil })
	case key.Matches(m, a.keys.Date):
		if a.loading() {
			return a, a.setStatus("Búsqueda en curso, espere…", false)
		}
		a.overlay = overlayDate
		a.input.Placeholder = "DD-MM-AAAA"
		a.input.SetValue(a.services.Dates.Current().DisplayForm())
		a.input.CursorEnd()
		return a, a.input.Focus()
	case key.Matches(m, a.keys.Filter):
		a.overlay = overlayFilter
		a.input.Placeholder = "texto, cajero o cheque"
		a.input.SetValue(a.filter)
		a.input.CursorEnd()
		return a, a.input.Focus()
	case key.Matches(m, a.keys.History):
		if a.services.History == nil {
			return a, a.setStatus("historial no disponible", true)
		}
		return a, a.loadHistory()
	case key.Matches(m, a.keys.Help):
		a.overlay = overlayHelp
		return a, nil
	case m.String() == "esc":
		if a.filter != "" {
			a.filter = ""
			a.refreshRows()
		}
		return a, nil
	}
	return a, a.table.Update(m)
}

func (a *App) handleOverlayKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.overlay {
	case overlayDate:
		switch m.Type {
		case tea.KeyEsc:
			a.closeInput()
			return a, nil
		case tea.KeyEnter:
			input := a.input.Value()
			a.closeInput()
			return a, a.changeDate(func() (service.SelectedDate, error) { return a.services.Dates.SelectString(input) })
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(m)
		return a, cmd
	case overlayFilter:
		switch m.Type {
		case tea.KeyEsc:
			a.filter = ""
			a.closeInput()
			a.refreshRows()
			return a, nil
		case tea.KeyEnter:
			a.closeInput()
			return a, nil
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(m)
		a.filter = strings.TrimSpace(a.input.Value())
		a.refreshRows()
		return a, cmd
	default:
		switch m.String() {
		case "esc", "q", "enter", "?", "H":
			a.overlay = overlayNone
		}
		return a, nil
	}
}

// changeDate applies a selection unless a fetch is loading. New selections
// are ignored, not queued, while a cycle is in flight.
func (a *App) changeDate(apply func() (service.SelectedDate, error)) tea.Cmd {
	if a.loading() {
		return a.setStatus("Búsqueda en curso, espere…", false)
	}
	if _, err := apply(); err != nil {
		return a.setStatus("error: "+err.Error(), true)
	}
	if !a.cfg.UI.FetchOnSelect {
		return nil
	}
	return a.startFetch()
}

func (a *App) closeInput() {
	a.overlay = overlayNone
	a.input.Blur()
	a.input.SetValue("")
}

func (a *App) loading() bool {
	return a.services.Fetcher.State() == service.Loading
}

// syncTable loads the rows of a settled cycle into the table the first time
// that cycle is seen, whichever of View or the completion message gets there
// first.
func (a *App) syncTable(snap service.Snapshot) {
	if !snap.State.Settled() {
		return
	}
	if snap.CycleID == a.shownCycle && snap.State == a.shownState {
		return
	}
	a.shownCycle, a.shownState = snap.CycleID, snap.State
	a.table.SetRows(service.FilterMovements(snap.Rows, a.filter))
}

func (a *App) refreshRows() {
	a.table.SetRows(a.visibleRows())
}

func (a *App) visibleRows() []bitacora.MovementRecord {
	return service.FilterMovements(a.services.Fetcher.Rows(), a.filter)
}

// setStatus shows a transient notice. It clears itself after ui.status_ttl
// unless a newer notice replaced it; a zero TTL keeps it until replaced.
func (a *App) setStatus(text string, isErr bool) tea.Cmd {
	a.statusSeq++
	a.status, a.statusErr = text, isErr
	ttl := a.cfg.UI.StatusTTL
	if ttl <= 0 {
		return nil
	}
	seq := a.statusSeq
	return tea.Tick(ttl, func(time.Time) tea.Msg { return clearStatusMsg{seq: seq} })
}
