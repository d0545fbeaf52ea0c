package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"github.com/jask/bitacora/internal/bitacora"
	"github.com/jask/bitacora/internal/config"
	"github.com/jask/bitacora/internal/database"
	"github.com/jask/bitacora/internal/database/repository"
	"github.com/jask/bitacora/internal/service"
	"github.com/jask/bitacora/widgets"
)

// fakeRemote serves canned bodies per fecha and records every request.
type fakeRemote struct {
	mu     sync.Mutex
	keys   []string
	status map[string]int
	bodies map[string]string
}

func newFakeRemote(t *testing.T) (*fakeRemote, *bitacora.Client) {
	t.Helper()
	fr := &fakeRemote{status: map[string]int{}, bodies: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("fecha")
		fr.mu.Lock()
		fr.keys = append(fr.keys, key)
		status, ok := fr.status[key]
		body := fr.bodies[key]
		fr.mu.Unlock()
		if !ok {
			status = http.StatusOK
		}
		if body == "" && status == http.StatusOK {
			body = "[]"
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return fr, bitacora.NewClient(srv.URL, 2*time.Second, "bitacora-test")
}

func (f *fakeRemote) set(key string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[key] = status
	f.bodies[key] = body
}

func (f *fakeRemote) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

// 03:00 UTC on the 18th is still the 17th in Merida.
var fixedNow = time.Date(2025, 10, 18, 3, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T, remote service.Remote, history *service.HistoryService) *App {
	t.Helper()
	cfg := config.Default()
	cfg.UI.StatusTTL = 0
	dates, err := service.NewDateSelector(cfg.UI.Timezone, func() time.Time { return fixedNow })
	require.NoError(t, err)
	var journal service.Journal
	if history != nil {
		journal = history
	}
	fetcher := service.NewFetcher(remote, journal, nil, 2*time.Second)
	app := New(context.Background(), cfg, Services{Dates: dates, Fetcher: fetcher, History: history}, nil)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return app
}

// drive runs cmd and feeds every message it yields back into the app.
// Timer-driven messages (spinner frames, cursor blink) are dropped.
func drive(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			drive(t, app, c)
		}
	case fetchDoneMsg, historyMsg, errMsg:
		_, next := app.Update(msg)
		drive(t, app, next)
	}
}

func press(app *App, k string) tea.Cmd {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	_, cmd := app.Update(msg)
	return cmd
}

func plainView(app *App) string {
	return ansi.Strip(app.View())
}

func TestInitFetchesTodayInMerida(t *testing.T) {
	fr, client := newFakeRemote(t)
	fr.set("251017", http.StatusOK, `[{"hora":"08:00","cajero":"J1","turno":"1","movimiento":"Apertura"}]`)
	app := newTestApp(t, client, nil)

	cmd := app.Init()
	require.Equal(t, service.Loading, app.services.Fetcher.State())
	require.False(t, app.services.Fetcher.Snapshot().TriggerEnabled())
	require.Contains(t, plainView(app), "Cargando 17-10-2025")

	drive(t, app, cmd)
	require.Equal(t, []string{"251017"}, fr.requested())
	require.Equal(t, service.Success, app.services.Fetcher.State())

	view := plainView(app)
	require.NotContains(t, view, "Cargando")
	require.Contains(t, view, "Fecha: 17-10-2025")
	require.Contains(t, view, "Apertura")
	require.Contains(t, view, "---")
	require.Equal(t, 1, app.table.Len())
}

// runWithoutDelivery executes the commands of cmd but drops their messages,
// as when the runtime renders before the completion message is handled.
func runWithoutDelivery(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if batch, ok := cmd().(tea.BatchMsg); ok {
		for _, c := range batch {
			runWithoutDelivery(c)
		}
	}
}

func TestViewShowsResolvedRowsBeforeCompletionMessage(t *testing.T) {
	fr, client := newFakeRemote(t)
	fr.set("251017", http.StatusOK, `[{"hora":"08:00","cajero":"J1","turno":"1","movimiento":"Apertura"}]`)
	app := newTestApp(t, client, nil)

	runWithoutDelivery(app.Init())
	require.Equal(t, service.Success, app.services.Fetcher.State())

	app.Update(spinner.TickMsg{})
	view := plainView(app)
	require.NotContains(t, view, "Cargando")
	require.Contains(t, view, "Apertura")
	require.NotContains(t, view, "Sin movimientos")
	require.Equal(t, 1, app.table.Len())

	// the late completion message must not reset the table
	app.table.Update(tea.KeyMsg{Type: tea.KeyDown})
	app.Update(fetchDoneMsg(service.Result{State: service.Success, Rows: 1}))
	require.Equal(t, 1, app.table.Len())
	require.Contains(t, plainView(app), "Apertura")
}

func TestFailedCycleKeepsTableInStep(t *testing.T) {
	fr, client := newFakeRemote(t)
	fr.set("251017", http.StatusOK, `[{"hora":"08:00","cajero":"J1","turno":"1","movimiento":"Apertura"}]`)
	fr.set("251016", http.StatusInternalServerError, "boom")
	app := newTestApp(t, client, nil)
	drive(t, app, app.Init())

	runWithoutDelivery(press(app, "h"))
	require.Equal(t, service.Failed, app.services.Fetcher.State())
	view := plainView(app)
	require.Contains(t, view, "Apertura")
	require.Contains(t, view, "1 movimientos")
}

func TestDetailLineShowsFullDescription(t *testing.T) {
	long := "Cancelacion de cheque por error de captura en caja principal del turno matutino"
	fr, client := newFakeRemote(t)
	fr.set("251017", http.StatusOK, `[{"hora":"08:00","cajero":"J1","turno":"1","movimiento":"`+long+`"}]`)
	app := newTestApp(t, client, nil)
	drive(t, app, app.Init())

	require.Contains(t, plainView(app), "08:00 J1 · "+long)
}

func TestDateKeysIgnoredWhileLoading(t *testing.T) {
	fr, client := newFakeRemote(t)
	app := newTestApp(t, client, nil)

	cmd := app.Init()
	require.Nil(t, press(app, "l"))
	require.Equal(t, "17-10-2025", app.services.Dates.Current().DisplayForm())
	press(app, "enter")
	press(app, "d")
	require.Equal(t, overlayNone, app.overlay)

	drive(t, app, cmd)
	require.Equal(t, []string{"251017"}, fr.requested())

	drive(t, app, press(app, "left"))
	require.Equal(t, "16-10-2025", app.services.Dates.Current().DisplayForm())
	require.Equal(t, []string{"251017", "251016"}, fr.requested())
}

func TestFailedFetchKeepsRowsAndReenablesTrigger(t *testing.T) {
	fr, client := newFakeRemote(t)
	fr.set("251017", http.StatusOK, `[{"hora":"08:00","cajero":"J1","turno":"1","cheque":"4411","movimiento":"Retiro"}]`)
	fr.set("251016", http.StatusInternalServerError, "boom")
	app := newTestApp(t, client, nil)

	drive(t, app, app.Init())
	drive(t, app, press(app, "h"))

	snap := app.services.Fetcher.Snapshot()
	require.Equal(t, service.Failed, snap.State)
	require.True(t, snap.TriggerEnabled())
	require.Len(t, snap.Rows, 1)
	require.True(t, app.statusErr)

	view := plainView(app)
	require.Contains(t, view, "Retiro")
	require.Contains(t, view, "500")
}

func TestDateEntryRefetches(t *testing.T) {
	fr, client := newFakeRemote(t)
	app := newTestApp(t, client, nil)
	drive(t, app, app.Init())

	press(app, "d")
	require.Equal(t, overlayDate, app.overlay)
	require.Equal(t, "17-10-2025", app.input.Value())

	app.input.SetValue("01-10-2025")
	drive(t, app, press(app, "enter"))
	require.Equal(t, overlayNone, app.overlay)
	require.Equal(t, "251001", app.services.Dates.Current().QueryKey())
	require.Equal(t, []string{"251017", "251001"}, fr.requested())
}

func TestInvalidDateEntryIsRejected(t *testing.T) {
	fr, client := newFakeRemote(t)
	app := newTestApp(t, client, nil)
	drive(t, app, app.Init())

	press(app, "d")
	app.input.SetValue("31-02-2025")
	drive(t, app, press(app, "enter"))

	require.Equal(t, "17-10-2025", app.services.Dates.Current().DisplayForm())
	require.True(t, app.statusErr)
	require.Len(t, fr.requested(), 1)
}

func TestFetchOnSelectDisabled(t *testing.T) {
	fr, client := newFakeRemote(t)
	app := newTestApp(t, client, nil)
	app.cfg.UI.FetchOnSelect = false
	drive(t, app, app.Init())

	require.Nil(t, press(app, "l"))
	require.Equal(t, "18-10-2025", app.services.Dates.Current().DisplayForm())
	require.Len(t, fr.requested(), 1)

	drive(t, app, press(app, "b"))
	require.Equal(t, []string{"251017", "251018"}, fr.requested())
}

func TestFilterNarrowsTable(t *testing.T) {
	fr, client := newFakeRemote(t)
	fr.set("251017", http.StatusOK, `[
		{"hora":"08:00","cajero":"J1","turno":"1","movimiento":"Apertura"},
		{"hora":"09:10","cajero":"J2","turno":"1","cheque":"4411","movimiento":"Cancelacion"},
		{"hora":"10:20","cajero":"J2","turno":"2","movimiento":"Retiro"}
	]`)
	app := newTestApp(t, client, nil)
	drive(t, app, app.Init())
	require.Equal(t, 3, app.table.Len())

	press(app, "/")
	require.Equal(t, overlayFilter, app.overlay)
	for _, r := range "4411" {
		press(app, string(r))
	}
	require.Equal(t, "4411", app.filter)
	require.Equal(t, 1, app.table.Len())

	press(app, "enter")
	require.Equal(t, overlayNone, app.overlay)
	require.Contains(t, plainView(app), "1 de 3")

	press(app, "esc")
	require.Empty(t, app.filter)
	require.Equal(t, 3, app.table.Len())
}

func TestHistoryOverlayListsCycles(t *testing.T) {
	ctx := context.Background()
	db, err := database.Setup(filepath.Join(t.TempDir(), "tui.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	history := &service.HistoryService{Logs: repository.NewFetchLogRepo(db)}

	fr, client := newFakeRemote(t)
	fr.set("251016", http.StatusNotFound, "")
	app := newTestApp(t, client, history)
	drive(t, app, app.Init())
	drive(t, app, press(app, "h"))

	logs, err := history.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	drive(t, app, press(app, "H"))
	require.Equal(t, overlayHistory, app.overlay)
	view := plainView(app)
	require.Contains(t, view, "Historial")
	require.Contains(t, view, "251016")
	require.Contains(t, view, "failed")
	require.Contains(t, view, "404")

	press(app, "esc")
	require.Equal(t, overlayNone, app.overlay)
}

func TestHelpAndQuit(t *testing.T) {
	_, client := newFakeRemote(t)
	app := newTestApp(t, client, nil)
	drive(t, app, app.Init())

	press(app, "?")
	require.Equal(t, overlayHelp, app.overlay)
	help := plainView(app)
	require.True(t, strings.Contains(help, "día anterior"))
	require.True(t, strings.Contains(help, "pgup/pgdn"))
	press(app, "?")
	require.Equal(t, overlayNone, app.overlay)

	cmd := press(app, "q")
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	require.True(t, ok)
}

func TestHeaderAccentFollowsState(t *testing.T) {
	require.Equal(t, widgets.ColorBrand, headerAccent(service.Idle))
	require.Equal(t, widgets.ColorLoading, headerAccent(service.Loading))
	require.Equal(t, widgets.ColorBrand, headerAccent(service.Success))
	require.Equal(t, widgets.ColorError, headerAccent(service.Failed))
}
