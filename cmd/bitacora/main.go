package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jask/bitacora/internal/bitacora"
	"github.com/jask/bitacora/internal/config"
	"github.com/jask/bitacora/internal/database"
	"github.com/jask/bitacora/internal/database/repository"
	"github.com/jask/bitacora/internal/logging"
	"github.com/jask/bitacora/internal/service"
	"github.com/jask/bitacora/internal/tui"
	"github.com/jask/bitacora/widgets"
)

var (
	// Global flags
	configPath string

	// fetch flags
	fetchDate string
	fetchGrep string

	// history flags
	historyLimit int
	historyClear bool

	// config init flags
	forceInit bool
)

var rootCmd = &cobra.Command{
	Use:           "bitacora",
	Short:         "Desk log viewer for the BT01 register",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch one day's movements and print them",
	RunE:  runFetch,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent fetch cycles from the local journal",
	RunE:  runHistory,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	RunE:  runConfigInit,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $BITACORA_CONFIG or ~/.config/bitacora/config.toml)")

	fetchCmd.Flags().StringVar(&fetchDate, "date", "", "Day to fetch: DD-MM-YYYY, YYYY-MM-DD or YYMMDD (default today)")
	fetchCmd.Flags().StringVar(&fetchGrep, "grep", "", "Only print movements matching this filter")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of cycles to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Delete the journal instead of listing it")

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(fetchCmd, historyCmd, configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env bundles what every command needs.
type env struct {
	cfg    config.Config
	log    *logrus.Logger
	closer io.Closer
	db     *sql.DB
}

func (e *env) Close() {
	if e.db != nil {
		_ = e.db.Close()
	}
	if e.closer != nil {
		_ = e.closer.Close()
	}
}

// setup loads .env, config and the logger. withDB also opens the journal.
func setup(withDB bool) (*env, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg}

	log, closer, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warn: logging disabled: %v\n", err)
		log = logging.Discard()
	}
	e.log, e.closer = log, closer

	if withDB {
		db, err := database.Setup(cfg.Database.Path)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("journal %s: %w", cfg.Database.Path, err)
		}
		e.db = db
	}
	return e, nil
}

// journal opens the history store; the viewer keeps working without one.
func (e *env) journal() *service.HistoryService {
	db, err := database.Setup(e.cfg.Database.Path)
	if err != nil {
		e.log.WithError(err).Warn("journal unavailable, fetch history disabled")
		return nil
	}
	e.db = db
	return &service.HistoryService{Logs: repository.NewFetchLogRepo(db)}
}

func (e *env) fetcher(history *service.HistoryService) *service.Fetcher {
	client := bitacora.NewClient(e.cfg.API.Endpoint, e.cfg.API.Timeout, e.cfg.API.UserAgent)
	var journal service.Journal
	if history != nil {
		journal = history
	}
	return service.NewFetcher(client, journal, e.log, e.cfg.API.Timeout)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.Close()

	dates, err := service.NewDateSelector(e.cfg.UI.Timezone, nil)
	if err != nil {
		return err
	}
	history := e.journal()
	e.log.WithField("endpoint", e.cfg.API.Endpoint).Info("bitacora starting")

	app := tui.New(cmd.Context(), e.cfg, tui.Services{
		Dates:   dates,
		Fetcher: e.fetcher(history),
		History: history,
	}, e.log)
	if _, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func runFetch(cmd *cobra.Command, _ []string) error {
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.Close()

	dates, err := service.NewDateSelector(e.cfg.UI.Timezone, nil)
	if err != nil {
		return err
	}
	if fetchDate != "" {
		if _, err := dates.SelectString(fetchDate); err != nil {
			return err
		}
	}
	f := e.fetcher(e.journal())
	res, err := f.Fetch(cmd.Context(), dates.Current().QueryKey())
	if err != nil {
		return err
	}

	rows := service.FilterMovements(f.Rows(), fetchGrep)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s): %d movimientos\n\n", dates.Current().DisplayForm(), dates.Current().QueryKey(), res.Rows)
	fmt.Fprintln(out, movementTable(rows).Render())
	return nil
}

func movementTable(rows []bitacora.MovementRecord) widgets.PlainTable {
	t := widgets.PlainTable{Headers: bitacora.Columns}
	for _, r := range rows {
		t.Rows = append(t.Rows, r.Cells())
	}
	return t
}

func runHistory(cmd *cobra.Command, _ []string) error {
	e, err := setup(true)
	if err != nil {
		return err
	}
	defer e.Close()

	out := cmd.OutOrStdout()
	logs := repository.NewFetchLogRepo(e.db)
	if historyClear {
		n, err := (&service.MaintenanceService{DB: e.db, Logs: logs}).ClearHistory(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %d fetch cycles\n", n)
		return nil
	}

	entries, err := (&service.HistoryService{Logs: logs}).Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	version, dirty, err := database.SchemaVersion(e.cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("journal schema: %w", err)
	}
	header := fmt.Sprintf("journal %s (schema v%d", e.cfg.Database.Path, version)
	if dirty {
		header += ", dirty"
	}
	fmt.Fprintln(out, header+")")

	loc, err := time.LoadLocation(e.cfg.UI.Timezone)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, historyTable(entries, loc).Render())
	return nil
}

// historyTable renders start times in loc, the configured ui.timezone, so the
// listing matches the viewer's history panel on any host.
func historyTable(entries []repository.FetchLog, loc *time.Location) widgets.PlainTable {
	t := widgets.PlainTable{Headers: []string{"Started", "Fecha", "Outcome", "Status", "Rows", "Elapsed", "Error"}}
	for _, l := range entries {
		status, msg := "-", ""
		if l.StatusCode > 0 {
			status = fmt.Sprint(l.StatusCode)
		}
		if l.Error != nil {
			msg = widgets.Truncate(*l.Error, 60)
		}
		t.Rows = append(t.Rows, []string{
			l.StartedAt.In(loc).Format("2006-01-02 15:04:05"),
			l.DateKey,
			l.Outcome,
			status,
			fmt.Sprint(l.RowCount),
			l.Elapsed().String(),
			msg,
		})
	}
	return t
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := configPath
	if path == "" {
		path = config.Path()
	}
	if err := config.WriteDefault(path, forceInit); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
