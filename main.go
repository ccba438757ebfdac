package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/leadr/internal/config"
	"github.com/sadopc/leadr/internal/leadapi"
	"github.com/sadopc/leadr/internal/pipeline"
	"github.com/sadopc/leadr/internal/store"
	"github.com/sadopc/leadr/internal/tui"
)

// Journal rows older than this are pruned at start-up.
const journalRetention = 90 * 24 * time.Hour

var (
	cfg     config.Config
	baseURL string
	dbPath  string
)

var rootCmd = &cobra.Command{
	Use:           "leadr",
	Short:         "Terminal console for the lead pipeline",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotenv(); err != nil {
			return err
		}
		c, err := config.Load()
		if err != nil {
			return err
		}
		if baseURL != "" {
			c.API.BaseURL = baseURL
		}
		if dbPath != "" {
			c.DB.Path = dbPath
		}
		cfg = c
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "api", "", "backend base URL (overrides LEADR_API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "local database path (overrides LEADR_DB_PATH)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI() error {
	if err := os.MkdirAll(filepath.Dir(cfg.Log.Path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := tea.LogToFile(cfg.Log.Path, "leadr")
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	db, err := store.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if n, err := db.PruneTransitions(time.Now().Add(-journalRetention)); err != nil {
		logger.Warn("pruning journal", "err", err)
	} else if n > 0 {
		logger.Info("pruned journal", "rows", n)
	}

	client := newClient()
	leads := pipeline.NewStore(client, pipeline.WithPageLimit(cfg.API.PageLimit))

	var cachedAt time.Time
	snap, err := db.LoadSnapshot()
	if err != nil {
		logger.Warn("reading lead cache", "err", err)
	} else if len(snap.Leads) > 0 {
		leads.Replace(snap.Leads)
		cachedAt = snap.FetchedAt
		logger.Info("seeded from cache", "leads", len(snap.Leads), "fetched_at", snap.FetchedAt, "range", snap.DateRange)
		if prefs, err := db.LoadPreferences(); err == nil && prefs.DateRange.Preset != snap.DateRange {
			logger.Info("cached leads were fetched for a different date range",
				"cached", snap.DateRange, "preferred", prefs.DateRange.Preset)
		}
	}

	ctrl := pipeline.NewController(leads, client,
		pipeline.WithJournal(db),
		pipeline.WithLogger(logger),
	)

	logger.Info("starting", "api", client.BaseURL(), "db", cfg.DB.Path)
	app := tui.NewApp(tui.Deps{
		Controller: ctrl,
		DB:         db,
		Logger:     logger,
		ExportDir:  cfg.Export.Dir,
		CachedAt:   cachedAt,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func newClient() *leadapi.Client {
	return leadapi.NewClient(cfg.API.BaseURL,
		leadapi.WithTimeout(cfg.API.Timeout),
		leadapi.WithSessionCookie(cfg.API.SessionCookie),
	)
}

// cliLogger logs to stderr for the non-interactive subcommands.
func cliLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}
