package main

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/leadr/internal/lead"
	"github.com/sadopc/leadr/internal/pipeline"
	"github.com/sadopc/leadr/internal/store"
)

var statsOffline bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print pipeline statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			leads     []lead.Lead
			fetchedAt time.Time
			window    lead.Window
		)
		if statsOffline {
			db, err := store.New(cfg.DB.Path)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()
			snap, err := db.LoadSnapshot()
			if err != nil {
				return err
			}
			leads, fetchedAt = snap.Leads, snap.FetchedAt
			// Custom bounds are not cached; only presets can be re-resolved.
			if w, err := (lead.DateRange{Preset: snap.DateRange}).Resolve(time.Now()); err == nil {
				window = w
			}
		} else {
			r, err := dateRangeFlag()
			if err != nil {
				return err
			}
			s := pipeline.NewStore(newClient(), pipeline.WithPageLimit(cfg.API.PageLimit))
			if err := s.Load(cmd.Context(), r); err != nil {
				return err
			}
			leads, fetchedAt, window = s.Leads(), s.LoadedAt(), s.Window()
		}

		printStats(cmd.OutOrStdout(), lead.ComputeStats(leads, time.Now()), fetchedAt, window)
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsOffline, "offline", false, "use the locally cached leads instead of fetching")
	addRangeFlags(statsCmd)
	rootCmd.AddCommand(statsCmd)
}

func printStats(w io.Writer, s lead.Snapshot, fetchedAt time.Time, window lead.Window) {
	if !fetchedAt.IsZero() {
		fmt.Fprintf(w, "As of %s\n", fetchedAt.Local().Format("Jan 02, 2006 15:04"))
	}
	if !window.IsZero() {
		fmt.Fprintf(w, "Created %s\n", formatWindow(window))
	}
	if !fetchedAt.IsZero() || !window.IsZero() {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%-12s %d\n", "Total", s.Total)
	fmt.Fprintf(w, "%-12s %d\n", "Today", s.Today)
	fmt.Fprintf(w, "%-12s %d\n", "Yesterday", s.Yesterday)
	fmt.Fprintf(w, "%-12s %d\n", "This week", s.ThisWeek)
	fmt.Fprintf(w, "%-12s %d\n", "This month", s.ThisMonth)
	fmt.Fprintf(w, "%-12s %d\n", "In progress", s.InProgress)
	fmt.Fprintf(w, "%-12s %d\n", "Converted", s.Converted)
	fmt.Fprintf(w, "%-12s %.1f%%\n", "Conversion", s.ConversionRate()*100)

	fmt.Fprintln(w, "\nBy status")
	for _, c := range lead.Columns {
		fmt.Fprintf(w, "  %-12s %d\n", c.Title, s.ByStatus[c.ID])
	}

	fmt.Fprintln(w, "\nBy source")
	sources := make([]string, 0, len(s.BySource))
	for src := range s.BySource {
		sources = append(sources, src)
	}
	slices.Sort(sources)
	for _, src := range sources {
		name := src
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "  %-12s %d\n", name, s.BySource[src])
	}
}

func formatWindow(w lead.Window) string {
	const layout = "Jan 02, 2006"
	switch {
	case w.Start.IsZero():
		return "until " + w.End.Local().Format(layout)
	case w.End.IsZero():
		return "since " + w.Start.Local().Format(layout)
	}
	return w.Start.Local().Format(layout) + " to " + w.End.Local().Format(layout)
}
