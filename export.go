package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/leadr/internal/export"
	"github.com/sadopc/leadr/internal/lead"
	"github.com/sadopc/leadr/internal/pipeline"
)

var (
	exportFormat string
	exportDir    string
	exportSearch string
	exportSource string
	exportStatus string
	exportSort   string
	exportOrder  string
	rangePreset  string
	rangeFrom    string
	rangeTo      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Fetch leads and write the filtered view to a file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		criteria, err := exportCriteria()
		if err != nil {
			return err
		}
		r, err := dateRangeFlag()
		if err != nil {
			return err
		}
		dir := exportDir
		if dir == "" {
			dir = cfg.Export.Dir
		}

		leads := pipeline.NewStore(newClient(), pipeline.WithPageLimit(cfg.API.PageLimit))
		if err := leads.Load(cmd.Context(), r); err != nil {
			return err
		}
		view := lead.DeriveView(leads.Leads(), criteria)

		now := time.Now()
		var path string
		switch exportFormat {
		case "csv":
			path, err = export.WriteCSV(dir, view, now)
		case "json":
			path, err = export.WriteJSON(dir, view, now)
		default:
			return fmt.Errorf("unknown format %q (must be csv or json)", exportFormat)
		}
		if err != nil {
			return err
		}
		cliLogger().Debug("export written", "path", path, "leads", len(view), "fetched", leads.Len())
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d leads to %s\n", len(view), path)
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportFormat, "format", "csv", "output format (csv or json)")
	f.StringVar(&exportDir, "dir", "", "output directory (default from LEADR_EXPORT_DIR)")
	f.StringVar(&exportSearch, "search", "", "match name, email or phone")
	f.StringVar(&exportSource, "source", lead.All, "source tag to keep")
	f.StringVar(&exportStatus, "status", lead.All, "status to keep")
	f.StringVar(&exportSort, "sort", string(lead.SortByCreatedAt), "sort key (name, createdAt, status)")
	f.StringVar(&exportOrder, "order", string(lead.Desc), "sort order (asc or desc)")
	addRangeFlags(exportCmd)
	rootCmd.AddCommand(exportCmd)
}

func exportCriteria() (lead.Criteria, error) {
	c := lead.DefaultCriteria()
	c.Search = exportSearch
	c.Source = exportSource
	if exportStatus != lead.All {
		st, err := lead.ParseStatus(exportStatus)
		if err != nil {
			return c, err
		}
		c.Status = string(st)
	}
	var err error
	if c.SortBy, err = lead.ParseSortKey(exportSort); err != nil {
		return c, err
	}
	if c.Order, err = lead.ParseSortOrder(exportOrder); err != nil {
		return c, err
	}
	return c, nil
}

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&rangePreset, "range", string(lead.PresetAll), "date range preset (all, today, yesterday, thisWeek, thisMonth, last7Days, last30Days, custom)")
	cmd.Flags().StringVar(&rangeFrom, "from", "", "custom range start, YYYY-MM-DD")
	cmd.Flags().StringVar(&rangeTo, "to", "", "custom range end, YYYY-MM-DD")
}

func dateRangeFlag() (lead.DateRange, error) {
	p, err := lead.ParsePreset(rangePreset)
	if err != nil {
		return lead.DateRange{}, err
	}
	r := lead.DateRange{Preset: p}
	if p == lead.PresetCustom {
		if r.From, err = time.ParseInLocation("2006-01-02", rangeFrom, time.Local); err != nil {
			return r, fmt.Errorf("invalid --from: %w", err)
		}
		if r.To, err = time.ParseInLocation("2006-01-02", rangeTo, time.Local); err != nil {
			return r, fmt.Errorf("invalid --to: %w", err)
		}
	}
	if _, err := r.Resolve(time.Now()); err != nil {
		return r, err
	}
	return r, nil
}
