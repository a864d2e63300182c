package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/chaos/pkg/cli"
	"mercator-hq/chaos/pkg/config"
	"mercator-hq/chaos/pkg/journal"
)

var journalFlags struct {
	experiment string
	kind       string
	since      time.Duration
	limit      int
	output     string
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recorded fault injections",
	Long: `Read the injection journal written by a previous or running agent.

Only the sqlite backend persists events. For the memory backend, query
GET /admin/journal on the running agent instead.

Examples:
  # Last 20 injections
  chaos-agent journal --config chaos.yaml

  # Timeouts of one experiment in the last hour, as JSON
  chaos-agent journal --experiment checkout-errors --kind timeout --since 1h -o json`,
	Args: cobra.NoArgs,
	RunE: showJournal,
}

func init() {
	rootCmd.AddCommand(journalCmd)

	journalCmd.Flags().StringVar(&journalFlags.experiment, "experiment", "", "only events of this experiment")
	journalCmd.Flags().StringVar(&journalFlags.kind, "kind", "", "only events of this fault kind")
	journalCmd.Flags().DurationVar(&journalFlags.since, "since", 0, "only events newer than this (e.g. 30m, 24h)")
	journalCmd.Flags().IntVarP(&journalFlags.limit, "limit", "n", 20, "maximum number of events to show")
	journalCmd.Flags().StringVarP(&journalFlags.output, "output", "o", "text", "output format: text, json")
}

type journalReport struct {
	Path   string           `json:"path"`
	Total  int64            `json:"total"`
	Events []*journal.Event `json:"events"`
}

// RenderText prints the events as a table, newest first.
func (r journalReport) RenderText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tEXPERIMENT\tKIND\tACTION\tSTATUS\tDELAY_MS\tDRY_RUN\tREQUEST")
	for _, e := range r.Events {
		status := "-"
		if e.Status != 0 {
			status = fmt.Sprint(e.Status)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%t\t%s %s\n",
			e.Time.UTC().Format(time.RFC3339), e.ExperimentID, e.Kind, e.Action,
			status, e.DelayMs, e.DryRun, e.Method, e.Path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d events from %s\n", len(r.Events), r.Total, r.Path)
	return err
}

func showJournal(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(journalFlags.output)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewCommandError("journal", err)
	}
	if cfg.Journal.Backend != "sqlite" {
		return cli.NewCommandError("journal", fmt.Errorf(
			"journal backend %q does not persist events; query GET /admin/journal on the running agent", cfg.Journal.Backend))
	}

	path := cfg.Journal.SQLite.Path
	if _, err := os.Stat(path); err != nil {
		return cli.NewCommandError("journal", fmt.Errorf("journal database: %w", err))
	}

	storage, err := journal.NewSQLiteStorage(journal.SQLiteConfig{
		Path:        path,
		BusyTimeout: cfg.Journal.SQLite.BusyTimeout,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return cli.NewCommandError("journal", err)
	}
	defer storage.Close()

	filter := &journal.Filter{
		ExperimentID: journalFlags.experiment,
		Kind:         journalFlags.kind,
	}
	if journalFlags.since > 0 {
		filter.Since = time.Now().Add(-journalFlags.since)
	}

	ctx := cmd.Context()
	total, err := storage.Count(ctx, filter)
	if err != nil {
		return cli.NewCommandError("journal", err)
	}
	filter.Limit = journalFlags.limit
	events, err := storage.Query(ctx, filter)
	if err != nil {
		return cli.NewCommandError("journal", err)
	}

	return cli.Print(cmd.OutOrStdout(), format, journalReport{
		Path:   path,
		Total:  total,
		Events: events,
	})
}
