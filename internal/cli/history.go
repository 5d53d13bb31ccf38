package cli

import (
	"context"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/roach88/colscan/internal/history"
	"github.com/roach88/colscan/internal/report"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
	Label string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List recorded strategy runs, oldest first.

Examples:
  colscan history
  colscan history --limit 8
  colscan history --id U2212345E --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), opts, cmd)
		},
	}
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "show the most recent N runs (0 for all)")
	cmd.Flags().StringVar(&opts.Label, "id", "", "only runs of this identifier")
	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, cmd *cobra.Command) error {
	f := formatter(opts.RootOptions, cmd)
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return f.Fail(ExitCommandError, "invalid config", err)
	}
	h, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return f.Fail(ExitFailure, "failed to open history", err)
	}
	defer closeHistory(h)

	var runs []history.Run
	if opts.Label != "" {
		runs, err = h.ListByLabel(ctx, opts.Label)
	} else {
		runs, err = h.List(ctx, opts.Limit)
	}
	if err != nil {
		return f.Fail(ExitFailure, "failed to list runs", err)
	}

	if f.Format == "json" {
		return f.Success(runs)
	}
	table := tablewriter.NewWriter(f.Writer)
	table.SetHeader([]string{"Run", "ID", "Strategy", "Year", "Month", "Town", "Matched", "Skipped", "Avg Price", "Elapsed", "At"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, r := range runs {
		avg := "-"
		if !r.Stats.Empty() {
			avg = report.FormatValue(r.Stats.MeanPrice)
		}
		table.Append([]string{
			shortID(r.ID), r.Label, string(r.Strategy),
			strconv.Itoa(r.Year), strconv.Itoa(r.Month), r.Town,
			strconv.Itoa(r.Matched), strconv.Itoa(r.Skipped), avg,
			r.Elapsed.String(), r.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
