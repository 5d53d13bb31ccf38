package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/colscan/internal/history"
	"github.com/roach88/colscan/internal/report"
	"github.com/roach88/colscan/internal/scan"
	"github.com/roach88/colscan/internal/stats"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Year      int
	Month     int
	Town      string
	Strategy  string
	ID        string
	NoHistory bool
}

// StrategyOutput is the outcome of one strategy.
type StrategyOutput struct {
	Strategy scan.Strategy `json:"strategy"`
	Range    scan.Range    `json:"range"`
	Scanned  int           `json:"scanned"`
	Matched  int           `json:"matched"`
	Skipped  int           `json:"skipped"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Stats    stats.Stats   `json:"stats"`
	Artifact string        `json:"artifact"`
	NoZone   bool          `json:"no_zone,omitempty"`
	Fallback bool          `json:"fallback,omitempty"`
	RunID    string        `json:"run_id,omitempty"`
}

// QueryOutput is the result of running one query across strategies.
type QueryOutput struct {
	ID      string           `json:"id"`
	Query   scan.Query       `json:"query"`
	Results []StrategyOutput `json:"results"`

	results []*scan.Result
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a query with one or all scan strategies",
		Long: `Run a year / two-month / town query against the column store.

Each strategy writes ScanResult_<ID>_<Strategy>.csv to the output directory
and is recorded in the run history.

Examples:
  colscan query --year 2022 --month 1 --town bedok
  colscan query --year 2022 --month 1 --town "ang mo kio" --strategy zmss
  colscan query --year 2022 --month 1 --town bedok --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryCommand(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Year, "year", 0, "4-digit year (required)")
	cmd.Flags().IntVar(&opts.Month, "month", 0, "start month 1-12; the window covers it and the next month (required)")
	cmd.Flags().StringVar(&opts.Town, "town", "", "town, case-insensitive (required)")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "all", "strategy: all|normal|zm|ss|zmss")
	cmd.Flags().StringVar(&opts.ID, "id", "", "identifier used in artifact names (default derived from the query)")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "do not record runs")
	cmd.MarkFlagRequired("year")
	cmd.MarkFlagRequired("month")
	cmd.MarkFlagRequired("town")

	return cmd
}

func runQueryCommand(ctx context.Context, opts *QueryOptions, cmd *cobra.Command) error {
	f := formatter(opts.RootOptions, cmd)
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return f.Fail(ExitCommandError, "invalid config", err)
	}
	q, err := scan.NewQuery(opts.Year, opts.Month, opts.Town)
	if err != nil {
		return f.Fail(ExitCommandError, "invalid query", err)
	}
	q.MinArea = cfg.MinArea

	sess, err := openSession(ctx, cfg)
	if err != nil {
		return f.Fail(ExitFailure, "failed to open column store", err)
	}
	f.VerboseLog("column store %s: %d rows, zones %s", cfg.DataDir, sess.store.Rows(), sess.zones)
	strategies, err := sess.strategies(opts.Strategy)
	if err != nil {
		return f.Fail(ExitCommandError, "invalid strategy", err)
	}

	id := opts.ID
	if id == "" {
		id = defaultID(q)
	}
	var hist *history.Store
	if !opts.NoHistory {
		if hist, err = history.Open(cfg.HistoryDB); err != nil {
			return f.Fail(ExitFailure, "failed to open history", err)
		}
		defer closeHistory(hist)
	}

	out, err := executeQuery(ctx, sess, hist, history.UUIDv7Generator{}, q, id, opts.ID, strategies)
	if err != nil {
		return f.Fail(ExitFailure, "query failed", err)
	}
	return writeQueryOutput(f, out)
}

// executeQuery runs every strategy, writes the artifacts and records the
// runs when hist is non-nil. label is the identifier stored in the history.
func executeQuery(ctx context.Context, sess *session, hist *history.Store, ids history.IDGenerator, q scan.Query, id, label string, strategies []scan.Strategy) (*QueryOutput, error) {
	out := &QueryOutput{ID: id, Query: q, Results: make([]StrategyOutput, 0, len(strategies))}
	for _, st := range strategies {
		res, err := sess.engine.Run(ctx, st, q)
		if err != nil {
			return nil, err
		}
		path, err := report.Save(sess.cfg.OutputDir, id, res)
		if err != nil {
			return nil, err
		}
		so := StrategyOutput{
			Strategy: st,
			Range:    res.Range,
			Scanned:  res.Report.Scanned,
			Matched:  len(res.Report.Pairs),
			Skipped:  res.Report.Skipped,
			Elapsed:  res.Elapsed,
			Stats:    res.Stats,
			Artifact: path,
			NoZone:   res.NoZone,
			Fallback: res.Fallback,
		}
		if hist != nil {
			so.RunID = ids.Generate()
			if err := hist.Record(ctx, history.NewRun(so.RunID, label, res, time.Now())); err != nil {
				return nil, err
			}
		}
		if res.Report.Skipped > 0 {
			slog.Info("rows skipped", "strategy", st, "skipped", res.Report.Skipped)
		}
		out.Results = append(out.Results, so)
		out.results = append(out.results, res)
	}
	return out, nil
}

func writeQueryOutput(f *OutputFormatter, out *QueryOutput) error {
	writeStageTables(f, out)
	if f.Format == "json" {
		return f.Success(out)
	}
	writeQueryText(f.Writer, out)
	return nil
}

// writeQueryText prints a statistics block per strategy, then the comparison
// table and the artifact paths.
func writeQueryText(w io.Writer, out *QueryOutput) {
	if len(out.results) == 0 {
		return
	}
	for _, res := range out.results {
		fmt.Fprintf(w, "Running %s scan...\n", res.Strategy.Label())
		report.WriteStats(w, out.Query, res.Stats)
		fmt.Fprintln(w)
	}
	report.WriteComparison(w, out.results)
	for _, so := range out.Results {
		fmt.Fprintf(w, "wrote %s\n", so.Artifact)
	}
}

// writeStageTables prints the multi-stage survivor counts to the diagnostic
// writer when verbose.
func writeStageTables(f *OutputFormatter, out *QueryOutput) {
	if !f.Verbose {
		return
	}
	for _, res := range out.results {
		if len(res.Report.Stages) == 0 {
			continue
		}
		f.VerboseLog("%s stages", res.Strategy.Label())
		report.WriteStages(f.Diag(), res.Report)
	}
}

// defaultID names artifacts of ad-hoc queries, e.g. "2022-01-ANG_MO_KIO".
func defaultID(q scan.Query) string {
	return fmt.Sprintf("%04d-%02d-%s", q.Year, q.StartMonth, strings.ReplaceAll(q.Town, " ", "_"))
}

func closeHistory(h *history.Store) {
	if err := h.Close(); err != nil {
		slog.Error("error closing history", "error", err)
	}
}

func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
