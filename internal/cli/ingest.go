package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/colscan/internal/column"
	"github.com/roach88/colscan/internal/ingest"
)

// IngestOutput summarizes an ingest run.
type IngestOutput struct {
	Source    string          `json:"source"`
	Sorted    string          `json:"sorted"`
	DataDir   string          `json:"data_dir"`
	Summary   *ingest.Summary `json:"summary"`
	Indexed   int             `json:"indexed_rows"`
	Years     []string        `json:"years"`
	Anomalies int             `json:"anomalies"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <source.csv>",
		Short: "Sort a resale CSV by month and split it into column files",
		Long: `Sort the rows of a resale CSV by month, write the sorted copy, then
split it into one file per column under the data directory. Blank and
invalid cells become "na" and are logged. The four query columns are then
indexed and their offset tables cached next to the column files.

Examples:
  colscan ingest ResalePricesSingapore.csv
  colscan ingest resale.csv --data-dir /tmp/columns`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), rootOpts, args[0], cmd)
		},
	}
}

func runIngest(ctx context.Context, opts *RootOptions, src string, cmd *cobra.Command) error {
	f := formatter(opts, cmd)
	cfg, err := loadConfig(opts)
	if err != nil {
		return f.Fail(ExitCommandError, "invalid config", err)
	}
	if err := ingest.EnsureDirs(cfg.OutputDir, cfg.DataDir, filepath.Dir(cfg.SortedCSV)); err != nil {
		return f.Fail(ExitFailure, "failed to prepare directories", err)
	}

	if _, err := ingest.SortByMonth(src, cfg.SortedCSV); err != nil {
		return f.Fail(ExitFailure, "failed to sort source", err)
	}
	sum, err := ingest.Split(cfg.SortedCSV, column.Dir(cfg.DataDir))
	if err != nil {
		return f.Fail(ExitFailure, "failed to split source", err)
	}
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return f.Fail(ExitFailure, "failed to index column store", err)
	}

	out := IngestOutput{
		Source:    src,
		Sorted:    cfg.SortedCSV,
		DataDir:   cfg.DataDir,
		Summary:   sum,
		Indexed:   sess.store.Rows(),
		Years:     sess.zones.Years(),
		Anomalies: sum.Anomalies(),
	}
	if f.Format == "json" {
		return f.Success(out)
	}
	w := f.Writer
	fmt.Fprintf(w, "Sorted CSV written to %s\n", out.Sorted)
	fmt.Fprintf(w, "Split %d rows into %d column files in %s\n", sum.Rows, len(sum.Columns), out.DataDir)
	if out.Anomalies > 0 {
		fmt.Fprintf(w, "Replaced %d empty or invalid cells with %q\n", out.Anomalies, column.Sentinel)
	}
	fmt.Fprintf(w, "Indexed %d rows across %d years\n", out.Indexed, len(out.Years))
	return nil
}
