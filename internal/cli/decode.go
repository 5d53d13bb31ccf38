package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/colscan/internal/history"
	"github.com/roach88/colscan/internal/ident"
	"github.com/roach88/colscan/internal/scan"
)

// DecodeOptions holds flags for the decode and prompt commands.
type DecodeOptions struct {
	*RootOptions
	Strategy  string
	NoHistory bool
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode <id>",
		Short: "Run the query selected by a 9-character identifier",
		Long: `Decode a 9-character identifier into year, start month and town and
run the query with every configured strategy.

Counting from the end, the 2nd character selects the year, the 3rd the
start month and the 4th the town.

Town selectors:
` + townSelectors() + `
Examples:
  colscan decode U2212345E
  colscan decode U2212345E --strategy zm`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd.Context(), opts, args[0], cmd)
		},
	}
	addDecodeFlags(cmd, opts)
	return cmd
}

// townSelectors lists the town each selector digit picks.
func townSelectors() string {
	var b strings.Builder
	for i, town := range ident.Towns() {
		fmt.Fprintf(&b, "  %d  %s\n", i, town)
	}
	return b.String()
}

func addDecodeFlags(cmd *cobra.Command, opts *DecodeOptions) {
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "all", "strategy: all|normal|zm|ss|zmss")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "do not record runs")
}

func runDecode(ctx context.Context, opts *DecodeOptions, id string, cmd *cobra.Command) error {
	f := formatter(opts.RootOptions, cmd)
	params, err := ident.Decode(id)
	if err != nil {
		return f.Fail(ExitCommandError, "invalid identifier", err)
	}
	r, err := newDecodeRunner(ctx, opts)
	if err != nil {
		return f.Fail(GetExitCode(err), "failed to prepare query", err)
	}
	defer r.close()
	f.VerboseLog("%s decodes to year %d, month %d, town %s", params.ID, params.Year, params.Month, params.Town)

	out, err := r.run(ctx, params)
	if err != nil {
		return f.Fail(ExitFailure, "query failed", err)
	}
	return writeQueryOutput(f, out)
}

// decodeRunner holds the session and history shared by decode and prompt.
type decodeRunner struct {
	sess       *session
	hist       *history.Store
	strategies []scan.Strategy
}

func newDecodeRunner(ctx context.Context, opts *DecodeOptions) (*decodeRunner, error) {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return nil, err
	}
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to open column store", err)
	}
	strategies, err := sess.strategies(opts.Strategy)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid strategy", err)
	}
	r := &decodeRunner{sess: sess, strategies: strategies}
	if !opts.NoHistory {
		if r.hist, err = history.Open(cfg.HistoryDB); err != nil {
			return nil, WrapExitError(ExitFailure, "failed to open history", err)
		}
	}
	return r, nil
}

func (r *decodeRunner) run(ctx context.Context, p ident.Params) (*QueryOutput, error) {
	q, err := scan.NewQuery(p.Year, p.Month, p.Town)
	if err != nil {
		return nil, err
	}
	q.MinArea = r.sess.cfg.MinArea
	return executeQuery(ctx, r.sess, r.hist, history.UUIDv7Generator{}, q, p.ID, p.ID, r.strategies)
}

func (r *decodeRunner) close() {
	if r.hist != nil {
		closeHistory(r.hist)
	}
}

// NewPromptCommand creates the interactive prompt command.
func NewPromptCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Read identifiers interactively and run their queries",
		Long: `Index the column store once, then read identifiers from stdin one per
line and run the query each one selects. Type 'exit' to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrompt(cmd.Context(), opts, cmd)
		},
	}
	addDecodeFlags(cmd, opts)
	return cmd
}

func runPrompt(ctx context.Context, opts *DecodeOptions, cmd *cobra.Command) error {
	f := formatter(opts.RootOptions, cmd)
	r, err := newDecodeRunner(ctx, opts)
	if err != nil {
		return f.Fail(GetExitCode(err), "failed to prepare queries", err)
	}
	defer r.close()

	w := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())
	for {
		if f.Format != "json" {
			fmt.Fprintln(w, "Enter identifier (type 'exit' to terminate):")
		}
		if !in.Scan() {
			break
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") {
			if f.Format != "json" {
				fmt.Fprintln(w, "Terminating.")
			}
			return nil
		}

		params, err := ident.Decode(line)
		if err != nil {
			if f.Format == "json" {
				_ = f.Error(CodeCommand, err.Error(), nil)
			} else {
				fmt.Fprintln(w, "Invalid identifier. Please try again.")
			}
			continue
		}
		out, err := r.run(ctx, params)
		if err != nil {
			return f.Fail(ExitFailure, "query failed", err)
		}
		if err := writeQueryOutput(f, out); err != nil {
			return err
		}
	}
	if err := in.Err(); err != nil {
		return f.Fail(ExitCommandError, "failed to read input", err)
	}
	return nil
}
