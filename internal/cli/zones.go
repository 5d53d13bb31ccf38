package cli

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/roach88/colscan/internal/column"
	"github.com/roach88/colscan/internal/zone"
)

// ZonesOutput is the zone map of the column store.
type ZonesOutput struct {
	Sorted bool                 `json:"sorted"`
	Zones  map[string]zone.Zone `json:"zones"`
}

// NewZonesCommand creates the zones command.
func NewZonesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "Print the per-year row ranges of the month column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runZones(rootOpts, cmd)
		},
	}
}

func runZones(opts *RootOptions, cmd *cobra.Command) error {
	f := formatter(opts, cmd)
	cfg, err := loadConfig(opts)
	if err != nil {
		return f.Fail(ExitCommandError, "invalid config", err)
	}
	m, err := zone.Build(column.Dir(cfg.DataDir).Path(column.Month))
	if err != nil {
		return f.Fail(ExitFailure, "failed to build zone map", err)
	}

	if f.Format == "json" {
		return f.Success(ZonesOutput{Sorted: m.Sorted(), Zones: m.Zones()})
	}
	if m.Len() == 0 {
		fmt.Fprintln(f.Writer, "No zones.")
		return nil
	}
	table := tablewriter.NewWriter(f.Writer)
	table.SetHeader([]string{"Year", "Start", "End", "Rows"})
	table.SetAutoFormatHeaders(false)
	zones := m.Zones()
	for _, year := range m.Years() {
		z := zones[year]
		table.Append([]string{year, strconv.Itoa(z.Start), strconv.Itoa(z.End), strconv.Itoa(z.Len())})
	}
	table.Render()
	if !m.Sorted() {
		fmt.Fprintln(f.Writer, "warning: month column is not sorted; zones may overlap")
	}
	return nil
}
