package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/roach88/colscan/internal/scan"
	"github.com/roach88/colscan/internal/stats"
)

// WriteStats prints the statistics of q as a titled block.
func WriteStats(w io.Writer, q scan.Query, st stats.Stats) {
	fmt.Fprintf(w, "Results for Year: %d, Month: %d, Town: %s\n", q.Year, q.StartMonth, q.Town)
	fmt.Fprintln(w, strings.Repeat("=", 49))
	if st.Empty() {
		fmt.Fprintln(w, NoResult)
		return
	}
	for _, c := range st.Categories() {
		fmt.Fprintf(w, "%s = %s\n", c.Name, FormatValue(c.Value))
	}
}

// WriteComparison renders one row per strategy with its scan counters,
// statistics and elapsed time.
func WriteComparison(w io.Writer, results []*scan.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Strategy", "Range", "Scanned", "Matched", "Skipped", "Min Price", "Avg Price", "Std Dev", "Min Price/Sqm", "Elapsed"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	for _, res := range results {
		rng := res.Range.String()
		if res.NoZone {
			rng = "no zone"
		}
		row := []string{string(res.Strategy), rng, "0", "0", "0", "-", "-", "-", "-", formatElapsed(res.Elapsed)}
		if res.Report != nil {
			row[2] = strconv.Itoa(res.Report.Scanned)
			row[3] = strconv.Itoa(len(res.Report.Pairs))
			row[4] = strconv.Itoa(res.Report.Skipped)
		}
		if !res.Stats.Empty() {
			for i, c := range res.Stats.Categories() {
				row[5+i] = FormatValue(c.Value)
			}
		}
		table.Append(row)
	}
	table.Render()
}

// WriteStages renders the survivor count after every multi-stage step.
func WriteStages(w io.Writer, rep *scan.Report) {
	if len(rep.Stages) == 0 {
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Stage", "Survivors"})
	table.SetAutoFormatHeaders(false)
	for _, st := range rep.Stages {
		table.Append([]string{st.Name, strconv.FormatUint(st.Count(), 10)})
	}
	table.Render()
}

func formatElapsed(d time.Duration) string {
	return d.Round(time.Microsecond).String()
}
