package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/roach88/colscan/internal/column"
	"github.com/roach88/colscan/internal/offsets"
	"github.com/roach88/colscan/internal/report"
	"github.com/roach88/colscan/internal/scan"
	"github.com/roach88/colscan/internal/stats"
	"github.com/roach88/colscan/internal/zone"
)

// equivalentPairs lists strategies that scan the same range with different
// algorithms.
var equivalentPairs = [][2]scan.Strategy{
	{scan.StrategyNormal, scan.StrategySS},
	{scan.StrategyZM, scan.StrategyZMSS},
}

// Run executes a scenario in a fresh temporary column store.
//
// Execution flow:
//  1. Write the dataset and build the offset store and zone map
//  2. Run every requested strategy
//  3. Check algorithm equivalence, expectations and assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	q, err := scenario.query()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	strategies, err := scenario.strategies()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	tmp, err := os.MkdirTemp("", "colscan-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("create scenario dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	dir, err := scenario.Dataset.Write(filepath.Join(tmp, "column_store"))
	if err != nil {
		return nil, fmt.Errorf("write dataset: %w", err)
	}
	store := offsets.NewStore(dir, offsets.WithSidecar(false))
	if err := store.Build(ctx); err != nil {
		return nil, fmt.Errorf("build offsets: %w", err)
	}
	zones, err := zone.Build(dir.Path(column.Month))
	if err != nil {
		return nil, fmt.Errorf("build zones: %w", err)
	}

	engine := scan.NewEngine(scan.NewScanner(store), zones)
	results, err := engine.RunAll(ctx, strategies, q)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	result.Results = results
	result.Zones = zones

	checkEquivalence(result)
	if scenario.Expect != nil {
		checkExpectation(result, scenario.Expect)
	}
	for _, a := range scenario.Assertions {
		if err := evaluateAssertion(result, a); err != nil {
			result.AddError(err.Error())
		}
	}
	return result, nil
}

// checkEquivalence compares strategies that scanned the same range.
func checkEquivalence(result *Result) {
	for _, pair := range equivalentPairs {
		a, b := result.For(pair[0]), result.For(pair[1])
		if a == nil || b == nil || a.NoZone || b.NoZone {
			continue
		}
		if a.Range != b.Range {
			continue
		}
		if !samePairs(a.Report.Pairs, b.Report.Pairs) {
			result.AddError(fmt.Sprintf("%s and %s returned different rows: %d vs %d pairs",
				a.Strategy, b.Strategy, len(a.Report.Pairs), len(b.Report.Pairs)))
		}
		if a.Report.Skipped != b.Report.Skipped {
			result.AddError(fmt.Sprintf("%s and %s skipped different rows: %d vs %d",
				a.Strategy, b.Strategy, a.Report.Skipped, b.Report.Skipped))
		}
	}
}

// samePairs compares two pair lists as multisets.
func samePairs(a, b []stats.Pair) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := sortedPairs(a), sortedPairs(b)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

func sortedPairs(p []stats.Pair) []stats.Pair {
	out := append([]stats.Pair(nil), p...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].Area < out[j].Area
	})
	return out
}

func checkExpectation(result *Result, e *Expectation) {
	for _, res := range result.Results {
		if e.Matched != nil && len(res.Report.Pairs) != *e.Matched {
			result.AddError(fmt.Sprintf("%s: matched %d rows, expected %d", res.Strategy, len(res.Report.Pairs), *e.Matched))
		}
		if e.Skipped != nil && res.Report.Skipped != *e.Skipped && !res.NoZone {
			result.AddError(fmt.Sprintf("%s: skipped %d rows, expected %d", res.Strategy, res.Report.Skipped, *e.Skipped))
		}
		if e.NoResult && !res.Stats.Empty() {
			result.AddError(fmt.Sprintf("%s: expected no result, got %d rows", res.Strategy, res.Stats.Count))
		}
		if e.Stats != nil {
			checkStat(result, res.Strategy, stats.CategoryMinPrice, e.Stats.MinPrice, res.Stats.MinPrice)
			checkStat(result, res.Strategy, stats.CategoryMeanPrice, e.Stats.MeanPrice, res.Stats.MeanPrice)
			checkStat(result, res.Strategy, stats.CategoryStdDevPrice, e.Stats.StdDevPrice, res.Stats.StdDevPrice)
			checkStat(result, res.Strategy, stats.CategoryMinPricePerSqm, e.Stats.MinPricePerSqm, res.Stats.MinPricePerSqm)
		}
	}
}

// checkStat compares at the precision of the result artifacts.
func checkStat(result *Result, s scan.Strategy, name string, want *float64, got float64) {
	if want == nil {
		return
	}
	if report.FormatValue(*want) != report.FormatValue(got) {
		result.AddError(fmt.Sprintf("%s: %s = %s, expected %s", s, name, report.FormatValue(got), report.FormatValue(*want)))
	}
}
