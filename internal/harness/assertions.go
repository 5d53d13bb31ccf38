package harness

import (
	"fmt"

	"github.com/roach88/colscan/internal/scan"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertZone:
		return assertZone(result, a)
	case AssertStageCount:
		return assertStageCount(result, a)
	case AssertScanned:
		return assertScanned(result, a)
	case AssertNoZone:
		return assertFlag(result, a, func(r *scan.Result) bool { return r.NoZone })
	case AssertFallback:
		return assertFlag(result, a, func(r *scan.Result) bool { return r.Fallback })
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertZone(result *Result, a Assertion) error {
	z, ok := result.Zones.Lookup(a.Year)
	want := fmt.Sprintf("zone %d [%d,%d]", a.Year, a.Start, a.End)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: want, Actual: "no zone"}
	}
	if z.Start != a.Start || z.End != a.End {
		return &AssertionError{Type: a.Type, Expected: want, Actual: fmt.Sprintf("[%d,%d]", z.Start, z.End)}
	}
	return nil
}

func assertStageCount(result *Result, a Assertion) error {
	st := scan.StrategyNormal
	if a.Strategy != "" {
		st, _ = scan.ParseStrategy(a.Strategy)
	}
	res, err := strategyResult(result, a, st)
	if err != nil {
		return err
	}
	for _, stage := range res.Report.Stages {
		if stage.Name != a.Stage {
			continue
		}
		if got := int(stage.Count()); got != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s stage %s keeps %d rows", st, a.Stage, a.Count),
				Actual:   fmt.Sprintf("%d rows", got),
			}
		}
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s stage %s", st, a.Stage), Actual: "stage not run"}
}

func assertScanned(result *Result, a Assertion) error {
	st, _ := scan.ParseStrategy(a.Strategy)
	res, err := strategyResult(result, a, st)
	if err != nil {
		return err
	}
	if res.Report.Scanned != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s scans %d rows", st, a.Count),
			Actual:   fmt.Sprintf("%d rows", res.Report.Scanned),
		}
	}
	return nil
}

func assertFlag(result *Result, a Assertion, flag func(*scan.Result) bool) error {
	st, _ := scan.ParseStrategy(a.Strategy)
	res, err := strategyResult(result, a, st)
	if err != nil {
		return err
	}
	if !flag(res) {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s %s", st, a.Type), Actual: "not set"}
	}
	return nil
}

func strategyResult(result *Result, a Assertion, st scan.Strategy) (*scan.Result, error) {
	res := result.For(st)
	if res == nil {
		return nil, &AssertionError{Type: a.Type, Expected: fmt.Sprintf("strategy %q to run", st), Actual: "not run"}
	}
	return res, nil
}
