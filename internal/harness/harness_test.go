package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/colscan/internal/scan"
	"github.com/roach88/colscan/internal/testutil"
)

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestScenarioFiles_Pass(t *testing.T) {
	for _, name := range []string{"resale_sample", "anomalies", "missing_year"} {
		t.Run(name, func(t *testing.T) {
			result, err := Run(loadScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunWithGolden_ResaleSample(t *testing.T) {
	result, err := RunWithGolden(t, loadScenario(t, "resale_sample"))
	require.NoError(t, err)
	assert.True(t, result.Pass)
}

func TestRunWithGolden_MissingYear(t *testing.T) {
	result, err := RunWithGolden(t, loadScenario(t, "missing_year"))
	require.NoError(t, err)
	assert.True(t, result.Pass)
}

func TestRun_FailedExpectations(t *testing.T) {
	s := loadScenario(t, "resale_sample")
	two, wrongMean := 2, 1.0
	s.Expect.Matched = &two
	s.Expect.Stats.MeanPrice = &wrongMean
	s.Assertions = append(s.Assertions, Assertion{Type: AssertZone, Year: 2023})

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	// four strategies fail both checks, plus the zone assertion
	assert.Len(t, result.Errors, 9)
}

func TestRun_StrategySubset(t *testing.T) {
	s := loadScenario(t, "resale_sample")
	s.Strategies = []string{"zmss"}
	s.Assertions = nil

	result, err := Run(s)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, scan.StrategyZMSS, result.Results[0].Strategy)
	assert.Nil(t, result.For(scan.StrategyNormal))
}

func TestRun_MinAreaOverride(t *testing.T) {
	s := loadScenario(t, "resale_sample")
	area := 90.0
	s.Query.MinArea = &area
	s.Expect = nil
	s.Assertions = nil

	result, err := Run(s)
	require.NoError(t, err)
	for _, res := range result.Results {
		assert.Len(t, res.Report.Pairs, 1, res.Strategy)
	}
}

func TestRun_UnsortedFallback(t *testing.T) {
	s := &Scenario{
		Name:        "unsorted",
		Description: "unsorted months",
		Dataset: testutil.Dataset{
			Month: []string{"2022-01", "2021-01", "2022-02"},
			Town:  []string{"BEDOK", "BEDOK", "BEDOK"},
			Area:  []string{"90", "90", "90"},
			Price: []string{"10", "20", "30"},
		},
		Query:      QuerySpec{Year: 2022, Month: 1, Town: "BEDOK"},
		Assertions: []Assertion{{Type: AssertFallback, Strategy: "zm"}, {Type: AssertFallback, Strategy: "zmss"}},
	}
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown field": "name: x\ndescription: y\nquery: {year: 2022, month: 1, town: A}\ndatset: {}\n",
		"no name":       "description: y\nquery: {year: 2022, month: 1, town: A}\n",
		"bad query":     "name: x\ndescription: y\nquery: {year: 2022, month: 13, town: A}\n",
		"misaligned":    "name: x\ndescription: y\nquery: {year: 2022, month: 1, town: A}\ndataset: {month: [\"2022-01\"]}\n",
		"bad strategy":  "name: x\ndescription: y\nquery: {year: 2022, month: 1, town: A}\nstrategies: [fast]\n",
		"bad assertion": "name: x\ndescription: y\nquery: {year: 2022, month: 1, town: A}\nassertions: [{type: trace}]\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScenario([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestGoldenFiles_UpdateAndCompare(t *testing.T) {
	result, err := Run(loadScenario(t, "resale_sample"))
	require.NoError(t, err)

	scenarioFile := filepath.Join(t.TempDir(), "resale_sample.yaml")
	path := GoldenPath(scenarioFile)
	assert.Equal(t, filepath.Join(filepath.Dir(scenarioFile), "golden", "resale_sample.golden"), path)

	_, err = CompareGolden(path, result)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, UpdateGolden(path, result))
	match, err := CompareGolden(path, result)
	require.NoError(t, err)
	assert.True(t, match)

	want, err := os.ReadFile(filepath.Join("testdata", "golden", "resale_sample.golden"))
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}
