package scan

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/colscan/internal/column"
	"github.com/roach88/colscan/internal/stats"
	"github.com/roach88/colscan/internal/testutil"
)

func newEngine(t *testing.T, d testutil.Dataset) *Engine {
	t.Helper()
	s, zones := newScannerWithZones(t, d)
	e := NewEngine(s, zones)
	e.now = testutil.NewStepClock().Now
	return e
}

func TestParseStrategy(t *testing.T) {
	for _, in := range []string{"normal", "ZM", " ss ", "ZmSs"} {
		_, err := ParseStrategy(in)
		assert.NoError(t, err, in)
	}
	_, err := ParseStrategy("fast")
	assert.Error(t, err)
}

func TestStrategy_Properties(t *testing.T) {
	tests := []struct {
		strategy Strategy
		alg      Algorithm
		zoned    bool
		label    string
	}{
		{StrategyNormal, AlgorithmMultiStage, false, "Normal"},
		{StrategyZM, AlgorithmMultiStage, true, "ZM"},
		{StrategySS, AlgorithmShared, false, "SS"},
		{StrategyZMSS, AlgorithmShared, true, "ZMSS"},
	}
	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			assert.Equal(t, tt.alg, tt.strategy.Algorithm())
			assert.Equal(t, tt.zoned, tt.strategy.Zoned())
			assert.Equal(t, tt.label, tt.strategy.Label())
		})
	}
}

func TestEngine_AllStrategiesAgree(t *testing.T) {
	e := newEngine(t, testutil.ResaleSample())
	q := bedok2022(t)

	results, err := e.RunAll(context.Background(), Strategies, q)
	require.NoError(t, err)
	require.Len(t, results, 4)

	want := stats.Compute(samplePairs)
	for _, res := range results {
		assert.Equal(t, want, res.Stats, res.Strategy)
		assert.Equal(t, time.Second, res.Elapsed)
	}

	assert.Equal(t, FullRange, results[0].Range)
	assert.Equal(t, Range{Start: 3, End: 5}, results[1].Range)
	assert.Equal(t, 3, results[1].Report.Scanned)
	assert.Equal(t, 6, results[2].Report.Scanned)
	assert.Equal(t, 3, results[3].Report.Scanned)
}

func TestEngine_YearWithoutZone(t *testing.T) {
	e := newEngine(t, testutil.ResaleSample())
	q, err := NewQuery(2019, 1, "BEDOK")
	require.NoError(t, err)

	for _, st := range []Strategy{StrategyZM, StrategyZMSS} {
		res, err := e.Run(context.Background(), st, q)
		require.NoError(t, err)
		assert.True(t, res.NoZone)
		assert.Zero(t, res.Report.Scanned)
		assert.True(t, res.Stats.Empty())
	}

	res, err := e.Run(context.Background(), StrategyNormal, q)
	require.NoError(t, err)
	assert.False(t, res.NoZone)
	assert.Equal(t, 6, res.Report.Scanned)
	assert.True(t, res.Stats.Empty())
}

func TestEngine_UnsortedFallsBackToFullScan(t *testing.T) {
	d := testutil.Dataset{
		Month: []string{"2022-01", "2021-01", "2022-02"},
		Town:  []string{"BEDOK", "BEDOK", "BEDOK"},
		Area:  []string{"90", "90", "90"},
		Price: []string{"10", "20", "30"},
	}
	e := newEngine(t, d)

	res, err := e.Run(context.Background(), StrategyZMSS, bedok2022(t))
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.True(t, res.Range.IsFull())
	assert.Equal(t, 3, res.Report.Scanned)
	assert.Equal(t, 2, res.Stats.Count)
}

func TestEngine_NilZonesFallsBack(t *testing.T) {
	e := NewEngine(newScanner(t, testutil.ResaleSample()), nil)

	res, err := e.Run(context.Background(), StrategyZM, bedok2022(t))
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, 3, res.Stats.Count)
}

func TestEngine_InvalidQuery(t *testing.T) {
	e := newEngine(t, testutil.ResaleSample())

	_, err := e.Run(context.Background(), StrategyNormal, Query{Year: 22, StartMonth: 1, Town: "BEDOK"})
	assert.Error(t, err)
}

func TestEngine_ScanErrorNamesStrategy(t *testing.T) {
	dir := testutil.WriteDataset(t, testutil.ResaleSample())
	e := NewEngine(NewScanner(offsetsUnbuilt(dir)), nil)

	_, err := e.Run(context.Background(), StrategySS, bedok2022(t))
	require.Error(t, err)
	assert.True(t, column.IsMissingIndex(err))
	assert.True(t, strings.HasPrefix(err.Error(), "ss scan:"))
}
