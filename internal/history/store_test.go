package history

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/colscan/internal/scan"
	"github.com/roach88/colscan/internal/stats"
	"github.com/roach88/colscan/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(strategy scan.Strategy) *scan.Result {
	pairs := []stats.Pair{{Price: 520000, Area: 82}, {Price: 480000, Area: 80}}
	return &scan.Result{
		Strategy: strategy,
		Query:    scan.Query{Year: 2022, StartMonth: 1, Town: "BEDOK", MinArea: 80},
		Range:    scan.Range{Start: 3, End: 5},
		Report:   &scan.Report{Scanned: 3, Skipped: 1, Pairs: pairs},
		Stats:    stats.Compute(pairs),
		Elapsed:  1234 * time.Microsecond,
	}
}

func TestOpen_AppliesPragmasAndMigrations(t *testing.T) {
	s := openTestStore(t)

	mode, err := s.journalMode()
	require.NoError(t, err)
	assert.Equal(t, "wal", mode)

	v, err := s.schemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, v)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestRecordAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	clock := testutil.NewStepClock()

	run := NewRun("run-0001", "U2212345E", sampleResult(scan.StrategyZM), clock.Now())
	require.NoError(t, s.Record(ctx, run))

	got, err := s.Get(ctx, "run-0001")
	require.NoError(t, err)
	assert.Equal(t, run, got)
	assert.Equal(t, 2, got.Stats.Count)
}

func TestRecord_DuplicateIsNoop(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	run := NewRun("run-0001", "", sampleResult(scan.StrategySS), time.Unix(0, 0))

	require.NoError(t, s.Record(ctx, run))
	require.NoError(t, s.Record(ctx, run))

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestGet_Missing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestList_OrderAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ids := testutil.NewFixedIDGenerator("run")
	clock := testutil.NewStepClock()

	for _, st := range scan.Strategies {
		require.NoError(t, s.Record(ctx, NewRun(ids.Generate(), "A1234567B", sampleResult(st), clock.Now())))
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i, st := range scan.Strategies {
		assert.Equal(t, st, all[i].Strategy)
	}

	last, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, scan.StrategySS, last[0].Strategy)
	assert.Equal(t, scan.StrategyZMSS, last[1].Strategy)

	byLabel, err := s.ListByLabel(ctx, "A1234567B")
	require.NoError(t, err)
	assert.Len(t, byLabel, 4)

	none, err := s.ListByLabel(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUUIDv7Generator(t *testing.T) {
	var g IDGenerator = UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.NotEqual(t, a, b)

	u, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), u.Version())
}
