package scan

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/colscan/internal/column"
	"github.com/roach88/colscan/internal/offsets"
	"github.com/roach88/colscan/internal/stats"
	"github.com/roach88/colscan/internal/testutil"
	"github.com/roach88/colscan/internal/zone"
)

func newScanner(t *testing.T, d testutil.Dataset) *Scanner {
	t.Helper()
	s, _ := newScannerWithZones(t, d)
	return s
}

func newScannerWithZones(t *testing.T, d testutil.Dataset) (*Scanner, *zone.Map) {
	t.Helper()
	dir := testutil.WriteDataset(t, d)
	store := offsets.NewStore(dir, offsets.WithSidecar(false))
	require.NoError(t, store.Build(context.Background()))
	zones, err := zone.Build(dir.Path(column.Month))
	require.NoError(t, err)
	return NewScanner(store), zones
}

// samplePairs are rows 3, 4 and 5 of the resale sample.
var samplePairs = []stats.Pair{
	{Price: 520000, Area: 82},
	{Price: 700000, Area: 95},
	{Price: 480000, Area: 80},
}

func bedok2022(t *testing.T) Query {
	t.Helper()
	q, err := NewQuery(2022, 1, "bedok")
	require.NoError(t, err)
	return q
}

func TestMultiStage_ResaleSample(t *testing.T) {
	s := newScanner(t, testutil.ResaleSample())

	rep, err := s.MultiStage(context.Background(), bedok2022(t), FullRange)
	require.NoError(t, err)

	assert.Equal(t, samplePairs, rep.Pairs)
	assert.Equal(t, 6, rep.Scanned)
	assert.Zero(t, rep.Skipped)

	require.Len(t, rep.Stages, 4)
	assert.Equal(t, []uint32{3, 4, 5}, rep.Stages[0].Survivors.ToArray())
	assert.Equal(t, []uint32{3, 4, 5}, rep.Stages[1].Survivors.ToArray())
	assert.Equal(t, []uint32{3, 4, 5}, rep.Stages[2].Survivors.ToArray())
	assert.Equal(t, []uint32{3, 4, 5}, rep.Stages[3].Survivors.ToArray())
}

func TestShared_ResaleSample(t *testing.T) {
	s := newScanner(t, testutil.ResaleSample())

	rep, err := s.Shared(context.Background(), bedok2022(t), FullRange)
	require.NoError(t, err)

	assert.Equal(t, samplePairs, rep.Pairs)
	assert.Equal(t, 6, rep.Scanned)
	assert.Empty(t, rep.Stages)
}

func TestScan_RangeRestricted(t *testing.T) {
	s := newScanner(t, testutil.ResaleSample())
	q := bedok2022(t)
	zone := Range{Start: 3, End: 5}

	for _, alg := range []func(context.Context, Query, Range) (*Report, error){s.MultiStage, s.Shared} {
		rep, err := alg(context.Background(), q, zone)
		require.NoError(t, err)
		assert.Equal(t, 3, rep.Scanned)
		assert.Equal(t, samplePairs, rep.Pairs)
	}
}

func TestScan_RangeBeyondFile(t *testing.T) {
	s := newScanner(t, testutil.ResaleSample())
	q := bedok2022(t)

	rep, err := s.MultiStage(context.Background(), q, Range{Start: 10, End: 20})
	require.NoError(t, err)
	assert.Zero(t, rep.Scanned)
	assert.Empty(t, rep.Pairs)

	rep, err = s.Shared(context.Background(), q, Range{Start: 4, End: 100})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Scanned)
	assert.Equal(t, samplePairs[1:], rep.Pairs)

	rep, err = s.MultiStage(context.Background(), q, Range{Start: 4, End: 100})
	require.NoError(t, err)
	assert.Equal(t, samplePairs[1:], rep.Pairs)
}

func TestScan_NonFiniteNumbersAreMalformed(t *testing.T) {
	for _, bad := range []string{"NaN", "Inf", "0x1p4"} {
		t.Run(bad, func(t *testing.T) {
			d := testutil.ResaleSample()
			d.Price[3] = bad
			s := newScanner(t, d)

			for name, run := range map[string]func(context.Context, Query, Range) (*Report, error){
				"multistage": s.MultiStage,
				"shared":     s.Shared,
			} {
				rep, err := run(context.Background(), bedok2022(t), FullRange)
				require.NoError(t, err, name)
				assert.Equal(t, samplePairs[1:], rep.Pairs, name)
				assert.Equal(t, 1, rep.Skipped, name)
				require.Len(t, rep.Anomalies, 1, name)
				assert.Equal(t, column.ErrCodeMalformedValue, rep.Anomalies[0].Code, name)

				st := stats.Compute(rep.Pairs)
				assert.Equal(t, 480000.0, st.MinPrice, name)
				assert.Equal(t, 590000.0, st.MeanPrice, name)
			}
		})
	}
}

func TestScan_LongCell(t *testing.T) {
	d := testutil.ResaleSample()
	d.Town[2] = strings.Repeat("X", 2<<20)
	s := newScanner(t, d)

	rep, err := s.Shared(context.Background(), bedok2022(t), FullRange)
	require.NoError(t, err)
	assert.Equal(t, samplePairs, rep.Pairs)

	rep, err = s.MultiStage(context.Background(), bedok2022(t), FullRange)
	require.NoError(t, err)
	assert.Equal(t, samplePairs, rep.Pairs)
}

func TestScan_DecemberDoesNotWrap(t *testing.T) {
	d := testutil.Dataset{
		Month: []string{"2021-12", "2022-01", "2022-12", "2023-01"},
		Town:  []string{"BEDOK", "BEDOK", "BEDOK", "BEDOK"},
		Area:  []string{"90", "90", "90", "90"},
		Price: []string{"1", "2", "3", "4"},
	}
	s := newScanner(t, d)
	q, err := NewQuery(2022, 12, "BEDOK")
	require.NoError(t, err)

	rep, err := s.MultiStage(context.Background(), q, FullRange)
	require.NoError(t, err)
	assert.Equal(t, []stats.Pair{{Price: 3, Area: 90}}, rep.Pairs)
}

func TestScan_SkipsAnomaliesEqually(t *testing.T) {
	d := testutil.Dataset{
		Month: []string{"2022-01", "na", "2022-01", "2022-02", "2022-01", "2022-13", "2022-02"},
		Town:  []string{"BEDOK", "BEDOK", "na", "BEDOK", "BEDOK", "BEDOK", "BEDOK"},
		Area:  []string{"90", "90", "90", "big", "85", "90", "99"},
		Price: []string{"100", "200", "300", "400", "na", "600", "700"},
	}
	s := newScanner(t, d)
	q := bedok2022(t)

	ms, err := s.MultiStage(context.Background(), q, FullRange)
	require.NoError(t, err)
	sh, err := s.Shared(context.Background(), q, FullRange)
	require.NoError(t, err)

	want := []stats.Pair{{Price: 100, Area: 90}, {Price: 700, Area: 99}}
	assert.Equal(t, want, ms.Pairs)
	assert.Equal(t, want, sh.Pairs)

	// month "na", month "2022-13", town "na", area "big", price "na"
	assert.Equal(t, 5, ms.Skipped)
	assert.Equal(t, ms.Skipped, sh.Skipped)
	require.Len(t, ms.Anomalies, 5)
	assert.Equal(t, column.ErrCodeDataAnomaly, ms.Anomalies[0].Code)
	assert.Equal(t, 1, ms.Anomalies[0].Row)
}

func TestScan_MissingIndex(t *testing.T) {
	dir := testutil.WriteDataset(t, testutil.ResaleSample())
	s := NewScanner(offsets.NewStore(dir))

	_, err := s.MultiStage(context.Background(), bedok2022(t), FullRange)
	assert.True(t, column.IsMissingIndex(err))

	_, err = s.Shared(context.Background(), bedok2022(t), FullRange)
	assert.True(t, column.IsMissingIndex(err))
}

func TestScan_ColumnRemovedAfterIndexing(t *testing.T) {
	dir := testutil.WriteDataset(t, testutil.ResaleSample())
	store := offsets.NewStore(dir, offsets.WithSidecar(false))
	require.NoError(t, store.Build(context.Background()))
	require.NoError(t, os.Remove(dir.Path(column.Price)))
	s := NewScanner(store)

	_, err := s.MultiStage(context.Background(), bedok2022(t), FullRange)
	assert.True(t, column.IsIOFailure(err))

	_, err = s.Shared(context.Background(), bedok2022(t), FullRange)
	assert.True(t, column.IsIOFailure(err))
}

func TestScan_CancelledContext(t *testing.T) {
	s := newScanner(t, testutil.ResaleSample())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.MultiStage(ctx, bedok2022(t), FullRange)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.Shared(ctx, bedok2022(t), FullRange)
	assert.ErrorIs(t, err, context.Canceled)
}

// randomDataset builds a month-sorted dataset with sprinkled anomalies.
func randomDataset(r *rand.Rand, n int) testutil.Dataset {
	towns := []string{"BEDOK", "CLEMENTI", "YISHUN"}
	var d testutil.Dataset
	year, month := 2020, 1
	for i := 0; i < n; i++ {
		if r.Intn(4) == 0 {
			month++
			if month > 12 {
				month = 1
				year++
			}
		}
		d.Month = append(d.Month, fmt.Sprintf("%04d-%02d", year, month))
		d.Town = append(d.Town, towns[r.Intn(len(towns))])
		d.Area = append(d.Area, fmt.Sprintf("%d", 60+r.Intn(50)))
		d.Price = append(d.Price, fmt.Sprintf("%d", 200000+r.Intn(500000)))

		switch r.Intn(20) {
		case 0:
			d.Town[i] = column.Sentinel
		case 1:
			d.Area[i] = column.Sentinel
		case 2:
			d.Price[i] = "abc"
		}
	}
	return d
}

func TestScan_AlgorithmsAgree(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 10; trial++ {
		d := randomDataset(r, 200+r.Intn(300))
		s, zones := newScannerWithZones(t, d)
		require.True(t, zones.Sorted())

		for _, year := range []int{2020, 2021, 2022} {
			for _, month := range []int{1, 6, 12} {
				q, err := NewQuery(year, month, "BEDOK")
				require.NoError(t, err)

				ms, err := s.MultiStage(context.Background(), q, FullRange)
				require.NoError(t, err)
				sh, err := s.Shared(context.Background(), q, FullRange)
				require.NoError(t, err)

				assert.Equal(t, ms.Pairs, sh.Pairs, "trial %d %s", trial, q)
				assert.Equal(t, ms.Skipped, sh.Skipped, "trial %d %s", trial, q)
				assert.Equal(t, stats.Compute(ms.Pairs), stats.Compute(sh.Pairs))

				z, ok := zones.Lookup(year)
				if !ok {
					assert.Empty(t, ms.Pairs, "trial %d %s", trial, q)
					continue
				}
				zr := Range{Start: z.Start, End: z.End}
				zms, err := s.MultiStage(context.Background(), q, zr)
				require.NoError(t, err)
				zsh, err := s.Shared(context.Background(), q, zr)
				require.NoError(t, err)

				assert.Equal(t, zms.Pairs, zsh.Pairs, "trial %d %s zoned", trial, q)
				assert.Equal(t, zms.Skipped, zsh.Skipped, "trial %d %s zoned", trial, q)
				assert.Equal(t, ms.Pairs, zms.Pairs, "trial %d %s zoned vs full", trial, q)
				assert.Equal(t, z.Len(), zsh.Scanned, "trial %d %s", trial, q)
			}
		}
	}
}

func TestMultiStage_SurvivorsNarrow(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	s := newScanner(t, randomDataset(r, 500))
	q, err := NewQuery(2020, 3, "clementi")
	require.NoError(t, err)

	rep, err := s.MultiStage(context.Background(), q, FullRange)
	require.NoError(t, err)

	for i := 1; i < len(rep.Stages); i++ {
		prev, cur := rep.Stages[i-1].Survivors, rep.Stages[i].Survivors
		assert.True(t, roaring.AndNot(cur, prev).IsEmpty(),
			"stage %s must be a subset of %s", rep.Stages[i].Name, rep.Stages[i-1].Name)
		assert.LessOrEqual(t, rep.Stages[i].Count(), rep.Stages[i-1].Count())
	}
	assert.Equal(t, int(rep.Stages[len(rep.Stages)-1].Count()), len(rep.Pairs))
}
