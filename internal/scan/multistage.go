package scan

import (
	"context"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/roach88/colscan/internal/column"
	"github.com/roach88/colscan/internal/offsets"
	"github.com/roach88/colscan/internal/stats"
)

// ctxCheckInterval is how many rows a sequential loop reads between context
// checks.
const ctxCheckInterval = 4096

// Scanner runs queries against an indexed column store. It holds no state
// between calls besides the read-only offset store.
type Scanner struct {
	store *offsets.Store
}

// NewScanner creates a scanner over a built offset store.
func NewScanner(store *offsets.Store) *Scanner {
	return &Scanner{store: store}
}

func (s *Scanner) rows() (int, error) {
	if s.store.Rows() < 0 {
		return 0, column.NewMissingIndexError(column.Month, -1)
	}
	return s.store.Rows(), nil
}

// MultiStage evaluates q column by column over r, narrowing the candidate
// rows at each stage.
func (s *Scanner) MultiStage(ctx context.Context, q Query, r Range) (*Report, error) {
	rep := newReport(AlgorithmMultiStage, r)
	rows, err := s.rows()
	if err != nil {
		return nil, err
	}
	r, ok := r.clamp(rows)
	if !ok {
		return rep, nil
	}

	months, err := s.monthStage(ctx, q, r, rep)
	if err != nil {
		return nil, err
	}
	rep.Stages = append(rep.Stages, Stage{Name: StageMonth, Survivors: months})

	towns, err := s.filterStage(ctx, column.Town, months, rep, func(v string, row int) (bool, error) {
		return townMatch(q, v, row)
	})
	if err != nil {
		return nil, err
	}
	rep.Stages = append(rep.Stages, Stage{Name: StageTown, Survivors: towns})

	areas, err := s.filterStage(ctx, column.Area, towns, rep, func(v string, row int) (bool, error) {
		a, err := areaValue(v, row)
		if err != nil {
			return false, err
		}
		return q.MatchesArea(a), nil
	})
	if err != nil {
		return nil, err
	}
	rep.Stages = append(rep.Stages, Stage{Name: StageArea, Survivors: areas})

	fetched, err := s.fetchStage(ctx, areas, rep)
	if err != nil {
		return nil, err
	}
	rep.Stages = append(rep.Stages, Stage{Name: StageFetch, Survivors: fetched})

	return rep, nil
}

// monthStage streams the month column over r and collects matching rows.
func (s *Scanner) monthStage(ctx context.Context, q Query, r Range, rep *Report) (*roaring.Bitmap, error) {
	cells, err := openCells(s.store, column.Month)
	if err != nil {
		return nil, err
	}
	defer cells.Close()

	lines, err := cells.Lines(r.Start)
	if err != nil {
		return nil, err
	}

	survivors := roaring.New()
	for row := r.Start; row <= r.End; row++ {
		if (row-r.Start)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		v, ok, err := lines.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		rep.Scanned++

		match, err := monthMatch(q, v, row)
		if err != nil {
			if err := rep.skip(err); err != nil {
				return nil, err
			}
			continue
		}
		if match {
			survivors.Add(uint32(row))
		}
	}
	return survivors, nil
}

// filterStage reads col only at the candidate rows, one positional read per
// candidate, and keeps the rows keep accepts.
func (s *Scanner) filterStage(ctx context.Context, col column.Name, candidates *roaring.Bitmap, rep *Report, keep func(v string, row int) (bool, error)) (*roaring.Bitmap, error) {
	survivors := roaring.New()
	if candidates.IsEmpty() {
		return survivors, nil
	}

	cells, err := openCells(s.store, col)
	if err != nil {
		return nil, err
	}
	defer cells.Close()

	it := candidates.Iterator()
	for n := 0; it.HasNext(); n++ {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := int(it.Next())
		v, err := cells.At(row)
		if err != nil {
			return nil, err
		}
		ok, err := keep(v, row)
		if err != nil {
			if err := rep.skip(err); err != nil {
				return nil, err
			}
			continue
		}
		if ok {
			survivors.Add(uint32(row))
		}
	}
	return survivors, nil
}

// fetchStage reads price and area for every final survivor.
func (s *Scanner) fetchStage(ctx context.Context, rows *roaring.Bitmap, rep *Report) (*roaring.Bitmap, error) {
	fetched := roaring.New()
	if rows.IsEmpty() {
		return fetched, nil
	}

	prices, err := openCells(s.store, column.Price)
	if err != nil {
		return nil, err
	}
	defer prices.Close()

	areas, err := openCells(s.store, column.Area)
	if err != nil {
		return nil, err
	}
	defer areas.Close()

	it := rows.Iterator()
	for n := 0; it.HasNext(); n++ {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := int(it.Next())

		pv, err := prices.At(row)
		if err != nil {
			return nil, err
		}
		av, err := areas.At(row)
		if err != nil {
			return nil, err
		}

		area, err := areaValue(av, row)
		if err == nil {
			var price float64
			price, err = priceValue(pv, row)
			if err == nil {
				rep.Pairs = append(rep.Pairs, stats.Pair{Price: price, Area: area})
				fetched.Add(uint32(row))
				continue
			}
		}
		if err := rep.skip(err); err != nil {
			return nil, err
		}
	}
	return fetched, nil
}
