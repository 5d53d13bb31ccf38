package scan

import (
	"context"

	"github.com/roach88/colscan/internal/column"
	"github.com/roach88/colscan/internal/stats"
)

// Shared evaluates q over r in one pass, reading the four column files in
// lock-step.
func (s *Scanner) Shared(ctx context.Context, q Query, r Range) (*Report, error) {
	rep := newReport(AlgorithmShared, r)
	rows, err := s.rows()
	if err != nil {
		return nil, err
	}
	r, ok := r.clamp(rows)
	if !ok {
		return rep, nil
	}

	var readers [4]*lineReader
	for i, col := range column.Queried {
		cells, err := openCells(s.store, col)
		if err != nil {
			return nil, err
		}
		defer cells.Close()

		readers[i], err = cells.Lines(r.Start)
		if err != nil {
			return nil, err
		}
	}
	month, town, area, price := readers[0], readers[1], readers[2], readers[3]

	for row := r.Start; row <= r.End; row++ {
		if (row-r.Start)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		var cells [4]string
		done := false
		for i, lr := range []*lineReader{month, town, area, price} {
			v, ok, err := lr.Next()
			if err != nil {
				return nil, err
			}
			if !ok {
				done = true
				break
			}
			cells[i] = v
		}
		if done {
			break
		}
		rep.Scanned++

		pair, match, err := evalRow(q, cells, row)
		if err != nil {
			if err := rep.skip(err); err != nil {
				return nil, err
			}
			continue
		}
		if match {
			rep.Pairs = append(rep.Pairs, pair)
		}
	}
	return rep, nil
}

// evalRow applies the whole predicate to one row, in the same order the
// multi-stage scan uses, stopping at the first predicate that fails.
func evalRow(q Query, cells [4]string, row int) (stats.Pair, bool, error) {
	ok, err := monthMatch(q, cells[0], row)
	if err != nil || !ok {
		return stats.Pair{}, false, err
	}
	ok, err = townMatch(q, cells[1], row)
	if err != nil || !ok {
		return stats.Pair{}, false, err
	}
	a, err := areaValue(cells[2], row)
	if err != nil || !q.MatchesArea(a) {
		return stats.Pair{}, false, err
	}
	p, err := priceValue(cells[3], row)
	if err != nil {
		return stats.Pair{}, false, err
	}
	return stats.Pair{Price: p, Area: a}, true, nil
}
