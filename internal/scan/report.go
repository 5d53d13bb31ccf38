package scan

import (
	"errors"
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/roach88/colscan/internal/column"
	"github.com/roach88/colscan/internal/stats"
)

// maxAnomalies bounds how many skipped-row errors a report keeps.
const maxAnomalies = 32

// Algorithm names a scan algorithm.
type Algorithm string

const (
	AlgorithmMultiStage Algorithm = "multi-stage"
	AlgorithmShared     Algorithm = "shared"
)

// Stage names reported by the multi-stage scan.
const (
	StageMonth = "month"
	StageTown  = "town"
	StageArea  = "area"
	StageFetch = "fetch"
)

// Stage is the survivor set after one multi-stage step.
type Stage struct {
	Name      string          `json:"name"`
	Survivors *roaring.Bitmap `json:"-"`
}

// Count returns the number of surviving rows.
func (s Stage) Count() uint64 {
	if s.Survivors == nil {
		return 0
	}
	return s.Survivors.GetCardinality()
}

// Report is the outcome of one scan.
type Report struct {
	Algorithm Algorithm    `json:"algorithm"`
	Range     Range        `json:"range"`
	Pairs     []stats.Pair `json:"-"`

	// Stages holds the survivor set of every multi-stage step. Empty for
	// shared scans.
	Stages []Stage `json:"-"`

	// Scanned is the number of rows read by the sequential pass.
	Scanned int `json:"scanned"`

	// Skipped counts rows excluded because a required cell was missing or
	// malformed.
	Skipped int `json:"skipped"`

	// Anomalies holds the first few skipped-row errors for diagnostics.
	Anomalies []*column.Error `json:"-"`
}

func newReport(alg Algorithm, r Range) *Report {
	return &Report{Algorithm: alg, Range: r, Pairs: []stats.Pair{}}
}

// skip records a row-level error. Errors that are not row-level are returned
// so the caller can abort.
func (r *Report) skip(err error) error {
	if !column.IsRowError(err) {
		return err
	}
	r.Skipped++
	var ce *column.Error
	if errors.As(err, &ce) && len(r.Anomalies) < maxAnomalies {
		r.Anomalies = append(r.Anomalies, ce)
	}
	slog.Debug("row skipped", "algorithm", r.Algorithm, "error", err)
	return nil
}

func monthMatch(q Query, v string, row int) (bool, error) {
	if column.IsMissing(v) {
		return false, column.NewAnomalyError(column.Month, row)
	}
	year, month, err := column.ParseMonth(v)
	if err != nil {
		return false, column.NewMalformedError(column.Month, row, err)
	}
	return q.MatchesMonth(year, month), nil
}

func townMatch(q Query, v string, row int) (bool, error) {
	if column.IsMissing(v) {
		return false, column.NewAnomalyError(column.Town, row)
	}
	return q.MatchesTown(v), nil
}

func areaValue(v string, row int) (float64, error) {
	if column.IsMissing(v) {
		return 0, column.NewAnomalyError(column.Area, row)
	}
	a, err := column.ParseNumber(v)
	if err != nil {
		return 0, column.NewMalformedError(column.Area, row, err)
	}
	return a, nil
}

func priceValue(v string, row int) (float64, error) {
	if column.IsMissing(v) {
		return 0, column.NewAnomalyError(column.Price, row)
	}
	p, err := column.ParseNumber(v)
	if err != nil {
		return 0, column.NewMalformedError(column.Price, row, err)
	}
	return p, nil
}
