package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/colscan/internal/scan"
	"github.com/roach88/colscan/internal/stats"
)

// Run is one recorded strategy execution.
type Run struct {
	ID        string        `json:"id"`
	Label     string        `json:"label,omitempty"`
	Strategy  scan.Strategy `json:"strategy"`
	Year      int           `json:"year"`
	Month     int           `json:"month"`
	Town      string        `json:"town"`
	Range     scan.Range    `json:"range"`
	Scanned   int           `json:"scanned"`
	Matched   int           `json:"matched"`
	Skipped   int           `json:"skipped"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Stats     stats.Stats   `json:"stats"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewRun builds a record from a scan result. label is the identifier the
// query was decoded from, if any.
func NewRun(id, label string, res *scan.Result, now time.Time) Run {
	r := Run{
		ID:        id,
		Label:     label,
		Strategy:  res.Strategy,
		Year:      res.Query.Year,
		Month:     res.Query.StartMonth,
		Town:      res.Query.Town,
		Range:     res.Range,
		Elapsed:   res.Elapsed,
		Stats:     res.Stats,
		CreatedAt: now.UTC(),
	}
	if res.Report != nil {
		r.Scanned = res.Report.Scanned
		r.Matched = len(res.Report.Pairs)
		r.Skipped = res.Report.Skipped
	}
	return r
}

// Record inserts a run. Recording the same ID twice is a no-op.
func (s *Store) Record(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, label, strategy, year, month, town, range_start, range_end,
		 scanned, matched, skipped, elapsed_ns,
		 min_price, mean_price, stddev_price, min_price_sqm, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID, r.Label, string(r.Strategy), r.Year, r.Month, r.Town, r.Range.Start, r.Range.End,
		r.Scanned, r.Matched, r.Skipped, int64(r.Elapsed),
		r.Stats.MinPrice, r.Stats.MeanPrice, r.Stats.StdDevPrice, r.Stats.MinPricePerSqm,
		r.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

const selectRuns = `
	SELECT id, label, strategy, year, month, town, range_start, range_end,
	       scanned, matched, skipped, elapsed_ns,
	       min_price, mean_price, stddev_price, min_price_sqm, created_at
	FROM runs`

// List returns the most recent runs, oldest first. A limit of zero or less
// returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := selectRuns + ` ORDER BY created_at ASC, id COLLATE BINARY ASC`
	args := []any{}
	if limit > 0 {
		query = `SELECT * FROM (` + selectRuns + `
			ORDER BY created_at DESC, id COLLATE BINARY DESC LIMIT ?
		) ORDER BY created_at ASC, id COLLATE BINARY ASC`
		args = append(args, limit)
	}
	return s.queryRuns(ctx, query, args...)
}

// ListByLabel returns every run recorded for one identifier, oldest first.
func (s *Store) ListByLabel(ctx context.Context, label string) ([]Run, error) {
	return s.queryRuns(ctx, selectRuns+`
		WHERE label = ?
		ORDER BY created_at ASC, id COLLATE BINARY ASC`, label)
}

// Get returns the run with the given ID, or sql.ErrNoRows.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	r, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return r, nil
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r        Run
		strategy string
		elapsed  int64
		created  int64
	)
	err := row.Scan(
		&r.ID, &r.Label, &strategy, &r.Year, &r.Month, &r.Town, &r.Range.Start, &r.Range.End,
		&r.Scanned, &r.Matched, &r.Skipped, &elapsed,
		&r.Stats.MinPrice, &r.Stats.MeanPrice, &r.Stats.StdDevPrice, &r.Stats.MinPricePerSqm,
		&created,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	r.Strategy = scan.Strategy(strategy)
	r.Elapsed = time.Duration(elapsed)
	r.CreatedAt = time.Unix(0, created).UTC()
	r.Stats.Count = r.Matched
	return r, nil
}
