package scan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/colscan/internal/stats"
	"github.com/roach88/colscan/internal/zone"
)

// Strategy selects a scan algorithm and whether zone pruning applies.
type Strategy string

const (
	StrategyNormal Strategy = "normal"
	StrategyZM     Strategy = "zm"
	StrategySS     Strategy = "ss"
	StrategyZMSS   Strategy = "zmss"
)

// Strategies lists all strategies in the order they are compared.
var Strategies = []Strategy{StrategyNormal, StrategyZM, StrategySS, StrategyZMSS}

// ParseStrategy converts a name (case-insensitive) to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Strategies {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown strategy %q: must be one of %v", s, Strategies)
}

// Algorithm returns the scan algorithm the strategy uses.
func (s Strategy) Algorithm() Algorithm {
	if s == StrategySS || s == StrategyZMSS {
		return AlgorithmShared
	}
	return AlgorithmMultiStage
}

// Zoned reports whether the strategy restricts the scan to a zone.
func (s Strategy) Zoned() bool {
	return s == StrategyZM || s == StrategyZMSS
}

// Label is the suffix used in result artifact names.
func (s Strategy) Label() string {
	switch s {
	case StrategyNormal:
		return "Normal"
	case StrategyZM:
		return "ZM"
	case StrategySS:
		return "SS"
	case StrategyZMSS:
		return "ZMSS"
	}
	return string(s)
}

// Result is the outcome of running one strategy.
type Result struct {
	Strategy Strategy      `json:"strategy"`
	Query    Query         `json:"query"`
	Range    Range         `json:"range"`
	Report   *Report       `json:"report"`
	Stats    stats.Stats   `json:"stats"`
	Elapsed  time.Duration `json:"elapsed_ns"`

	// NoZone is true when a zoned strategy found no zone for the query year
	// and returned an empty result without scanning.
	NoZone bool `json:"no_zone,omitempty"`

	// Fallback is true when a zoned strategy scanned the whole file because
	// the zone map is not trustworthy.
	Fallback bool `json:"fallback,omitempty"`
}

// Engine runs strategies against a scanner and a zone map.
type Engine struct {
	scanner *Scanner
	zones   *zone.Map
	now     func() time.Time
}

// NewEngine creates an engine. zones may be nil, in which case zoned
// strategies fall back to full scans.
func NewEngine(scanner *Scanner, zones *zone.Map) *Engine {
	return &Engine{scanner: scanner, zones: zones, now: time.Now}
}

// Run executes one strategy. Elapsed covers the scan only, not statistics.
func (e *Engine) Run(ctx context.Context, strategy Strategy, q Query) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	res := &Result{Strategy: strategy, Query: q, Range: FullRange}

	if strategy.Zoned() {
		switch {
		case e.zones == nil || !e.zones.Sorted():
			res.Fallback = true
			slog.Warn("zone map unusable, scanning full range", "strategy", strategy)
		default:
			z, ok := e.zones.Lookup(q.Year)
			if !ok {
				res.NoZone = true
				res.Report = newReport(strategy.Algorithm(), res.Range)
				res.Stats = stats.Compute(nil)
				slog.Debug("no zone for year, skipping scan", "strategy", strategy, "year", q.Year)
				return res, nil
			}
			res.Range = Range{Start: z.Start, End: z.End}
		}
	}

	start := e.now()
	var (
		rep *Report
		err error
	)
	switch strategy.Algorithm() {
	case AlgorithmShared:
		rep, err = e.scanner.Shared(ctx, q, res.Range)
	default:
		rep, err = e.scanner.MultiStage(ctx, q, res.Range)
	}
	res.Elapsed = e.now().Sub(start)
	if err != nil {
		return nil, fmt.Errorf("%s scan: %w", strategy, err)
	}

	res.Report = rep
	res.Stats = stats.Compute(rep.Pairs)
	slog.Debug("scan complete",
		"strategy", strategy,
		"range", res.Range.String(),
		"scanned", rep.Scanned,
		"matched", len(rep.Pairs),
		"skipped", rep.Skipped,
		"elapsed", res.Elapsed)
	return res, nil
}

// RunAll executes the given strategies one after another. Strategies never
// overlap so their elapsed times are comparable.
func (e *Engine) RunAll(ctx context.Context, strategies []Strategy, q Query) ([]*Result, error) {
	results := make([]*Result, 0, len(strategies))
	for _, st := range strategies {
		res, err := e.Run(ctx, st, q)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
