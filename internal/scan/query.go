package scan

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultMinArea is the floor-area threshold of every query.
const DefaultMinArea = 80.0

// Query selects rows by year, a two-month window, town and minimum area.
type Query struct {
	Year       int     `json:"year"`
	StartMonth int     `json:"month"`
	Town       string  `json:"town"`
	MinArea    float64 `json:"min_area"`
}

var upper = cases.Upper(language.Und)

// NewQuery validates the parameters and canonicalizes the town to upper case.
func NewQuery(year, startMonth int, town string) (Query, error) {
	q := Query{
		Year:       year,
		StartMonth: startMonth,
		Town:       upper.String(strings.TrimSpace(town)),
		MinArea:    DefaultMinArea,
	}
	if err := q.Validate(); err != nil {
		return Query{}, err
	}
	return q, nil
}

// Validate checks the query parameters.
func (q Query) Validate() error {
	if q.Year < 1000 || q.Year > 9999 {
		return fmt.Errorf("year %d: want 4 digits", q.Year)
	}
	if q.StartMonth < 1 || q.StartMonth > 12 {
		return fmt.Errorf("month %d: want 1-12", q.StartMonth)
	}
	if q.Town == "" {
		return fmt.Errorf("town is required")
	}
	if q.MinArea < 0 {
		return fmt.Errorf("min area %v: must not be negative", q.MinArea)
	}
	return nil
}

// MatchesMonth reports whether a row's year and month-of-year fall in the
// query window. The window does not wrap: StartMonth 12 matches December only.
func (q Query) MatchesMonth(year, month int) bool {
	return year == q.Year && (month == q.StartMonth || month == q.StartMonth+1)
}

// MatchesTown compares case-insensitively.
func (q Query) MatchesTown(town string) bool {
	return strings.EqualFold(town, q.Town)
}

// MatchesArea reports whether area meets the minimum.
func (q Query) MatchesArea(area float64) bool {
	return area >= q.MinArea
}

// String renders the query as "2022-01/02 BEDOK area>=80".
func (q Query) String() string {
	return fmt.Sprintf("%04d-%02d/%02d %s area>=%g", q.Year, q.StartMonth, q.StartMonth+1, q.Town, q.MinArea)
}

// Range is an inclusive row-position range. An End below zero extends to the
// last row.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FullRange covers every row.
var FullRange = Range{Start: 0, End: -1}

// IsFull reports whether r covers the whole file.
func (r Range) IsFull() bool {
	return r.Start == 0 && r.End < 0
}

// clamp bounds r to a file of n rows. ok is false when no row remains.
func (r Range) clamp(n int) (Range, bool) {
	if r.Start < 0 {
		r.Start = 0
	}
	if r.End < 0 || r.End >= n {
		r.End = n - 1
	}
	return r, r.Start <= r.End
}

func (r Range) String() string {
	if r.IsFull() {
		return "all"
	}
	return fmt.Sprintf("[%d,%d]", r.Start, r.End)
}
