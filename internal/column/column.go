package column

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Sentinel marks a missing or invalid cell.
const Sentinel = "na"

// FileExt is the extension used for column files.
const FileExt = ".csv"

// Name identifies a column file.
type Name string

// Columns required by the scan engine.
const (
	Month Name = "month"
	Town  Name = "town"
	Area  Name = "floor_area_sqm"
	Price Name = "resale_price"
)

// Queried lists the columns the scan engine reads, in the order the
// multi-stage scan consults them.
var Queried = []Name{Month, Town, Area, Price}

var (
	monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
	townPattern  = regexp.MustCompile(`^[A-Z /]+$`)

	// Plain decimals only: no NaN, Inf, hex or exponent forms.
	numberPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
)

// Dir is a column store rooted at a directory.
type Dir string

// Path returns the file path of the named column.
func (d Dir) Path(name Name) string {
	return filepath.Join(string(d), string(name)+FileExt)
}

// IsMissing reports whether a cell holds the sentinel.
func IsMissing(v string) bool {
	return v == Sentinel
}

// Valid reports whether v is well-formed for the named column. Columns
// without a rule accept any non-empty value.
func Valid(name Name, v string) bool {
	if v == "" || IsMissing(v) {
		return false
	}
	switch name {
	case Month:
		return monthPattern.MatchString(v)
	case Town:
		return townPattern.MatchString(v)
	case Area, Price:
		_, err := ParseNumber(v)
		return err == nil
	}
	return true
}

// ParseMonth splits a YYYY-MM cell into year and month-of-year.
func ParseMonth(v string) (year, month int, err error) {
	if !monthPattern.MatchString(v) {
		return 0, 0, fmt.Errorf("month %q: want YYYY-MM", v)
	}
	year, _ = strconv.Atoi(v[:4])
	month, _ = strconv.Atoi(v[5:7])
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("month %q: month-of-year out of range", v)
	}
	return year, month, nil
}

// ParseNumber parses a plain decimal cell. The result is always finite.
func ParseNumber(v string) (float64, error) {
	s := strings.TrimSpace(v)
	if !numberPattern.MatchString(s) {
		return 0, fmt.Errorf("number %q: want a plain decimal", v)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("number %q: %w", v, err)
	}
	return f, nil
}

// YearKey returns the 4-digit year prefix of a month cell, or false when the
// cell does not start with four digits.
func YearKey(v string) (string, bool) {
	if len(v) < 4 {
		return "", false
	}
	for i := 0; i < 4; i++ {
		if v[i] < '0' || v[i] > '9' {
			return "", false
		}
	}
	return v[:4], true
}
