// Package zone derives per-year row ranges from the month column.
//
// Ingestion sorts rows by month, so all rows of one calendar year occupy a
// contiguous block of row positions. A zone records the first and last row
// position seen for a year; restricting a scan to that block skips every row
// that cannot match a year predicate.
//
// When the month column is not sorted, a zone is only the span between the
// first and last occurrence of the year and may include other years' rows.
// Build detects this and reports it through Map.Sorted.
package zone

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/colscan/internal/column"
)

// Zone is an inclusive row-position range.
type Zone struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of rows covered.
func (z Zone) Len() int {
	return z.End - z.Start + 1
}

// Contains reports whether row falls inside the zone.
func (z Zone) Contains(row int) bool {
	return row >= z.Start && row <= z.End
}

// Map holds the zones keyed by 4-digit year.
type Map struct {
	zones  map[string]Zone
	sorted bool
}

// Build reads the month column once and records, for every year, the first
// and last row position whose cell starts with that year. A missing file
// yields an empty map.
func Build(monthPath string) (*Map, error) {
	f, err := os.Open(monthPath)
	if errors.Is(err, fs.ErrNotExist) {
		return &Map{zones: map[string]Zone{}, sorted: true}, nil
	}
	if err != nil {
		return nil, column.NewIOError(column.Month, err)
	}
	defer f.Close()

	m, err := build(f)
	if err != nil {
		return nil, column.NewIOError(column.Month, err)
	}
	return m, nil
}

func build(r io.Reader) (*Map, error) {
	m := &Map{zones: make(map[string]Zone), sorted: true}

	lr := column.NewLineReader(r)
	lastYear := ""
	for row := 0; ; row++ {
		cell, more, err := lr.Next()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		year, ok := column.YearKey(cell)
		if !ok {
			continue
		}
		z, seen := m.zones[year]
		if !seen {
			z.Start = row
		}
		z.End = row
		m.zones[year] = z

		if year < lastYear {
			m.sorted = false
		}
		lastYear = year
	}
	return m, nil
}

// Lookup returns the zone for a year.
func (m *Map) Lookup(year int) (Zone, bool) {
	z, ok := m.zones[Key(year)]
	return z, ok
}

// Sorted reports whether years appeared in non-decreasing order. Zones are
// exact partitions only when this is true.
func (m *Map) Sorted() bool {
	return m.sorted
}

// Len returns the number of years in the map.
func (m *Map) Len() int {
	return len(m.zones)
}

// Years returns the year keys in ascending order.
func (m *Map) Years() []string {
	years := make([]string, 0, len(m.zones))
	for y := range m.zones {
		years = append(years, y)
	}
	sort.Strings(years)
	return years
}

// Zones returns a copy of the underlying map.
func (m *Map) Zones() map[string]Zone {
	out := make(map[string]Zone, len(m.zones))
	for k, v := range m.zones {
		out[k] = v
	}
	return out
}

// String renders the map as "2021:[0,2] 2022:[3,5]".
func (m *Map) String() string {
	parts := make([]string, 0, len(m.zones))
	for _, y := range m.Years() {
		z := m.zones[y]
		parts = append(parts, fmt.Sprintf("%s:[%d,%d]", y, z.Start, z.End))
	}
	return strings.Join(parts, " ")
}

// Key formats a year as a zone key.
func Key(year int) string {
	return fmt.Sprintf("%04d", year)
}

// ParseKey converts a zone key back to a year.
func ParseKey(key string) (int, error) {
	if len(key) != 4 {
		return 0, fmt.Errorf("zone key %q: want 4 digits", key)
	}
	return strconv.Atoi(key)
}
