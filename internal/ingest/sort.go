package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/colscan/internal/column"
)

// ErrNoMonthColumn is returned when the source header has no month column.
var ErrNoMonthColumn = errors.New("header has no month column")

// SortByMonth copies src to dst with the data rows stably sorted by month
// ascending. The header is kept as the first line. Rows whose month does not
// parse sort after all others in their original order. It returns the number
// of data rows written.
func SortByMonth(src, dst string) (int, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	r := newReader(in)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return 0, writeRows(dst, nil, nil)
	}
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	monthIdx := indexOf(header, column.Month)
	if monthIdx < 0 {
		return 0, ErrNoMonthColumn
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, rec)
	}

	keys := make([]int, len(rows))
	for i, rec := range rows {
		keys[i] = monthKey(rec, monthIdx)
	}
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]] < keys[idx[b]]
	})
	sorted := make([][]string, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}

	if err := writeRows(dst, header, sorted); err != nil {
		return 0, err
	}
	slog.Info("sorted source by month", "rows", len(sorted), "dst", dst)
	return len(sorted), nil
}

// monthKey orders rows by year then month-of-year. Unparsable months map to
// the largest key.
func monthKey(rec []string, idx int) int {
	if idx >= len(rec) {
		return math.MaxInt
	}
	year, month, err := column.ParseMonth(strings.TrimSpace(rec[idx]))
	if err != nil {
		return math.MaxInt
	}
	return year*12 + month - 1
}

func writeRows(dst string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	w := csv.NewWriter(out)
	if header != nil {
		if err := w.Write(header); err != nil {
			out.Close()
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := w.WriteAll(rows); err != nil {
		out.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	return out.Close()
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false
	return cr
}

// indexOf finds a header column case-insensitively.
func indexOf(header []string, name column.Name) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), string(name)) {
			return i
		}
	}
	return -1
}
