// Package report writes scan results as CSV artifacts and renders them as
// text tables.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/roach88/colscan/internal/scan"
	"github.com/roach88/colscan/internal/stats"
)

// Header is the first row of every artifact.
var Header = []string{"Year", "Month", "Town", "Category", "Value"}

// NoResult replaces the category rows when no row matched.
const NoResult = "No result"

// FileName returns the artifact name for one run of a strategy.
func FileName(id string, s scan.Strategy) string {
	return fmt.Sprintf("ScanResult_%s_%s.csv", id, s.Label())
}

// FormatValue renders a statistic with two decimals.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteCSV writes the statistics of q as an artifact.
func WriteCSV(w io.Writer, q scan.Query, st stats.Stats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	year, month := strconv.Itoa(q.Year), strconv.Itoa(q.StartMonth)
	if st.Empty() {
		if err := cw.Write([]string{year, month, q.Town, NoResult}); err != nil {
			return err
		}
	} else {
		for _, c := range st.Categories() {
			if err := cw.Write([]string{year, month, q.Town, c.Name, FormatValue(c.Value)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save writes the artifact of res into dir and returns its path.
func Save(dir, id string, res *scan.Result) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, FileName(id, res.Strategy))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	if err := WriteCSV(f, res.Query, res.Stats); err != nil {
		f.Close()
		return "", fmt.Errorf("write artifact %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close artifact %s: %w", path, err)
	}
	return path, nil
}
