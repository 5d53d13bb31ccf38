package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/colscan/internal/column"
)

// Dataset is an in-memory column store: one slice of cell values per column,
// all of the same length.
type Dataset struct {
	Month []string `yaml:"month"`
	Town  []string `yaml:"town"`
	Area  []string `yaml:"floor_area_sqm"`
	Price []string `yaml:"resale_price"`
}

// ResaleSample returns the six-row dataset used throughout the tests.
//
// Query (2022, 1, BEDOK) matches rows 3, 4 and 5.
func ResaleSample() Dataset {
	return Dataset{
		Month: []string{"2021-01", "2021-01", "2021-02", "2022-01", "2022-02", "2022-02"},
		Town:  []string{"BEDOK", "BEDOK", "CLEMENTI", "BEDOK", "BEDOK", "BEDOK"},
		Area:  []string{"85", "70", "90", "82", "95", "80"},
		Price: []string{"500000", "300000", "600000", "520000", "700000", "480000"},
	}
}

// Rows returns the row count, or an error when columns differ in length.
func (d Dataset) Rows() (int, error) {
	n := len(d.Month)
	for name, col := range d.columns() {
		if len(col) != n {
			return 0, fmt.Errorf("column %s has %d rows, month has %d", name, len(col), n)
		}
	}
	return n, nil
}

func (d Dataset) columns() map[column.Name][]string {
	return map[column.Name][]string{
		column.Month: d.Month,
		column.Town:  d.Town,
		column.Area:  d.Area,
		column.Price: d.Price,
	}
}

// Write stores the dataset as column files under dir.
func (d Dataset) Write(dir string) (column.Dir, error) {
	if _, err := d.Rows(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create column dir: %w", err)
	}
	cd := column.Dir(dir)
	for name, values := range d.columns() {
		var b strings.Builder
		for _, v := range values {
			b.WriteString(v)
			b.WriteByte('\n')
		}
		if err := os.WriteFile(cd.Path(name), []byte(b.String()), 0644); err != nil {
			return "", fmt.Errorf("write column %s: %w", name, err)
		}
	}
	return cd, nil
}

// WriteDataset writes d into a fresh temp directory and fails the test on
// error.
func WriteDataset(t testing.TB, d Dataset) column.Dir {
	t.Helper()
	dir, err := d.Write(filepath.Join(t.TempDir(), "column_store"))
	if err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return dir
}
