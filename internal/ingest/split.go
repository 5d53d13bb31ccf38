package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/colscan/internal/column"
)

// Summary describes one Split run.
type Summary struct {
	Rows      int                 `json:"rows"`
	Columns   []column.Name       `json:"columns"`
	Empty     map[column.Name]int `json:"empty"`
	Invalid   map[column.Name]int `json:"invalid"`
	Truncated int                 `json:"truncated"`
}

// Anomalies returns the number of cells replaced by the sentinel.
func (s *Summary) Anomalies() int {
	n := 0
	for _, c := range s.Empty {
		n += c
	}
	for _, c := range s.Invalid {
		n += c
	}
	return n
}

// Split writes every header column of src to its own file under dir, one
// cell per line. Missing trailing cells and blank cells become the sentinel;
// so do cells that are not well-formed for a validated column. Cells past the
// last header column are dropped.
func Split(src string, dir column.Dir) (*Summary, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	r := newReader(in)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty file", src)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	names, err := columnNames(header)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(string(dir), 0755); err != nil {
		return nil, fmt.Errorf("create column dir: %w", err)
	}
	sinks, err := openSinks(dir, names)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Columns: names,
		Empty:   map[column.Name]int{},
		Invalid: map[column.Name]int{},
	}
	line := 1
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			sinks.close()
			return nil, fmt.Errorf("read line %d: %w", line+1, err)
		}
		line++
		if len(rec) > len(names) {
			sum.Truncated++
		}
		for i, name := range names {
			v := cleanCell(name, rec, i, line, sum)
			if err := sinks.write(i, v); err != nil {
				sinks.close()
				return nil, column.NewIOError(name, err)
			}
		}
		sum.Rows++
	}

	if err := sinks.close(); err != nil {
		return nil, err
	}
	slog.Info("split source into column files",
		"rows", sum.Rows,
		"columns", len(names),
		"anomalies", sum.Anomalies(),
		"dir", string(dir))
	return sum, nil
}

// cleanCell returns the value stored for cell i of rec, substituting the
// sentinel for blank or invalid cells.
func cleanCell(name column.Name, rec []string, i, line int, sum *Summary) string {
	var v string
	if i < len(rec) {
		v = norm.NFC.String(strings.TrimSpace(rec[i]))
	}
	if v == "" || column.IsMissing(v) {
		sum.Empty[name]++
		slog.Warn("empty cell", "column", name, "line", line)
		return column.Sentinel
	}
	if !column.Valid(name, v) {
		sum.Invalid[name]++
		slog.Warn("invalid cell", "column", name, "line", line, "value", v)
		return column.Sentinel
	}
	return v
}

// columnNames trims and lower-cases the header. Names must be unique and
// usable as file names.
func columnNames(header []string) ([]column.Name, error) {
	names := make([]column.Name, len(header))
	seen := make(map[column.Name]bool, len(header))
	for i, h := range header {
		n := column.Name(strings.ToLower(norm.NFC.String(strings.TrimSpace(h))))
		switch {
		case n == "":
			return nil, fmt.Errorf("header column %d is blank", i+1)
		case strings.ContainsAny(string(n), `/\`):
			return nil, fmt.Errorf("header column %q is not a valid file name", h)
		case seen[n]:
			return nil, fmt.Errorf("header column %q appears twice", h)
		}
		seen[n] = true
		names[i] = n
	}
	return names, nil
}

type sinks struct {
	files   []*os.File
	writers []*bufio.Writer
}

func openSinks(dir column.Dir, names []column.Name) (*sinks, error) {
	s := &sinks{}
	for _, name := range names {
		f, err := os.Create(dir.Path(name))
		if err != nil {
			s.close()
			return nil, column.NewIOError(name, err)
		}
		s.files = append(s.files, f)
		s.writers = append(s.writers, bufio.NewWriter(f))
	}
	return s, nil
}

func (s *sinks) write(i int, v string) error {
	w := s.writers[i]
	if _, err := w.WriteString(v); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

// close flushes and closes every file, returning the first error.
func (s *sinks) close() error {
	var first error
	for i, f := range s.files {
		if err := s.writers[i].Flush(); err != nil && first == nil {
			first = fmt.Errorf("flush %s: %w", f.Name(), err)
		}
		if err := f.Close(); err != nil && first == nil {
			first = fmt.Errorf("close %s: %w", f.Name(), err)
		}
	}
	s.files, s.writers = nil, nil
	return first
}

// EnsureDirs creates each directory that does not exist yet.
func EnsureDirs(dirs ...string) error {
	for _, d := range dirs {
		if _, err := os.Stat(d); err == nil {
			continue
		}
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", d, err)
		}
		slog.Info("created directory", "dir", d)
	}
	return nil
}
