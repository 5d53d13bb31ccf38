package scan

import (
	"fmt"
	"io"
	"os"

	"github.com/roach88/colscan/internal/column"
	"github.com/roach88/colscan/internal/offsets"
)

// cellFile is an open column file with its offset table.
type cellFile struct {
	f     *os.File
	table *offsets.Table
	size  int64
	buf   []byte
}

func openCells(store *offsets.Store, col column.Name) (*cellFile, error) {
	table, err := store.Table(col)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(store.Dir().Path(col))
	if err != nil {
		return nil, column.NewIOError(col, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, column.NewIOError(col, err)
	}
	return &cellFile{f: f, table: table, size: info.Size()}, nil
}

func (c *cellFile) Close() error {
	return c.f.Close()
}

// At reads the cell of one row with a single positional read at the row's
// indexed offset.
func (c *cellFile) At(row int) (string, error) {
	start, end, err := c.table.Span(row, c.size)
	if err != nil {
		return "", err
	}
	n := int(end - start)
	if cap(c.buf) < n {
		c.buf = make([]byte, n)
	}
	buf := c.buf[:n]
	if _, err := c.f.ReadAt(buf, start); err != nil && err != io.EOF {
		return "", column.NewIOError(c.table.Column(), fmt.Errorf("read row %d: %w", row, err))
	}
	return column.TrimEOL(string(buf)), nil
}

// Lines positions the file at row and returns a buffered sequential reader.
// Row zero is read from the start of the file without consulting the index.
func (c *cellFile) Lines(row int) (*lineReader, error) {
	if row > 0 {
		if err := c.table.SeekTo(c.f, row); err != nil {
			return nil, err
		}
	} else if _, err := c.f.Seek(0, io.SeekStart); err != nil {
		return nil, column.NewIOError(c.table.Column(), err)
	}
	return &lineReader{col: c.table.Column(), lr: column.NewLineReader(c.f)}, nil
}

// lineReader streams cells one line at a time.
type lineReader struct {
	col column.Name
	lr  *column.LineReader
}

// Next returns the next cell. ok is false at end of file.
func (l *lineReader) Next() (cell string, ok bool, err error) {
	cell, ok, err = l.lr.Next()
	if err != nil {
		return "", false, column.NewIOError(l.col, err)
	}
	return cell, ok, nil
}
