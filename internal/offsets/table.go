package offsets

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/roach88/colscan/internal/column"
)

const readBufferSize = 64 * 1024

// Table maps row positions of one column file to byte offsets.
// Invariant: offsets[i] < offsets[i+1].
type Table struct {
	column  column.Name
	offsets []int64
}

// Build scans path once, recording the byte offset of each line start before
// consuming the line. A final line without a trailing newline still counts.
func Build(col column.Name, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, column.NewIOError(col, err)
	}
	defer f.Close()

	offsets, err := scanOffsets(f)
	if err != nil {
		return nil, column.NewIOError(col, err)
	}
	return &Table{column: col, offsets: offsets}, nil
}

func scanOffsets(r io.Reader) ([]int64, error) {
	br := bufio.NewReaderSize(r, readBufferSize)
	offsets := make([]int64, 0, 1024)

	var pos int64
	inLine := false
	for {
		chunk, err := br.ReadSlice('\n')
		if len(chunk) > 0 && !inLine {
			offsets = append(offsets, pos)
			inLine = true
		}
		pos += int64(len(chunk))

		switch {
		case err == nil:
			inLine = false
		case errors.Is(err, bufio.ErrBufferFull):
			// Line longer than the buffer; keep consuming it.
		case errors.Is(err, io.EOF):
			return offsets, nil
		default:
			return nil, err
		}
	}
}

// Column returns the column this table indexes.
func (t *Table) Column() column.Name {
	return t.column
}

// Len returns the number of rows in the column file.
func (t *Table) Len() int {
	return len(t.offsets)
}

// Offset returns the byte offset of row.
func (t *Table) Offset(row int) (int64, error) {
	if row < 0 || row >= len(t.offsets) {
		return 0, column.NewMissingIndexError(t.column, row)
	}
	return t.offsets[row], nil
}

// SeekTo positions f at the start of row.
func (t *Table) SeekTo(f io.Seeker, row int) error {
	off, err := t.Offset(row)
	if err != nil {
		return err
	}
	if _, err := f.Seek(off, io.SeekStart); err != nil {
		return column.NewIOError(t.column, fmt.Errorf("seek row %d: %w", row, err))
	}
	return nil
}

// Span returns the byte range [start, end) of row, where size is the length
// of the column file. The range includes the line terminator, if any.
func (t *Table) Span(row int, size int64) (int64, int64, error) {
	start, err := t.Offset(row)
	if err != nil {
		return 0, 0, err
	}
	end := size
	if row+1 < len(t.offsets) {
		end = t.offsets[row+1]
	}
	return start, end, nil
}
