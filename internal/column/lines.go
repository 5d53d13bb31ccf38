package column

import (
	"bufio"
	"errors"
	"io"
)

// LineReader streams the cells of a column file one line at a time. Lines
// of any length are accepted, matching what the offset index records.
type LineReader struct {
	br *bufio.Reader
}

// NewLineReader wraps r in a buffered line reader.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{br: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next cell without its line terminator. ok is false at end
// of input. A final line without a trailing newline is still returned.
func (l *LineReader) Next() (cell string, ok bool, err error) {
	line, err := l.br.ReadString('\n')
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		if line == "" {
			return "", false, nil
		}
	default:
		return "", false, err
	}
	return TrimEOL(line), true, nil
}

// TrimEOL strips a trailing "\n" or "\r\n".
func TrimEOL(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\n' {
		s = s[:n-1]
	}
	if n := len(s); n > 0 && s[n-1] == '\r' {
		s = s[:n-1]
	}
	return s
}
