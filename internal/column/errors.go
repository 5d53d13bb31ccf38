package column

import (
	"errors"
	"fmt"
)

// Error describes a failure while indexing or scanning a column store.
//
// Error includes structured fields so callers can decide whether the failure
// aborts the query (IO failures, missing indexes) or only the offending row
// (anomalies, malformed values).
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Column is the column being read, if any.
	Column Name

	// Row is the row position, or -1 when the failure is not row-specific.
	Row int

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes column store errors.
type ErrorCode string

const (
	// ErrCodeIOFailure indicates a column file could not be opened or read.
	ErrCodeIOFailure ErrorCode = "IO_FAILURE"

	// ErrCodeMissingIndex indicates an offset table was requested for a
	// column (or row) that was never indexed.
	ErrCodeMissingIndex ErrorCode = "MISSING_INDEX"

	// ErrCodeDataAnomaly indicates a required cell holds the sentinel.
	ErrCodeDataAnomaly ErrorCode = "DATA_ANOMALY"

	// ErrCodeMalformedValue indicates a cell is not well-formed for its column.
	ErrCodeMalformedValue ErrorCode = "MALFORMED_VALUE"

	// ErrCodeMisaligned indicates column files disagree on the row count.
	ErrCodeMisaligned ErrorCode = "MISALIGNED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Column != "" {
		msg += fmt.Sprintf(" (column=%s", e.Column)
		if e.Row >= 0 {
			msg += fmt.Sprintf(", row=%d", e.Row)
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewIOError wraps an I/O failure on a column file.
func NewIOError(col Name, err error) *Error {
	return &Error{Code: ErrCodeIOFailure, Column: col, Row: -1, Err: err}
}

// NewMissingIndexError reports a column or row with no offset entry.
func NewMissingIndexError(col Name, row int) *Error {
	return &Error{Code: ErrCodeMissingIndex, Column: col, Row: row, Err: errors.New("no offset index entry")}
}

// NewAnomalyError reports a sentinel cell at a row the predicate needed.
func NewAnomalyError(col Name, row int) *Error {
	return &Error{Code: ErrCodeDataAnomaly, Column: col, Row: row, Err: errors.New("missing value")}
}

// NewMalformedError reports a cell that failed to parse.
func NewMalformedError(col Name, row int, err error) *Error {
	return &Error{Code: ErrCodeMalformedValue, Column: col, Row: row, Err: err}
}

func hasCode(err error, code ErrorCode) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsIOFailure returns true if err is an IO failure. Uses errors.As to handle
// wrapped errors.
func IsIOFailure(err error) bool { return hasCode(err, ErrCodeIOFailure) }

// IsMissingIndex returns true if err is a missing index error.
func IsMissingIndex(err error) bool { return hasCode(err, ErrCodeMissingIndex) }

// IsMisaligned returns true if err reports column files of different lengths.
func IsMisaligned(err error) bool { return hasCode(err, ErrCodeMisaligned) }

// IsRowError returns true for failures that only affect a single row: data
// anomalies and malformed values.
func IsRowError(err error) bool {
	return hasCode(err, ErrCodeDataAnomaly) || hasCode(err, ErrCodeMalformedValue)
}
