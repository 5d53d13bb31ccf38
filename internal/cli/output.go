package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/colscan/internal/column"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // a scan, ingest or scenario failed
	ExitCommandError = 2 // bad flags, config or identifier
)

// Codes carried by JSON error responses.
const (
	CodeCommand = "E001" // invalid arguments or config
	CodeIO      = "E002" // column file could not be read
	CodeIndex   = "E003" // offset index missing or misaligned
	CodeScan    = "E004" // any other scan failure
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError wrapping err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the code of the outermost ExitError in err's chain,
// or ExitFailure when there is none.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// errorCode classifies err for JSON responses. Column errors win over the
// exit code so an unreadable file reports E002 whatever the command.
func errorCode(err error) string {
	var exitErr *ExitError
	switch {
	case column.IsIOFailure(err):
		return CodeIO
	case column.IsMissingIndex(err), column.IsMisaligned(err):
		return CodeIndex
	case errors.As(err, &exitErr) && exitErr.Code == ExitCommandError:
		return CodeCommand
	}
	return CodeScan
}

// OutputFormatter writes command results as text or as JSON envelopes.
// Diagnostics go to ErrWriter so JSON on Writer stays parseable.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error part of a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success writes data, as an "ok" envelope in JSON mode or with Println
// otherwise.
func (f *OutputFormatter) Success(data any) error {
	if f.Format != "json" {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
}

// Error writes an error report. Text mode shows details only when verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail returns err as an ExitError with exitCode. In JSON mode it also
// writes the error envelope; in text mode main prints the returned error.
func (f *OutputFormatter) Fail(exitCode int, message string, err error) error {
	exitErr := WrapExitError(exitCode, message, err)
	if f.Format == "json" {
		_ = f.Error(errorCode(exitErr), exitErr.Error(), nil)
	}
	return exitErr
}

// VerboseLog prints a diagnostic line to Diag when verbose is on.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.Diag(), format+"\n", args...)
	}
}

// Diag returns the diagnostic writer: ErrWriter, or Writer when unset.
func (f *OutputFormatter) Diag() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
