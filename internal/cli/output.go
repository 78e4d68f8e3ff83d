package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/rowgraph/internal/controller"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation refused (duplicate identity, no table for the label, invalid definitions)
	ExitCommandError = 2 // Command error (bad flags, unreadable config, database unreachable)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	reported bool // already written through an OutputFormatter
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E201", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
// Text output prints data with its String form, one line.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if hint, ok := errorHints[code]; ok {
		fmt.Fprintf(f.Writer, "  hint: %s\n", hint)
	}
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// errorHints suggest a next step for the refusals a graph operation can hit.
var errorHints = map[string]string{
	ErrCodeExists:   "the id is taken in that table; update the element or pick another id",
	ErrCodeNoSchema: "no table is defined for the label; check the definitions with `rowgraph validate`",
	ErrCodeUnmapped: "the property has no column in the label's tables",
	ErrCodeStorage:  "check --database and --dialect",
}

// ErrorDetails is the structured context of a failed graph operation.
type ErrorDetails struct {
	Kind  string `json:"kind,omitempty"`
	ID    any    `json:"id,omitempty"`
	Table string `json:"table,omitempty"`
	Op    string `json:"op,omitempty"`
}

func (d ErrorDetails) String() string {
	var parts []string
	if d.Op != "" {
		parts = append(parts, "op="+d.Op)
	}
	if d.Kind != "" {
		parts = append(parts, "kind="+d.Kind)
	}
	if d.ID != nil {
		parts = append(parts, fmt.Sprintf("id=%v", d.ID))
	}
	if d.Table != "" {
		parts = append(parts, "table="+d.Table)
	}
	return strings.Join(parts, " ")
}

// errorDetails extracts the element and table an operation failed on, or
// nil when err carries neither.
func errorDetails(err error) any {
	var exists *controller.AlreadyExistsError
	var storage *controller.StorageError
	switch {
	case errors.As(err, &exists):
		return ErrorDetails{Kind: exists.Kind.String(), ID: native(exists.ID), Table: exists.Table}
	case errors.As(err, &storage):
		return ErrorDetails{Op: storage.Op, Table: storage.Table}
	}
	return nil
}

// Fail reports err through the formatter and returns the ExitError the
// command should return. The code and exit status follow classifyError;
// duplicates and storage failures carry their element and table as
// details.
func (f *OutputFormatter) Fail(message string, err error) error {
	code, exit := classifyError(err)
	_ = f.Error(code, fmt.Sprintf("%s: %v", message, err), errorDetails(err))
	exitErr := WrapExitError(exit, fmt.Sprintf("%s: %s", code, message), err)
	exitErr.reported = true
	return exitErr
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
