package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/roach88/exprsql/internal/catalog"
	"github.com/roach88/exprsql/internal/sqlerr"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The expression failed to build, render or run
	ExitCommandError = 2 // Command error (missing file, bad config, malformed document)
)

// Error codes for failures outside the expression engine. Engine failures
// report their sqlerr code instead.
const (
	ErrCodeGeneric  = "E001" // Generic/unknown error
	ErrCodeNotFound = "E005" // Path not found
	ErrCodeConfig   = "E008" // Config file invalid
	ErrCodeCatalog  = "E009" // Catalog failed to load
	ErrCodeDocument = "E010" // Expression document malformed
	ErrCodeProbe    = "E011" // Probe connection failed
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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
	Code    string `json:"code"`              // sqlerr code or "E001", "E005", ...
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
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
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns the ExitError the command should return.
func (f *OutputFormatter) Fail(exitCode int, err error) error {
	e := describeError(err)
	_ = f.Error(e.Code, e.Message, e.Details)
	return WrapExitError(exitCode, e.Code, err)
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
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// describeError maps err to its CLI error code and details.
func describeError(err error) *CLIError {
	var se *sqlerr.Error
	if errors.As(err, &se) {
		details := map[string]string{"category": string(se.Category())}
		for k, v := range map[string]string{
			"operator": se.Operator,
			"operand":  se.Operand,
			"function": se.Function,
			"dialect":  se.Dialect,
			"expected": se.Expected,
			"actual":   se.Actual,
		} {
			if v != "" {
				details[k] = v
			}
		}
		for k, v := range se.Details {
			details[k] = v
		}
		return &CLIError{Code: string(se.Code), Message: err.Error(), Details: details}
	}

	var le *catalog.LoadError
	if errors.As(err, &le) {
		details := map[string]any{"field": le.Field}
		if le.Pos.IsValid() {
			details["line"] = le.Pos.Line()
		}
		return &CLIError{Code: ErrCodeCatalog, Message: err.Error(), Details: details}
	}

	var ce *codedError
	if errors.As(err, &ce) {
		return &CLIError{Code: ce.code, Message: err.Error()}
	}

	if errors.Is(err, fs.ErrNotExist) {
		return &CLIError{Code: ErrCodeNotFound, Message: err.Error()}
	}
	return &CLIError{Code: ErrCodeGeneric, Message: err.Error()}
}

// codedError tags a plain error with a CLI error code.
type codedError struct {
	code string
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func withCode(code string, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}
