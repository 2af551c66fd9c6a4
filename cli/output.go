package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"todolist/contract"
	"todolist/models"
	"todolist/services"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // operation failed (insert rejected, store error)
	ExitCommandError = 2 // bad input: unknown address, unsupported operation, bad flags
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
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

// providerExitError assigns exit codes to provider failures
func providerExitError(err error) error {
	switch {
	case errors.Is(err, services.ErrUnrecognizedAddress), errors.Is(err, services.ErrNotImplemented):
		return WrapExitError(ExitCommandError, "request rejected", err)
	default:
		return WrapExitError(ExitFailure, "request failed", err)
	}
}

// writeJSON writes v as indented JSON
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeRecordText writes one record per line as key=value pairs, _id first
func writeRecordText(w io.Writer, record models.Record) error {
	keys := make([]string, 0, len(record))
	for k := range record {
		if k != contract.ColumnID {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := record[contract.ColumnID]; ok {
		keys = append([]string{contract.ColumnID}, keys...)
	}

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, record[k])
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, " "))
	return err
}
