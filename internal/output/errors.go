package output

import (
	"errors"
	"fmt"
)

// Exit codes following sysexits.h convention
const (
	ExitOK          = 0  // Success
	ExitGeneral     = 1  // General error
	ExitUsage       = 2  // Invalid usage / bad arguments
	ExitAuth        = 3  // Authentication failed
	ExitNotFound    = 4  // Secret or key not found
	ExitLocked      = 5  // Store locked, authentication required
	ExitIntegrity   = 6  // Tampered, malformed or unsupported ciphertext
	ExitCanceled    = 7  // Authentication canceled
	ExitKeystore    = 8  // Keystore unavailable or key generation failed
	ExitBusy        = 75 // Another attempt or process holds the resource (EX_TEMPFAIL)
	ExitConfigError = 10 // Configuration error
)

// CLIError represents a structured error with exit code and optional hint
type CLIError struct {
	ExitCode int
	Message  string
	Hint     string
	cause    error
}

// Error implements the error interface
func (e *CLIError) Error() string {
	return e.Message
}

// Unwrap returns the error the CLIError was built from, if any
func (e *CLIError) Unwrap() error {
	return e.cause
}

// NewCLIError creates a new CLIError
func NewCLIError(code int, msg string) *CLIError {
	return &CLIError{
		ExitCode: code,
		Message:  msg,
	}
}

// Wrap creates a CLIError carrying err's message and err as its cause
func Wrap(code int, err error) *CLIError {
	return &CLIError{ExitCode: code, Message: err.Error(), cause: err}
}

// WithHint adds a user-facing hint to the error
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// ExitCode returns the exit code for err: the CLIError's own code, or
// ExitGeneral for anything else
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.ExitCode
	}
	return ExitGeneral
}

// ExitWithError prints the error and its hint via the formatter. The
// caller exits with ExitCode(err).
func ExitWithError(formatter Formatter, err error) {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		formatter.PrintError(cliErr)
		if cliErr.Hint != "" {
			formatter.PrintHint(cliErr.Hint)
		}
		return
	}

	formatter.PrintError(fmt.Errorf("error: %v", err))
}
