package execcred

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError indicates malformed provider configuration, such as an
// environment-variable entry missing its name or value. It is fatal: the
// plugin process is never started and the error is surfaced immediately.
type ConfigurationError struct {
	// Entry identifies the offending configuration entry.
	Entry string
	// Message describes what is wrong with it.
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("invalid exec credential configuration: %s", e.Message)
	}
	return fmt.Sprintf("invalid exec credential configuration: entry %q: %s", e.Entry, e.Message)
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// ExecErrorKind classifies why a plugin invocation failed.
type ExecErrorKind int

const (
	// ExecStartup means the process could not be started at all
	// (executable not found, permission denied).
	ExecStartup ExecErrorKind = iota
	// ExecTimeout means the process did not exit within the execution
	// timeout and was terminated.
	ExecTimeout
	// ExecExit means the process exited with a non-zero status.
	ExecExit
	// ExecCanceled means the caller canceled the invocation.
	ExecCanceled
)

// String returns a human-readable name for the kind.
func (k ExecErrorKind) String() string {
	switch k {
	case ExecStartup:
		return "startup failure"
	case ExecTimeout:
		return "timeout"
	case ExecExit:
		return "non-zero exit"
	case ExecCanceled:
		return "canceled"
	default:
		return "execution failure"
	}
}

// ExecutionError indicates that invoking the plugin failed: the process
// could not be started, timed out, exited non-zero, or was canceled.
// The cached credential (if any) is left untouched, so the caller may retry
// on the next credential request.
type ExecutionError struct {
	// Command is the plugin executable that was invoked.
	Command string
	// Kind classifies the failure.
	Kind ExecErrorKind
	// ExitCode is the process exit status for ExecExit, -1 otherwise.
	ExitCode int
	// Stderr is the captured stderr tail, included so operators can debug
	// the plugin rather than this client.
	Stderr string
	// Cause is the underlying error, if any.
	Cause error
}

func (e *ExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "exec plugin %s: %s", e.Command, e.Kind)
	if e.Kind == ExecExit {
		fmt.Fprintf(&b, " (exit code %d)", e.ExitCode)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, "\nstderr: %s", strings.TrimRight(e.Stderr, "\n"))
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// IsExecutionError reports whether err is (or wraps) an ExecutionError.
func IsExecutionError(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee)
}

// ValidationError indicates that the plugin produced output this client
// cannot accept: undecodable JSON, a mismatched schema version, or a status
// without any usable credential. Non-fatal to cache state.
type ValidationError struct {
	// Reason is a short classification ("malformed output",
	// "version mismatch", "missing token/certificate fields").
	Reason string
	// Expected and Actual carry the schema versions for version mismatches.
	Expected string
	Actual   string
	// Cause is the underlying decode error, if any.
	Cause error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid exec plugin response: %s", e.Reason)
	if e.Expected != "" || e.Actual != "" {
		msg += fmt.Sprintf(" (expected apiVersion %q, got %q)", e.Expected, e.Actual)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
