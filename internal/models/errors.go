package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorClass determines how the retry controller dispatches on a failure.
type ErrorClass int

const (
	// ClassRetryable errors (network timeouts, connection resets, transient
	// server failures) are retried up to the configured limit.
	ClassRetryable ErrorClass = iota
	// ClassFatal errors (bad input, permissions, tool setup failures) fail
	// the job on first occurrence.
	ClassFatal
)

// ClassifiedError is implemented by the closed set of error variants below.
type ClassifiedError interface {
	error
	Class() ErrorClass
}

// InputValidationError reports malformed accessions or configuration.
// Always fatal and surfaced before any download starts.
type InputValidationError struct {
	Input  string
	Reason string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Input, e.Reason)
}

func (e *InputValidationError) Class() ErrorClass { return ClassFatal }

// PermissionError reports a filesystem location we cannot write to.
type PermissionError struct {
	Path string
	Err  error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("no write access to %s: %v", e.Path, e.Err)
}

func (e *PermissionError) Unwrap() error     { return e.Err }
func (e *PermissionError) Class() ErrorClass { return ClassFatal }

// NetworkError reports a transient transfer failure reported by the fetch
// tool (connection reset, DNS failure, remote hiccup).
type NetworkError struct {
	Accession string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.Accession, e.Err)
}

func (e *NetworkError) Unwrap() error     { return e.Err }
func (e *NetworkError) Class() ErrorClass { return ClassRetryable }

// TimeoutError reports a fetch invocation that exceeded its maximum duration.
// Counts toward the retry limit like any other network-class error.
type TimeoutError struct {
	Accession string
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("fetch of %s timed out after %s", e.Accession, e.Timeout)
}

func (e *TimeoutError) Class() ErrorClass { return ClassRetryable }

// ToolInvocationError reports a non-transient failure of the external fetch
// tool: bad accession, corrupt output, setup problems.
type ToolInvocationError struct {
	Tool   string
	Err    error
	Stderr string
}

func (e *ToolInvocationError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed: %v: %s", e.Tool, e.Err, strings.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *ToolInvocationError) Unwrap() error     { return e.Err }
func (e *ToolInvocationError) Class() ErrorClass { return ClassFatal }

// Classify determines the error class for retry dispatch. Typed variants
// carry their own class; everything else falls back to message inspection,
// defaulting to fatal so unknown errors never retry forever.
func Classify(err error) ErrorClass {
	var ce ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class()
	}

	// Cancellation is not retried; the worker is being torn down.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassFatal
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "timed out") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "i/o error") ||
		strings.Contains(errStr, "temporarily unavailable") ||
		strings.Contains(errStr, "server busy") ||
		strings.Contains(errStr, "network") {
		return ClassRetryable
	}

	return ClassFatal
}

// IsRetryable reports whether the retry controller may attempt err again.
func IsRetryable(err error) bool {
	return Classify(err) == ClassRetryable
}
