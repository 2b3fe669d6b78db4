package models

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestClassifyTypedErrors(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorClass
	}{
		{&InputValidationError{Input: "x", Reason: "bad"}, ClassFatal},
		{&PermissionError{Path: "/nope", Err: errors.New("denied")}, ClassFatal},
		{&NetworkError{Accession: "SRR1", Err: errors.New("reset")}, ClassRetryable},
		{&TimeoutError{Accession: "SRR1", Timeout: time.Second}, ClassRetryable},
		{&ToolInvocationError{Tool: "prefetch", Err: errors.New("exit 3")}, ClassFatal},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%T) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestClassifyWrappedTypedError(t *testing.T) {
	err := fmt.Errorf("attempt 2: %w", &NetworkError{Accession: "SRR1", Err: errors.New("reset")})
	if Classify(err) != ClassRetryable {
		t.Error("wrapped NetworkError should stay retryable")
	}
}

func TestClassifyContextErrors(t *testing.T) {
	if Classify(context.Canceled) != ClassFatal {
		t.Error("context.Canceled should not be retried")
	}
	if Classify(context.DeadlineExceeded) != ClassFatal {
		t.Error("context.DeadlineExceeded should not be retried")
	}
}

func TestClassifyMessagePatterns(t *testing.T) {
	retryable := []string{
		"read tcp: connection reset by peer",
		"dial: connection refused",
		"operation timed out",
		"resource temporarily unavailable",
		"network is unreachable",
	}
	for _, msg := range retryable {
		if Classify(errors.New(msg)) != ClassRetryable {
			t.Errorf("Classify(%q) should be retryable", msg)
		}
	}

	// Unknown errors default to fatal so a broken setup never loops.
	for _, msg := range []string{"no such accession", "disk quota exceeded", "something odd"} {
		if Classify(errors.New(msg)) != ClassFatal {
			t.Errorf("Classify(%q) should be fatal", msg)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(&TimeoutError{Accession: "SRR1", Timeout: time.Second}) {
		t.Error("TimeoutError should be retryable")
	}
	if IsRetryable(&InputValidationError{Input: "x", Reason: "bad"}) {
		t.Error("InputValidationError should not be retryable")
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	if !errors.Is(&NetworkError{Accession: "SRR1", Err: inner}, inner) {
		t.Error("NetworkError should unwrap to its cause")
	}
	if !errors.Is(&ToolInvocationError{Tool: "prefetch", Err: inner}, inner) {
		t.Error("ToolInvocationError should unwrap to its cause")
	}
}
