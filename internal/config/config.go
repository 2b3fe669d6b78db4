// Package config holds the batch configuration surface and its defaults.
package config

import (
	"fmt"
	"time"
)

// Defaults for the batch configuration. The size estimate and the
// incomplete-file threshold are policy knobs, not correctness constraints;
// both can be overridden per batch.
const (
	DefaultOutputDir    = "downloads"
	DefaultThreads      = 6
	MinThreads          = 1
	MaxThreads          = 16
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = 5 * time.Second
	DefaultMaxDelay     = 60 * time.Second
	DefaultFetchTimeout = 300 * time.Second
	DefaultCancelGrace  = 10 * time.Second

	// DefaultSizeEstimate is the per-accession disk space heuristic used by
	// the preflight check. SRA runs commonly land in the 50-500 MB range.
	DefaultSizeEstimate = 500 * 1024 * 1024

	// DefaultMinCompleteSize is the threshold below which an existing output
	// file is considered an incomplete leftover and is always re-fetched.
	DefaultMinCompleteSize = 1024
)

// ConflictPolicy selects how an existing output file is handled.
type ConflictPolicy string

const (
	ConflictSkip      ConflictPolicy = "skip"
	ConflictOverwrite ConflictPolicy = "overwrite"
	ConflictRename    ConflictPolicy = "rename"
	ConflictAsk       ConflictPolicy = "ask"
)

// ParseConflictPolicy converts a user-supplied string into a policy.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch ConflictPolicy(s) {
	case ConflictSkip, ConflictOverwrite, ConflictRename, ConflictAsk:
		return ConflictPolicy(s), nil
	}
	return "", fmt.Errorf("unknown conflict policy %q (want skip, overwrite, rename or ask)", s)
}

// BatchConfig is the full configuration for one batch. It is treated as
// immutable once the batch starts.
type BatchConfig struct {
	OutputDir  string
	Threads    int
	SplitFiles bool
	Conflict   ConflictPolicy

	MaxRetries   int
	RetryDelay   time.Duration // backoff base
	MaxDelay     time.Duration // backoff cap
	FetchTimeout time.Duration // per tool invocation
	CancelGrace  time.Duration // how long in-flight fetches may run after cancel

	SizeEstimate    int64 // preflight bytes/accession heuristic
	MinCompleteSize int64 // incomplete-file threshold

	ToolkitDir string // SRA Toolkit location; empty means search PATH
}

// Default returns a BatchConfig populated with the package defaults.
func Default() *BatchConfig {
	return &BatchConfig{
		OutputDir:       DefaultOutputDir,
		Threads:         DefaultThreads,
		SplitFiles:      true,
		Conflict:        ConflictAsk,
		MaxRetries:      DefaultMaxRetries,
		RetryDelay:      DefaultRetryDelay,
		MaxDelay:        DefaultMaxDelay,
		FetchTimeout:    DefaultFetchTimeout,
		CancelGrace:     DefaultCancelGrace,
		SizeEstimate:    DefaultSizeEstimate,
		MinCompleteSize: DefaultMinCompleteSize,
	}
}

// Validate checks the configuration bounds before a batch starts.
func (c *BatchConfig) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.Threads < MinThreads || c.Threads > MaxThreads {
		return fmt.Errorf("thread count %d out of range [%d,%d]", c.Threads, MinThreads, MaxThreads)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("retry limit must be at least 1, got %d", c.MaxRetries)
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("retry delay must be positive, got %s", c.RetryDelay)
	}
	if c.MaxDelay < c.RetryDelay {
		return fmt.Errorf("backoff cap %s is below the base delay %s", c.MaxDelay, c.RetryDelay)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	if _, err := ParseConflictPolicy(string(c.Conflict)); err != nil {
		return err
	}
	return nil
}
