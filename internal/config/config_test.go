package config

import (
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidateBounds(t *testing.T) {
	mutate := func(f func(*BatchConfig)) *BatchConfig {
		c := Default()
		f(c)
		return c
	}

	bad := []struct {
		name string
		cfg  *BatchConfig
	}{
		{"empty output dir", mutate(func(c *BatchConfig) { c.OutputDir = "" })},
		{"threads too low", mutate(func(c *BatchConfig) { c.Threads = 0 })},
		{"threads too high", mutate(func(c *BatchConfig) { c.Threads = 17 })},
		{"zero retries", mutate(func(c *BatchConfig) { c.MaxRetries = 0 })},
		{"zero retry delay", mutate(func(c *BatchConfig) { c.RetryDelay = 0 })},
		{"cap below base", mutate(func(c *BatchConfig) { c.MaxDelay = c.RetryDelay - time.Second })},
		{"zero fetch timeout", mutate(func(c *BatchConfig) { c.FetchTimeout = 0 })},
		{"bad conflict policy", mutate(func(c *BatchConfig) { c.Conflict = "explode" })},
	}
	for _, tt := range bad {
		if err := tt.cfg.Validate(); err == nil {
			t.Errorf("%s: Validate should have failed", tt.name)
		}
	}

	edge := mutate(func(c *BatchConfig) { c.Threads = MaxThreads })
	if err := edge.Validate(); err != nil {
		t.Errorf("threads=%d should be accepted: %v", MaxThreads, err)
	}
}

func TestParseConflictPolicy(t *testing.T) {
	for _, s := range []string{"skip", "overwrite", "rename", "ask"} {
		p, err := ParseConflictPolicy(s)
		if err != nil {
			t.Errorf("ParseConflictPolicy(%q) failed: %v", s, err)
		}
		if string(p) != s {
			t.Errorf("ParseConflictPolicy(%q) = %q", s, p)
		}
	}
	for _, s := range []string{"", "Skip", "keep", "abort"} {
		if _, err := ParseConflictPolicy(s); err == nil {
			t.Errorf("ParseConflictPolicy(%q) should have failed", s)
		}
	}
}
