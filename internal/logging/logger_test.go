package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	log, err := New(Options{Verbose: true, LogDir: dir})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	log.Info().Str("accession", "SRR1").Msg("test event")

	data, err := os.ReadFile(filepath.Join(dir, "main.log"))
	if err != nil {
		t.Fatalf("main.log not written: %v", err)
	}
	if !strings.Contains(string(data), "test event") || !strings.Contains(string(data), "SRR1") {
		t.Errorf("log file missing event fields: %s", data)
	}
}

func TestNewWithoutLogDir(t *testing.T) {
	if _, err := New(Options{}); err != nil {
		t.Errorf("New without LogDir failed: %v", err)
	}
}

func TestVerboseLevels(t *testing.T) {
	quiet, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if quiet.GetLevel().String() != "info" {
		t.Errorf("default level = %s, want info", quiet.GetLevel())
	}

	verbose, err := New(Options{Verbose: true})
	if err != nil {
		t.Fatal(err)
	}
	if verbose.GetLevel().String() != "debug" {
		t.Errorf("verbose level = %s, want debug", verbose.GetLevel())
	}
}
