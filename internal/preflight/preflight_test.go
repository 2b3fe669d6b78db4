package preflight

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gardiner-lab/seq-downloader/internal/diskspace"
	"github.com/gardiner-lab/seq-downloader/internal/models"
)

func TestCheckCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "downloads")
	res, err := Check(dir, 2, 1024, zerolog.Nop())
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("output directory should have been created: %v", err)
	}
	if res.RequiredBytes != 2048 {
		t.Errorf("RequiredBytes = %d, want 2048", res.RequiredBytes)
	}
	// The write probe must not survive the check.
	if _, err := os.Stat(filepath.Join(dir, probeName)); err == nil {
		t.Error("write probe was left behind")
	}
}

func TestCheckUnwritableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks are meaningless as root")
	}
	dir := filepath.Join(t.TempDir(), "readonly")
	if err := os.Mkdir(dir, 0555); err != nil {
		t.Fatal(err)
	}

	_, err := Check(dir, 1, 1024, zerolog.Nop())
	if err == nil {
		t.Fatal("unwritable directory should fail the check")
	}
	var pe *models.PermissionError
	if !errors.As(err, &pe) {
		t.Errorf("error type = %T, want *PermissionError", err)
	}
}

func TestCheckInsufficientSpace(t *testing.T) {
	dir := t.TempDir()
	if diskspace.Available(dir) == 0 {
		t.Skip("free space not reported on this filesystem")
	}

	// An absurd per-job estimate guarantees the volume is too small.
	_, err := Check(dir, 1000, 1<<50, zerolog.Nop())
	if err == nil {
		t.Fatal("impossible space requirement should fail the check")
	}
	if !diskspace.IsInsufficientSpace(err) {
		t.Errorf("error type = %T, want InsufficientSpaceError", err)
	}
}
