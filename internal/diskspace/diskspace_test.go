package diskspace

import (
	"errors"
	"testing"
)

func TestAvailableReportsSomething(t *testing.T) {
	if got := Available(t.TempDir()); got == 0 {
		t.Skip("free space not reported on this filesystem")
	}
}

func TestCheckAvailableSpace(t *testing.T) {
	dir := t.TempDir()
	if Available(dir) == 0 {
		t.Skip("free space not reported on this filesystem")
	}

	if err := CheckAvailableSpace(dir, 1, 1.0); err != nil {
		t.Errorf("1 byte should always fit: %v", err)
	}

	err := CheckAvailableSpace(dir, 1<<60, 1.0)
	if err == nil {
		t.Fatal("exabyte requirement should fail")
	}
	var ise *InsufficientSpaceError
	if !errors.As(err, &ise) {
		t.Fatalf("error type = %T", err)
	}
	if ise.Path != dir || ise.AvailableBytes == 0 {
		t.Errorf("error not populated: %+v", ise)
	}
	if !IsInsufficientSpace(err) {
		t.Error("IsInsufficientSpace should match")
	}
}

func TestCheckAvailableSpaceMissingDir(t *testing.T) {
	// Unqueryable paths pass; the download fails later if space runs out.
	if err := CheckAvailableSpace("/definitely/not/a/real/path", 1<<60, 1.0); err != nil {
		t.Errorf("unqueryable path should pass the check: %v", err)
	}
}
