// Package sratools wraps the SRA Toolkit: locating and verifying the
// prefetch/fasterq-dump binaries, and invoking them for single accessions.
package sratools

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

const (
	prefetchName    = "prefetch"
	fasterqDumpName = "fasterq-dump"
)

// Toolkit holds the resolved paths of the external fetch binaries.
type Toolkit struct {
	PrefetchPath    string
	FasterqDumpPath string
}

// Locate finds the toolkit binaries. When dir is non-empty, <dir>/bin is
// searched first (the layout the installer produces); otherwise PATH is used.
func Locate(dir string) (*Toolkit, error) {
	if dir != "" {
		bin := filepath.Join(dir, "bin")
		tk := &Toolkit{
			PrefetchPath:    filepath.Join(bin, exeName(prefetchName)),
			FasterqDumpPath: filepath.Join(bin, exeName(fasterqDumpName)),
		}
		if err := tk.Verify(); err != nil {
			return nil, err
		}
		return tk, nil
	}

	prefetch, err := exec.LookPath(prefetchName)
	if err != nil {
		return nil, fmt.Errorf("%s not found in PATH (run 'seqdl install-toolkit' or pass --toolkit-dir): %w", prefetchName, err)
	}
	fasterq, err := exec.LookPath(fasterqDumpName)
	if err != nil {
		return nil, fmt.Errorf("%s not found in PATH (run 'seqdl install-toolkit' or pass --toolkit-dir): %w", fasterqDumpName, err)
	}
	return &Toolkit{PrefetchPath: prefetch, FasterqDumpPath: fasterq}, nil
}

// Verify checks that both binaries exist and are regular files.
func (t *Toolkit) Verify() error {
	for _, p := range []string{t.PrefetchPath, t.FasterqDumpPath} {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("SRA Toolkit binary missing at %s: %w", p, err)
		}
		if info.IsDir() {
			return fmt.Errorf("SRA Toolkit binary path %s is a directory", p)
		}
	}
	return nil
}

func exeName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}
