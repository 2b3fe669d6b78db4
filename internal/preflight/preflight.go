// Package preflight validates the output directory and disk space before a
// batch starts. A blocking failure here aborts the batch before any job runs.
package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/gardiner-lab/seq-downloader/internal/diskspace"
	"github.com/gardiner-lab/seq-downloader/internal/models"
)

// probeName is the throwaway file used to verify write access.
const probeName = ".seqdl-write-probe"

// Result reports what the preflight check found. Warnings are advisory;
// a blocking problem is returned as an error instead.
type Result struct {
	Dir            string
	JobCount       int
	RequiredBytes  int64
	AvailableBytes int64
	Warnings       []string
}

// Check verifies, in order: the output directory exists or can be created,
// the running user can create a file in it, and the volume has room for
// jobCount downloads at sizeEstimate bytes each. The directory may be created
// as a side effect. The space figure is a heuristic checked once; it is not
// re-verified mid-batch.
func Check(dir string, jobCount int, sizeEstimate int64, log zerolog.Logger) (*Result, error) {
	res := &Result{
		Dir:           dir,
		JobCount:      jobCount,
		RequiredBytes: int64(jobCount) * sizeEstimate,
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &models.PermissionError{Path: dir, Err: err}
	}

	probe := filepath.Join(dir, probeName)
	f, err := os.Create(probe)
	if err != nil {
		return nil, &models.PermissionError{Path: dir, Err: err}
	}
	f.Close()
	if err := os.Remove(probe); err != nil {
		log.Debug().Str("path", probe).Err(err).Msg("could not remove write probe")
	}

	res.AvailableBytes = diskspace.Available(dir)
	if res.AvailableBytes == 0 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("could not determine free space for %s; continuing without a space check", dir))
	} else if err := diskspace.CheckAvailableSpace(dir, res.RequiredBytes, 1.0); err != nil {
		return nil, err
	}

	log.Debug().
		Str("dir", dir).
		Int("jobs", jobCount).
		Int64("required_bytes", res.RequiredBytes).
		Int64("available_bytes", res.AvailableBytes).
		Msg("preflight passed")
	return res, nil
}
