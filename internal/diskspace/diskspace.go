// Package diskspace provides free-space queries for preflight checks across
// operating systems and file systems.
package diskspace

import (
	"errors"
	"fmt"
)

// InsufficientSpaceError indicates that there is not enough disk space
// available for the estimated batch size. The estimate is advisory; actual
// need may differ.
type InsufficientSpaceError struct {
	Path           string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	requiredMB := float64(e.RequiredBytes) / (1024 * 1024)
	availableMB := float64(e.AvailableBytes) / (1024 * 1024)
	return fmt.Sprintf("insufficient disk space for %s: need %.2f MB, have %.2f MB available",
		e.Path, requiredMB, availableMB)
}

// CheckAvailableSpace checks whether the volume holding dir has at least
// requiredBytes free. A safetyMargin of e.g. 1.1 adds a 10% buffer.
//
// If the filesystem cannot be queried (network mounts, exotic volumes) the
// check passes: the operation will fail naturally later if space runs out.
func CheckAvailableSpace(dir string, requiredBytes int64, safetyMargin float64) error {
	available := Available(dir)
	if available == 0 {
		return nil
	}

	requiredWithMargin := int64(float64(requiredBytes) * safetyMargin)
	if available < requiredWithMargin {
		return &InsufficientSpaceError{
			Path:           dir,
			RequiredBytes:  requiredWithMargin,
			AvailableBytes: available,
		}
	}
	return nil
}

// IsInsufficientSpace reports whether err is an InsufficientSpaceError.
func IsInsufficientSpace(err error) bool {
	var ise *InsufficientSpaceError
	return errors.As(err, &ise)
}
