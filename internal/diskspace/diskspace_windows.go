//go:build windows

package diskspace

import "golang.org/x/sys/windows"

// Available returns the free space in bytes on the volume holding dir.
// Returns 0 if the volume cannot be queried.
func Available(dir string) int64 {
	dirPtr, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return 0
	}
	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	if err := windows.GetDiskFreeSpaceEx(dirPtr, &freeBytesAvailable, &totalBytes, &totalFreeBytes); err != nil {
		return 0
	}
	return int64(freeBytesAvailable)
}
