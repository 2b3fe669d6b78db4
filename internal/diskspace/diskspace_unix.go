//go:build !windows

package diskspace

import "golang.org/x/sys/unix"

// Available returns the free space in bytes on the volume holding dir,
// as seen by an unprivileged user. Returns 0 if the volume cannot be queried.
func Available(dir string) int64 {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0
	}
	// Bavail is the block count available to non-root users.
	return int64(stat.Bavail) * int64(stat.Bsize)
}
