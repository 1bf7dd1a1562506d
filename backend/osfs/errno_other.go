//go:build !linux && !darwin && !freebsd

package osfs

import "strings"

// Portable fallback classification for platforms without
// golang.org/x/sys/unix errno constants (e.g. windows, plan9);
// matches rclone's convention of a *_other.go catch-all alongside the
// unix-specific build-tag file (see metadata_other.go).
func isNotDir(err error) bool {
	return strings.Contains(err.Error(), "not a directory")
}

func isDir(err error) bool {
	return strings.Contains(err.Error(), "is a directory")
}

func isNotEmpty(err error) bool {
	return strings.Contains(err.Error(), "not empty") || strings.Contains(err.Error(), "directory not empty")
}

func isReadOnlyFS(err error) bool {
	return strings.Contains(err.Error(), "read-only file system")
}
