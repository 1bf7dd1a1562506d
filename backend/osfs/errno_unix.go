//go:build linux || darwin || freebsd

// Package osfs unix errno classification, split into its own build-tag
// file in the manner of rclone's backend/local/preallocate_unix.go and
// stat_unix.go, which isolate golang.org/x/sys/unix usage per-OS.
package osfs

import (
	"errors"

	"golang.org/x/sys/unix"
)

func isNotDir(err error) bool {
	return errors.Is(err, unix.ENOTDIR)
}

func isDir(err error) bool {
	return errors.Is(err, unix.EISDIR)
}

func isNotEmpty(err error) bool {
	return errors.Is(err, unix.ENOTEMPTY)
}

func isReadOnlyFS(err error) bool {
	return errors.Is(err, unix.EROFS)
}
