// Package fslib implements a virtual filesystem façade that unifies
// heterogeneous storage backends behind a single path-addressed API.
//
// A Backend is the capability set every storage implementation must
// provide (backend/memory, backend/osfs) or compose from other
// backends (backend/readonly, backend/union, backend/mount). The
// façade in package vfs holds one root Backend and exposes the
// user-facing convenience API over it.
package fslib

import (
	"context"
	"io"
	"time"
)

// Kind classifies the node a path resolves to.
type Kind int

// Node kinds.
const (
	KindUnknown Kind = iota
	KindFile
	KindDir
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "unknown"
	}
}

// AccessMode is the capability being probed by Backend.Access.
type AccessMode int

// Access modes.
const (
	AccessExists AccessMode = iota
	AccessRead
	AccessWrite
)

// OpenMode selects the behaviour of Backend.OpenWrite.
type OpenMode int

// Write open modes.
const (
	OpenTruncate OpenMode = iota
	OpenAppend
)

// Info is the metadata returned by Backend.Stat.
type Info struct {
	Size    int64
	ModTime time.Time
	Kind    Kind
}

// ReadStream is a scoped, readable byte stream. Callers must Close it.
type ReadStream interface {
	io.Reader
	io.Closer
}

// WriteStream is a scoped, writable byte stream. Callers must Close it.
type WriteStream interface {
	io.Writer
	io.Closer
}

// Backend is the capability set every filesystem must implement.
//
// Implementations must signal failures using the ErrorKind taxonomy in
// errors.go (NotFound, NotADirectory, IsADirectory, AlreadyExists,
// NotEmpty, ReadOnly, PermissionDenied, InvalidPath, IOError) wrapped
// in *Error so callers can discriminate with errors.Is/As.
//
// Backend implementations are thread-compatible, not thread-safe: the
// caller must not issue concurrent operations against overlapping
// paths and expect serializability beyond what the concrete backend
// documents for itself.
type Backend interface {
	// Exists reports whether p resolves to anything, file or dir.
	Exists(ctx context.Context, p string) (bool, error)
	// IsFile reports whether p resolves to a file.
	IsFile(ctx context.Context, p string) (bool, error)
	// IsDir reports whether p resolves to a directory.
	IsDir(ctx context.Context, p string) (bool, error)
	// Stat returns metadata for p.
	Stat(ctx context.Context, p string) (Info, error)
	// Access reports whether mode is permitted on p. Access never
	// returns an error for a missing path under AccessExists; it
	// returns false.
	Access(ctx context.Context, p string, mode AccessMode) (bool, error)

	// OpenRead opens p for reading. The caller must Close the stream.
	OpenRead(ctx context.Context, p string) (ReadStream, error)
	// ReadAll reads the entire contents of p.
	ReadAll(ctx context.Context, p string) ([]byte, error)
	// ListDir lists the leaf names directly under p. Order is
	// unspecified but stable within a single call.
	ListDir(ctx context.Context, p string) ([]string, error)

	// OpenWrite opens p for writing in the given mode, creating the
	// file if absent. The caller must Close the stream.
	OpenWrite(ctx context.Context, p string, mode OpenMode) (WriteStream, error)
	// Mkdir creates directory p. If parents is false, the parent of p
	// must already exist.
	Mkdir(ctx context.Context, p string, parents bool) error
	// RemoveFile removes the file at p.
	RemoveFile(ctx context.Context, p string) error
	// RemoveDir removes the (empty) directory at p.
	RemoveDir(ctx context.Context, p string) error
	// Rename moves src to dst within this backend.
	Rename(ctx context.Context, src, dst string) error

	// Close releases any resources held by the backend. Backends that
	// hold nothing (Memory, ReadOnly over Memory) may no-op.
	Close() error
}
