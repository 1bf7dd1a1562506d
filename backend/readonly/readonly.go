// Package readonly implements fslib's read-only Backend decorator: it
// forwards every read/metadata call and rejects every mutation before
// it reaches the wrapped Backend.
//
// Grounded on the decorator shape rclone uses throughout
// backend/union/upstream (a thin wrapper holding the inner fs.Fs and
// forwarding most calls), narrowed to one concern: refusing mutation.
package readonly

import (
	"context"

	"github.com/rbarrois/fslib"
)

// Backend wraps an inner fslib.Backend, rejecting every mutating call.
type Backend struct {
	inner fslib.Backend
}

// New wraps inner in a read-only façade.
func New(inner fslib.Backend) *Backend {
	return &Backend{inner: inner}
}

// String identifies this backend for logging.
func (b *Backend) String() string {
	return "readonly(" + stringer(b.inner) + ")"
}

func stringer(v interface{}) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return "?"
}

var _ fslib.Backend = (*Backend)(nil)

// Exists implements fslib.Backend by forwarding to the inner backend.
func (b *Backend) Exists(ctx context.Context, p string) (bool, error) {
	return b.inner.Exists(ctx, p)
}

// IsFile implements fslib.Backend by forwarding to the inner backend.
func (b *Backend) IsFile(ctx context.Context, p string) (bool, error) {
	return b.inner.IsFile(ctx, p)
}

// IsDir implements fslib.Backend by forwarding to the inner backend.
func (b *Backend) IsDir(ctx context.Context, p string) (bool, error) {
	return b.inner.IsDir(ctx, p)
}

// Stat implements fslib.Backend by forwarding to the inner backend.
func (b *Backend) Stat(ctx context.Context, p string) (fslib.Info, error) {
	return b.inner.Stat(ctx, p)
}

// Access implements fslib.Backend. AccessWrite always reports false,
// even when the inner backend would allow it.
func (b *Backend) Access(ctx context.Context, p string, mode fslib.AccessMode) (bool, error) {
	if mode == fslib.AccessWrite {
		return false, nil
	}
	return b.inner.Access(ctx, p, mode)
}

// OpenRead implements fslib.Backend by forwarding to the inner backend.
func (b *Backend) OpenRead(ctx context.Context, p string) (fslib.ReadStream, error) {
	return b.inner.OpenRead(ctx, p)
}

// ReadAll implements fslib.Backend by forwarding to the inner backend.
func (b *Backend) ReadAll(ctx context.Context, p string) ([]byte, error) {
	return b.inner.ReadAll(ctx, p)
}

// ListDir implements fslib.Backend by forwarding to the inner backend.
func (b *Backend) ListDir(ctx context.Context, p string) ([]string, error) {
	return b.inner.ListDir(ctx, p)
}

// OpenWrite implements fslib.Backend: always fails with ReadOnly
// before the inner backend is touched.
func (b *Backend) OpenWrite(ctx context.Context, p string, mode fslib.OpenMode) (fslib.WriteStream, error) {
	return nil, fslib.NewError("open_write", p, fslib.ReadOnly, nil)
}

// Mkdir implements fslib.Backend: always fails with ReadOnly.
func (b *Backend) Mkdir(ctx context.Context, p string, parents bool) error {
	return fslib.NewError("mkdir", p, fslib.ReadOnly, nil)
}

// RemoveFile implements fslib.Backend: always fails with ReadOnly.
func (b *Backend) RemoveFile(ctx context.Context, p string) error {
	return fslib.NewError("remove_file", p, fslib.ReadOnly, nil)
}

// RemoveDir implements fslib.Backend: always fails with ReadOnly.
func (b *Backend) RemoveDir(ctx context.Context, p string) error {
	return fslib.NewError("remove_dir", p, fslib.ReadOnly, nil)
}

// Rename implements fslib.Backend: always fails with ReadOnly.
func (b *Backend) Rename(ctx context.Context, src, dst string) error {
	return fslib.NewError("rename", src, fslib.ReadOnly, nil)
}

// Close implements fslib.Backend by forwarding to the inner backend,
// since closing releases the inner backend's resources, not this
// decorator's (it holds none of its own).
func (b *Backend) Close() error {
	return b.inner.Close()
}

// Unwrap exposes the wrapped backend, in the manner of rclone's
// upstream.Object.UnWrap, for callers that need to recover it.
func (b *Backend) Unwrap() fslib.Backend {
	return b.inner
}
