// Package vfs implements fslib's user-facing façade: a thin surface
// over one root fslib.Backend plus line/stream convenience helpers
// (read_one_line, readlines/writelines, copy).
//
// Grounded on rclone's top-level vfs.VFS, which likewise wraps a
// single fs.Fs and layers convenience operations (vfs/vfs_test.go's
// `vfs.New(r.Fremote, opt)` constructor shape) — generalized down from
// rclone's writeback-cached, FUSE-facing VFS to the single-backend,
// no-cache façade this spec's Non-goals call for.
package vfs

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/rbarrois/fslib"
	"github.com/rbarrois/fslib/internal/vfslog"
)

// lineTerminator is the line terminator readlines/writelines use.
const lineTerminator = '\n'

// VFS is the façade: one root Backend plus convenience helpers.
// VFS itself implements fslib.Backend by forwarding every capability
// call to the root, so it can be composed wherever a Backend is
// expected (e.g. mounted as a branch of another VFS's root).
type VFS struct {
	root fslib.Backend
}

// New constructs a façade over root.
func New(root fslib.Backend) *VFS {
	return &VFS{root: root}
}

// Root returns the underlying root Backend.
func (v *VFS) Root() fslib.Backend {
	return v.root
}

// String identifies this façade for logging.
func (v *VFS) String() string {
	return "vfs"
}

var _ fslib.Backend = (*VFS)(nil)

// Exists forwards to the root Backend.
func (v *VFS) Exists(ctx context.Context, p string) (bool, error) { return v.root.Exists(ctx, p) }

// IsFile forwards to the root Backend.
func (v *VFS) IsFile(ctx context.Context, p string) (bool, error) { return v.root.IsFile(ctx, p) }

// IsDir forwards to the root Backend.
func (v *VFS) IsDir(ctx context.Context, p string) (bool, error) { return v.root.IsDir(ctx, p) }

// Stat forwards to the root Backend.
func (v *VFS) Stat(ctx context.Context, p string) (fslib.Info, error) { return v.root.Stat(ctx, p) }

// Access forwards to the root Backend.
func (v *VFS) Access(ctx context.Context, p string, mode fslib.AccessMode) (bool, error) {
	return v.root.Access(ctx, p, mode)
}

// OpenRead forwards to the root Backend.
func (v *VFS) OpenRead(ctx context.Context, p string) (fslib.ReadStream, error) {
	return v.root.OpenRead(ctx, p)
}

// ReadAll forwards to the root Backend.
func (v *VFS) ReadAll(ctx context.Context, p string) ([]byte, error) { return v.root.ReadAll(ctx, p) }

// ListDir forwards to the root Backend.
func (v *VFS) ListDir(ctx context.Context, p string) ([]string, error) {
	return v.root.ListDir(ctx, p)
}

// OpenWrite forwards to the root Backend.
func (v *VFS) OpenWrite(ctx context.Context, p string, mode fslib.OpenMode) (fslib.WriteStream, error) {
	return v.root.OpenWrite(ctx, p, mode)
}

// Mkdir forwards to the root Backend.
func (v *VFS) Mkdir(ctx context.Context, p string, parents bool) error {
	return v.root.Mkdir(ctx, p, parents)
}

// RemoveFile forwards to the root Backend.
func (v *VFS) RemoveFile(ctx context.Context, p string) error { return v.root.RemoveFile(ctx, p) }

// RemoveDir forwards to the root Backend.
func (v *VFS) RemoveDir(ctx context.Context, p string) error { return v.root.RemoveDir(ctx, p) }

// Rename forwards to the root Backend.
func (v *VFS) Rename(ctx context.Context, src, dst string) error {
	return v.root.Rename(ctx, src, dst)
}

// Close forwards to the root Backend.
func (v *VFS) Close() error { return v.root.Close() }

// ReadOneLine reads p until the first line terminator (exclusive),
// returning "" for an empty file.
func (v *VFS) ReadOneLine(ctx context.Context, p string) (string, error) {
	r, err := v.root.OpenRead(ctx, p)
	if err != nil {
		return "", err
	}
	defer r.Close()
	br := bufio.NewReader(r)
	line, err := br.ReadString(lineTerminator)
	if err != nil && err != io.EOF {
		return "", fslib.NewError("read_one_line", p, fslib.IOError, err)
	}
	return trimTerminator(line), nil
}

// ReadLines reads p and splits it on the line terminator.
func (v *VFS) ReadLines(ctx context.Context, p string) ([]string, error) {
	data, err := v.root.ReadAll(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var lines []string
	for _, part := range bytes.Split(data, []byte{lineTerminator}) {
		lines = append(lines, string(part))
	}
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines, nil
}

// WriteLines writes seq to p, one line per entry, terminated with the
// line terminator, truncating any existing content.
func (v *VFS) WriteLines(ctx context.Context, p string, seq []string) error {
	w, err := v.root.OpenWrite(ctx, p, fslib.OpenTruncate)
	if err != nil {
		return err
	}
	for _, line := range seq {
		if _, err := io.WriteString(w, line); err != nil {
			w.Close()
			return fslib.NewError("writelines", p, fslib.IOError, err)
		}
		if _, err := w.Write([]byte{lineTerminator}); err != nil {
			w.Close()
			return fslib.NewError("writelines", p, fslib.IOError, err)
		}
	}
	return w.Close()
}

// Copy stream-copies src to dst, truncating dst. The parent of dst
// must already exist.
func (v *VFS) Copy(ctx context.Context, src, dst string) error {
	r, err := v.root.OpenRead(ctx, src)
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := v.root.OpenWrite(ctx, dst, fslib.OpenTruncate)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fslib.NewError("copy", dst, fslib.IOError, err)
	}
	vfslog.Debugf(v, "copied %s to %s", src, dst)
	return w.Close()
}

// trimTerminator strips a single trailing line terminator, if present.
func trimTerminator(line string) string {
	if n := len(line); n > 0 && line[n-1] == lineTerminator {
		return line[:n-1]
	}
	return line
}
