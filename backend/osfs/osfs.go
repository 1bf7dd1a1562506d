// Package osfs adapts the operating system's filesystem primitives to
// fslib.Backend, rooted at a fixed physical directory.
//
// Grounded on rclone's backend/local (error mapping via os.IsNotExist/
// os.IsPermission, see local.go's Mkdir/Remove/Open error handling)
// generalized to fslib's Backend contract; platform-specific metadata
// (xattrs, link translation, preallocate) that local.go carries is out
// of scope here — this backend only needs the operating-system file
// primitives Backend's contract requires.
package osfs

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rbarrois/fslib"
	"github.com/rbarrois/fslib/fspath"
	"github.com/rbarrois/fslib/internal/vfslog"
)

// Options defines the configuration for a Backend.
type Options struct {
	// Root is the physical directory every logical path is rooted
	// under. It must already exist.
	Root string
}

// Backend roots an fslib.Backend at an OS directory.
type Backend struct {
	opt  Options
	root string
}

// New constructs a Backend rooted at opt.Root.
func New(opt Options) (*Backend, error) {
	abs, err := filepath.Abs(opt.Root)
	if err != nil {
		return nil, fslib.NewError("new", opt.Root, fslib.InvalidPath, err)
	}
	return &Backend{opt: opt, root: filepath.Clean(abs)}, nil
}

// String identifies this backend for logging.
func (b *Backend) String() string {
	return "osfs:" + b.root
}

var _ fslib.Backend = (*Backend)(nil)

// realPath translates a logical path p into the real OS path under
// b.root, refusing escapes detected lexically before normalization.
//
// fspath.Normalize treats a ".." that would go above the path's own
// root as a no-op (its virtual path space has nowhere else for it to
// go), so by the time its output reaches here the leading ".." a path
// like "/../etc/passwd" started with is already gone and can no
// longer be detected. realPath therefore checks the untouched input
// itself for a net-negative ".." before handing it to Normalize.
func (b *Backend) realPath(op, p string) (string, error) {
	if err := rejectEscape(op, p); err != nil {
		return "", err
	}
	n, err := fspath.Normalize(p)
	if err != nil {
		return "", err
	}
	rel := strings.TrimPrefix(n, "/")
	joined := filepath.Join(b.root, filepath.FromSlash(rel))
	return joined, nil
}

// rejectEscape reports InvalidPath if p's lexical resolution would
// cross above its own root: a ".." encountered with no preceding real
// component to cancel it is an attempted escape, not a no-op.
func rejectEscape(op, p string) error {
	depth := 0
	for _, part := range strings.Split(p, "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			depth--
			if depth < 0 {
				return fslib.NewError(op, p, fslib.InvalidPath, nil)
			}
		default:
			depth++
		}
	}
	return nil
}

// mapErr maps an OS error into the fslib error taxonomy.
func mapErr(op, p string, err error) error {
	if err == nil {
		return nil
	}
	var perr *fs.PathError
	cause := err
	if errors.As(err, &perr) {
		cause = perr.Err
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fslib.NewError(op, p, fslib.NotFound, cause)
	case isNotEmpty(err):
		// Checked before fs.ErrExist, which ENOTEMPTY also matches.
		return fslib.NewError(op, p, fslib.NotEmpty, cause)
	case errors.Is(err, fs.ErrExist):
		return fslib.NewError(op, p, fslib.AlreadyExists, cause)
	case errors.Is(err, fs.ErrPermission):
		return fslib.NewError(op, p, fslib.PermissionDenied, cause)
	case isNotDir(err):
		return fslib.NewError(op, p, fslib.NotADirectory, cause)
	case isDir(err):
		return fslib.NewError(op, p, fslib.IsADirectory, cause)
	case isReadOnlyFS(err):
		return fslib.NewError(op, p, fslib.ReadOnly, cause)
	default:
		return fslib.NewError(op, p, fslib.IOError, cause)
	}
}

// Exists implements fslib.Backend.
func (b *Backend) Exists(ctx context.Context, p string) (bool, error) {
	rp, err := b.realPath("exists", p)
	if err != nil {
		return false, err
	}
	if _, err := os.Lstat(rp); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, mapErr("exists", p, err)
	}
	return true, nil
}

// IsFile implements fslib.Backend.
func (b *Backend) IsFile(ctx context.Context, p string) (bool, error) {
	info, err := b.statOrFalse("is_file", p)
	if info == nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// IsDir implements fslib.Backend.
func (b *Backend) IsDir(ctx context.Context, p string) (bool, error) {
	info, err := b.statOrFalse("is_dir", p)
	if info == nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (b *Backend) statOrFalse(op, p string) (os.FileInfo, error) {
	rp, err := b.realPath(op, p)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(rp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, mapErr(op, p, err)
	}
	return info, nil
}

// Stat implements fslib.Backend.
func (b *Backend) Stat(ctx context.Context, p string) (fslib.Info, error) {
	rp, err := b.realPath("stat", p)
	if err != nil {
		return fslib.Info{}, err
	}
	info, err := os.Stat(rp)
	if err != nil {
		return fslib.Info{}, mapErr("stat", p, err)
	}
	kind := fslib.KindFile
	if info.IsDir() {
		kind = fslib.KindDir
	}
	return fslib.Info{Size: info.Size(), ModTime: info.ModTime(), Kind: kind}, nil
}

// Access implements fslib.Backend.
func (b *Backend) Access(ctx context.Context, p string, mode fslib.AccessMode) (bool, error) {
	rp, err := b.realPath("access", p)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(rp)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, mapErr("access", p, err)
	}
	switch mode {
	case fslib.AccessExists:
		return true, nil
	case fslib.AccessRead:
		return info.Mode().Perm()&0o444 != 0, nil
	case fslib.AccessWrite:
		return info.Mode().Perm()&0o222 != 0, nil
	default:
		return false, nil
	}
}

// OpenRead implements fslib.Backend.
func (b *Backend) OpenRead(ctx context.Context, p string) (fslib.ReadStream, error) {
	rp, err := b.realPath("open_read", p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(rp)
	if err != nil {
		return nil, mapErr("open_read", p, err)
	}
	info, err := f.Stat()
	if err == nil && info.IsDir() {
		f.Close()
		return nil, fslib.NewError("open_read", p, fslib.IsADirectory, nil)
	}
	return f, nil
}

// ReadAll implements fslib.Backend.
func (b *Backend) ReadAll(ctx context.Context, p string) ([]byte, error) {
	r, err := b.OpenRead(ctx, p)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, mapErr("read_all", p, err)
	}
	return data, nil
}

// ListDir implements fslib.Backend.
func (b *Backend) ListDir(ctx context.Context, p string) ([]string, error) {
	rp, err := b.realPath("listdir", p)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(rp)
	if err != nil {
		return nil, mapErr("listdir", p, err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

// OpenWrite implements fslib.Backend.
func (b *Backend) OpenWrite(ctx context.Context, p string, mode fslib.OpenMode) (fslib.WriteStream, error) {
	rp, err := b.realPath("open_write", p)
	if err != nil {
		return nil, err
	}
	if info, statErr := os.Stat(rp); statErr == nil && info.IsDir() {
		return nil, fslib.NewError("open_write", p, fslib.IsADirectory, nil)
	}
	flags := os.O_WRONLY | os.O_CREATE
	switch mode {
	case fslib.OpenTruncate:
		flags |= os.O_TRUNC
	case fslib.OpenAppend:
		flags |= os.O_APPEND
	}
	f, err := os.OpenFile(rp, flags, 0o644)
	if err != nil {
		return nil, mapErr("open_write", p, err)
	}
	vfslog.Debugf(b, "opened %s for write (mode=%v)", p, mode)
	return f, nil
}

// Mkdir implements fslib.Backend.
func (b *Backend) Mkdir(ctx context.Context, p string, parents bool) error {
	rp, err := b.realPath("mkdir", p)
	if err != nil {
		return err
	}
	if parents {
		if info, statErr := os.Stat(rp); statErr == nil {
			if info.IsDir() {
				return nil
			}
			return fslib.NewError("mkdir", p, fslib.AlreadyExists, nil)
		}
		if err := os.MkdirAll(rp, 0o755); err != nil {
			return mapErr("mkdir", p, err)
		}
		return nil
	}
	if err := os.Mkdir(rp, 0o755); err != nil {
		return mapErr("mkdir", p, err)
	}
	return nil
}

// RemoveFile implements fslib.Backend.
func (b *Backend) RemoveFile(ctx context.Context, p string) error {
	rp, err := b.realPath("remove_file", p)
	if err != nil {
		return err
	}
	if info, statErr := os.Stat(rp); statErr == nil && info.IsDir() {
		return fslib.NewError("remove_file", p, fslib.IsADirectory, nil)
	}
	if err := os.Remove(rp); err != nil {
		return mapErr("remove_file", p, err)
	}
	return nil
}

// RemoveDir implements fslib.Backend.
func (b *Backend) RemoveDir(ctx context.Context, p string) error {
	rp, err := b.realPath("remove_dir", p)
	if err != nil {
		return err
	}
	if info, statErr := os.Stat(rp); statErr == nil && !info.IsDir() {
		return fslib.NewError("remove_dir", p, fslib.NotADirectory, nil)
	}
	if err := os.Remove(rp); err != nil {
		return mapErr("remove_dir", p, err)
	}
	return nil
}

// Rename implements fslib.Backend.
func (b *Backend) Rename(ctx context.Context, src, dst string) error {
	rsrc, err := b.realPath("rename", src)
	if err != nil {
		return err
	}
	rdst, err := b.realPath("rename", dst)
	if err != nil {
		return err
	}
	if err := os.Rename(rsrc, rdst); err != nil {
		return mapErr("rename", src, err)
	}
	return nil
}

// Close implements fslib.Backend. The OS owns the directory; nothing
// to release here.
func (b *Backend) Close() error {
	return nil
}
