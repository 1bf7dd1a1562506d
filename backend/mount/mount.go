// Package mount implements fslib's MountTable: it dispatches each path
// to the longest-prefix-matching backend, presenting synthetic
// directories for every path that is an ancestor of a mount point even
// when no backend physically has it.
//
// Grounded on rclone's backend/combine, which rewrites paths between a
// named upstream directory and the combine root via the adjustment
// type (combine.go's newAdjustment/.do/.undo). combine.go only mounts
// at top-level named directories with no nesting; MountTable
// generalizes that to true longest-prefix dispatch plus a synthetic
// intermediate-directory union, which combine.go does not need to do.
package mount

import (
	"context"
	"sync"

	"github.com/rbarrois/fslib"
	"github.com/rbarrois/fslib/fspath"
)

// Table dispatches path operations across a set of mounted backends.
type Table struct {
	mu     sync.RWMutex
	mounts map[string]fslib.Backend
}

// New constructs a Table with root already mounted at "/"; the root
// mount can never be removed, so a Table always resolves every path.
func New(root fslib.Backend) *Table {
	return &Table{mounts: map[string]fslib.Backend{"/": root}}
}

// String identifies this backend for logging.
func (t *Table) String() string {
	return "mount"
}

var _ fslib.Backend = (*Table)(nil)

// Mount adds a backend at mountPath. Fails with AlreadyExists if
// mountPath is already mounted. The mount point need not exist in any
// lower backend: mounting creates the directory in the logical view.
func (t *Table) Mount(mountPath string, backend fslib.Backend) error {
	n, err := fspath.Normalize(mountPath)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.mounts[n]; exists {
		return fslib.NewError("mount", mountPath, fslib.AlreadyExists, nil)
	}
	t.mounts[n] = backend
	return nil
}

// Unmount removes the backend mounted at mountPath.
func (t *Table) Unmount(mountPath string) error {
	n, err := fspath.Normalize(mountPath)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if n == "/" {
		return fslib.NewError("unmount", mountPath, fslib.PermissionDenied, nil)
	}
	if _, exists := t.mounts[n]; !exists {
		return fslib.NewError("unmount", mountPath, fslib.NotFound, nil)
	}
	delete(t.mounts, n)
	return nil
}

// mountPaths returns a snapshot of currently mounted paths.
func (t *Table) mountPaths() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.mounts))
	for mp := range t.mounts {
		out = append(out, mp)
	}
	return out
}

// dispatch finds the longest-prefix mount covering p and returns its
// mount path, backend, and p relativized to that mount.
func (t *Table) dispatch(p string) (mountPath string, backend fslib.Backend, rel string, err error) {
	n, err := fspath.Normalize(p)
	if err != nil {
		return "", nil, "", err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	bestDepth := -1
	found := false
	for mp, be := range t.mounts {
		if !fspath.IsPrefix(mp, n) {
			continue
		}
		depth := fspath.Depth(mp)
		if !found || depth > bestDepth {
			mountPath, backend, bestDepth, found = mp, be, depth, true
		}
	}
	if !found {
		return "", nil, "", fslib.NewError("dispatch", p, fslib.NotFound, nil)
	}
	rel, err = fspath.RelativeTo(n, mountPath)
	if err != nil {
		return "", nil, "", err
	}
	return mountPath, backend, rel, nil
}

// ancestorOfMount reports whether p is an ancestor of (or equal to)
// any currently mounted path, making it a synthetic directory.
func (t *Table) ancestorOfMount(p string) bool {
	n, err := fspath.Normalize(p)
	if err != nil {
		return false
	}
	for _, mp := range t.mountPaths() {
		if fspath.IsPrefix(n, mp) {
			return true
		}
	}
	return false
}

// Exists implements fslib.Backend.
func (t *Table) Exists(ctx context.Context, p string) (bool, error) {
	if t.ancestorOfMount(p) {
		return true, nil
	}
	_, be, rel, err := t.dispatch(p)
	if fslib.IsKind(err, fslib.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return be.Exists(ctx, rel)
}

// IsFile implements fslib.Backend.
func (t *Table) IsFile(ctx context.Context, p string) (bool, error) {
	_, be, rel, err := t.dispatch(p)
	if fslib.IsKind(err, fslib.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return be.IsFile(ctx, rel)
}

// IsDir implements fslib.Backend.
func (t *Table) IsDir(ctx context.Context, p string) (bool, error) {
	if t.ancestorOfMount(p) {
		return true, nil
	}
	_, be, rel, err := t.dispatch(p)
	if fslib.IsKind(err, fslib.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return be.IsDir(ctx, rel)
}

// Stat implements fslib.Backend.
func (t *Table) Stat(ctx context.Context, p string) (fslib.Info, error) {
	if t.ancestorOfMount(p) {
		return fslib.Info{Kind: fslib.KindDir}, nil
	}
	_, be, rel, err := t.dispatch(p)
	if err != nil {
		return fslib.Info{}, err
	}
	return be.Stat(ctx, rel)
}

// Access implements fslib.Backend.
func (t *Table) Access(ctx context.Context, p string, mode fslib.AccessMode) (bool, error) {
	if t.ancestorOfMount(p) {
		return mode != fslib.AccessWrite, nil
	}
	_, be, rel, err := t.dispatch(p)
	if fslib.IsKind(err, fslib.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return be.Access(ctx, rel, mode)
}

// OpenRead implements fslib.Backend. Synthetic and real mount-root
// directories are never delegated to: reading one always fails
// IsADirectory.
func (t *Table) OpenRead(ctx context.Context, p string) (fslib.ReadStream, error) {
	if t.ancestorOfMount(p) {
		return nil, fslib.NewError("open_read", p, fslib.IsADirectory, nil)
	}
	_, be, rel, err := t.dispatch(p)
	if err != nil {
		return nil, err
	}
	return be.OpenRead(ctx, rel)
}

// ReadAll implements fslib.Backend.
func (t *Table) ReadAll(ctx context.Context, p string) ([]byte, error) {
	if t.ancestorOfMount(p) {
		return nil, fslib.NewError("read_all", p, fslib.IsADirectory, nil)
	}
	_, be, rel, err := t.dispatch(p)
	if err != nil {
		return nil, err
	}
	return be.ReadAll(ctx, rel)
}

// ListDir implements fslib.Backend: the union of the resolved
// backend's listing and the immediate-child component of every mount
// point strictly under p.
func (t *Table) ListDir(ctx context.Context, p string) ([]string, error) {
	n, err := fspath.Normalize(p)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var names []string
	haveEntries := false

	_, be, rel, derr := t.dispatch(n)
	if derr == nil {
		isDir, err := be.IsDir(ctx, rel)
		if err != nil {
			return nil, err
		}
		if isDir {
			children, err := be.ListDir(ctx, rel)
			if err != nil {
				return nil, err
			}
			haveEntries = true
			for _, c := range children {
				if !seen[c] {
					seen[c] = true
					names = append(names, c)
				}
			}
		}
	}

	for _, mp := range t.mountPaths() {
		childRel, err := fspath.RelativeTo(mp, n)
		if err != nil {
			continue // mp is not under n
		}
		comps := fspath.Components(childRel)
		if len(comps) == 0 {
			continue // mp == n, not a child
		}
		haveEntries = true
		name := comps[0]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	if !haveEntries {
		if derr != nil {
			return nil, derr
		}
		return nil, fslib.NewError("listdir", p, fslib.NotADirectory, nil)
	}
	return names, nil
}

// OpenWrite implements fslib.Backend. Synthetic and real mount-root
// directories are never delegated to: writing to one always fails
// IsADirectory rather than silently creating a real file in whichever
// backend happens to resolve underneath.
func (t *Table) OpenWrite(ctx context.Context, p string, mode fslib.OpenMode) (fslib.WriteStream, error) {
	if t.ancestorOfMount(p) {
		return nil, fslib.NewError("open_write", p, fslib.IsADirectory, nil)
	}
	_, be, rel, err := t.dispatch(p)
	if err != nil {
		return nil, err
	}
	return be.OpenWrite(ctx, rel, mode)
}

// Mkdir implements fslib.Backend. Idempotent no-op if p is a mount
// point or a synthetic ancestor of one; any other path is delegated to
// the backend it resolves to, with that backend's Mkdir semantics.
func (t *Table) Mkdir(ctx context.Context, p string, parents bool) error {
	if t.ancestorOfMount(p) {
		return nil
	}
	_, be, rel, err := t.dispatch(p)
	if err != nil {
		return err
	}
	return be.Mkdir(ctx, rel, parents)
}

// RemoveFile implements fslib.Backend. Synthetic and real mount-root
// directories are never delegated to.
func (t *Table) RemoveFile(ctx context.Context, p string) error {
	if t.ancestorOfMount(p) {
		return fslib.NewError("remove_file", p, fslib.IsADirectory, nil)
	}
	_, be, rel, err := t.dispatch(p)
	if err != nil {
		return err
	}
	return be.RemoveFile(ctx, rel)
}

// RemoveDir implements fslib.Backend. A path that is a mount point or
// a synthetic ancestor of one can never be removed this way: mounts
// are configuration, not ordinary directories.
func (t *Table) RemoveDir(ctx context.Context, p string) error {
	n, err := fspath.Normalize(p)
	if err != nil {
		return err
	}
	if t.ancestorOfMount(n) {
		return fslib.NewError("remove_dir", p, fslib.PermissionDenied, nil)
	}
	_, be, rel, err := t.dispatch(n)
	if err != nil {
		return err
	}
	return be.RemoveDir(ctx, rel)
}

// Rename implements fslib.Backend: cross-mount renames are rejected.
func (t *Table) Rename(ctx context.Context, src, dst string) error {
	srcMount, be, srcRel, err := t.dispatch(src)
	if err != nil {
		return err
	}
	dstMount, _, dstRel, err := t.dispatch(dst)
	if err != nil {
		return err
	}
	if srcMount != dstMount {
		return fslib.NewError("rename", src, fslib.CrossBackend, nil)
	}
	return be.Rename(ctx, srcRel, dstRel)
}

// Close closes every mounted backend.
func (t *Table) Close() error {
	t.mu.RLock()
	backends := make([]fslib.Backend, 0, len(t.mounts))
	for _, be := range t.mounts {
		backends = append(backends, be)
	}
	t.mu.RUnlock()

	var errs fslib.Errors
	for _, be := range backends {
		if err := be.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs.Err()
}
