// Package union implements fslib's overlay Backend: it merges N ranked
// branches, answering reads from the most visible branch that has the
// path and routing writes to a writable branch.
//
// This is the algebraic core of fslib, grounded on rclone's
// backend/union (backend/union/union.go's Fs holding a []*upstream.Fs
// searched in visibility order, and backend/union/errors.go's Errors
// aggregate for reporting partial multi-branch failure on removal)
// generalized from rclone's configurable named policies
// (ff/epff/epmfs/...) down to a single fixed rank-ascending policy,
// with ties broken by insertion order.
package union

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/rbarrois/fslib"
	"github.com/rbarrois/fslib/fspath"
	"github.com/rbarrois/fslib/internal/concurrent"
	"github.com/rbarrois/fslib/internal/vfslog"
)

// Branch is one ranked member of a Backend.
type Branch struct {
	Backend  fslib.Backend
	Rank     int
	Writable bool
	Tag      string
}

// branchEntry adds the bookkeeping (insertion sequence) needed to
// break rank ties deterministically.
type branchEntry struct {
	Branch
	seq int
}

// Backend merges an ordered set of branches into one logical tree.
type Backend struct {
	mu       sync.RWMutex
	branches []*branchEntry
	nextSeq  int
}

// New constructs an empty Backend; branches are added with AddBranch.
func New() *Backend {
	return &Backend{}
}

// String identifies this backend for logging.
func (b *Backend) String() string {
	return "union"
}

var _ fslib.Backend = (*Backend)(nil)

// AddBranch adds a branch to the union under the composition lock:
// composition mutation is guarded by a read-write lock and not
// expected to race with path operations. If tag is empty a
// random tag is generated so the branch is always addressable by
// RemoveBranch, matching rclone's convention of giving every upstream
// a stable Name() to refer back to it by.
func (b *Backend) AddBranch(backend fslib.Backend, rank int, writable bool, tag string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if tag == "" {
		tag = uuid.New().String()
	}
	entry := &branchEntry{
		Branch: Branch{Backend: backend, Rank: rank, Writable: writable, Tag: tag},
		seq:    b.nextSeq,
	}
	b.nextSeq++
	b.branches = append(b.branches, entry)
	b.sortLocked()
	vfslog.Debugf(b, "added branch %s (rank=%d writable=%v)", tag, rank, writable)
	return tag
}

// RemoveBranch removes the branch with the given tag.
func (b *Backend) RemoveBranch(tag string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.branches {
		if e.Tag == tag {
			b.branches = append(b.branches[:i], b.branches[i+1:]...)
			return nil
		}
	}
	return fslib.NewError("remove_branch", tag, fslib.NotFound, nil)
}

// Branches returns a rank-ordered snapshot of the current branches.
func (b *Backend) Branches() []Branch {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Branch, len(b.branches))
	for i, e := range b.branches {
		out[i] = e.Branch
	}
	return out
}

// sortLocked orders branches by Rank ascending, breaking ties by
// insertion order. Caller must hold b.mu.
func (b *Backend) sortLocked() {
	sort.SliceStable(b.branches, func(i, j int) bool {
		if b.branches[i].Rank != b.branches[j].Rank {
			return b.branches[i].Rank < b.branches[j].Rank
		}
		return b.branches[i].seq < b.branches[j].seq
	})
}

// snapshot returns the current rank-ordered branch list without
// holding the lock for the duration of the caller's (possibly
// blocking) backend operations.
func (b *Backend) snapshot() []*branchEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*branchEntry, len(b.branches))
	copy(out, b.branches)
	return out
}

func (b *Backend) writableBranches() []*branchEntry {
	var out []*branchEntry
	for _, e := range b.snapshot() {
		if e.Writable {
			out = append(out, e)
		}
	}
	return out
}

// firstWritable returns the highest-visibility writable branch, or
// nil if none exists.
func firstWritable(branches []*branchEntry) *branchEntry {
	for _, e := range branches {
		if e.Writable {
			return e
		}
	}
	return nil
}

// lookup finds the highest-visibility branch where p exists (as file
// or dir).
func (b *Backend) lookup(ctx context.Context, p string) (*branchEntry, error) {
	for _, e := range b.snapshot() {
		ok, err := e.Backend.Exists(ctx, p)
		if err != nil {
			return nil, err
		}
		if ok {
			return e, nil
		}
	}
	return nil, fslib.NewError("lookup", p, fslib.NotFound, nil)
}

// Exists implements fslib.Backend.
func (b *Backend) Exists(ctx context.Context, p string) (bool, error) {
	_, err := b.lookup(ctx, p)
	if fslib.IsKind(err, fslib.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsFile implements fslib.Backend.
func (b *Backend) IsFile(ctx context.Context, p string) (bool, error) {
	e, err := b.lookup(ctx, p)
	if fslib.IsKind(err, fslib.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return e.Backend.IsFile(ctx, p)
}

// IsDir implements fslib.Backend.
func (b *Backend) IsDir(ctx context.Context, p string) (bool, error) {
	e, err := b.lookup(ctx, p)
	if fslib.IsKind(err, fslib.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return e.Backend.IsDir(ctx, p)
}

// Stat implements fslib.Backend.
func (b *Backend) Stat(ctx context.Context, p string) (fslib.Info, error) {
	e, err := b.lookup(ctx, p)
	if err != nil {
		return fslib.Info{}, err
	}
	return e.Backend.Stat(ctx, p)
}

// Access implements fslib.Backend.
func (b *Backend) Access(ctx context.Context, p string, mode fslib.AccessMode) (bool, error) {
	if mode == fslib.AccessWrite {
		return firstWritable(b.snapshot()) != nil, nil
	}
	e, err := b.lookup(ctx, p)
	if fslib.IsKind(err, fslib.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return e.Backend.Access(ctx, p, mode)
}

// OpenRead implements fslib.Backend: returns the content of the
// highest-visibility branch containing p as a file.
func (b *Backend) OpenRead(ctx context.Context, p string) (fslib.ReadStream, error) {
	e, err := b.lookup(ctx, p)
	if err != nil {
		return nil, err
	}
	return e.Backend.OpenRead(ctx, p)
}

// ReadAll implements fslib.Backend.
func (b *Backend) ReadAll(ctx context.Context, p string) ([]byte, error) {
	e, err := b.lookup(ctx, p)
	if err != nil {
		return nil, err
	}
	return e.Backend.ReadAll(ctx, p)
}

// ListDir implements fslib.Backend: the union of every branch's
// listing at p.
func (b *Backend) ListDir(ctx context.Context, p string) ([]string, error) {
	branches := b.snapshot()
	seen := map[string]bool{}
	var names []string
	found := false
	allFiles := true
	for _, e := range branches {
		ok, err := e.Backend.Exists(ctx, p)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		found = true
		isDir, err := e.Backend.IsDir(ctx, p)
		if err != nil {
			return nil, err
		}
		if !isDir {
			continue
		}
		allFiles = false
		children, err := e.Backend.ListDir(ctx, p)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if !seen[c] {
				seen[c] = true
				names = append(names, c)
			}
		}
	}
	if !found {
		return nil, fslib.NewError("listdir", p, fslib.NotFound, nil)
	}
	if allFiles {
		return nil, fslib.NewError("listdir", p, fslib.NotADirectory, nil)
	}
	return names, nil
}

// OpenWrite implements fslib.Backend: routes to the highest-visibility
// writable branch, creating missing parent directories there first.
// It never copy-promotes an existing lower-branch file: the new file
// simply shadows it from then on.
func (b *Backend) OpenWrite(ctx context.Context, p string, mode fslib.OpenMode) (fslib.WriteStream, error) {
	w := firstWritable(b.snapshot())
	if w == nil {
		return nil, fslib.NewError("open_write", p, fslib.ReadOnly, nil)
	}
	parent, _ := fspath.Split(p)
	if ok, err := w.Backend.Exists(ctx, parent); err != nil {
		return nil, err
	} else if !ok {
		if err := w.Backend.Mkdir(ctx, parent, true); err != nil {
			return nil, err
		}
	}
	return w.Backend.OpenWrite(ctx, p, mode)
}

// Mkdir implements fslib.Backend. Succeeds idempotently if p already
// exists as a directory in any branch, since directories are
// implicitly unioned.
func (b *Backend) Mkdir(ctx context.Context, p string, parents bool) error {
	branches := b.snapshot()
	for _, e := range branches {
		isDir, err := e.Backend.IsDir(ctx, p)
		if err != nil {
			return err
		}
		if isDir {
			return nil
		}
	}
	w := firstWritable(branches)
	if w == nil {
		return fslib.NewError("mkdir", p, fslib.ReadOnly, nil)
	}
	return w.Backend.Mkdir(ctx, p, parents)
}

// RemoveFile implements fslib.Backend: removes p from every branch
// that has it as a file. If any read-only branch contains p, the
// whole operation fails with ReadOnly and no branch is touched. Among
// writable branches, removal
// is the one documented non-atomic operation: prior removals are not
// rolled back if a later one fails, and the caller is told which
// branch failed via the returned Errors aggregate.
func (b *Backend) RemoveFile(ctx context.Context, p string) error {
	branches := b.snapshot()
	var containing []*branchEntry
	for _, e := range branches {
		isFile, err := e.Backend.IsFile(ctx, p)
		if err != nil {
			return err
		}
		if isFile {
			containing = append(containing, e)
		}
	}
	if len(containing) == 0 {
		return fslib.NewError("remove_file", p, fslib.NotFound, nil)
	}
	for _, e := range containing {
		if !e.Writable {
			return fslib.NewError("remove_file", p, fslib.ReadOnly, nil)
		}
	}

	errs := concurrent.ForEach(ctx, len(containing), func(ctx context.Context, i int) error {
		e := containing[i]
		if err := e.Backend.RemoveFile(ctx, p); err != nil {
			return fslib.NewError("remove_file", p, fslib.IOError, fmt.Errorf("branch %s: %w", e.Tag, err))
		}
		return nil
	})
	return fslib.Errors(errs).Err()
}

// RemoveDir implements fslib.Backend: succeeds only if p is empty in
// the unioned view and no read-only branch contains it, since
// otherwise removing it from the writable branches would leave a
// shadowed directory behind.
func (b *Backend) RemoveDir(ctx context.Context, p string) error {
	branches := b.snapshot()
	var containing []*branchEntry
	for _, e := range branches {
		isDir, err := e.Backend.IsDir(ctx, p)
		if err != nil {
			return err
		}
		if isDir {
			containing = append(containing, e)
		}
	}
	if len(containing) == 0 {
		return fslib.NewError("remove_dir", p, fslib.NotFound, nil)
	}
	children, err := b.ListDir(ctx, p)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return fslib.NewError("remove_dir", p, fslib.NotEmpty, nil)
	}
	for _, e := range containing {
		if !e.Writable {
			return fslib.NewError("remove_dir", p, fslib.ReadOnly, nil)
		}
	}
	errs := concurrent.ForEach(ctx, len(containing), func(ctx context.Context, i int) error {
		e := containing[i]
		if err := e.Backend.RemoveDir(ctx, p); err != nil {
			return fslib.NewError("remove_dir", p, fslib.IOError, err)
		}
		return nil
	})
	return fslib.Errors(errs).Err()
}

// Rename implements fslib.Backend: supported only when src resolves
// to a writable branch, which then also takes dst.
func (b *Backend) Rename(ctx context.Context, src, dst string) error {
	e, err := b.lookup(ctx, src)
	if err != nil {
		return err
	}
	if !e.Writable {
		return fslib.NewError("rename", src, fslib.CrossBackend, nil)
	}
	dstParent, _ := fspath.Split(dst)
	if ok, err := e.Backend.Exists(ctx, dstParent); err != nil {
		return err
	} else if !ok {
		if err := e.Backend.Mkdir(ctx, dstParent, true); err != nil {
			return err
		}
	}
	return e.Backend.Rename(ctx, src, dst)
}

// Close closes every branch, collecting per-branch errors.
func (b *Backend) Close() error {
	branches := b.snapshot()
	errs := concurrent.ForEach(context.Background(), len(branches), func(ctx context.Context, i int) error {
		return branches[i].Backend.Close()
	})
	return fslib.Errors(errs).Err()
}
