// Package memory implements fslib's in-process reference Backend: a
// tree of nodes held entirely in memory, volatile across restarts.
//
// Grounded on rclone's backend/memory (mutex-guarded maps, an Options
// struct, a Name/Root/String triad) but reshaped from memory's flat
// bucket/key object store into a directory tree of nodes: a real
// listdir and mkdir need parent/child structure that a flat key space
// doesn't give you for free.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rbarrois/fslib"
	"github.com/rbarrois/fslib/fspath"
	"github.com/rbarrois/fslib/internal/vfslog"
)

// Options defines the configuration for a Backend. Memory takes none
// today; kept as a struct (rather than a bare constructor) to match
// the Options-struct convention every other fslib backend follows.
type Options struct{}

// node is either a directory (children, insertion-ordered) or a file
// (bytes + mtime). Every node but the root has a parent.
type node struct {
	isDir    bool
	children map[string]*node
	order    []string // insertion order of children, for listdir
	data     []byte
	modTime  time.Time
}

func newDir() *node {
	return &node{isDir: true, children: map[string]*node{}}
}

// Backend is the in-memory reference implementation of fslib.Backend.
type Backend struct {
	mu   sync.RWMutex
	opt  Options
	root *node
}

// New constructs an empty Backend.
func New(opt Options) *Backend {
	return &Backend{opt: opt, root: newDir()}
}

// String identifies this backend for logging, matching rclone's
// Fs.String() convention.
func (b *Backend) String() string {
	return "memory"
}

var _ fslib.Backend = (*Backend)(nil)

// walk resolves p to its node (file or directory) with a nil error;
// any missing component is NotFound, and descending through a file is
// NotADirectory.
func (b *Backend) walk(op, p string) (*node, error) {
	n, err := fspath.Normalize(p)
	if err != nil {
		return nil, err
	}
	cur := b.root
	for _, c := range fspath.Components(n) {
		if !cur.isDir {
			return nil, fslib.NewError(op, p, fslib.NotADirectory, nil)
		}
		next, ok := cur.children[c]
		if !ok {
			return nil, fslib.NewError(op, p, fslib.NotFound, nil)
		}
		cur = next
	}
	return cur, nil
}

// walkParent resolves the parent directory of p, which must exist and
// be a directory, and returns it along with p's leaf name.
func (b *Backend) walkParent(op, p string) (*node, string, error) {
	parent, leaf := fspath.Split(p)
	if leaf == "" {
		return nil, "", fslib.NewError(op, p, fslib.InvalidPath, nil)
	}
	pn, err := b.walk(op, parent)
	if err != nil {
		return nil, "", err
	}
	if !pn.isDir {
		return nil, "", fslib.NewError(op, p, fslib.NotADirectory, nil)
	}
	return pn, leaf, nil
}

func (pn *node) addChild(name string, child *node) {
	if _, exists := pn.children[name]; !exists {
		pn.order = append(pn.order, name)
	}
	pn.children[name] = child
}

func (pn *node) removeChild(name string) {
	delete(pn.children, name)
	for i, n := range pn.order {
		if n == name {
			pn.order = append(pn.order[:i], pn.order[i+1:]...)
			break
		}
	}
}

// Exists implements fslib.Backend.
func (b *Backend) Exists(ctx context.Context, p string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, err := b.walk("exists", p)
	if fslib.IsKind(err, fslib.NotFound) || fslib.IsKind(err, fslib.NotADirectory) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsFile implements fslib.Backend.
func (b *Backend) IsFile(ctx context.Context, p string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, err := b.walk("is_file", p)
	if fslib.IsKind(err, fslib.NotFound) || fslib.IsKind(err, fslib.NotADirectory) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !n.isDir, nil
}

// IsDir implements fslib.Backend.
func (b *Backend) IsDir(ctx context.Context, p string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, err := b.walk("is_dir", p)
	if fslib.IsKind(err, fslib.NotFound) || fslib.IsKind(err, fslib.NotADirectory) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n.isDir, nil
}

// Stat implements fslib.Backend.
func (b *Backend) Stat(ctx context.Context, p string) (fslib.Info, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, err := b.walk("stat", p)
	if err != nil {
		return fslib.Info{}, err
	}
	if n.isDir {
		return fslib.Info{Kind: fslib.KindDir}, nil
	}
	return fslib.Info{Size: int64(len(n.data)), ModTime: n.modTime, Kind: fslib.KindFile}, nil
}

// Access implements fslib.Backend.
func (b *Backend) Access(ctx context.Context, p string, mode fslib.AccessMode) (bool, error) {
	ok, err := b.Exists(ctx, p)
	if err != nil || !ok {
		return false, err
	}
	// Memory imposes no read/write gating of its own; coarse
	// read/write policy lives in backend/readonly.
	return true, nil
}

// OpenRead implements fslib.Backend.
func (b *Backend) OpenRead(ctx context.Context, p string) (fslib.ReadStream, error) {
	data, err := b.ReadAll(ctx, p)
	if err != nil {
		return nil, err
	}
	return readCloser{bytes.NewReader(data)}, nil
}

// ReadAll implements fslib.Backend.
func (b *Backend) ReadAll(ctx context.Context, p string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, err := b.walk("read_all", p)
	if err != nil {
		return nil, err
	}
	if n.isDir {
		return nil, fslib.NewError("read_all", p, fslib.IsADirectory, nil)
	}
	out := make([]byte, len(n.data))
	copy(out, n.data)
	return out, nil
}

// ListDir implements fslib.Backend.
func (b *Backend) ListDir(ctx context.Context, p string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, err := b.walk("listdir", p)
	if err != nil {
		return nil, err
	}
	if !n.isDir {
		return nil, fslib.NewError("listdir", p, fslib.NotADirectory, nil)
	}
	names := make([]string, len(n.order))
	copy(names, n.order)
	return names, nil
}

// OpenWrite implements fslib.Backend.
func (b *Backend) OpenWrite(ctx context.Context, p string, mode fslib.OpenMode) (fslib.WriteStream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	parent, leaf, err := b.walkParent("open_write", p)
	if err != nil {
		return nil, err
	}
	existing, ok := parent.children[leaf]
	if ok && existing.isDir {
		return nil, fslib.NewError("open_write", p, fslib.IsADirectory, nil)
	}

	var initial []byte
	if ok && mode == fslib.OpenAppend {
		initial = append(initial, existing.data...)
	}
	fn := &node{isDir: false, data: initial, modTime: time.Now()}
	parent.addChild(leaf, fn)
	vfslog.Debugf(b, "opened %s for write (mode=%v)", p, mode)
	return &writeStream{backend: b, node: fn}, nil
}

// Mkdir implements fslib.Backend.
func (b *Backend) Mkdir(ctx context.Context, p string, parents bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, err := fspath.Normalize(p)
	if err != nil {
		return err
	}
	if n == "/" {
		return nil
	}
	components := fspath.Components(n)
	cur := b.root
	for i, c := range components {
		last := i == len(components)-1
		next, ok := cur.children[c]
		if !ok {
			if !parents && !last {
				return fslib.NewError("mkdir", p, fslib.NotFound, nil)
			}
			next = newDir()
			cur.addChild(c, next)
			cur = next
			continue
		}
		if !next.isDir {
			if last {
				return fslib.NewError("mkdir", p, fslib.AlreadyExists, nil)
			}
			return fslib.NewError("mkdir", p, fslib.NotADirectory, nil)
		}
		if last && !parents {
			return fslib.NewError("mkdir", p, fslib.AlreadyExists, nil)
		}
		cur = next
	}
	return nil
}

// RemoveFile implements fslib.Backend.
func (b *Backend) RemoveFile(ctx context.Context, p string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	parent, leaf, err := b.walkParent("remove_file", p)
	if err != nil {
		return err
	}
	n, ok := parent.children[leaf]
	if !ok {
		return fslib.NewError("remove_file", p, fslib.NotFound, nil)
	}
	if n.isDir {
		return fslib.NewError("remove_file", p, fslib.IsADirectory, nil)
	}
	parent.removeChild(leaf)
	return nil
}

// RemoveDir implements fslib.Backend.
func (b *Backend) RemoveDir(ctx context.Context, p string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, err := fspath.Normalize(p)
	if err != nil {
		return err
	}
	if n == "/" {
		return fslib.NewError("remove_dir", p, fslib.PermissionDenied, nil)
	}
	parent, leaf, err := b.walkParent("remove_dir", p)
	if err != nil {
		return err
	}
	target, ok := parent.children[leaf]
	if !ok {
		return fslib.NewError("remove_dir", p, fslib.NotFound, nil)
	}
	if !target.isDir {
		return fslib.NewError("remove_dir", p, fslib.NotADirectory, nil)
	}
	if len(target.children) > 0 {
		return fslib.NewError("remove_dir", p, fslib.NotEmpty, nil)
	}
	parent.removeChild(leaf)
	return nil
}

// Rename implements fslib.Backend. Performed atomically with respect
// to other operations on this backend: the whole move happens while
// b.mu is held.
func (b *Backend) Rename(ctx context.Context, src, dst string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	srcParent, srcLeaf, err := b.walkParent("rename", src)
	if err != nil {
		return err
	}
	n, ok := srcParent.children[srcLeaf]
	if !ok {
		return fslib.NewError("rename", src, fslib.NotFound, nil)
	}
	dstParent, dstLeaf, err := b.walkParent("rename", dst)
	if err != nil {
		return err
	}
	if existing, ok := dstParent.children[dstLeaf]; ok {
		if existing.isDir {
			return fslib.NewError("rename", dst, fslib.IsADirectory, nil)
		}
		if n.isDir {
			return fslib.NewError("rename", dst, fslib.NotADirectory, nil)
		}
	}
	srcParent.removeChild(srcLeaf)
	dstParent.addChild(dstLeaf, n)
	return nil
}

// Close implements fslib.Backend. Memory holds no external resources.
func (b *Backend) Close() error {
	return nil
}

// Clone returns a deep copy of b: every directory and file node is
// duplicated, so mutating the clone (or the original) afterward never
// aliases the other's tree. Used only by tests that need a snapshot to
// assert against while continuing to mutate the live backend.
func (b *Backend) Clone() *Backend {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return &Backend{opt: b.opt, root: cloneNode(b.root)}
}

func cloneNode(n *node) *node {
	if !n.isDir {
		data := make([]byte, len(n.data))
		copy(data, n.data)
		return &node{data: data, modTime: n.modTime}
	}
	clone := newDir()
	clone.order = append(clone.order, n.order...)
	for name, child := range n.children {
		clone.children[name] = cloneNode(child)
	}
	return clone
}

// readCloser adapts a bytes.Reader to fslib.ReadStream.
type readCloser struct {
	*bytes.Reader
}

func (readCloser) Close() error { return nil }

// writeStream buffers writes and commits them to the node on Close,
// matching fslib.WriteStream's release-on-close, not per-write
// contract.
type writeStream struct {
	backend *Backend
	node    *node
	buf     bytes.Buffer
	closed  bool
}

func (w *writeStream) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write to closed stream")
	}
	return w.buf.Write(p)
}

func (w *writeStream) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.backend.mu.Lock()
	defer w.backend.mu.Unlock()
	w.node.data = append(w.node.data, w.buf.Bytes()...)
	w.node.modTime = time.Now()
	return nil
}
