package memory

import (
	"context"
	"io"
	"testing"

	"github.com/rbarrois/fslib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustWrite(t *testing.T, b *Backend, p string, data string) {
	t.Helper()
	w, err := b.OpenWrite(context.Background(), p, fslib.OpenTruncate)
	require.NoError(t, err)
	_, err = w.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestWriteThenReadAll(t *testing.T) {
	b := New(Options{})
	ctx := context.Background()
	mustWrite(t, b, "/a", "hello")

	data, err := b.ReadAll(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestReadStable(t *testing.T) {
	b := New(Options{})
	ctx := context.Background()
	mustWrite(t, b, "/a", "hello")

	first, err := b.ReadAll(ctx, "/a")
	require.NoError(t, err)
	second, err := b.ReadAll(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestOpenWriteMissingParent(t *testing.T) {
	b := New(Options{})
	_, err := b.OpenWrite(context.Background(), "/missing/a", fslib.OpenTruncate)
	require.Error(t, err)
	assert.True(t, fslib.IsKind(err, fslib.NotFound))
}

func TestOpenWriteOnDirectory(t *testing.T) {
	b := New(Options{})
	ctx := context.Background()
	require.NoError(t, b.Mkdir(ctx, "/d", false))

	_, err := b.OpenWrite(ctx, "/d", fslib.OpenTruncate)
	require.Error(t, err)
	assert.True(t, fslib.IsKind(err, fslib.IsADirectory))
}

func TestAppend(t *testing.T) {
	b := New(Options{})
	ctx := context.Background()
	mustWrite(t, b, "/a", "hello")

	w, err := b.OpenWrite(ctx, "/a", fslib.OpenAppend)
	require.NoError(t, err)
	_, err = w.Write([]byte(" world"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := b.ReadAll(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestMkdirParents(t *testing.T) {
	b := New(Options{})
	ctx := context.Background()

	err := b.Mkdir(ctx, "/a/b/c", false)
	require.Error(t, err)
	assert.True(t, fslib.IsKind(err, fslib.NotFound))

	require.NoError(t, b.Mkdir(ctx, "/a/b/c", true))
	isDir, err := b.IsDir(ctx, "/a/b/c")
	require.NoError(t, err)
	assert.True(t, isDir)

	// idempotent
	require.NoError(t, b.Mkdir(ctx, "/a/b/c", true))
}

func TestMkdirOverFile(t *testing.T) {
	b := New(Options{})
	ctx := context.Background()
	mustWrite(t, b, "/a", "x")

	err := b.Mkdir(ctx, "/a", true)
	require.Error(t, err)
	assert.True(t, fslib.IsKind(err, fslib.AlreadyExists))
}

func TestListDirInsertionOrder(t *testing.T) {
	b := New(Options{})
	ctx := context.Background()
	mustWrite(t, b, "/z", "1")
	mustWrite(t, b, "/a", "2")
	mustWrite(t, b, "/m", "3")

	names, err := b.ListDir(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, names)
}

func TestListDirNotFound(t *testing.T) {
	b := New(Options{})
	_, err := b.ListDir(context.Background(), "/nope")
	require.Error(t, err)
	assert.True(t, fslib.IsKind(err, fslib.NotFound))
}

func TestListDirNotADirectory(t *testing.T) {
	b := New(Options{})
	ctx := context.Background()
	mustWrite(t, b, "/f", "x")
	_, err := b.ListDir(ctx, "/f")
	require.Error(t, err)
	assert.True(t, fslib.IsKind(err, fslib.NotADirectory))
}

func TestRemoveFile(t *testing.T) {
	b := New(Options{})
	ctx := context.Background()
	mustWrite(t, b, "/a", "x")

	require.NoError(t, b.RemoveFile(ctx, "/a"))
	exists, err := b.Exists(ctx, "/a")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRemoveDirRequiresEmpty(t *testing.T) {
	b := New(Options{})
	ctx := context.Background()
	require.NoError(t, b.Mkdir(ctx, "/d", false))
	mustWrite(t, b, "/d/f", "x")

	err := b.RemoveDir(ctx, "/d")
	require.Error(t, err)
	assert.True(t, fslib.IsKind(err, fslib.NotEmpty))

	require.NoError(t, b.RemoveFile(ctx, "/d/f"))
	require.NoError(t, b.RemoveDir(ctx, "/d"))
}

func TestRenameAtomicView(t *testing.T) {
	b := New(Options{})
	ctx := context.Background()
	mustWrite(t, b, "/a", "x")

	require.NoError(t, b.Rename(ctx, "/a", "/b"))
	exists, err := b.Exists(ctx, "/a")
	require.NoError(t, err)
	assert.False(t, exists)

	data, err := b.ReadAll(ctx, "/b")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestOpenReadImplementsIoReadCloser(t *testing.T) {
	b := New(Options{})
	ctx := context.Background()
	mustWrite(t, b, "/a", "hello")

	r, err := b.OpenRead(ctx, "/a")
	require.NoError(t, err)
	var _ io.ReadCloser = r
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	require.NoError(t, r.Close())
}

func TestCloneIsIndependentOfOriginal(t *testing.T) {
	b := New(Options{})
	ctx := context.Background()
	mustWrite(t, b, "/a", "original")
	require.NoError(t, b.Mkdir(ctx, "/d", false))

	snapshot := b.Clone()

	mustWrite(t, b, "/a", "changed")
	mustWrite(t, b, "/d/new", "added after clone")

	data, err := snapshot.ReadAll(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))

	exists, err := snapshot.Exists(ctx, "/d/new")
	require.NoError(t, err)
	assert.False(t, exists, "clone must not see writes made to the original after Clone")

	names, err := snapshot.ListDir(ctx, "/d")
	require.NoError(t, err)
	assert.Empty(t, names)
}
