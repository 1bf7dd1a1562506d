package union

import (
	"context"
	"testing"

	"github.com/rbarrois/fslib"
	"github.com/rbarrois/fslib/backend/memory"
	"github.com/rbarrois/fslib/backend/readonly"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, be fslib.Backend, p, data string) {
	t.Helper()
	ctx := context.Background()
	if parent, _ := splitParent(p); parent != "/" {
		_ = be.Mkdir(ctx, parent, true)
	}
	w, err := be.OpenWrite(ctx, p, fslib.OpenTruncate)
	require.NoError(t, err)
	_, err = w.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func splitParent(p string) (string, string) {
	i := len(p) - 1
	for i > 0 && p[i] != '/' {
		i--
	}
	if i == 0 {
		return "/", p[1:]
	}
	return p[:i], p[i+1:]
}

func TestReadLookupHighestVisibility(t *testing.T) {
	base := memory.New(memory.Options{})
	overlay := memory.New(memory.Options{})
	writeFile(t, base, "/a", "base")
	writeFile(t, overlay, "/a", "overlay")

	u := New()
	u.AddBranch(base, 10, true, "base")
	u.AddBranch(overlay, 0, true, "overlay")

	data, err := u.ReadAll(context.Background(), "/a")
	require.NoError(t, err)
	assert.Equal(t, "overlay", string(data))
}

func TestWriteRoutesToHighestVisibilityWritable(t *testing.T) {
	base := memory.New(memory.Options{})
	roBranch := readonly.New(memory.New(memory.Options{}))

	u := New()
	u.AddBranch(roBranch, 0, false, "ro")
	u.AddBranch(base, 10, true, "base")

	ctx := context.Background()
	w, err := u.OpenWrite(ctx, "/a", fslib.OpenTruncate)
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := base.ReadAll(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestWriteFailsWhenNoWritableBranch(t *testing.T) {
	ro := readonly.New(memory.New(memory.Options{}))
	u := New()
	u.AddBranch(ro, 0, false, "ro")

	_, err := u.OpenWrite(context.Background(), "/a", fslib.OpenTruncate)
	require.Error(t, err)
	assert.True(t, fslib.IsKind(err, fslib.ReadOnly))
}

func TestListDirUnionsAllBranches(t *testing.T) {
	a := memory.New(memory.Options{})
	b := memory.New(memory.Options{})
	writeFile(t, a, "/x", "1")
	writeFile(t, b, "/y", "2")

	u := New()
	u.AddBranch(a, 0, true, "a")
	u.AddBranch(b, 1, true, "b")

	names, err := u.ListDir(context.Background(), "/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y"}, names)
}

func TestRemoveFileFailsIfAnyReadOnlyBranchHasIt(t *testing.T) {
	writable := memory.New(memory.Options{})
	roInner := memory.New(memory.Options{})
	writeFile(t, writable, "/a", "1")
	writeFile(t, roInner, "/a", "2")
	ro := readonly.New(roInner)

	u := New()
	u.AddBranch(writable, 0, true, "w")
	u.AddBranch(ro, 1, false, "ro")

	err := u.RemoveFile(context.Background(), "/a")
	require.Error(t, err)
	assert.True(t, fslib.IsKind(err, fslib.ReadOnly))

	exists, err := writable.Exists(context.Background(), "/a")
	require.NoError(t, err)
	assert.True(t, exists, "no branch should be touched when removal is rejected")
}

func TestRemoveFileAcrossWritableBranches(t *testing.T) {
	a := memory.New(memory.Options{})
	b := memory.New(memory.Options{})
	writeFile(t, a, "/a", "1")
	writeFile(t, b, "/a", "2")

	u := New()
	u.AddBranch(a, 0, true, "a")
	u.AddBranch(b, 1, true, "b")

	require.NoError(t, u.RemoveFile(context.Background(), "/a"))

	existsA, _ := a.Exists(context.Background(), "/a")
	existsB, _ := b.Exists(context.Background(), "/a")
	assert.False(t, existsA)
	assert.False(t, existsB)
}

func TestRemoveDirRequiresUnionedEmpty(t *testing.T) {
	a := memory.New(memory.Options{})
	b := memory.New(memory.Options{})
	require.NoError(t, a.Mkdir(context.Background(), "/d", false))
	require.NoError(t, b.Mkdir(context.Background(), "/d", false))
	writeFile(t, b, "/d/f", "1")

	u := New()
	u.AddBranch(a, 0, true, "a")
	u.AddBranch(b, 1, true, "b")

	err := u.RemoveDir(context.Background(), "/d")
	require.Error(t, err)
	assert.True(t, fslib.IsKind(err, fslib.NotEmpty))
}

func TestRenameRequiresWritableSource(t *testing.T) {
	roInner := memory.New(memory.Options{})
	writeFile(t, roInner, "/a", "1")
	ro := readonly.New(roInner)

	u := New()
	u.AddBranch(ro, 0, false, "ro")

	err := u.Rename(context.Background(), "/a", "/b")
	require.Error(t, err)
	assert.True(t, fslib.IsKind(err, fslib.CrossBackend))
}

func TestAddRemoveBranch(t *testing.T) {
	u := New()
	tag := u.AddBranch(memory.New(memory.Options{}), 0, true, "")
	assert.NotEmpty(t, tag)
	assert.Len(t, u.Branches(), 1)

	require.NoError(t, u.RemoveBranch(tag))
	assert.Len(t, u.Branches(), 0)

	err := u.RemoveBranch(tag)
	require.Error(t, err)
	assert.True(t, fslib.IsKind(err, fslib.NotFound))
}
