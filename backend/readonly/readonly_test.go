package readonly

import (
	"context"
	"testing"

	"github.com/rbarrois/fslib"
	"github.com/rbarrois/fslib/backend/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackedMemory(t *testing.T, files map[string]string) *memory.Backend {
	t.Helper()
	m := memory.New(memory.Options{})
	ctx := context.Background()
	for p, data := range files {
		w, err := m.OpenWrite(ctx, p, fslib.OpenTruncate)
		require.NoError(t, err)
		_, err = w.Write([]byte(data))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}
	return m
}

func TestForwardsReads(t *testing.T) {
	m := newBackedMemory(t, map[string]string{"/a": "hello"})
	b := New(m)

	data, err := b.ReadAll(context.Background(), "/a")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestRejectsAllMutations(t *testing.T) {
	m := newBackedMemory(t, map[string]string{"/a": "hello"})
	b := New(m)
	ctx := context.Background()

	_, err := b.OpenWrite(ctx, "/a", fslib.OpenTruncate)
	require.Error(t, err)
	assert.True(t, fslib.IsKind(err, fslib.ReadOnly))

	err = b.Mkdir(ctx, "/d", false)
	require.Error(t, err)
	assert.True(t, fslib.IsKind(err, fslib.ReadOnly))

	err = b.RemoveFile(ctx, "/a")
	require.Error(t, err)
	assert.True(t, fslib.IsKind(err, fslib.ReadOnly))

	err = b.RemoveDir(ctx, "/d")
	require.Error(t, err)
	assert.True(t, fslib.IsKind(err, fslib.ReadOnly))

	err = b.Rename(ctx, "/a", "/b")
	require.Error(t, err)
	assert.True(t, fslib.IsKind(err, fslib.ReadOnly))
}

func TestAccessWriteAlwaysFalse(t *testing.T) {
	m := newBackedMemory(t, map[string]string{"/a": "hello"})
	b := New(m)

	ok, err := b.Access(context.Background(), "/a", fslib.AccessWrite)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnwrap(t *testing.T) {
	m := newBackedMemory(t, nil)
	b := New(m)
	assert.Same(t, fslib.Backend(m), b.Unwrap())
}
