package fspath

import (
	"testing"

	"github.com/rbarrois/fslib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"/", "/"},
		{"/a", "/a"},
		{"/a/", "/a"},
		{"/a//b", "/a/b"},
		{"/a/./b", "/a/b"},
		{"/a/../b", "/b"},
		{"/a/b/../../c", "/c"},
		{"/../a", "/a"},
	} {
		got, err := Normalize(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNormalizeInvalid(t *testing.T) {
	for _, in := range []string{"", "a", "relative/path", "/has\x00null"} {
		_, err := Normalize(in)
		require.Error(t, err, in)
		assert.True(t, fslib.IsKind(err, fslib.InvalidPath), in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, in := range []string{"/a/b/c", "/a/../b/./c/", "/"} {
		once, err := Normalize(in)
		require.NoError(t, err)
		twice, err := Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestSplit(t *testing.T) {
	for _, tc := range []struct {
		in         string
		wantParent string
		wantLeaf   string
	}{
		{"/", "/", ""},
		{"/a", "/", "a"},
		{"/a/b", "/a", "b"},
		{"/a/b/c", "/a/b", "c"},
	} {
		parent, leaf := Split(tc.in)
		assert.Equal(t, tc.wantParent, parent, tc.in)
		assert.Equal(t, tc.wantLeaf, leaf, tc.in)
	}
}

func TestJoin(t *testing.T) {
	for _, tc := range []struct {
		a, b, want string
	}{
		{"/a", "b", "/a/b"},
		{"/a/", "b", "/a/b"},
		{"/a", "/b", "/b"},
		{"/a", "./b", "/a/b"},
		{"/a/b", "../c", "/a/c"},
	} {
		got, err := Join(tc.a, tc.b)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestRelativeTo(t *testing.T) {
	got, err := RelativeTo("/a/b/c", "/a")
	require.NoError(t, err)
	assert.Equal(t, "/b/c", got)

	got, err = RelativeTo("/a", "/a")
	require.NoError(t, err)
	assert.Equal(t, "/", got)

	got, err = RelativeTo("/a", "/")
	require.NoError(t, err)
	assert.Equal(t, "/a", got)

	_, err = RelativeTo("/b/c", "/a")
	require.Error(t, err)
	assert.True(t, fslib.IsKind(err, fslib.NotUnderBase))
}

func TestIsPrefix(t *testing.T) {
	assert.True(t, IsPrefix("/a", "/a/b"))
	assert.True(t, IsPrefix("/a", "/a"))
	assert.True(t, IsPrefix("/", "/a/b"))
	assert.False(t, IsPrefix("/a/b", "/a/bb"))
	assert.False(t, IsPrefix("/a/bb", "/a/b"))
}

func TestComponentsAndDepth(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Components("/a/b"))
	assert.Nil(t, Components("/"))
	assert.Equal(t, 0, Depth("/"))
	assert.Equal(t, 2, Depth("/a/b"))
}
