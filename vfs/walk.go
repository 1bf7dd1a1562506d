package vfs

import (
	"context"

	"github.com/rbarrois/fslib"
	"github.com/rbarrois/fslib/fspath"
)

// WalkFunc is called once per path visited by Walk, in order of
// traversal.
type WalkFunc func(path string, info fslib.Info) error

// Walk recursively descends root via ListDir, calling fn for root and
// every descendant, in the manner of rclone's fs/walk package.
func (v *VFS) Walk(ctx context.Context, root string, fn WalkFunc) error {
	info, err := v.root.Stat(ctx, root)
	if err != nil {
		return err
	}
	if err := fn(root, info); err != nil {
		return err
	}
	if info.Kind != fslib.KindDir {
		return nil
	}
	names, err := v.root.ListDir(ctx, root)
	if err != nil {
		return err
	}
	for _, name := range names {
		child, err := fspath.Join(root, name)
		if err != nil {
			return err
		}
		if err := v.Walk(ctx, child, fn); err != nil {
			return err
		}
	}
	return nil
}
