// Command fslib is a thin inspection CLI over a façade composed from
// fslib's backends: list, read, and stat a path, or print the
// rank-ordered branch list of a union composed from the command line,
// without writing any backend-specific glue.
//
// Grounded on rclone's cmd/ convention of one cobra.Command per
// verb wired to the core Fs/VFS layer (rclone's go.mod carries
// github.com/spf13/cobra for exactly this purpose); this is outer-surface
// tooling layered over the core backend contract, not part of it.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rbarrois/fslib"
	"github.com/rbarrois/fslib/backend/memory"
	"github.com/rbarrois/fslib/backend/osfs"
	"github.com/rbarrois/fslib/backend/union"
	"github.com/rbarrois/fslib/fspath"
	"github.com/rbarrois/fslib/vfs"
)

var globPattern string

func main() {
	root := cobra.Command{
		Use:   "fslib",
		Short: "Inspect a filesystem façade composed of osfs/memory/union backends",
	}
	root.AddCommand(newLsCmd(), newCatCmd(), newStatCmd(), newMountTreeCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openRootFromArg builds a single-backend façade for ls/cat/stat: "mem:"
// is an in-memory backend, anything else is an OS directory. mount-tree
// is the only command that composes multiple roots together, via
// openBranchFromArg.
func openRootFromArg(arg string) (*vfs.VFS, error) {
	if arg == "mem:" {
		return vfs.New(memory.New(memory.Options{})), nil
	}
	be, err := osfs.New(osfs.Options{Root: arg})
	if err != nil {
		return nil, err
	}
	return vfs.New(be), nil
}

// openBranchFromArg builds one union branch from a CLI argument: "mem:"
// is an in-memory backend, "ro:<dir>" is a read-only OS directory,
// anything else is a writable OS directory.
func openBranchFromArg(arg string) (be fslib.Backend, writable bool, err error) {
	writable = true
	if rest, ok := strings.CutPrefix(arg, "ro:"); ok {
		writable = false
		arg = rest
	}
	if arg == "mem:" {
		return memory.New(memory.Options{}), writable, nil
	}
	osBe, err := osfs.New(osfs.Options{Root: arg})
	if err != nil {
		return nil, false, err
	}
	return osBe, writable, nil
}

func newMountTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mount-tree <branch>...",
		Short: "Compose the given roots into a union and print its rank-ordered branches",
		Long: "Each <branch> is \"mem:\" for an in-memory backend, \"ro:<dir>\" for a " +
			"read-only OS directory, or a plain OS directory for a writable one. " +
			"Branches are ranked by argument order, most visible first.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := union.New()
			for rank, arg := range args {
				be, writable, err := openBranchFromArg(arg)
				if err != nil {
					return err
				}
				u.AddBranch(be, rank, writable, arg)
			}
			for _, br := range u.Branches() {
				fmt.Printf("rank=%d writable=%-5v tag=%-20s backend=%s\n", br.Rank, br.Writable, br.Tag, br.Backend)
			}
			return nil
		},
	}
}

func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls <root> <path>",
		Short: "List a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openRootFromArg(args[0])
			if err != nil {
				return err
			}
			names, err := v.ListDir(context.Background(), args[1])
			if err != nil {
				return err
			}
			for _, name := range names {
				if globPattern != "" {
					p, err := fspath.Join(args[1], name)
					if err != nil {
						return err
					}
					ok, err := fspath.Match(globPattern, p)
					if err != nil {
						return err
					}
					if !ok {
						continue
					}
				}
				fmt.Println(name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&globPattern, "glob", "", "only print entries matching this doublestar glob")
	return cmd
}

func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <root> <path>",
		Short: "Print a file's contents",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openRootFromArg(args[0])
			if err != nil {
				return err
			}
			data, err := v.ReadAll(context.Background(), args[1])
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}

func newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <root> <path>",
		Short: "Print metadata for a path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openRootFromArg(args[0])
			if err != nil {
				return err
			}
			info, err := v.Stat(context.Background(), args[1])
			if err != nil {
				return err
			}
			fmt.Printf("kind=%s size=%d modtime=%s\n", info.Kind, info.Size, info.ModTime)
			return nil
		},
	}
}
