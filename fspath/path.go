// Package fspath implements pure path normalization for fslib: no I/O,
// no backend awareness. Every Backend and composition layer in fslib
// normalizes through this package before touching storage.
//
// The join/adjustment arithmetic mirrors the mountpoint<->root
// rewriting in rclone's backend/combine (adjustment.do/.undo),
// generalized from "rewrite between one upstream root and the combine
// root" to a general-purpose normalize/join/split/relativeTo contract.
package fspath

import (
	"strings"

	"github.com/rbarrois/fslib"
)

// Normalize returns the canonical absolute form of p: components are
// split on '/', "." is dropped, ".." is resolved lexically, and
// trailing slashes are removed. Fails with InvalidPath if p is empty,
// contains a NUL byte, or does not start with '/'.
func Normalize(p string) (string, error) {
	if p == "" {
		return "", fslib.NewError("normalize", p, fslib.InvalidPath, nil)
	}
	if strings.IndexByte(p, 0) >= 0 {
		return "", fslib.NewError("normalize", p, fslib.InvalidPath, nil)
	}
	if !strings.HasPrefix(p, "/") {
		return "", fslib.NewError("normalize", p, fslib.InvalidPath, nil)
	}

	parts := strings.Split(p, "/")
	stack := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			// lexical resolution only: ".." above root is a no-op,
			// never an escape.
		default:
			stack = append(stack, part)
		}
	}
	if len(stack) == 0 {
		return "/", nil
	}
	return "/" + strings.Join(stack, "/"), nil
}

// MustNormalize is Normalize but panics on error; reserved for
// compile-time-known constants such as "/".
func MustNormalize(p string) string {
	n, err := Normalize(p)
	if err != nil {
		panic(err)
	}
	return n
}

// Split returns the parent and leaf component of p. Split("/") returns
// ("/", "").
func Split(p string) (parent, leaf string) {
	n, err := Normalize(p)
	if err != nil {
		return p, ""
	}
	if n == "/" {
		return "/", ""
	}
	idx := strings.LastIndexByte(n, '/')
	leaf = n[idx+1:]
	if idx == 0 {
		return "/", leaf
	}
	return n[:idx], leaf
}

// Join normalizes the concatenation of a and b. If b is absolute it
// replaces a entirely; otherwise it is appended as a relative suffix.
func Join(a, b string) (string, error) {
	if strings.HasPrefix(b, "/") {
		return Normalize(b)
	}
	if a == "" {
		a = "/"
	}
	if !strings.HasSuffix(a, "/") {
		a += "/"
	}
	return Normalize(a + b)
}

// IsPrefix reports whether prefix is a component-boundary ancestor of
// (or equal to) p. "/a/bb" is not prefixed by "/a/b".
func IsPrefix(prefix, p string) bool {
	np, err1 := Normalize(p)
	nprefix, err2 := Normalize(prefix)
	if err1 != nil || err2 != nil {
		return false
	}
	if nprefix == "/" {
		return true
	}
	if np == nprefix {
		return true
	}
	return strings.HasPrefix(np, nprefix+"/")
}

// RelativeTo returns the components of p beneath base, joined back
// into an absolute path rooted at "/". Fails with NotUnderBase if p is
// not a descendant of (or equal to) base.
func RelativeTo(p, base string) (string, error) {
	np, err := Normalize(p)
	if err != nil {
		return "", err
	}
	nbase, err := Normalize(base)
	if err != nil {
		return "", err
	}
	if nbase == "/" {
		return np, nil
	}
	if np == nbase {
		return "/", nil
	}
	if !strings.HasPrefix(np, nbase+"/") {
		return "", fslib.NewError("relative_to", p, fslib.NotUnderBase, nil)
	}
	return np[len(nbase):], nil
}

// Components splits a normalized absolute path into its non-empty
// components. Components("/") returns an empty slice.
func Components(p string) []string {
	n, err := Normalize(p)
	if err != nil || n == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(n, "/"), "/")
}

// Depth returns the number of components in p ("/" has depth 0).
func Depth(p string) int {
	return len(Components(p))
}
