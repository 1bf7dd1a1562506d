package fspath

import "github.com/bmatcuk/doublestar/v4"

// Match reports whether the normalized path p matches the doublestar
// glob pattern (e.g. "/var/**/*.log"). Used only by cmd/fslib's ls
// --glob flag; never consulted by core
// dispatch — UnionBackend and MountTable match on exact path
// components only.
func Match(pattern, p string) (bool, error) {
	n, err := Normalize(p)
	if err != nil {
		return false, err
	}
	return doublestar.Match(pattern, n)
}
