// Package concurrent provides the bounded fan-out helper UnionBackend
// uses to dispatch a removal (or Close) across several branches at
// once; read lookups walk the branches sequentially instead.
//
// Grounded on rclone's backend/combine, which builds its upstream set
// with golang.org/x/sync/errgroup (combine.go: "g, gCtx :=
// errgroup.WithContext(ctx)" followed by one g.Go per upstream).
// UnionBackend.RemoveFile needs per-branch errors rather than a single
// first-error, so ForEach collects one error per index instead of
// short-circuiting the way errgroup.Wait does.
package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForEach runs fn(ctx, i) for i in [0, n) concurrently and returns one
// error per index, in order. A panic in fn is not recovered. fn
// receives a context derived from ctx via errgroup.WithContext, but
// ForEach never cancels early on the first error: every fn runs to
// completion so the caller can see every branch's outcome, letting
// UnionBackend.RemoveFile report which branch failed rather than abort
// early.
func ForEach(ctx context.Context, n int, fn func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			errs[i] = fn(gCtx, i)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}
