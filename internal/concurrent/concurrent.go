// Package concurrent runs independent pieces of work with bounded parallelism.
package concurrent

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForEach runs fn for every index in [0,n) on up to limit goroutines,
// stopping at the first error or context cancellation.
// A limit of zero or less defaults to GOMAXPROCS.
func ForEach(ctx context.Context, n, limit int, fn func(ctx context.Context, i int) error) error {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, limit)
loop:
	for i := 0; i < n; i++ {
		i := i
		select {
		case sem <- struct{}{}:
		case <-gctx.Done():
			break loop
		}
		g.Go(func() error {
			defer func() {
				<-sem
			}()
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
