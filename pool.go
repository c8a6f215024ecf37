package svchost

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool is the worker pool a service runs its work on.
// *errgroup.Group satisfies it.
type Pool interface {
	// Go runs f on the pool, blocking while the pool is full.
	Go(f func() error)
	// TryGo runs f on the pool only if a worker is free.
	TryGo(f func() error) bool
}

var _ Pool = (*errgroup.Group)(nil)

// NewPool returns a pool limited to workers concurrent tasks
// and a context cancelled when the first task fails.
// workers <= 0 means no limit.
// Call Wait on the returned group after the host has shut down
// to collect the first error.
func NewPool(ctx context.Context, workers int) (*errgroup.Group, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	return g, ctx
}
