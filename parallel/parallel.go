// File: parallel/parallel.go
// Package parallel runs range reductions without naming a pool.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The pool is picked from the context: a task already running on a pool
// worker keeps using that pool, an explicit WithPool override comes next, and
// everything else goes to the common pool.

package parallel

import (
	"context"

	"github.com/momentics/forkjoin/api"
	"github.com/momentics/forkjoin/core/concurrency"
)

type poolKey struct{}

// WithPool returns a context whose reductions run on p unless they already
// execute on a pool worker.
func WithPool(ctx context.Context, p *concurrency.Pool) context.Context {
	return context.WithValue(ctx, poolKey{}, p)
}

// PoolFor returns the pool a reduction started from ctx would run on.
func PoolFor(ctx context.Context) *concurrency.Pool {
	if ctx == nil {
		return concurrency.Common()
	}
	if w, ok := concurrency.WorkerFrom(ctx); ok {
		return w.Pool()
	}
	if p, ok := ctx.Value(poolKey{}).(*concurrency.Pool); ok && p != nil {
		return p
	}
	return concurrency.Common()
}

// Sum returns lo + (lo+1) + ... + hi, failing on int64 overflow.
func Sum(ctx context.Context, lo, hi int64) (int64, error) {
	return Invoke(ctx, api.Computation{Range: api.Range{Lo: lo, Hi: hi}})
}

// Reduce sums leaf over the leaves of r.
func Reduce(ctx context.Context, r api.Range, leaf api.LeafFunc) (int64, error) {
	return Invoke(ctx, api.Computation{Range: r, Leaf: leaf})
}

// Invoke submits c to PoolFor(ctx).
func Invoke(ctx context.Context, c api.Computation) (int64, error) {
	return PoolFor(ctx).Invoke(ctx, c)
}
