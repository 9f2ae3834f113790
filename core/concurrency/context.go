// File: core/concurrency/context.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The executing runner travels in the context handed to leaves, which is how
// nested submissions find out whether they already run inside a pool.

package concurrency

import (
	"context"

	"github.com/momentics/forkjoin/api"
)

type runnerKey struct{}

// WithRunner returns a context carrying r.
func WithRunner(ctx context.Context, r api.Runner) context.Context {
	return context.WithValue(ctx, runnerKey{}, r)
}

// RunnerFrom returns the runner executing the current task, if any.
func RunnerFrom(ctx context.Context) (api.Runner, bool) {
	r, ok := ctx.Value(runnerKey{}).(api.Runner)
	return r, ok && r != nil
}

// WorkerFrom returns the pool worker executing the current task, if any.
func WorkerFrom(ctx context.Context) (*Worker, bool) {
	w, ok := ctx.Value(runnerKey{}).(*Worker)
	return w, ok && w != nil
}
