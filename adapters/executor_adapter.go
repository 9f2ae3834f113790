// File: adapters/executor_adapter.go
// Package adapters provides glue between the fork/join pool and the api contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// InvokerAdapter implements api.Invoker by delegating to a concurrency.Pool.
// With a metrics registry attached it records the latency of every
// submission and republishes the pool counters afterwards.

package adapters

import (
	"context"
	"time"

	"github.com/momentics/forkjoin/api"
	"github.com/momentics/forkjoin/control"
	"github.com/momentics/forkjoin/core/concurrency"
)

// InvokerAdapter wraps a pool to satisfy api.Invoker and api.GracefulShutdown.
type InvokerAdapter struct {
	pool    *concurrency.Pool
	metrics *control.MetricsRegistry
}

var (
	_ api.Invoker          = (*InvokerAdapter)(nil)
	_ api.GracefulShutdown = (*InvokerAdapter)(nil)
)

// NewInvokerAdapter wraps p. metrics may be nil.
func NewInvokerAdapter(p *concurrency.Pool, metrics *control.MetricsRegistry) *InvokerAdapter {
	return &InvokerAdapter{pool: p, metrics: metrics}
}

// Invoke runs c on the pool.
func (ia *InvokerAdapter) Invoke(ctx context.Context, c api.Computation) (int64, error) {
	if ia.metrics == nil {
		return ia.pool.Invoke(ctx, c)
	}
	start := time.Now()
	v, err := ia.pool.Invoke(ctx, c)
	ia.metrics.Observe("invoke."+ia.pool.Name(), time.Since(start))
	ia.metrics.PublishPool(ia.pool.Stats())
	return v, err
}

// Parallelism returns the number of workers.
func (ia *InvokerAdapter) Parallelism() int { return ia.pool.Parallelism() }

// ID returns the pool handle.
func (ia *InvokerAdapter) ID() string { return ia.pool.ID() }

// Pool returns the wrapped pool.
func (ia *InvokerAdapter) Pool() *concurrency.Pool { return ia.pool }

// Shutdown shuts the pool down.
func (ia *InvokerAdapter) Shutdown() error {
	err := ia.pool.Shutdown()
	if ia.metrics != nil {
		ia.metrics.PublishPool(ia.pool.Stats())
	}
	return err
}
