// File: verify/probe.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pool affinity probes. A probe sums 1..n through the pool-agnostic parallel
// API and checks that the leaves ran where they were expected to.

package verify

import (
	"context"
	"errors"
	"fmt"

	"github.com/momentics/forkjoin/api"
	"github.com/momentics/forkjoin/core/concurrency"
	"github.com/momentics/forkjoin/parallel"
)

// ErrWrongSum means a probe's reduction returned something other than the
// closed-form sum.
var ErrWrongSum = errors.New("verify: reduction returned a wrong sum")

// ExecutesIn sums 1..n with parallel.Sum semantics from ctx. It reports true
// when no leaf ran outside {the runner of ctx, workers of expected} and at
// least one leaf ran on a worker of expected.
func ExecutesIn(ctx context.Context, expected *concurrency.Pool, n int64) (bool, error) {
	want, err := concurrency.ArithmeticSeries(n)
	if err != nil {
		return false, err
	}
	origin, _ := concurrency.RunnerFrom(ctx)
	rec := NewRecorder()
	got, err := parallel.Reduce(ctx, api.Range{Lo: 1, Hi: n}, rec.Wrap(nil))
	if err != nil {
		return false, err
	}
	if got != want {
		return false, fmt.Errorf("%w: got %d, want %d", ErrWrongSum, got, want)
	}
	return rec.Within(expected, origin) && rec.ReachedWorkers(expected), nil
}

// Probe returns a single-leaf computation that runs ExecutesIn on whichever
// worker picks it up. It evaluates to 1 when the check passes and 0 otherwise.
func Probe(expected *concurrency.Pool, n int64) api.Computation {
	return api.Computation{
		Range:     api.Range{Lo: 1, Hi: 1},
		Threshold: 1,
		Leaf: func(ctx context.Context, _ api.Range) (int64, error) {
			ok, err := ExecutesIn(ctx, expected, n)
			if err != nil || !ok {
				return 0, err
			}
			return 1, nil
		},
	}
}

// InvokeProbe submits Probe(expected, n) to via and reports its outcome.
func InvokeProbe(ctx context.Context, via, expected *concurrency.Pool, n int64) (bool, error) {
	v, err := via.Invoke(ctx, Probe(expected, n))
	return v == 1, err
}
