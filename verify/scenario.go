// File: verify/scenario.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package verify

import (
	"context"
	"time"

	"github.com/momentics/forkjoin/core/concurrency"
)

// Pools are the two pools the affinity scenarios play against each other.
type Pools struct {
	Common  *concurrency.Pool
	Another *concurrency.Pool
}

// Scenario is one affinity check with its expected outcome.
type Scenario struct {
	Name string
	// Reproducible is false for checks whose outcome depends on the
	// process-wide pool and is only best effort.
	Reproducible bool
	Want         bool
	Run          func(ctx context.Context, p Pools, n int64) (bool, error)
}

// Scenarios returns the standard affinity checks.
func Scenarios() []Scenario {
	return []Scenario{
		{
			Name: "executes_in_common_pool",
			Want: true,
			Run: func(ctx context.Context, p Pools, n int64) (bool, error) {
				return ExecutesIn(ctx, p.Common, n)
			},
		},
		{
			Name:         "executes_in_another_pool",
			Reproducible: true,
			Want:         true,
			Run: func(ctx context.Context, p Pools, n int64) (bool, error) {
				return InvokeProbe(ctx, p.Another, p.Another, n)
			},
		},
		{
			Name:         "executes_in_common_pool_sanity",
			Reproducible: true,
			Want:         false,
			Run: func(ctx context.Context, p Pools, n int64) (bool, error) {
				return ExecutesIn(ctx, p.Another, n)
			},
		},
		{
			Name:         "another_pool_probe_in_common_pool",
			Reproducible: true,
			Want:         false,
			Run: func(ctx context.Context, p Pools, n int64) (bool, error) {
				return InvokeProbe(ctx, p.Common, p.Another, n)
			},
		},
		{
			Name:         "common_pool_probe_in_another_pool",
			Reproducible: true,
			Want:         false,
			Run: func(ctx context.Context, p Pools, n int64) (bool, error) {
				return InvokeProbe(ctx, p.Another, p.Common, n)
			},
		},
		{
			Name: "common_pool_probe_in_common_pool",
			Want: true,
			Run: func(ctx context.Context, p Pools, n int64) (bool, error) {
				return InvokeProbe(ctx, p.Common, p.Common, n)
			},
		},
	}
}

// Outcome is the result of running a scenario several times.
type Outcome struct {
	Scenario Scenario
	Runs     int
	Passed   int
	Err      error
	Elapsed  []time.Duration
}

// OK reports whether every run matched the expected outcome.
func (o Outcome) OK() bool { return o.Err == nil && o.Passed == o.Runs }

// RunScenario runs s times times and stops at the first error.
func RunScenario(ctx context.Context, s Scenario, p Pools, n int64, times int) Outcome {
	out := Outcome{Scenario: s, Elapsed: make([]time.Duration, 0, times)}
	for i := 0; i < times; i++ {
		start := time.Now()
		got, err := s.Run(ctx, p, n)
		out.Elapsed = append(out.Elapsed, time.Since(start))
		out.Runs++
		if err != nil {
			out.Err = err
			return out
		}
		if got == s.Want {
			out.Passed++
		}
	}
	return out
}
