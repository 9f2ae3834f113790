// Package api
// Author: momentics
//
// Invoker contract for blocking fork/join range reductions.

package api

import "context"

// Invoker runs computations to completion on a set of workers.
type Invoker interface {
	// Invoke blocks until the computation's joined result is available.
	Invoke(ctx context.Context, c Computation) (int64, error)

	// Parallelism returns the number of workers.
	Parallelism() int

	// ID returns the unique pool handle.
	ID() string
}
