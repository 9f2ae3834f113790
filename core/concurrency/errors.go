// File: core/concurrency/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import (
	"errors"
	"fmt"

	"github.com/momentics/forkjoin/api"
)

var (
	// ErrPoolClosed indicates the pool no longer accepts submissions.
	ErrPoolClosed = api.ErrPoolClosed

	// ErrInvalidParallelism indicates an invalid worker count configuration.
	ErrInvalidParallelism = errors.New("parallelism must be at least 1")

	// ErrTooManyTasks indicates the split tree would not fit in an arena.
	ErrTooManyTasks = errors.New("split tree exceeds task limit")

	// errDoubleExecution signals a broken claim protocol.
	errDoubleExecution = errors.New("task executed twice")
)

func configError(cause error, kv ...any) error {
	e := api.NewError(api.ErrCodeConfiguration, "invalid pool configuration").WithCause(cause)
	for i := 0; i+1 < len(kv); i += 2 {
		e.WithContext(fmt.Sprint(kv[i]), kv[i+1])
	}
	return e
}

func closedError(pool string) error {
	return api.NewError(api.ErrCodePoolClosed, "pool is closed").WithContext("pool", pool)
}

func overflowError(op string, a, b int64) error {
	return api.NewError(api.ErrCodeArithmeticOverflow, "integer overflow").
		WithContext("op", op).
		WithContext("a", a).
		WithContext("b", b)
}

func computationError(pool string, r api.Range, cause error) error {
	if errors.Is(cause, api.ErrComputation) {
		return cause
	}
	return api.NewError(api.ErrCodeComputation, "computation failed").
		WithContext("pool", pool).
		WithContext("range", r.String()).
		WithCause(cause)
}

// panicError converts a recovered panic into an error, keeping error values.
func panicError(p any) error {
	if err, ok := p.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", p)
}

func internalError(cause error) error {
	return api.NewError(api.ErrCodeInternal, "scheduler failure").WithCause(cause)
}
