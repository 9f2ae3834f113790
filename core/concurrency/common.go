// File: core/concurrency/common.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process-wide default pool. Created on first use with the default
// parallelism and kept for the life of the process.

package concurrency

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	commonOnce   sync.Once
	commonPool   *Pool
	commonLogger atomic.Pointer[zap.Logger]
)

// SetCommonLogger sets the logger the common pool is created with. It has no
// effect once Common has been called.
func SetCommonLogger(l *zap.Logger) {
	commonLogger.Store(l)
}

// Common returns the process-wide default pool, creating it on first use.
// Its Shutdown is a no-op.
func Common() *Pool {
	commonOnce.Do(func() {
		p, err := NewPool(Config{Name: "common", Logger: commonLogger.Load()})
		if err != nil {
			panic(fmt.Sprintf("concurrency: common pool: %v", err))
		}
		p.common = true
		commonPool = p
	})
	return commonPool
}
