// File: control/debug.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Named debug probes evaluated on demand.

package control

import (
	"sync"

	"github.com/momentics/forkjoin/core/concurrency"
)

// DebugProbes holds registered probe functions.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewDebugProbes creates a probe registry.
func NewDebugProbes() *DebugProbes {
	return &DebugProbes{
		probes: make(map[string]func() any),
	}
}

// RegisterProbe inserts a named debug hook, replacing one with the same name.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// DumpState returns output of all probes.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	out := make(map[string]any, len(dp.probes))
	for k, fn := range dp.probes {
		out[k] = fn()
	}
	return out
}

// RegisterPoolProbes exposes the live state of p's workers.
func RegisterPoolProbes(dp *DebugProbes, p *concurrency.Pool) {
	prefix := "pool." + p.Name() + "."
	dp.RegisterProbe(prefix+"state", func() any { return p.State().String() })
	dp.RegisterProbe(prefix+"workers", func() any {
		ws := p.Workers()
		out := make([]map[string]any, len(ws))
		for i, w := range ws {
			out[i] = map[string]any{
				"name":   w.Name(),
				"state":  w.State().String(),
				"thread": w.ThreadID(),
				"queued": w.Queued(),
			}
		}
		return out
	})
}
