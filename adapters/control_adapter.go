// Package adapters
// Author: momentics <momentics@gmail.com>
//
// Control adapter implementing api.Control interface using control package primitives.

package adapters

import (
	"github.com/momentics/forkjoin/api"
	"github.com/momentics/forkjoin/control"
)

// ControlAdapter combines a configuration snapshot, metrics and debug probes.
type ControlAdapter struct {
	config  map[string]any
	metrics *control.MetricsRegistry
	debug   *control.DebugProbes
}

var _ api.Control = (*ControlAdapter)(nil)

// NewControlAdapter builds a control surface for cfg with platform probes
// registered.
func NewControlAdapter(cfg control.Config) *ControlAdapter {
	adapter := &ControlAdapter{
		config:  cfg.Snapshot(),
		metrics: control.NewMetricsRegistry(),
		debug:   control.NewDebugProbes(),
	}
	control.RegisterPlatformProbes(adapter.debug)
	return adapter
}

// GetConfig returns a copy of the effective configuration.
func (c *ControlAdapter) GetConfig() map[string]any {
	out := make(map[string]any, len(c.config))
	for k, v := range c.config {
		out[k] = v
	}
	return out
}

// Stats merges metrics with probe output under "debug.".
func (c *ControlAdapter) Stats() map[string]any {
	stats := c.metrics.GetSnapshot()
	debugStats := c.debug.DumpState()
	combined := make(map[string]any, len(stats)+len(debugStats))
	for k, v := range stats {
		combined[k] = v
	}
	for k, v := range debugStats {
		combined["debug."+k] = v
	}
	return combined
}

func (c *ControlAdapter) SetMetric(key string, value any) {
	c.metrics.Set(key, value)
}

func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

// Metrics returns the underlying registry.
func (c *ControlAdapter) Metrics() *control.MetricsRegistry { return c.metrics }

// Debug returns the underlying probes.
func (c *ControlAdapter) Debug() *control.DebugProbes { return c.debug }
