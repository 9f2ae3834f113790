package adapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/forkjoin/adapters"
	"github.com/momentics/forkjoin/api"
	"github.com/momentics/forkjoin/control"
	"github.com/momentics/forkjoin/core/concurrency"
)

func TestControlAdapterBasic(t *testing.T) {
	cfg := control.DefaultConfig()
	ctrl := adapters.NewControlAdapter(cfg)

	got := ctrl.GetConfig()
	assert.Equal(t, "forkjoin", got["pool.name"])
	got["pool.name"] = "changed"
	assert.Equal(t, "forkjoin", ctrl.GetConfig()["pool.name"], "GetConfig returns a copy")

	ctrl.SetMetric("k", 1)
	ctrl.RegisterDebugProbe("probe", func() any { return "ok" })
	stats := ctrl.Stats()
	assert.Equal(t, 1, stats["k"])
	assert.Equal(t, "ok", stats["debug.probe"])
	assert.Contains(t, stats, "debug.platform.cpus")
}

func TestInvokerAdapter(t *testing.T) {
	p, err := concurrency.NewPool(concurrency.Config{Name: "adapted", Parallelism: 2})
	require.NoError(t, err)
	mr := control.NewMetricsRegistry()
	var inv api.Invoker = adapters.NewInvokerAdapter(p, mr)

	assert.Equal(t, 2, inv.Parallelism())
	assert.Equal(t, p.ID(), inv.ID())

	v, err := inv.Invoke(context.Background(), api.Computation{Range: api.Range{Lo: 1, Hi: 100}})
	require.NoError(t, err)
	assert.Equal(t, int64(5050), v)

	l, ok := mr.Latency("invoke.adapted")
	require.True(t, ok)
	assert.Equal(t, int64(1), l.Count)
	assert.Equal(t, int64(1), mr.GetSnapshot()["pool.adapted.submissions"])

	require.NoError(t, inv.(api.GracefulShutdown).Shutdown())
	assert.Equal(t, "terminated", mr.GetSnapshot()["pool.adapted.state"])

	_, err = inv.Invoke(context.Background(), api.Computation{Range: api.Range{Lo: 1, Hi: 100}})
	assert.ErrorIs(t, err, api.ErrPoolClosed)
}

func TestInvokerAdapter_NoMetrics(t *testing.T) {
	p, err := concurrency.NewPool(concurrency.Config{Parallelism: 1})
	require.NoError(t, err)
	ia := adapters.NewInvokerAdapter(p, nil)
	defer ia.Shutdown()
	v, err := ia.Invoke(context.Background(), api.Computation{Range: api.Range{Lo: 1, Hi: 10}})
	require.NoError(t, err)
	assert.Equal(t, int64(55), v)
	assert.Same(t, p, ia.Pool())
}

func TestAffinityAdapter_Unpinned(t *testing.T) {
	a := adapters.NewAffinityAdapter()
	cpu, err := a.Get()
	require.NoError(t, err)
	assert.Equal(t, -1, cpu)
	assert.NoError(t, a.Unpin())
}
