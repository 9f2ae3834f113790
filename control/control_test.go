package control

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/momentics/forkjoin/api"
	"github.com/momentics/forkjoin/core/concurrency"
)

func TestParse_OverDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
pool:
  name: stress
  parallelism: 3
  async_mode: true
run:
  times: 25
log:
  level: debug
  output: none
`))
	require.NoError(t, err)
	assert.Equal(t, "stress", cfg.Pool.Name)
	assert.Equal(t, 3, cfg.Pool.Parallelism)
	assert.True(t, cfg.Pool.AsyncMode)
	assert.Equal(t, int64(100), cfg.Run.Size, "default kept")
	assert.Equal(t, 25, cfg.Run.Times)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Metrics)

	pc := cfg.Pool.ToPool(zap.NewNop())
	assert.Equal(t, "stress", pc.Name)
	assert.Equal(t, 3, pc.Parallelism)
	assert.True(t, pc.AsyncMode)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("pool: [1, 2"))
	assert.ErrorIs(t, err, api.ErrConfiguration)

	_, err = Parse([]byte(`
pool:
  parallelism: -2
  threshold: -1
run:
  size: 0
log:
  output: syslog
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrConfiguration)
	for _, want := range []string{"pool.parallelism", "pool.threshold", "run.size", "log.output"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(t.TempDir(), "forkjoin.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run:\n  size: 1000\n"), 0o600))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), cfg.Run.Size)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, api.ErrConfiguration)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSnapshot(t *testing.T) {
	cfg := DefaultConfig()
	snap := cfg.Snapshot()
	assert.Equal(t, "forkjoin", snap["pool.name"])
	assert.Positive(t, snap["pool.parallelism"])
}

func TestMetricsRegistry_Latency(t *testing.T) {
	mr := NewMetricsRegistry()
	_, ok := mr.Latency("invoke")
	assert.False(t, ok)

	for i := 1; i <= 100; i++ {
		mr.Observe("invoke", time.Duration(i)*time.Millisecond)
	}
	mr.Observe("invoke", 0)
	l, ok := mr.Latency("invoke")
	require.True(t, ok)
	assert.Equal(t, int64(101), l.Count)
	assert.Equal(t, time.Microsecond, l.Min)
	assert.InDelta(t, float64(100*time.Millisecond), float64(l.Max), float64(time.Millisecond))
	assert.InDelta(t, float64(50*time.Millisecond), float64(l.P50), float64(time.Millisecond))
	assert.Contains(t, l.String(), "n=101")

	snap := mr.GetSnapshot()
	assert.IsType(t, Latency{}, snap["invoke"])
	assert.False(t, mr.Updated().IsZero())
}

func TestMetricsRegistry_PublishPool(t *testing.T) {
	p, err := concurrency.NewPool(concurrency.Config{Name: "m", Parallelism: 2})
	require.NoError(t, err)
	defer p.Shutdown()

	_, err = p.Invoke(context.Background(), api.Computation{Range: api.Range{Lo: 1, Hi: 100}})
	require.NoError(t, err)

	mr := NewMetricsRegistry()
	mr.Set("custom", 7)
	mr.PublishPool(p.Stats())
	snap := mr.GetSnapshot()
	assert.Equal(t, 7, snap["custom"])
	assert.Equal(t, "active", snap["pool.m.state"])
	assert.Equal(t, int64(1), snap["pool.m.submissions"])
	assert.Contains(t, snap, "pool.m.worker.1.leaves")
}

func TestDebugProbes(t *testing.T) {
	p, err := concurrency.NewPool(concurrency.Config{Name: "d", Parallelism: 2})
	require.NoError(t, err)

	dp := NewDebugProbes()
	RegisterPlatformProbes(dp)
	RegisterPoolProbes(dp, p)
	dp.RegisterProbe("answer", func() any { return 42 })

	state := dp.DumpState()
	assert.Equal(t, 42, state["answer"])
	assert.Positive(t, state["platform.cpus"])
	assert.Equal(t, "active", state["pool.d.state"])
	require.Len(t, state["pool.d.workers"], 2)

	require.NoError(t, p.Shutdown())
	assert.Equal(t, "terminated", dp.DumpState()["pool.d.state"])
}
