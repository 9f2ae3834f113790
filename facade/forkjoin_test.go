package facade_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/momentics/forkjoin/affinity"
	"github.com/momentics/forkjoin/api"
	"github.com/momentics/forkjoin/control"
	"github.com/momentics/forkjoin/facade"
	"github.com/momentics/forkjoin/parallel"
)

func TestForkJoinLifecycle(t *testing.T) {
	cfg := control.DefaultConfig()
	cfg.Pool.Name = "facade"
	cfg.Pool.Parallelism = 3
	cfg.Debug = true

	f, err := facade.New(&cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 3, f.Parallelism())
	assert.Equal(t, f.Pool().ID(), f.ID())

	v, err := f.Sum(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(5050), v)

	ctx := f.Context(context.Background())
	assert.Same(t, f.Pool(), parallel.PoolFor(ctx))
	v, err = parallel.Sum(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(55), v)

	stats := f.GetControl().Stats()
	assert.Equal(t, int64(1), stats["pool.facade.submissions"])
	assert.Equal(t, "active", stats["debug.pool.facade.state"])
	assert.Equal(t, "facade", f.GetControl().GetConfig()["pool.name"])
	assert.Contains(t, f.GetDebugAPI().DumpState(), "pool.facade.workers")

	require.NoError(t, f.Shutdown())
	require.NoError(t, f.Shutdown())
	_, err = f.Sum(context.Background(), 1, 100)
	assert.ErrorIs(t, err, api.ErrPoolClosed)
}

func TestForkJoinDefaults(t *testing.T) {
	cfg := control.DefaultConfig()
	cfg.Log.Output = "none"
	f, err := facade.New(&cfg, nil)
	require.NoError(t, err)
	defer f.Shutdown()
	assert.NotNil(t, f.Logger())
	assert.Equal(t, "forkjoin", f.Pool().Name())
}

func TestForkJoinInvalidConfig(t *testing.T) {
	cfg := control.DefaultConfig()
	cfg.Pool.Parallelism = -1
	_, err := facade.New(&cfg, nil)
	assert.ErrorIs(t, err, api.ErrConfiguration)
}

func TestForkJoinAffinity(t *testing.T) {
	cfg := control.DefaultConfig()
	cfg.Pool.Parallelism = 2
	cfg.Pool.PinWorkers = true
	f, err := facade.New(&cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer f.Shutdown()

	v, err := f.Sum(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(5050), v)

	type pinResult struct {
		cpu int
		err error
	}
	want := affinity.CPUFor(0)
	res := make(chan pinResult, 1)
	go func() {
		aff := f.GetAffinity()
		if err := aff.Pin(want); err != nil {
			res <- pinResult{-1, err}
			return
		}
		cpu, _ := aff.Get()
		if err := aff.Unpin(); err != nil {
			res <- pinResult{cpu, err}
			return
		}
		after, _ := aff.Get()
		if after != -1 {
			cpu = -2
		}
		res <- pinResult{cpu, nil}
	}()
	r := <-res
	if r.err != nil {
		t.Skipf("cpu affinity unavailable: %v", r.err)
	}
	assert.Equal(t, want, r.cpu)
}
