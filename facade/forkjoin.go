// File: facade/forkjoin.go
// Unified facade layer for the forkjoin library.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ForkJoin aggregates a logger, a pool and its control surface behind a
// single value built from a control.Config. Submissions go through the
// metrics-recording invoker when metrics are enabled.

package facade

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/momentics/forkjoin/adapters"
	"github.com/momentics/forkjoin/api"
	"github.com/momentics/forkjoin/control"
	"github.com/momentics/forkjoin/core/concurrency"
	"github.com/momentics/forkjoin/internal/logger"
	"github.com/momentics/forkjoin/parallel"
)

// ForkJoin is the main facade type.
type ForkJoin struct {
	config  control.Config
	log     *zap.Logger
	pool    *concurrency.Pool
	invoker *adapters.InvokerAdapter
	control *adapters.ControlAdapter

	mu     sync.Mutex
	closed bool
}

// Ensure compliance with the api contracts.
var (
	_ api.GracefulShutdown = (*ForkJoin)(nil)
	_ api.Invoker          = (*ForkJoin)(nil)
)

// New validates cfg and starts a pool for it. A nil cfg uses
// control.DefaultConfig. A nil log builds one from cfg.Log.
func New(cfg *control.Config, log *zap.Logger) (*ForkJoin, error) {
	if cfg == nil {
		d := control.DefaultConfig()
		cfg = &d
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.New(&cfg.Log)
	}

	f := &ForkJoin{config: *cfg, log: log}
	f.control = adapters.NewControlAdapter(*cfg)

	p, err := concurrency.NewPool(cfg.Pool.ToPool(log))
	if err != nil {
		return nil, err
	}
	f.pool = p

	var metrics *control.MetricsRegistry
	if cfg.Metrics {
		metrics = f.control.Metrics()
		metrics.PublishPool(p.Stats())
	}
	f.invoker = adapters.NewInvokerAdapter(p, metrics)

	if cfg.Debug {
		control.RegisterPoolProbes(f.control.Debug(), p)
	}
	log.Debug("facade ready", zap.String("pool", p.Name()), zap.Bool("metrics", cfg.Metrics))
	return f, nil
}

// Invoke runs c on the facade's pool.
func (f *ForkJoin) Invoke(ctx context.Context, c api.Computation) (int64, error) {
	return f.invoker.Invoke(ctx, c)
}

// Sum reduces lo..hi on the facade's pool.
func (f *ForkJoin) Sum(ctx context.Context, lo, hi int64) (int64, error) {
	return f.Invoke(ctx, api.Computation{Range: api.Range{Lo: lo, Hi: hi}})
}

// Context returns ctx with the facade's pool selected for the parallel package.
func (f *ForkJoin) Context(ctx context.Context) context.Context {
	return parallel.WithPool(ctx, f.pool)
}

// Parallelism returns the pool's worker count.
func (f *ForkJoin) Parallelism() int { return f.pool.Parallelism() }

// ID returns the pool handle.
func (f *ForkJoin) ID() string { return f.pool.ID() }

// Pool returns the underlying pool.
func (f *ForkJoin) Pool() *concurrency.Pool { return f.pool }

// Logger returns the facade's logger.
func (f *ForkJoin) Logger() *zap.Logger { return f.log }

// Config returns the configuration the facade was built from.
func (f *ForkJoin) Config() control.Config { return f.config }

// GetControl returns the control surface.
func (f *ForkJoin) GetControl() api.Control { return f.control }

// Metrics returns the metrics registry. It only receives values when
// metrics are enabled.
func (f *ForkJoin) Metrics() *control.MetricsRegistry { return f.control.Metrics() }

// GetAffinity returns a CPU affinity control for the calling goroutine. Each
// goroutine that pins itself needs its own value.
func (f *ForkJoin) GetAffinity() api.Affinity { return adapters.NewAffinityAdapter() }

// GetDebugAPI returns the debug probes.
func (f *ForkJoin) GetDebugAPI() api.Debug { return f.control.Debug() }

// Shutdown drains and stops the pool. Calling it again is a no-op.
func (f *ForkJoin) Shutdown() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	err := f.invoker.Shutdown()
	_ = f.log.Sync()
	return err
}
