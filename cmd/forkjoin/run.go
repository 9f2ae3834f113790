// File: cmd/forkjoin/run.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/forkjoin/control"
	"github.com/momentics/forkjoin/core/concurrency"
	"github.com/momentics/forkjoin/internal/logger"
	"github.com/momentics/forkjoin/facade"
)

type runFlags struct {
	size        int64
	times       int
	parallelism int
	threshold   int64
	pools       int
	async       bool
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sum 1..N repeatedly on one or more pools",
		Example: `  # sum 1..100 ten times on a pool sized to GOMAXPROCS
  forkjoin run

  # stress three pools concurrently
  forkjoin run -n 1000000 -t 50 --pools 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := g.load()
			if err != nil {
				return err
			}
			defer logger.Sync()
			f.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runSums(cmd.Context(), cmd.OutOrStdout(), cfg, f.pools, log)
		},
	}
	cmd.Flags().Int64VarP(&f.size, "size", "n", 0, "upper bound N of the range 1..N")
	cmd.Flags().IntVarP(&f.times, "times", "t", 0, "repetitions per pool")
	cmd.Flags().IntVarP(&f.parallelism, "parallelism", "p", 0, "workers per pool (0 = GOMAXPROCS)")
	cmd.Flags().Int64Var(&f.threshold, "threshold", 0, "leaf size (0 = derived)")
	cmd.Flags().IntVar(&f.pools, "pools", 1, "number of pools stressed concurrently")
	cmd.Flags().BoolVar(&f.async, "async", false, "workers take their own tasks FIFO")
	return cmd
}

// apply copies explicitly set flags over the file configuration.
func (f *runFlags) apply(cmd *cobra.Command, cfg *control.Config) {
	flags := cmd.Flags()
	if flags.Changed("size") {
		cfg.Run.Size = f.size
	}
	if flags.Changed("times") {
		cfg.Run.Times = f.times
	}
	if flags.Changed("parallelism") {
		cfg.Pool.Parallelism = f.parallelism
	}
	if flags.Changed("threshold") {
		cfg.Pool.Threshold = f.threshold
	}
	if flags.Changed("async") {
		cfg.Pool.AsyncMode = f.async
	}
	if f.pools < 1 {
		f.pools = 1
	}
}

func runSums(ctx context.Context, out io.Writer, cfg control.Config, pools int, log *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	want, err := concurrency.ArithmeticSeries(cfg.Run.Size)
	if err != nil {
		return fmt.Errorf("size %d: %w", cfg.Run.Size, err)
	}
	fmt.Fprintf(out, "times: %d, size: %d, cpus: %d, parallelism: %d, pools: %d\n",
		cfg.Run.Times, cfg.Run.Size, runtime.NumCPU(), cfg.Pool.EffectiveParallelism(), pools)

	fjs := make([]*facade.ForkJoin, 0, pools)
	defer func() {
		for _, fj := range fjs {
			_ = fj.Shutdown()
		}
	}()
	for i := 0; i < pools; i++ {
		pc := cfg
		pc.Metrics = true
		if pools > 1 {
			pc.Pool.Name = fmt.Sprintf("%s-%d", cfg.Pool.Name, i)
		}
		fj, err := facade.New(&pc, log)
		if err != nil {
			return err
		}
		fjs = append(fjs, fj)
		logger.Debug("pool created", zap.String("pool", fj.Pool().Name()), zap.Int("parallelism", fj.Parallelism()))
	}

	start := time.Now()
	eg, ctx := errgroup.WithContext(ctx)
	for _, fj := range fjs {
		fj := fj
		eg.Go(func() error {
			for i := 0; i < cfg.Run.Times; i++ {
				got, err := fj.Sum(ctx, 1, cfg.Run.Size)
				if err != nil {
					return err
				}
				if got != want {
					return fmt.Errorf("pool %s run %d: sum %d, want %d", fj.Pool().Name(), i, got, want)
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for _, fj := range fjs {
		name := fj.Pool().Name()
		st := fj.Pool().Stats()
		lat, _ := fj.Metrics().Latency("invoke." + name)
		fmt.Fprintf(out, "%s: %d runs, sum %d, leaves %d (on workers %d), steals %d, took %s\n",
			name, st.Submissions, want, st.Leaves, st.Leaves-st.CallerLeaves, st.Steals, lat)
	}
	took := time.Since(start).Round(time.Microsecond)
	fmt.Fprintf(out, "total took: %s\n", took)
	logger.Info("run finished", zap.Int("pools", pools), zap.Int("times", cfg.Run.Times), zap.Duration("took", took))
	return nil
}
