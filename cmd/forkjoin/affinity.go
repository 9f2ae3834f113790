// File: cmd/forkjoin/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/momentics/forkjoin/control"
	"github.com/momentics/forkjoin/core/concurrency"
	"github.com/momentics/forkjoin/internal/logger"
	"github.com/momentics/forkjoin/verify"
)

var errAffinity = errors.New("affinity check failed")

type affinityFlags struct {
	size  int64
	times int
}

func newAffinityCmd(g *globalFlags) *cobra.Command {
	f := &affinityFlags{}
	cmd := &cobra.Command{
		Use:   "affinity",
		Short: "Check that reductions run only on the pool they target",
		Long: `Runs the pool affinity scenarios against the common pool and a second
pool of the same shape. Scenarios marked best-effort only report failures.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := g.load()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if cmd.Flags().Changed("size") {
				cfg.Run.Size = f.size
			}
			if cmd.Flags().Changed("times") {
				cfg.Run.Times = f.times
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runAffinity(cmd.Context(), cmd.OutOrStdout(), cfg, log)
		},
	}
	cmd.Flags().Int64VarP(&f.size, "size", "n", 0, "upper bound N of the probed range 1..N")
	cmd.Flags().IntVarP(&f.times, "times", "t", 0, "runs per scenario")
	return cmd
}

func runAffinity(ctx context.Context, out io.Writer, cfg control.Config, log *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	concurrency.SetCommonLogger(log)
	common := concurrency.Common()
	another, err := concurrency.NewPool(concurrency.Config{
		Name:        "another",
		Parallelism: common.Parallelism(),
		AsyncMode:   common.AsyncMode(),
		Logger:      log,
	})
	if err != nil {
		return err
	}
	defer another.Shutdown()

	fmt.Fprintf(out, "times: %d, size: %d, parallelism: %d\n", cfg.Run.Times, cfg.Run.Size, common.Parallelism())

	metrics := control.NewMetricsRegistry()
	pools := verify.Pools{Common: common, Another: another}
	var failed []string
	for _, s := range verify.Scenarios() {
		o := verify.RunScenario(ctx, s, pools, cfg.Run.Size, cfg.Run.Times)
		for _, d := range o.Elapsed {
			metrics.Observe(s.Name, d)
		}
		lat, _ := metrics.Latency(s.Name)
		mark := "ok"
		switch {
		case o.Err != nil:
			mark = "error: " + o.Err.Error()
		case !o.OK() && s.Reproducible:
			mark = "FAIL"
		case !o.OK():
			mark = "best effort miss"
		}
		fmt.Fprintf(out, "%-36s want=%-5v passed %d/%d  %s  took %s\n",
			s.Name, s.Want, o.Passed, o.Runs, mark, lat)
		switch {
		case o.Err != nil || (!o.OK() && s.Reproducible):
			logger.Error("scenario failed", zap.String("scenario", s.Name), zap.Int("passed", o.Passed), zap.Error(o.Err))
			failed = append(failed, s.Name)
		case !o.OK():
			logger.Warn("best effort scenario missed", zap.String("scenario", s.Name), zap.Int("passed", o.Passed))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %v", errAffinity, failed)
	}
	return nil
}
