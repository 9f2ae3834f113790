// Package benchmarks
// Author: momentics <momentics@gmail.com>
//
// Performance benchmarks for forkjoin components.

package benchmarks

import (
	"context"
	"fmt"
	"runtime"
	"testing"

	"github.com/momentics/forkjoin/api"
	"github.com/momentics/forkjoin/control"
	"github.com/momentics/forkjoin/core/concurrency"
	"github.com/momentics/forkjoin/facade"
	"github.com/momentics/forkjoin/parallel"
)

// BenchmarkDequePushPop measures the owner fast path.
func BenchmarkDequePushPop(b *testing.B) {
	d := concurrency.NewDeque[int](1024)
	v := new(int)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Push(v)
		d.Pop()
	}
}

// BenchmarkDequeSteal measures contended steals against a refilling owner.
func BenchmarkDequeSteal(b *testing.B) {
	d := concurrency.NewDeque[int](1024)
	v := new(int)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			if d.Len() < 1024 {
				d.Push(v)
			} else {
				runtime.Gosched()
			}
		}
	}()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			d.Steal()
		}
	})
	b.StopTimer()
	close(stop)
	<-done
}

// BenchmarkInvoke measures external submissions for several range sizes.
func BenchmarkInvoke(b *testing.B) {
	p, err := concurrency.NewPool(concurrency.Config{Name: "bench"})
	if err != nil {
		b.Fatal(err)
	}
	defer p.Shutdown()

	for _, n := range []int64{100, 10_000, 1_000_000} {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			c := api.Computation{Range: api.Range{Lo: 1, Hi: n}}
			want, _ := concurrency.ArithmeticSeries(n)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				got, err := p.Invoke(context.Background(), c)
				if err != nil || got != want {
					b.Fatalf("got %d, %v", got, err)
				}
			}
		})
	}
}

// BenchmarkInvokeConcurrent measures many callers sharing one pool.
func BenchmarkInvokeConcurrent(b *testing.B) {
	p, err := concurrency.NewPool(concurrency.Config{Name: "bench-concurrent"})
	if err != nil {
		b.Fatal(err)
	}
	defer p.Shutdown()
	c := api.Computation{Range: api.Range{Lo: 1, Hi: 100_000}, Threshold: 1024}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := p.Invoke(context.Background(), c); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

// BenchmarkParallelSumCommon measures the pool-agnostic API on the common pool.
func BenchmarkParallelSumCommon(b *testing.B) {
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := parallel.Sum(ctx, 1, 100_000); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkFacadeIntegration measures submissions through the metrics path.
func BenchmarkFacadeIntegration(b *testing.B) {
	cfg := control.DefaultConfig()
	cfg.Log.Output = "none"
	fj, err := facade.New(&cfg, nil)
	if err != nil {
		b.Fatal(err)
	}
	defer fj.Shutdown()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := fj.Sum(context.Background(), 1, 100_000); err != nil {
			b.Fatal(err)
		}
	}
}
