package benchmarks

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/utkarsh5026/tilegen/internal/scheduler"
	"github.com/utkarsh5026/tilegen/internal/types"
	"github.com/utkarsh5026/tilegen/pool"
	"github.com/utkarsh5026/tilegen/protocol"
	"github.com/utkarsh5026/tilegen/tile"
	"github.com/utkarsh5026/tilegen/worker"
)

// =============================================================================
// Benchmark Workloads
// =============================================================================

// stubLoader serves a fixed buffer so benchmarks measure pool overhead
// rather than biome generation.
func stubLoader() worker.Loader {
	buf := make([]byte, 3*64*64)
	return func() (worker.Capability, error) {
		return worker.CapabilityFunc(func(uint64, int, int, int, int) ([]byte, error) {
			return buf, nil
		}), nil
	}
}

func newPool(b *testing.B, load worker.Loader, workers int, codec protocol.Codec) *pool.WorkerPool {
	b.Helper()
	wp := pool.New(
		worker.LocalFactory(load, worker.WithCodec(codec)),
		pool.WithWorkerCount(workers),
		pool.WithCodec(codec),
	)
	b.Cleanup(wp.Destroy)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := wp.WaitReady(ctx); err != nil {
		b.Fatal(err)
	}
	return wp
}

// requestAll issues n tile requests concurrently and waits for all of them.
func requestAll(b *testing.B, wp *pool.WorkerPool, n int) {
	b.Helper()
	futures := make([]*types.Future[[]byte], n)
	for i := range n {
		futures[i] = wp.Submit(context.Background(), protocol.GenerateBiomes{
			Seed: 1234567890123456789, X: i * 16, Z: -i * 16, Pix4Cell: 4, ZoomLevel: 4,
		})
	}
	for _, f := range futures {
		if _, err := f.Get(); err != nil {
			b.Fatal(err)
		}
	}
}

func percentile(latencies []time.Duration, p float64) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	index := max(int(math.Round(p*float64(len(sorted)-1))), 0)
	return sorted[min(index, len(sorted)-1)]
}

// =============================================================================
// Throughput
// =============================================================================

func BenchmarkPool_WorkerScaling(b *testing.B) {
	workerCounts := []int{1, 2, 4, 8}
	tilesPerOp := 64

	for _, workers := range workerCounts {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			wp := newPool(b, worker.BiomeLoader(), workers, protocol.Msgpack())

			b.ResetTimer()
			for b.Loop() {
				requestAll(b, wp, tilesPerOp)
			}
			b.StopTimer()

			nsPerOp := float64(b.Elapsed().Nanoseconds()) / float64(b.N)
			tilesPerSec := float64(tilesPerOp) / nsPerOp * 1e9
			b.ReportMetric(tilesPerSec, "tiles/sec")
			b.ReportMetric(tilesPerSec/float64(workers), "tiles/sec/worker")
		})
	}
}

func BenchmarkPool_Codecs(b *testing.B) {
	cbor, err := protocol.CBOR()
	if err != nil {
		b.Fatal(err)
	}

	for _, codec := range []protocol.Codec{protocol.Msgpack(), protocol.JSON(), cbor} {
		b.Run(codec.Name(), func(b *testing.B) {
			wp := newPool(b, stubLoader(), 4, codec)

			b.ResetTimer()
			for b.Loop() {
				requestAll(b, wp, 32)
			}
		})
	}
}

// =============================================================================
// Latency
// =============================================================================

func BenchmarkPool_RequestLatency(b *testing.B) {
	wp := newPool(b, stubLoader(), 4, protocol.Msgpack())

	var (
		mu        sync.Mutex
		latencies []time.Duration
	)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			start := time.Now()
			if _, err := wp.Request(context.Background(), protocol.GenerateBiomes{Seed: 1}); err != nil {
				b.Error(err)
				return
			}
			elapsed := time.Since(start)

			mu.Lock()
			latencies = append(latencies, elapsed)
			mu.Unlock()
		}
	})
	b.StopTimer()

	b.ReportMetric(float64(percentile(latencies, 0.50).Microseconds()), "p50-µs")
	b.ReportMetric(float64(percentile(latencies, 0.95).Microseconds()), "p95-µs")
	b.ReportMetric(float64(percentile(latencies, 0.99).Microseconds()), "p99-µs")
}

// =============================================================================
// Routing and painting
// =============================================================================

func BenchmarkSelector(b *testing.B) {
	selectors := map[string]scheduler.Selector{
		"round_robin": scheduler.NewRoundRobin(8),
		"affinity":    scheduler.NewAffinity(8),
	}

	for name, s := range selectors {
		b.Run(name, func(b *testing.B) {
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					_ = s.Select("tile-4-12-7")
				}
			})
		})
	}
}

type bufferRequester []byte

func (r bufferRequester) Request(context.Context, protocol.Payload) ([]byte, error) {
	return r, nil
}

func BenchmarkTile_Paint(b *testing.B) {
	variants := []struct {
		name string
		opts []tile.Option
	}{
		{"plain", nil},
		{"grid", []tile.Option{tile.WithGrid(true)}},
		{"grid_labels", []tile.Option{tile.WithGrid(true), tile.WithLabels(true)}},
	}

	for _, v := range variants {
		b.Run(v.name, func(b *testing.B) {
			p, err := tile.NewProducer(bufferRequester(make([]byte, 3*64*64)), v.opts...)
			if err != nil {
				b.Fatal(err)
			}
			defer p.Close()

			for b.Loop() {
				if t := p.Render(context.Background(), tile.Coord{X: 1, Y: 2, Z: 4}); t.State() != tile.StatePaintedSuccess {
					b.Fatalf("tile fell back: %v", t.Cause())
				}
			}
		})
	}
}

func BenchmarkTile_Fallback(b *testing.B) {
	p, err := tile.NewProducer(bufferRequester(nil))
	if err != nil {
		b.Fatal(err)
	}
	defer p.Close()

	for b.Loop() {
		p.Render(context.Background(), tile.Coord{X: 1, Y: 2, Z: 4})
	}
}
