package matbench

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

// BenchmarkKernels compares the three loop orders across the cache hierarchy
func BenchmarkKernels(b *testing.B) {
	sizes := []int{64, 256, 512}

	for _, size := range sizes {
		for _, bk := range allKernels(SuggestBlockSize(size, L1CacheSize)) {
			b.Run(fmt.Sprintf("Size_%d/%s", size, bk.name), func(b *testing.B) {
				a, bm, c := operandsOrFail(b, size)

				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					clear(c.Data)
					if err := bk.kernel(a, bm, c); err != nil {
						b.Fatal(err)
					}
				}

				reportDetailedMetrics(b, size)
			})
		}
	}
}

// BenchmarkBlockSizes sweeps the tile edge of the blocked kernel
func BenchmarkBlockSizes(b *testing.B) {
	const size = 256
	for _, bs := range []int{1, 2, 4, 8, 16, 32, 64, size} {
		b.Run(fmt.Sprintf("Block_%d", bs), func(b *testing.B) {
			a, bm, c := operandsOrFail(b, size)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				clear(c.Data)
				if err := MultiplyBlock(a, bm, c, bs); err != nil {
					b.Fatal(err)
				}
			}

			reportDetailedMetrics(b, size)
		})
	}
}

// BenchmarkKernelsWithCounters reports cache misses per op when the host
// exposes hardware counters
func BenchmarkKernelsWithCounters(b *testing.B) {
	const size = 256
	for _, bk := range allKernels(32) {
		b.Run(bk.name, func(b *testing.B) {
			a, bm, c := operandsOrFail(b, size)

			pm := NewPerfMonitor(HardwareCounters(), zerolog.Nop())
			defer pm.Close()
			pm.Open(DefaultEvents())
			if !pm.Available() {
				b.Skipf("Performance counters not available: %v", pm.Err())
			}

			var l1, l2 uint64
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				clear(c.Data)
				m := pm.Measure(func() {
					if err := bk.kernel(a, bm, c); err != nil {
						b.Fatal(err)
					}
				})
				if m.Counters != nil {
					l1 += m.Counters.L1DataMisses
					l2 += m.Counters.L2DataMisses
				}
			}

			b.ReportMetric(float64(l1)/float64(b.N), "L1misses/op")
			b.ReportMetric(float64(l2)/float64(b.N), "L2misses/op")
		})
	}
}

// reportDetailedMetrics reports GFLOPS and the ideal memory traffic rate
func reportDetailedMetrics(b *testing.B, n int) {
	flops := 2 * int64(n) * int64(n) * int64(n)
	seconds := b.Elapsed().Seconds() / float64(b.N)
	if seconds <= 0 {
		return
	}
	b.ReportMetric(float64(flops)/(seconds*1e9), "GFLOPS")

	bytes := int64(3 * n * n * float64Bytes)
	b.ReportMetric(float64(bytes)/(seconds*1e9), "GB/s_theoretical")
}
