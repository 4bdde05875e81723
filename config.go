// Package matbench configuration constants
package matbench

// Cache sizes for different levels (in bytes)
const (
	// L1 data cache size per core (typical for modern CPUs)
	L1CacheSize = 32 * 1024 // 32KB

	// L2 cache size per core (typical for modern CPUs)
	L2CacheSize = 256 * 1024 // 256KB
)

// Harness defaults
const (
	// DefaultBlockSize is the tile edge used when none is given
	DefaultBlockSize = 2

	// PreviewLimit bounds the rows and columns of the printed result corner
	PreviewLimit = 10

	// float64Bytes is the size of one matrix element
	float64Bytes = 8
)

// SuggestBlockSize returns the largest power-of-two tile edge whose three
// tiles (A, B and C) fit in cacheBytes, clamped to n. It returns 1 when
// even a 2x2 tile set would not fit.
func SuggestBlockSize(n, cacheBytes int) int {
	if n <= 0 {
		return DefaultBlockSize
	}
	bs := 1
	for {
		next := bs * 2
		if 3*next*next*float64Bytes > cacheBytes || next > n {
			break
		}
		bs = next
	}
	return bs
}
