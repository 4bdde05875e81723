package matbench

// DefaultFlushBytes is large enough to evict most L3 caches
const DefaultFlushBytes = 64 * 1024 * 1024

// cacheLineBytes is the stride used to touch the flush buffer
const cacheLineBytes = 64

// flushSink keeps the flush loop from being optimized away
var flushSink byte

// FlushCaches evicts the operands from the data caches by writing and
// reading back a buffer of size bytes, one cache line at a time. Two passes
// with different patterns make sure the lines are really replaced.
func FlushCaches(size int) {
	if size <= 0 {
		return
	}
	data := make([]byte, size)
	for i := 0; i < len(data); i += cacheLineBytes {
		data[i] = byte(i)
	}
	var acc byte
	for i := 0; i < len(data); i += cacheLineBytes {
		data[i] = byte(i * 7)
		acc ^= data[i]
	}
	flushSink = acc
}

// CacheCondition names the cache state a run started from
func CacheCondition(cold bool) string {
	if cold {
		return "cold"
	}
	return "hot"
}
