package matbench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlushCaches(t *testing.T) {
	// Must not panic on degenerate sizes
	FlushCaches(0)
	FlushCaches(-1)
	FlushCaches(1)
	FlushCaches(4 * cacheLineBytes)
}

func TestCacheCondition(t *testing.T) {
	assert.Equal(t, "cold", CacheCondition(true))
	assert.Equal(t, "hot", CacheCondition(false))
}

func TestRunnerColdCache(t *testing.T) {
	sl, err := NewSessionLog(t.TempDir(), "cold")
	require.NoError(t, err)
	r := NewRunner(WithSessionLog(sl), WithCounterSource(Unavailable(ErrCountersUnsupported)))

	res, err := r.Run(Config{Size: 8, Operation: OpRowWise, ColdCache: true, Verify: true})
	require.NoError(t, err)
	assert.True(t, res.Verification.Passed())

	records := sl.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "cold", records[0].CacheCondition)
}
