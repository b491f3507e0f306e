package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractStatsSnapshotPercentiles(t *testing.T) {
	stats := NewExtractStats(time.Hour)
	for _, ms := range []int{300, 100, 500, 200, 400} {
		stats.Record(time.Duration(ms) * time.Millisecond)
	}

	snap := stats.Snapshot()
	require.Equal(t, 5, snap.Count)
	assert.Equal(t, 100*time.Millisecond, snap.Min)
	assert.Equal(t, 500*time.Millisecond, snap.Max)
	assert.Equal(t, 300*time.Millisecond, snap.Avg)
	assert.Equal(t, 300*time.Millisecond, snap.P50)
	assert.Equal(t, 480*time.Millisecond, snap.P95)
	assert.Equal(t, 496*time.Millisecond, snap.P99)
}

func TestExtractStatsPrunesExpiredSamples(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	stats := NewExtractStats(time.Minute)
	stats.now = func() time.Time { return now }

	stats.Record(100 * time.Millisecond)
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 0, stats.Snapshot().Count)

	stats.Record(200 * time.Millisecond)
	snap := stats.Snapshot()
	assert.Equal(t, 1, snap.Count)
	assert.Equal(t, 200*time.Millisecond, snap.Min)
	assert.Equal(t, 200*time.Millisecond, snap.Max)
}

func TestExtractStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewExtractStats(time.Hour)
	stats.Record(-10 * time.Millisecond)
	snap := stats.Snapshot()
	assert.Equal(t, 1, snap.Count)
	assert.Zero(t, snap.Min)
	assert.Zero(t, snap.Max)
}

func TestExtractStatsEmpty(t *testing.T) {
	assert.Equal(t, StatsSnapshot{}, NewExtractStats(0).Snapshot())
}
