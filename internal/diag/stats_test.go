package diag

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func arrivalsEvery(d time.Duration, n int) []time.Time {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = base.Add(time.Duration(i) * d)
	}
	return out
}

func TestSummarizeSteadyStream(t *testing.T) {
	summary := SummarizeIntervals(arrivalsEvery(100*time.Millisecond, 11))

	assert.Equal(t, 10, summary.Count)
	assert.InDelta(t, 0.1, summary.Mean, 1e-9)
	assert.InDelta(t, 0, summary.StdDev, 1e-9)
}

func TestSummarizeJitteryStream(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	arrivals := []time.Time{
		base,
		base.Add(100 * time.Millisecond),
		base.Add(300 * time.Millisecond), // one 200ms gap
		base.Add(400 * time.Millisecond),
	}

	summary := SummarizeIntervals(arrivals)
	assert.Equal(t, 3, summary.Count)
	assert.InDelta(t, 0.4/3, summary.Mean, 1e-9)
	assert.Greater(t, summary.StdDev, 0.0)
}

func TestSummarizeTooFewArrivals(t *testing.T) {
	assert.Equal(t, IntervalSummary{}, SummarizeIntervals(nil))
	assert.Equal(t, IntervalSummary{}, SummarizeIntervals(arrivalsEvery(time.Second, 1)))

	// Two arrivals give one interval and no meaningful deviation.
	summary := SummarizeIntervals(arrivalsEvery(50*time.Millisecond, 2))
	assert.Equal(t, 1, summary.Count)
	assert.InDelta(t, 0.05, summary.Mean, 1e-9)
	assert.Equal(t, 0.0, summary.StdDev)
}
