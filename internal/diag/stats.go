package diag

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// IntervalSummary describes the spacing of recent frame arrivals in
// seconds. A healthy People Tracking sensor produces a mean near its
// configured frame period with a small deviation; a drifting mean or a
// large deviation points at serial backpressure or sensor stalls.
type IntervalSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean_s"`
	StdDev float64 `json:"stddev_s"`
}

// FrameIntervals converts arrival timestamps into the seconds elapsed
// between consecutive frames.
func FrameIntervals(arrivals []time.Time) []float64 {
	if len(arrivals) < 2 {
		return nil
	}
	intervals := make([]float64, 0, len(arrivals)-1)
	for i := 1; i < len(arrivals); i++ {
		intervals = append(intervals, arrivals[i].Sub(arrivals[i-1]).Seconds())
	}
	return intervals
}

// SummarizeIntervals computes interval statistics over recent arrivals.
// Fewer than three arrivals yield a zero deviation.
func SummarizeIntervals(arrivals []time.Time) IntervalSummary {
	intervals := FrameIntervals(arrivals)
	if len(intervals) == 0 {
		return IntervalSummary{}
	}
	summary := IntervalSummary{
		Count: len(intervals),
		Mean:  stat.Mean(intervals, nil),
	}
	if len(intervals) > 1 {
		summary.StdDev = stat.StdDev(intervals, nil)
	}
	return summary
}
