package diag

import (
	"context"
	"time"

	"github.com/banshee-data/mmwave.report/internal/mmwave"
	"github.com/banshee-data/mmwave.report/internal/monitoring"
)

// HealthSource is the slice of the data channel reader the recorder needs.
type HealthSource interface {
	Stats() mmwave.Stats
	FrameArrivals() []time.Time
}

// Record captures a snapshot from source every interval until the context
// ends. A final snapshot is written on shutdown so the journal covers the
// whole session.
func (j *Journal) Record(ctx context.Context, source HealthSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.capture(source)
			return
		case <-ticker.C:
			j.capture(source)
		}
	}
}

func (j *Journal) capture(source HealthSource) {
	snap := NewSnapshot(source.Stats(), source.FrameArrivals())
	if err := j.RecordSnapshot(snap); err != nil {
		monitoring.Logf("health journal write failed: %v", err)
	}
}
