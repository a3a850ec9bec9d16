package mmwave

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters the parser increments alongside its
// in-process Stats. Create one per registry; the parser treats a nil
// Metrics as "metrics disabled".
type Metrics struct {
	FramesDecoded   prometheus.Counter
	TruncatedFrames prometheus.Counter
	BadLengthSyncs  prometheus.Counter
	HeaderFailures  prometheus.Counter
	BytesDiscarded  prometheus.Counter
	PointsDecoded   prometheus.Counter
	TargetsDecoded  prometheus.Counter
}

// NewMetrics creates and registers the decoder counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mmwave",
			Subsystem: "decoder",
			Name:      "frames_decoded_total",
			Help:      "Complete frames emitted, including truncated ones.",
		}),
		TruncatedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mmwave",
			Subsystem: "decoder",
			Name:      "truncated_frames_total",
			Help:      "Emitted frames whose TLV walk stopped at a malformed record.",
		}),
		BadLengthSyncs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mmwave",
			Subsystem: "decoder",
			Name:      "bad_length_syncs_total",
			Help:      "Magic word matches rejected for an implausible declared length.",
		}),
		HeaderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mmwave",
			Subsystem: "decoder",
			Name:      "header_failures_total",
			Help:      "Length-validated frame candidates with undecodable headers.",
		}),
		BytesDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mmwave",
			Subsystem: "decoder",
			Name:      "bytes_discarded_total",
			Help:      "Bytes dropped without contributing to an emitted frame.",
		}),
		PointsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mmwave",
			Subsystem: "decoder",
			Name:      "points_decoded_total",
			Help:      "Point cloud records decoded across all frames.",
		}),
		TargetsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mmwave",
			Subsystem: "decoder",
			Name:      "targets_decoded_total",
			Help:      "Tracked target records decoded across all frames.",
		}),
	}

	reg.MustRegister(
		m.FramesDecoded,
		m.TruncatedFrames,
		m.BadLengthSyncs,
		m.HeaderFailures,
		m.BytesDiscarded,
		m.PointsDecoded,
		m.TargetsDecoded,
	)
	return m
}
