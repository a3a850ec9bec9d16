// Package diag persists decoder health snapshots to a local SQLite journal
// so field deployments can be inspected after the fact. The journal records
// counters and inter-frame timing, never decoded frames.
package diag

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/mmwave.report/internal/mmwave"
)

type Journal struct {
	*sql.DB
	path string
}

// Open opens (or creates) the health journal at path. Run MigrateUp before
// recording snapshots.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open health journal: %w", err)
	}
	return &Journal{DB: db, path: path}, nil
}

// Snapshot is one row of the health journal: cumulative decoder counters
// plus inter-frame interval statistics at the time of capture.
type Snapshot struct {
	SnapshotID      int64     `json:"snapshot_id"`
	FramesDecoded   uint64    `json:"frames_decoded"`
	TruncatedFrames uint64    `json:"truncated_frames"`
	BadLengthSyncs  uint64    `json:"bad_length_syncs"`
	HeaderFailures  uint64    `json:"header_failures"`
	BytesDiscarded  uint64    `json:"bytes_discarded"`
	PointsDecoded   uint64    `json:"points_decoded"`
	TargetsDecoded  uint64    `json:"targets_decoded"`
	IntervalMean    float64   `json:"interval_mean_s"`
	IntervalStdDev  float64   `json:"interval_stddev_s"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewSnapshot assembles a Snapshot from decoder counters and recent frame
// arrival times.
func NewSnapshot(stats mmwave.Stats, arrivals []time.Time) Snapshot {
	summary := SummarizeIntervals(arrivals)
	return Snapshot{
		FramesDecoded:   stats.FramesDecoded,
		TruncatedFrames: stats.TruncatedFrames,
		BadLengthSyncs:  stats.BadLengthSyncs,
		HeaderFailures:  stats.HeaderFailures,
		BytesDiscarded:  stats.BytesDiscarded,
		PointsDecoded:   stats.PointsDecoded,
		TargetsDecoded:  stats.TargetsDecoded,
		IntervalMean:    summary.Mean,
		IntervalStdDev:  summary.StdDev,
	}
}

// RecordSnapshot appends one snapshot row.
func (j *Journal) RecordSnapshot(snap Snapshot) error {
	_, err := j.Exec(
		`INSERT INTO health_snapshots (
			frames_decoded, truncated_frames, bad_length_syncs, header_failures,
			bytes_discarded, points_decoded, targets_decoded,
			interval_mean_s, interval_stddev_s
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.FramesDecoded, snap.TruncatedFrames, snap.BadLengthSyncs, snap.HeaderFailures,
		snap.BytesDiscarded, snap.PointsDecoded, snap.TargetsDecoded,
		snap.IntervalMean, snap.IntervalStdDev,
	)
	if err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}
	return nil
}

// RecentSnapshots returns up to limit snapshots, newest first.
func (j *Journal) RecentSnapshots(limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := j.Query(
		`SELECT snapshot_id, frames_decoded, truncated_frames, bad_length_syncs,
			header_failures, bytes_discarded, points_decoded, targets_decoded,
			interval_mean_s, interval_stddev_s, timestamp
		FROM health_snapshots ORDER BY snapshot_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(
			&snap.SnapshotID, &snap.FramesDecoded, &snap.TruncatedFrames, &snap.BadLengthSyncs,
			&snap.HeaderFailures, &snap.BytesDiscarded, &snap.PointsDecoded, &snap.TargetsDecoded,
			&snap.IntervalMean, &snap.IntervalStdDev, &snap.Timestamp,
		); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snapshots, nil
}
