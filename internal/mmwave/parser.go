package mmwave

import (
	"bytes"
	"encoding/binary"

	"github.com/banshee-data/mmwave.report/internal/monitoring"
)

// Stats counts decode-loop outcomes since the parser was created. All
// conditions counted here are non-fatal; the stream recovers by
// resynchronising.
type Stats struct {
	// FramesDecoded counts frames emitted, including truncated ones.
	FramesDecoded uint64 `json:"frames_decoded"`

	// TruncatedFrames counts emitted frames whose TLV walk stopped early.
	TruncatedFrames uint64 `json:"truncated_frames"`

	// BadLengthSyncs counts magic-word matches rejected because the
	// declared total length was implausible (false-positive syncs).
	BadLengthSyncs uint64 `json:"bad_length_syncs"`

	// HeaderFailures counts candidate frames whose header could not be
	// decoded. The candidate's bytes are dropped and scanning continues.
	HeaderFailures uint64 `json:"header_failures"`

	// BytesDiscarded counts bytes dropped without being part of an emitted
	// frame: inter-frame noise, failed sync candidates, bad headers.
	BytesDiscarded uint64 `json:"bytes_discarded"`

	// PointsDecoded and TargetsDecoded count records across all frames.
	PointsDecoded  uint64 `json:"points_decoded"`
	TargetsDecoded uint64 `json:"targets_decoded"`

	// BufferedBytes is the current live buffer size (trailing partial
	// frame or partial magic word awaiting more data).
	BufferedBytes int `json:"buffered_bytes"`
}

// ParserConfig configures a Parser. The zero value selects the defaults.
type ParserConfig struct {
	// MaxFrameBytes is the sanity ceiling on declared frame length
	// (default DefaultMaxFrameBytes).
	MaxFrameBytes int

	// TargetBounds is the plausibility volume for decoded targets
	// (default DefaultTargetBounds; the zero Bounds is replaced).
	TargetBounds Bounds

	// Metrics receives per-outcome counter increments when non-nil.
	Metrics *Metrics
}

// Parser reconstructs frames from an unaligned byte stream. It is a single
// logical owner structure: one goroutine appends bytes via Parse; there is
// no internal locking. Hand the parser off through a channel or mutex if
// producer and consumer run on different goroutines.
type Parser struct {
	buf           streamBuffer
	maxFrameBytes int
	bounds        Bounds
	metrics       *Metrics
	stats         Stats
}

// NewParser creates a Parser with the given configuration.
func NewParser(config ParserConfig) *Parser {
	if config.MaxFrameBytes == 0 {
		config.MaxFrameBytes = DefaultMaxFrameBytes
	}
	if config.TargetBounds == (Bounds{}) {
		config.TargetBounds = DefaultTargetBounds()
	}
	return &Parser{
		maxFrameBytes: config.MaxFrameBytes,
		bounds:        config.TargetBounds,
		metrics:       config.Metrics,
	}
}

// Stats returns a snapshot of the decode counters.
func (p *Parser) Stats() Stats {
	s := p.stats
	s.BufferedBytes = p.buf.len()
	return s
}

// Parse absorbs a chunk of newly-read bytes and drains every complete frame
// now available. Absence of a complete frame is a normal empty result, not
// an error; malformed input is recovered by resynchronising and is visible
// only through Stats. Parse never blocks and never panics on adversarial
// input.
func (p *Parser) Parse(chunk []byte) []RadarFrame {
	p.buf.append(chunk)

	var frames []RadarFrame
	for {
		frame, more := p.nextFrame()
		if frame != nil {
			frames = append(frames, *frame)
		}
		if !more {
			break
		}
	}
	return frames
}

// nextFrame attempts to synchronise on and decode one frame. It returns the
// frame (or nil) and whether the caller should immediately try again:
// scanning stops only when the buffer needs more data.
func (p *Parser) nextFrame() (*RadarFrame, bool) {
	window := p.buf.window()

	idx := bytes.Index(window, magicWord)
	if idx < 0 {
		// No sync anchor anywhere in the buffer. Keep only the bytes
		// that could be a magic word split across reads.
		discard := p.buf.len() - (MagicLength - 1)
		if discard > 0 {
			p.discard(discard)
		}
		p.buf.retainTail(MagicLength - 1)
		return nil, false
	}
	if idx > 0 {
		// Bytes before the magic word are noise or the remainder of an
		// undecodable frame; they are not recoverable.
		p.discard(idx)
		p.buf.drop(idx)
		window = p.buf.window()
	}

	// Need version and total length before the candidate can be judged.
	if len(window) < MagicLength+8 {
		return nil, false
	}

	version := binary.LittleEndian.Uint32(window[8:12])
	totalLength := int(binary.LittleEndian.Uint32(window[totalLengthOffset : totalLengthOffset+4]))
	headerLen := headerLengthForVersion(version)

	if totalLength < headerLen || totalLength > p.maxFrameBytes {
		// False-positive sync: the magic pattern occurred inside payload
		// data or line noise. Advance a single byte, not the whole
		// candidate, so a real frame overlapping the window survives.
		p.stats.BadLengthSyncs++
		if p.metrics != nil {
			p.metrics.BadLengthSyncs.Inc()
		}
		p.discard(1)
		p.buf.drop(1)
		return nil, true
	}

	if len(window) < totalLength {
		// Plausible frame, still arriving.
		return nil, false
	}

	frameData := window[:totalLength]
	frame := p.decodeFrame(frameData)

	// The candidate's bytes are consumed whether or not the decode
	// succeeded; reprocessing an undecodable frame would loop forever.
	p.buf.drop(totalLength)
	if frame == nil {
		p.discard(totalLength)
	}

	return frame, true
}

// decodeFrame decodes one length-validated candidate frame. A header
// failure is surfaced through stats and the log rather than an error
// return; the caller has already committed to dropping the bytes.
func (p *Parser) decodeFrame(data []byte) *RadarFrame {
	header, err := DecodeHeader(data)
	if err != nil {
		p.stats.HeaderFailures++
		if p.metrics != nil {
			p.metrics.HeaderFailures.Inc()
		}
		monitoring.Logf("mmwave: dropping %d byte frame candidate: %v", len(data), err)
		return nil
	}

	frame := &RadarFrame{
		Header:      header,
		FrameNumber: header.FrameNumber,
	}
	walkTLVs(frame, data, p.bounds)

	p.stats.FramesDecoded++
	p.stats.PointsDecoded += uint64(len(frame.Points))
	p.stats.TargetsDecoded += uint64(len(frame.Targets))
	if frame.Truncated {
		p.stats.TruncatedFrames++
		monitoring.Debugf("mmwave: frame %d truncated after %d points, %d targets",
			frame.FrameNumber, len(frame.Points), len(frame.Targets))
	}
	if p.metrics != nil {
		p.metrics.FramesDecoded.Inc()
		p.metrics.PointsDecoded.Add(float64(len(frame.Points)))
		p.metrics.TargetsDecoded.Add(float64(len(frame.Targets)))
		if frame.Truncated {
			p.metrics.TruncatedFrames.Inc()
		}
	}

	return frame
}

func (p *Parser) discard(n int) {
	p.stats.BytesDiscarded += uint64(n)
	if p.metrics != nil {
		p.metrics.BytesDiscarded.Add(float64(n))
	}
}
