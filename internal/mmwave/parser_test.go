package mmwave

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testTargets(n int) []Target {
	targets := make([]Target, n)
	for i := range targets {
		targets[i] = Target{
			ID: uint32(i + 1),
			X:  float32(i) - 2.0,
			Y:  3.5 + float32(i),
			Z:  0.8,
			VX: 0.1, VY: -0.4, VZ: 0.0,
		}
	}
	return targets
}

// TestRoundTripSingleFrame decodes a minimal synthetic frame: one point
// cloud TLV holding a single point.
func TestRoundTripSingleFrame(t *testing.T) {
	point := Point{X: 1.0, Y: 2.0, Z: 0.5, Doppler: -0.3}
	stream := EncodeFrameRaw(EncodeVersion, 17, 1, []TLVSpec{
		{Type: TLVPointCloud, Payload: PointCloudPayload([]Point{point})},
	})

	p := NewParser(ParserConfig{})
	frames := p.Parse(stream)

	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	frame := frames[0]
	if frame.FrameNumber != 17 {
		t.Errorf("frame number = %d, want 17", frame.FrameNumber)
	}
	if diff := cmp.Diff([]Point{point}, frame.Points); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
	if len(frame.Targets) != 0 {
		t.Errorf("expected no targets, got %d", len(frame.Targets))
	}
	if frame.Truncated {
		t.Error("frame unexpectedly marked truncated")
	}
	if got := p.Stats().BufferedBytes; got != 0 {
		t.Errorf("buffered bytes after clean frame = %d, want 0", got)
	}
}

// TestChunkBoundaryInvariance verifies that splitting the stream at
// arbitrary byte boundaries never changes the decoded frame sequence.
func TestChunkBoundaryInvariance(t *testing.T) {
	var stream []byte
	stream = append(stream, 0xDE, 0xAD, 0xBE, 0xEF) // leading line noise
	stream = append(stream, EncodeFrame(1, []Point{{X: 1, Y: 2, Z: 3, Doppler: 4}}, testTargets(2), TargetEncodingLite)...)
	stream = append(stream, EncodeFrame(2, nil, testTargets(1), TargetEncodingFull)...)
	stream = append(stream, EncodeFrame(3, []Point{{Y: 5.5}, {Y: 6.5, Doppler: -1}}, nil, TargetEncodingLite)...)

	want := NewParser(ParserConfig{}).Parse(stream)
	if len(want) != 3 {
		t.Fatalf("whole-stream decode produced %d frames, want 3", len(want))
	}

	for _, chunkSize := range []int{1, 2, 3, 7, 16, 64, 1000} {
		p := NewParser(ParserConfig{})
		var got []RadarFrame
		for off := 0; off < len(stream); off += chunkSize {
			end := off + chunkSize
			if end > len(stream) {
				end = len(stream)
			}
			got = append(got, p.Parse(stream[off:end])...)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("chunk size %d changed decode result (-whole +chunked):\n%s", chunkSize, diff)
		}
	}
}

// TestBoundedRetention feeds magic-free garbage and checks the buffer never
// retains more than MagicLength-1 bytes.
func TestBoundedRetention(t *testing.T) {
	p := NewParser(ParserConfig{})
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		chunk := make([]byte, 1+rng.Intn(512))
		for j := range chunk {
			chunk[j] = 0xAA // cannot form the magic word
		}
		if frames := p.Parse(chunk); len(frames) != 0 {
			t.Fatalf("decoded %d frames from garbage", len(frames))
		}
		if got := p.Stats().BufferedBytes; got > MagicLength-1 {
			t.Fatalf("buffered %d bytes after garbage, want <= %d", got, MagicLength-1)
		}
	}
}

// TestSplitMagicAcrossReads checks that a magic word broken across two
// Parse calls still synchronises.
func TestSplitMagicAcrossReads(t *testing.T) {
	stream := EncodeFrame(9, []Point{{X: 1}}, nil, TargetEncodingLite)

	p := NewParser(ParserConfig{})
	if frames := p.Parse(stream[:5]); len(frames) != 0 {
		t.Fatal("frame emitted from magic prefix alone")
	}
	frames := p.Parse(stream[5:])
	if len(frames) != 1 || frames[0].FrameNumber != 9 {
		t.Fatalf("frames after completing split magic = %+v, want frame 9", frames)
	}
}

// TestFalsePositiveSyncRecovery embeds a magic-word pattern with an
// implausible declared length ahead of a real frame; the decoder must slide
// past it one byte at a time and still decode the real frame.
func TestFalsePositiveSyncRecovery(t *testing.T) {
	var stream []byte
	stream = append(stream, magicWord...)
	stream = binary.LittleEndian.AppendUint32(stream, EncodeVersion) // version
	stream = binary.LittleEndian.AppendUint32(stream, 0xFFFFFFFF)    // absurd total length
	stream = append(stream, EncodeFrame(4, []Point{{X: 2, Y: 2}}, nil, TargetEncodingLite)...)

	p := NewParser(ParserConfig{})
	frames := p.Parse(stream)

	if len(frames) != 1 || frames[0].FrameNumber != 4 {
		t.Fatalf("frames = %+v, want single frame 4", frames)
	}
	if p.Stats().BadLengthSyncs == 0 {
		t.Error("bad length sync not counted")
	}
}

// TestMagicInsidePayload puts magic-word bytes inside a point cloud payload
// of a valid frame. The enclosing frame's declared length covers them, so
// they must decode as floats, not as a frame boundary.
func TestMagicInsidePayload(t *testing.T) {
	payload := make([]byte, 2*PointRecordSize)
	copy(payload, magicWord) // first point's x and y carry the magic bytes
	stream := EncodeFrameRaw(EncodeVersion, 5, 2, []TLVSpec{
		{Type: TLVPointCloud, Payload: payload},
	})
	stream = append(stream, EncodeFrame(6, []Point{{Y: 1}}, nil, TargetEncodingLite)...)

	p := NewParser(ParserConfig{})
	frames := p.Parse(stream)

	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].FrameNumber != 5 || frames[1].FrameNumber != 6 {
		t.Errorf("frame numbers = %d, %d; want 5, 6", frames[0].FrameNumber, frames[1].FrameNumber)
	}
	if len(frames[0].Points) != 2 {
		t.Errorf("embedded-magic frame decoded %d points, want 2", len(frames[0].Points))
	}
}

// TestTruncatedTLVTolerance corrupts the second TLV's length to overrun the
// frame; the frame must still be emitted with the first TLV decoded.
func TestTruncatedTLVTolerance(t *testing.T) {
	points := []Point{{X: 1, Y: 2}}
	pointPayload := PointCloudPayload(points)
	frame := EncodeFrameRaw(EncodeVersion, 8, 1, []TLVSpec{
		{Type: TLVPointCloud, Payload: pointPayload},
		{Type: TLVTargetList, Payload: TargetListPayload(testTargets(1), TargetEncodingLite)},
	})

	// Overwrite the second TLV's length field so it claims to extend past
	// the frame end.
	secondTLV := HeaderLengthFull + tlvSubheaderSize + len(pointPayload)
	binary.LittleEndian.PutUint32(frame[secondTLV+4:secondTLV+8], 4096)

	p := NewParser(ParserConfig{})
	frames := p.Parse(frame)

	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	got := frames[0]
	if !got.Truncated {
		t.Error("frame not marked truncated")
	}
	if diff := cmp.Diff(points, got.Points); diff != "" {
		t.Errorf("points decoded before truncation mismatch (-want +got):\n%s", diff)
	}
	if len(got.Targets) != 0 {
		t.Errorf("targets decoded from overrunning TLV: %d", len(got.Targets))
	}
	if p.Stats().TruncatedFrames != 1 {
		t.Errorf("truncated frames stat = %d, want 1", p.Stats().TruncatedFrames)
	}
}

// TestDeclaredTLVCountBeyondData marks the header as holding more TLVs than
// the frame carries; the walk must stop at the frame end, keeping earlier
// TLVs.
func TestDeclaredTLVCountBeyondData(t *testing.T) {
	frame := EncodeFrameRaw(EncodeVersion, 3, 1, []TLVSpec{
		{Type: TLVPointCloud, Payload: PointCloudPayload([]Point{{Z: 1}})},
	})
	binary.LittleEndian.PutUint32(frame[32:36], 5) // numTLVs

	frames := NewParser(ParserConfig{}).Parse(frame)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if !frames[0].Truncated {
		t.Error("frame not marked truncated")
	}
	if len(frames[0].Points) != 1 {
		t.Errorf("points = %d, want 1", len(frames[0].Points))
	}
}

// TestUnknownTLVSkipped checks forward compatibility: unrecognised TLV
// types are consumed without interpretation and without ending the walk.
func TestUnknownTLVSkipped(t *testing.T) {
	frame := EncodeFrameRaw(EncodeVersion, 2, 1, []TLVSpec{
		{Type: 99, Payload: bytes.Repeat([]byte{0x55}, 33)},
		{Type: TLVPointSideInfo, Payload: make([]byte, 8)},
		{Type: TLVPointCloud, Payload: PointCloudPayload([]Point{{X: 3}})},
		{Type: TLVTargetIndex, Payload: []byte{0, 1}},
	})

	frames := NewParser(ParserConfig{}).Parse(frame)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0].Truncated {
		t.Error("unknown TLVs should not truncate the frame")
	}
	if len(frames[0].Points) != 1 {
		t.Errorf("points = %d, want 1", len(frames[0].Points))
	}
}

// TestShortHeaderVersion exercises the 36-byte header layout used by
// firmware at or below the subframe cutoff.
func TestShortHeaderVersion(t *testing.T) {
	frame := EncodeFrameRaw(VersionSubframeCutoff, 11, 1, []TLVSpec{
		{Type: TLVPointCloud, Payload: PointCloudPayload([]Point{{X: 1, Doppler: 2}})},
	})

	frames := NewParser(ParserConfig{}).Parse(frame)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	h := frames[0].Header
	if h.HasSubframe {
		t.Error("subframe field decoded for pre-cutoff version")
	}
	if h.Length() != HeaderLengthShort {
		t.Errorf("header length = %d, want %d", h.Length(), HeaderLengthShort)
	}
	if len(frames[0].Points) != 1 {
		t.Errorf("points = %d, want 1", len(frames[0].Points))
	}
}

// TestNoiseBetweenFrames verifies inter-frame garbage is discarded and
// counted without affecting either neighbouring frame.
func TestNoiseBetweenFrames(t *testing.T) {
	var stream []byte
	stream = append(stream, EncodeFrame(1, []Point{{X: 1}}, nil, TargetEncodingLite)...)
	stream = append(stream, []byte{0x00, 0x13, 0x37, 0x00, 0x42}...)
	stream = append(stream, EncodeFrame(2, []Point{{X: 2}}, nil, TargetEncodingLite)...)

	p := NewParser(ParserConfig{})
	frames := p.Parse(stream)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if p.Stats().BytesDiscarded != 5 {
		t.Errorf("bytes discarded = %d, want 5", p.Stats().BytesDiscarded)
	}
}

// TestAdversarialInputNoPanic hammers the parser with random chunks, some
// seeded with magic words, and requires only that it never panics and every
// call returns a well-formed result.
func TestAdversarialInputNoPanic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := NewParser(ParserConfig{})

	for i := 0; i < 2000; i++ {
		chunk := make([]byte, rng.Intn(300))
		rng.Read(chunk)
		// Periodically splice in a real magic word to force deep candidate
		// evaluation.
		if len(chunk) >= MagicLength && i%5 == 0 {
			copy(chunk[rng.Intn(len(chunk)-MagicLength+1):], magicWord)
		}
		frames := p.Parse(chunk)
		for _, f := range frames {
			if int(f.Header.TotalLength) > DefaultMaxFrameBytes {
				t.Fatalf("emitted frame with implausible length %d", f.Header.TotalLength)
			}
		}
	}
}

// TestIncompleteFrameWaits confirms a plausible but incomplete frame is
// neither emitted nor discarded until its remaining bytes arrive.
func TestIncompleteFrameWaits(t *testing.T) {
	stream := EncodeFrame(21, []Point{{X: 1}, {X: 2}}, nil, TargetEncodingLite)

	p := NewParser(ParserConfig{})
	if frames := p.Parse(stream[:len(stream)-3]); len(frames) != 0 {
		t.Fatal("incomplete frame emitted")
	}
	if got := p.Stats().BufferedBytes; got != len(stream)-3 {
		t.Errorf("buffered = %d, want %d", got, len(stream)-3)
	}
	frames := p.Parse(stream[len(stream)-3:])
	if len(frames) != 1 || frames[0].FrameNumber != 21 {
		t.Fatalf("frames = %+v, want frame 21", frames)
	}
}
