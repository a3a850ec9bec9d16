package mmwave

// Wire protocol constants for the TI People Tracking UART output format.
// All multi-byte fields on the wire are little-endian.
const (
	// MagicLength is the length of the frame start marker.
	MagicLength = 8

	// HeaderLengthShort is the header size for firmware versions up to and
	// including VersionSubframeCutoff (no subframe number field).
	HeaderLengthShort = 36

	// HeaderLengthFull is the header size for firmware versions that carry
	// a subframe number.
	HeaderLengthFull = 40

	// VersionSubframeCutoff is the last firmware version without the
	// subframe number header field.
	VersionSubframeCutoff = 0x01000005

	// totalLengthOffset is the byte offset of the frame total length field,
	// counted from the start of the magic word.
	totalLengthOffset = 12

	// DefaultMaxFrameBytes is the sanity ceiling on a frame's declared total
	// length. Real People Tracking frames run tens of bytes to a few KB; a
	// declared length above this is a false sync, not a frame.
	DefaultMaxFrameBytes = 65536

	// PointRecordSize is the fixed encoding size of one detected point:
	// x, y, z, doppler as four float32 values.
	PointRecordSize = 16

	// TargetRecordSizeLite is the per-target record size in the compact
	// target list encoding: tid + 9 float32 kinematic fields.
	TargetRecordSizeLite = 40

	// TargetRecordSizeFull is the per-target record size in the SDK 3.x
	// encoding: tid + 9 kinematic floats + 16 covariance floats + gain +
	// confidence.
	TargetRecordSizeFull = 112
)

// TLV type identifiers recognised in People Tracking output. Unlisted types
// are skipped without interpretation.
const (
	TLVPointCloud    = 1  // detected points, Cartesian, 16 bytes/point
	TLVPointSideInfo = 4  // per-point SNR and noise (skipped)
	TLVTargetList    = 6  // tracked targets, People Tracking primary
	TLVTargetIndex   = 7  // point-to-target index array (skipped)
	TLVTargetListAlt = 12 // tracked targets, OOB / SDK 3.x fallback
)

// magicWord marks the start of every frame and is the resynchronisation
// anchor for the stream.
var magicWord = []byte{0x02, 0x01, 0x04, 0x03, 0x06, 0x05, 0x08, 0x07}

// MagicWord returns a copy of the 8-byte frame start marker.
func MagicWord() []byte {
	m := make([]byte, MagicLength)
	copy(m, magicWord)
	return m
}

// Point is one detected reflection in sensor Cartesian coordinates. Doppler
// is the radial velocity in m/s, negative toward the sensor.
type Point struct {
	X       float32 `json:"x"`
	Y       float32 `json:"y"`
	Z       float32 `json:"z"`
	Doppler float32 `json:"doppler"`
}

// TargetEncoding identifies which of the two incompatible per-target record
// layouts a target list TLV used.
type TargetEncoding int

const (
	// TargetEncodingLite is the 40-byte record: tid + position, velocity
	// and acceleration vectors.
	TargetEncodingLite TargetEncoding = iota

	// TargetEncodingFull is the 112-byte SDK 3.x record: the lite fields
	// plus the 4x4 error covariance matrix, gating gain and confidence.
	TargetEncodingFull
)

// Stride returns the record size in bytes for the encoding.
func (e TargetEncoding) Stride() int {
	if e == TargetEncodingFull {
		return TargetRecordSizeFull
	}
	return TargetRecordSizeLite
}

func (e TargetEncoding) String() string {
	if e == TargetEncodingFull {
		return "full"
	}
	return "lite"
}

// Target is one tracked object from a target list TLV. Position, velocity
// and acceleration are present in both encodings; EC, Gain and Confidence
// are populated only when Encoding is TargetEncodingFull.
type Target struct {
	ID uint32 `json:"id"`

	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`

	VX float32 `json:"vx"`
	VY float32 `json:"vy"`
	VZ float32 `json:"vz"`

	AX float32 `json:"ax"`
	AY float32 `json:"ay"`
	AZ float32 `json:"az"`

	// EC is the tracker error covariance matrix, row-major.
	EC [16]float32 `json:"-"`

	Gain       float32 `json:"gain,omitempty"`
	Confidence float32 `json:"confidence,omitempty"`

	Encoding TargetEncoding `json:"-"`
}

// RadarFrame is one complete, length-validated frame decoded from the
// stream. Frames are immutable once emitted; ownership passes to the
// consumer.
type RadarFrame struct {
	Header FrameHeader `json:"header"`

	// FrameNumber mirrors Header.FrameNumber for convenience.
	FrameNumber uint32 `json:"frame_number"`

	Points  []Point  `json:"points"`
	Targets []Target `json:"targets"`

	// Truncated is set when a malformed TLV stopped the walk early. The
	// TLVs decoded before the truncation point are still present.
	Truncated bool `json:"truncated,omitempty"`
}

// Bounds is the plausibility volume for decoded target positions. Records
// outside the open interval on any axis are silently discarded; this is the
// second line of defence against magic-word collisions inside payloads and
// target-list stride misdetection.
type Bounds struct {
	XMin, XMax float32
	YMin, YMax float32
	ZMin, ZMax float32
}

// DefaultTargetBounds covers the working volume of an indoor People
// Tracking deployment: ±20m laterally, 20m forward, -1m..5m vertically.
func DefaultTargetBounds() Bounds {
	return Bounds{
		XMin: -20, XMax: 20,
		YMin: 0, YMax: 20,
		ZMin: -1, ZMax: 5,
	}
}

// Contains reports whether the position lies strictly inside the volume.
func (b Bounds) Contains(x, y, z float32) bool {
	return x > b.XMin && x < b.XMax &&
		y > b.YMin && y < b.YMax &&
		z > b.ZMin && z < b.ZMax
}
