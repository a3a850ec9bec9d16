package mmwave

import (
	"encoding/binary"
	"math"
)

// decodePoints interprets a point cloud TLV payload as a run of 16-byte
// records (x, y, z, doppler as little-endian float32). hint is the header's
// numDetectedObjects field; when it is zero or claims more records than the
// payload holds, the count is derived from the payload length instead.
// Trailing bytes short of a full record are ignored.
func decodePoints(payload []byte, hint uint32) []Point {
	capacity := len(payload) / PointRecordSize
	if capacity == 0 {
		return nil
	}

	n := int(hint)
	if n == 0 || n > capacity {
		n = capacity
	}

	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		off := i * PointRecordSize
		points = append(points, Point{
			X:       float32le(payload[off:]),
			Y:       float32le(payload[off+4:]),
			Z:       float32le(payload[off+8:]),
			Doppler: float32le(payload[off+12:]),
		})
	}
	return points
}

func float32le(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
