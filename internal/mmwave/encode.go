package mmwave

import (
	"encoding/binary"
	"math"
)

// Frame encoding mirrors the decoder's wire layout. It exists for fixture
// generation, the dev-mode synthetic stream and replay tooling; the sensor
// is the only producer in a real deployment.

// EncodeVersion is the firmware version stamped on encoded frames. It is
// above VersionSubframeCutoff, so encoded headers carry a subframe field.
const EncodeVersion = 0x03060000

// encodePlatform is the IWR6843 platform identifier.
const encodePlatform = 0x000A6843

// TLVSpec is one raw record for EncodeFrameRaw: a type tag and the payload
// bytes that follow the 8-byte sub-header.
type TLVSpec struct {
	Type    uint32
	Payload []byte
}

// EncodeFrameRaw builds a complete frame around the given TLVs, computing
// the total length and TLV count. The header size follows from version.
func EncodeFrameRaw(version, frameNumber, numDetected uint32, tlvs []TLVSpec) []byte {
	headerLen := headerLengthForVersion(version)
	total := headerLen
	for _, tlv := range tlvs {
		total += tlvSubheaderSize + len(tlv.Payload)
	}

	out := make([]byte, 0, total)
	out = append(out, magicWord...)
	out = appendUint32(out, version)
	out = appendUint32(out, uint32(total))
	out = appendUint32(out, encodePlatform)
	out = appendUint32(out, frameNumber)
	out = appendUint32(out, 0) // cpu cycles
	out = appendUint32(out, numDetected)
	out = appendUint32(out, uint32(len(tlvs)))
	if headerLen == HeaderLengthFull {
		out = appendUint32(out, 0) // subframe number
	}

	for _, tlv := range tlvs {
		out = appendUint32(out, tlv.Type)
		out = appendUint32(out, uint32(tlvSubheaderSize+len(tlv.Payload)))
		out = append(out, tlv.Payload...)
	}
	return out
}

// EncodeFrame builds a frame carrying the given points and targets in the
// conventional TLV layout: a point cloud TLV when points is non-empty and a
// primary target list TLV when targets is non-empty.
func EncodeFrame(frameNumber uint32, points []Point, targets []Target, enc TargetEncoding) []byte {
	var tlvs []TLVSpec
	if len(points) > 0 {
		tlvs = append(tlvs, TLVSpec{Type: TLVPointCloud, Payload: PointCloudPayload(points)})
	}
	if len(targets) > 0 {
		tlvs = append(tlvs, TLVSpec{Type: TLVTargetList, Payload: TargetListPayload(targets, enc)})
	}
	return EncodeFrameRaw(EncodeVersion, frameNumber, uint32(len(points)), tlvs)
}

// PointCloudPayload encodes points as 16-byte records.
func PointCloudPayload(points []Point) []byte {
	out := make([]byte, 0, len(points)*PointRecordSize)
	for _, pt := range points {
		out = appendFloat32(out, pt.X)
		out = appendFloat32(out, pt.Y)
		out = appendFloat32(out, pt.Z)
		out = appendFloat32(out, pt.Doppler)
	}
	return out
}

// TargetListPayload encodes targets with the stride of the given encoding.
func TargetListPayload(targets []Target, enc TargetEncoding) []byte {
	out := make([]byte, 0, len(targets)*enc.Stride())
	for _, t := range targets {
		out = appendUint32(out, t.ID)
		out = appendFloat32(out, t.X)
		out = appendFloat32(out, t.Y)
		out = appendFloat32(out, t.Z)
		out = appendFloat32(out, t.VX)
		out = appendFloat32(out, t.VY)
		out = appendFloat32(out, t.VZ)
		out = appendFloat32(out, t.AX)
		out = appendFloat32(out, t.AY)
		out = appendFloat32(out, t.AZ)
		if enc == TargetEncodingFull {
			for _, v := range t.EC {
				out = appendFloat32(out, v)
			}
			out = appendFloat32(out, t.Gain)
			out = appendFloat32(out, t.Confidence)
		}
	}
	return out
}

func appendUint32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

func appendFloat32(b []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
}
