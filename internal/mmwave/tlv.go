package mmwave

import (
	"encoding/binary"
)

// tlvSubheaderSize is the type(u32) + length(u32) prefix of every record.
// The length field includes these 8 bytes.
const tlvSubheaderSize = 8

// tlvDecoder consumes one TLV payload into the frame under assembly.
type tlvDecoder func(w *tlvWalk, payload []byte)

// tlvTable is the closed dispatch table over recognised TLV types. Types
// present with a nil decoder are known-but-skipped; types absent from the
// table entirely are unknown and also skipped, so firmware additions never
// break the walk.
var tlvTable = map[uint32]tlvDecoder{
	TLVPointCloud: func(w *tlvWalk, payload []byte) {
		w.frame.Points = decodePoints(payload, w.frame.Header.NumDetectedObjects)
	},
	TLVTargetList:    decodeTargetListTLV,
	TLVTargetListAlt: decodeTargetListTLV,
	TLVPointSideInfo: nil,
	TLVTargetIndex:   nil,
}

func decodeTargetListTLV(w *tlvWalk, payload []byte) {
	w.frame.Targets = decodeTargets(payload, w.bounds)
}

// tlvWalk carries the state of one frame's TLV iteration.
type tlvWalk struct {
	frame  *RadarFrame
	bounds Bounds
}

// walkTLVs iterates the header-declared TLV count starting after the
// header, bounds-checking each record against the frame end. A record that
// would overrun the frame stops the walk; everything decoded before the bad
// record is kept and the frame is flagged Truncated.
func walkTLVs(frame *RadarFrame, data []byte, bounds Bounds) {
	w := &tlvWalk{frame: frame, bounds: bounds}
	off := frame.Header.Length()

	for i := uint32(0); i < frame.Header.NumTLVs; i++ {
		if off+tlvSubheaderSize > len(data) {
			frame.Truncated = true
			return
		}

		tlvType := binary.LittleEndian.Uint32(data[off : off+4])
		tlvLen := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))

		if tlvLen < tlvSubheaderSize || off+tlvLen > len(data) {
			frame.Truncated = true
			return
		}

		if decode, ok := tlvTable[tlvType]; ok && decode != nil {
			decode(w, data[off+tlvSubheaderSize:off+tlvLen])
		}

		off += tlvLen
	}
}
