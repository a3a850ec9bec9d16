package mmwave

import (
	"encoding/binary"
)

// detectTargetEncoding picks the per-target record stride for a target list
// payload. There is no discriminator in the protocol; the full 112-byte
// layout is preferred when the payload divides evenly by it, then the
// 40-byte lite layout, then lite as the deterministic fallback (a trailing
// partial record is simply not decoded). Some payload lengths divide both
// ways, so this is best-effort; the bounds filter in decodeTargets catches
// the fallout of a wrong guess.
func detectTargetEncoding(payloadLen int) TargetEncoding {
	if payloadLen >= TargetRecordSizeFull && payloadLen%TargetRecordSizeFull == 0 {
		return TargetEncodingFull
	}
	return TargetEncodingLite
}

// decodeTargets interprets a target list TLV payload. Records whose
// position falls outside bounds are dropped without failing the frame;
// duplicate target ids are preserved in payload order.
func decodeTargets(payload []byte, bounds Bounds) []Target {
	if len(payload) == 0 {
		return nil
	}

	enc := detectTargetEncoding(len(payload))
	stride := enc.Stride()
	n := len(payload) / stride

	targets := make([]Target, 0, n)
	for i := 0; i < n; i++ {
		rec := payload[i*stride : (i+1)*stride]

		t := Target{
			ID:       binary.LittleEndian.Uint32(rec[0:4]),
			X:        float32le(rec[4:]),
			Y:        float32le(rec[8:]),
			Z:        float32le(rec[12:]),
			VX:       float32le(rec[16:]),
			VY:       float32le(rec[20:]),
			VZ:       float32le(rec[24:]),
			AX:       float32le(rec[28:]),
			AY:       float32le(rec[32:]),
			AZ:       float32le(rec[36:]),
			Encoding: enc,
		}

		if enc == TargetEncodingFull {
			for j := range t.EC {
				t.EC[j] = float32le(rec[40+4*j:])
			}
			t.Gain = float32le(rec[104:])
			t.Confidence = float32le(rec[108:])
		}

		if !bounds.Contains(t.X, t.Y, t.Z) {
			continue
		}

		targets = append(targets, t)
	}
	return targets
}
