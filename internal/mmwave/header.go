package mmwave

import (
	"encoding/binary"
	"fmt"
)

// FrameHeader is the fixed-layout metadata at the start of every frame,
// immediately after the magic word. Field order on the wire:
// magic(8) | version(4) | totalLength(4) | platform(4) | frameNumber(4) |
// cpuCycles(4) | numDetectedObjects(4) | numTLVs(4) | [subframeNumber(4)].
// The subframe field exists only for firmware versions newer than
// VersionSubframeCutoff.
type FrameHeader struct {
	Version            uint32 `json:"version"`
	TotalLength        uint32 `json:"total_length"`
	Platform           uint32 `json:"platform"`
	FrameNumber        uint32 `json:"frame_number"`
	CPUCycles          uint32 `json:"cpu_cycles"`
	NumDetectedObjects uint32 `json:"num_detected_objects"`
	NumTLVs            uint32 `json:"num_tlvs"`

	SubframeNumber uint32 `json:"subframe_number,omitempty"`
	HasSubframe    bool   `json:"-"`
}

// Length returns the on-wire header size implied by the version field.
func (h FrameHeader) Length() int {
	return headerLengthForVersion(h.Version)
}

func headerLengthForVersion(version uint32) int {
	if version <= VersionSubframeCutoff {
		return HeaderLengthShort
	}
	return HeaderLengthFull
}

// DecodeHeader interprets the header at the start of data, which must begin
// with the magic word. It fails when data is too short for the fields the
// version implies; out-of-range field values are the caller's concern (the
// synchroniser validates TotalLength before a frame reaches this point).
func DecodeHeader(data []byte) (FrameHeader, error) {
	if len(data) < MagicLength+8 {
		return FrameHeader{}, fmt.Errorf("header: need %d bytes to read version and length, have %d", MagicLength+8, len(data))
	}

	var h FrameHeader
	h.Version = binary.LittleEndian.Uint32(data[8:12])

	need := headerLengthForVersion(h.Version)
	if len(data) < need {
		return FrameHeader{}, fmt.Errorf("header: version %#08x implies %d byte header, have %d", h.Version, need, len(data))
	}

	h.TotalLength = binary.LittleEndian.Uint32(data[12:16])
	h.Platform = binary.LittleEndian.Uint32(data[16:20])
	h.FrameNumber = binary.LittleEndian.Uint32(data[20:24])
	h.CPUCycles = binary.LittleEndian.Uint32(data[24:28])
	h.NumDetectedObjects = binary.LittleEndian.Uint32(data[28:32])
	h.NumTLVs = binary.LittleEndian.Uint32(data[32:36])

	if need == HeaderLengthFull {
		h.SubframeNumber = binary.LittleEndian.Uint32(data[36:40])
		h.HasSubframe = true
	}

	return h, nil
}
