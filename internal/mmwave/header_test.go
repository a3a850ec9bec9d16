package mmwave

import (
	"encoding/binary"
	"testing"
)

func encodeTestHeader(version uint32, fields ...uint32) []byte {
	out := append([]byte{}, magicWord...)
	out = binary.LittleEndian.AppendUint32(out, version)
	for _, f := range fields {
		out = binary.LittleEndian.AppendUint32(out, f)
	}
	return out
}

func TestDecodeHeaderFullLayout(t *testing.T) {
	// total, platform, frame, cpu, numDet, numTLVs, subframe
	data := encodeTestHeader(0x03060000, 120, 0xA6843, 77, 999, 4, 2, 1)

	h, err := DecodeHeader(data)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if h.Length() != HeaderLengthFull {
		t.Errorf("header length = %d, want %d", h.Length(), HeaderLengthFull)
	}
	if !h.HasSubframe || h.SubframeNumber != 1 {
		t.Errorf("subframe = (%v, %d), want (true, 1)", h.HasSubframe, h.SubframeNumber)
	}
	if h.TotalLength != 120 || h.FrameNumber != 77 || h.NumDetectedObjects != 4 || h.NumTLVs != 2 {
		t.Errorf("decoded header = %+v", h)
	}
}

func TestDecodeHeaderShortLayout(t *testing.T) {
	data := encodeTestHeader(0x01000005, 36, 0xA6843, 5, 0, 0, 0)

	h, err := DecodeHeader(data)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if h.Length() != HeaderLengthShort {
		t.Errorf("header length = %d, want %d", h.Length(), HeaderLengthShort)
	}
	if h.HasSubframe {
		t.Error("subframe decoded for short layout")
	}
}

func TestDecodeHeaderInsufficientBytes(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"magic only", magicWord},
		{"version only", encodeTestHeader(0x03060000)},
		{"full version short data", encodeTestHeader(0x03060000, 120, 0, 0, 0, 0, 0)}, // 36 bytes, needs 40
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeHeader(tc.data); err == nil {
				t.Errorf("DecodeHeader(%d bytes) succeeded, want error", len(tc.data))
			}
		})
	}
}

func TestHeaderLengthBoundary(t *testing.T) {
	if got := headerLengthForVersion(VersionSubframeCutoff); got != HeaderLengthShort {
		t.Errorf("length at cutoff = %d, want %d", got, HeaderLengthShort)
	}
	if got := headerLengthForVersion(VersionSubframeCutoff + 1); got != HeaderLengthFull {
		t.Errorf("length above cutoff = %d, want %d", got, HeaderLengthFull)
	}
}
