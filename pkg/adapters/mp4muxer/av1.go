package mp4muxer

import (
	"fmt"

	"github.com/Eyevinn/mp4ff/av1"
	"github.com/Eyevinn/mp4ff/mp4"
)

// OBU types.
const (
	obuSequenceHeader    = 1
	obuTemporalDelimiter = 2
)

// obu is one parsed OBU span within a temporal unit.
type obu struct {
	typ        byte
	start, end int
}

// parseOBUs splits a low-overhead bitstream temporal unit into OBUs.
func parseOBUs(data []byte) []obu {
	var out []obu
	offset := 0
	for offset < len(data) {
		start := offset
		header := data[offset]
		typ := (header >> 3) & 0x0F
		hasExtension := (header>>2)&0x01 == 1
		hasSize := (header>>1)&0x01 == 1
		offset++
		if hasExtension {
			offset++
		}

		var size int
		if hasSize {
			size, offset = readLeb128(data, offset)
		} else {
			size = len(data) - offset
		}
		end := offset + size
		if end > len(data) || size < 0 {
			end = len(data)
		}
		out = append(out, obu{typ: typ, start: start, end: end})
		offset = end
	}
	return out
}

// readLeb128 reads a LEB128 encoded value.
func readLeb128(data []byte, offset int) (int, int) {
	value := 0
	for i := 0; i < 8 && offset < len(data); i++ {
		b := data[offset]
		offset++
		value |= int(b&0x7F) << (i * 7)
		if b&0x80 == 0 {
			break
		}
	}
	return value, offset
}

// av1Config builds the av1C box from the sequence header OBU of a keyframe.
func av1Config(keyframe []byte) (*mp4.Av1CBox, error) {
	var seqHdr []byte
	for _, o := range parseOBUs(keyframe) {
		if o.typ == obuSequenceHeader {
			seqHdr = keyframe[o.start:o.end]
			break
		}
	}
	if seqHdr == nil {
		return nil, fmt.Errorf("sequence header not found in first keyframe")
	}

	return &mp4.Av1CBox{
		CodecConfRec: av1.CodecConfRec{
			Version:              1,
			SeqProfile:           0,
			SeqLevelIdx0:         seqLevelIdx(seqHdr),
			SeqTier0:             0,
			HighBitdepth:         0,
			TwelveBit:            0,
			MonoChrome:           0,
			ChromaSubsamplingX:   1, // 4:2:0
			ChromaSubsamplingY:   1,
			ChromaSamplePosition: 0,
			ConfigOBUs:           seqHdr,
		},
	}, nil
}

// seqLevelIdx reads seq_level_idx[0] from a sequence header OBU with
// reduced_still_picture_header or a single operating point without timing info.
// Other layouts fall back to level 4.0.
func seqLevelIdx(seqHdr []byte) byte {
	const fallback = 8
	if len(seqHdr) < 2 {
		return fallback
	}
	payload := 1
	if (seqHdr[0]>>2)&0x01 == 1 {
		payload++
	}
	if (seqHdr[0]>>1)&0x01 == 1 {
		_, payload = readLeb128(seqHdr, payload)
	}
	if payload+1 >= len(seqHdr) {
		return fallback
	}
	// seq_profile(3) still_picture(1) reduced_still_picture_header(1) ...
	b0, b1 := seqHdr[payload], seqHdr[payload+1]
	reduced := (b0>>3)&0x01 == 1
	if reduced {
		// seq_level_idx[0] follows directly: 5 bits starting at bit 5 of the first byte
		return ((b0 & 0x07) << 2) | (b1 >> 6)
	}
	timingInfo := (b0>>2)&0x01 == 1
	if timingInfo {
		return fallback
	}
	// initial_display_delay_present(1) operating_points_cnt_minus_1(5) operating_point_idc[0](12) seq_level_idx[0](5)
	if payload+3 >= len(seqHdr) {
		return fallback
	}
	bits := uint32(seqHdr[payload])<<24 | uint32(seqHdr[payload+1])<<16 | uint32(seqHdr[payload+2])<<8 | uint32(seqHdr[payload+3])
	// skip 3+1+1+1 (profile, still, reduced, timing) + 1 (display delay) + 5 (op count) + 12 (idc) = 24 bits
	return byte((bits >> 3) & 0x1F)
}

// stripTemporalDelimiters removes temporal delimiter OBUs, which must not appear in MP4 samples.
func stripTemporalDelimiters(data []byte) []byte {
	obus := parseOBUs(data)
	out := make([]byte, 0, len(data))
	for _, o := range obus {
		if o.typ == obuTemporalDelimiter {
			continue
		}
		out = append(out, data[o.start:o.end]...)
	}
	return out
}
